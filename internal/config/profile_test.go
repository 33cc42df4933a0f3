// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/mediagate/internal/capability"
	"github.com/ManuGH/mediagate/internal/media"
)

const androidUA = "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"

func TestAppConfig_ProbeWithoutAnswersUsesClient(t *testing.T) {
	cfg := Defaults()
	cfg.Runtime.Categories = []string{"video"}
	cfg.Client.Containers = []string{"webm"}

	p := cfg.Probe(nil)

	assert.True(t, p.SupportsCategory(media.CategoryVideo))
	assert.False(t, p.SupportsCategory(media.CategoryAudio))
	assert.Equal(t, capability.Playable, p.SupportsType("video/webm"))
	assert.Equal(t, capability.NotPlayable, p.SupportsType("video/quicktime"))
}

func TestAppConfig_ProbeAnswersAreAuthoritative(t *testing.T) {
	cfg := Defaults()
	cfg.Client.Containers = []string{"mp4"}

	p := cfg.Probe(map[string]string{"video/webm": "probably", "video/mp4": "who knows"})

	assert.Equal(t, capability.Playable, p.SupportsType("video/webm"))
	// The runtime leaves mp4 open, so the declared client settles it.
	assert.Equal(t, capability.Playable, p.SupportsType("video/mp4"))
	assert.Equal(t, capability.NotPlayable, p.SupportsType("video/ogg"))
}

func TestAppConfig_DeviceFor(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, capability.Device{}, cfg.DeviceFor(""))

	d := cfg.DeviceFor(androidUA)
	assert.True(t, d.UnreliableTypeProbe)
	assert.True(t, d.RequiresActivation)

	cfg.Device.UserAgent = androidUA
	assert.True(t, cfg.DeviceFor("").UnreliableTypeProbe)

	cfg = Defaults()
	cfg.Device.RequiresActivation = true
	d = cfg.DeviceFor("Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0")
	assert.True(t, d.RequiresActivation)
	assert.False(t, d.UnreliableTypeProbe)
}

func TestAppConfig_ExtensionTable(t *testing.T) {
	cfg := Defaults()
	cfg.Extensions = map[string]string{".ts": "video/mp2t"}

	assert.Equal(t, "video/mp2t", cfg.ExtensionTable().InferType("https://cdn.example/seg.ts?x=1"))
}
