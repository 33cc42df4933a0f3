// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"github.com/ManuGH/mediagate/internal/capability"
	"github.com/ManuGH/mediagate/internal/media"
)

// Categories returns the configured runtime categories. Entries that fail
// to parse are skipped; Validate reports them.
func (c AppConfig) Categories() []media.Category {
	out := make([]media.Category, 0, len(c.Runtime.Categories))
	for _, raw := range c.Runtime.Categories {
		if cat, err := media.ParseCategory(raw); err == nil {
			out = append(out, cat)
		}
	}
	return out
}

// Probe builds the capability probe for one negotiation. When the caller
// supplies native type-query answers they are authoritative and the declared
// client capabilities only settle answers the runtime leaves open.
func (c AppConfig) Probe(canPlay map[string]string) capability.Probe {
	categories := c.Categories()
	client := capability.NewClient(categories, c.Client.Containers, c.Client.VideoCodecs, c.Client.AudioCodecs)
	if len(canPlay) == 0 {
		return capability.Chain{client}
	}
	query := capability.AnswerTable(canPlay)
	runtime := capability.Runtime{Queries: make(map[media.Category]capability.CanPlayTypeFunc, len(categories))}
	for _, cat := range categories {
		runtime.Queries[cat] = query
	}
	return capability.Chain{runtime, client}
}

// DeviceFor detects quirks from userAgent, falling back to the configured
// user agent, and applies the configured forced quirks on top.
func (c AppConfig) DeviceFor(userAgent string) capability.Device {
	if userAgent == "" {
		userAgent = c.Device.UserAgent
	}
	return capability.DetectDevice(userAgent).Merge(capability.Device{
		UnreliableTypeProbe: c.Device.UnreliableTypeProbe,
		RequiresActivation:  c.Device.RequiresActivation,
	})
}

// ExtensionTable returns the extension table with configured overrides.
func (c AppConfig) ExtensionTable() media.ExtensionTable {
	return media.NewExtensionTable(c.Extensions)
}
