// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capability

import (
	"strings"

	"github.com/mssola/useragent"
)

// Device describes runtime quirks that change how probe answers and
// playback start are handled.
type Device struct {
	// UnreliableTypeProbe marks runtimes whose type query answers "" for
	// codecs they can in fact play.
	UnreliableTypeProbe bool
	// RequiresActivation marks runtimes where playback does not start from
	// a user gesture alone and must be requested explicitly.
	RequiresActivation bool
	// Platform is the detected OS name, for logging only.
	Platform string
}

// DetectDevice derives quirk flags from a user agent string.
// Android browsers answer "" to every type query and need an explicit play
// request on activation.
func DetectDevice(userAgent string) Device {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return Device{}
	}
	ua := useragent.New(userAgent)
	platform := ua.OS()
	d := Device{Platform: platform}
	if strings.HasPrefix(strings.ToLower(platform), "android") {
		d.UnreliableTypeProbe = true
		d.RequiresActivation = true
	}
	return d
}

// Merge returns d with any flag set in force also set.
func (d Device) Merge(force Device) Device {
	d.UnreliableTypeProbe = d.UnreliableTypeProbe || force.UnreliableTypeProbe
	d.RequiresActivation = d.RequiresActivation || force.RequiresActivation
	if d.Platform == "" {
		d.Platform = force.Platform
	}
	return d
}
