// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package capability answers whether a runtime can play a media category or a
// specific container/codec type.
package capability

import (
	"mime"
	"strings"

	"github.com/ManuGH/mediagate/internal/media"
)

// Verdict is the answer to a type query.
type Verdict int

const (
	Unknown Verdict = iota
	Playable
	NotPlayable
)

func (v Verdict) String() string {
	switch v {
	case Playable:
		return "playable"
	case NotPlayable:
		return "not_playable"
	default:
		return "unknown"
	}
}

// Probe is the feature-detection contract consumed by the negotiator.
// Implementations are pure and safe for concurrent use.
type Probe interface {
	SupportsCategory(category media.Category) bool
	SupportsType(mimeType string) Verdict
}

// Chain consults probes in order. The first verdict other than Unknown wins.
type Chain []Probe

func (c Chain) SupportsCategory(category media.Category) bool {
	for _, p := range c {
		if p != nil && p.SupportsCategory(category) {
			return true
		}
	}
	return false
}

func (c Chain) SupportsType(mimeType string) Verdict {
	for _, p := range c {
		if p == nil {
			continue
		}
		if v := p.SupportsType(mimeType); v != Unknown {
			return v
		}
	}
	return Unknown
}

// parsedType is a MIME type split into its parts.
type parsedType struct {
	topLevel string
	subtype  string
	codecs   []string
}

func parseType(raw string) (parsedType, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return parsedType{}, false
	}
	mediaType, params, err := mime.ParseMediaType(raw)
	if err != nil {
		return parsedType{}, false
	}
	top, sub, ok := strings.Cut(mediaType, "/")
	if !ok || top == "" || sub == "" {
		return parsedType{}, false
	}
	pt := parsedType{topLevel: top, subtype: sub}
	if c := params["codecs"]; c != "" {
		for _, codec := range strings.Split(c, ",") {
			codec = strings.TrimSpace(codec)
			if codec != "" {
				pt.codecs = append(pt.codecs, codec)
			}
		}
	}
	return pt, true
}
