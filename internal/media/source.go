// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package media holds the candidate source model shared by the probe and the
// negotiator.
package media

import (
	"fmt"
	"strings"
)

// Category is the playback category a display surface belongs to.
type Category string

const (
	CategoryAudio Category = "audio"
	CategoryVideo Category = "video"
)

// ParseCategory parses a category name case-insensitively.
func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryAudio:
		return CategoryAudio, nil
	case CategoryVideo:
		return CategoryVideo, nil
	default:
		return "", fmt.Errorf("unknown media category %q", raw)
	}
}

func (c Category) String() string { return string(c) }

// Source is one candidate media location with an optional type hint.
type Source struct {
	URI      string `json:"uri"`
	MimeType string `json:"type,omitempty"`
	Media    string `json:"media,omitempty"`
}

// Valid reports whether the source can take part in negotiation.
func (s Source) Valid() bool {
	return strings.TrimSpace(s.URI) != ""
}

// WithoutType returns a copy of s with the type hint cleared.
func (s Source) WithoutType() Source {
	s.MimeType = ""
	return s
}

// FilterValid drops sources with an empty URI, preserving input order.
func FilterValid(sources []Source) []Source {
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		if !s.Valid() {
			continue
		}
		s.URI = strings.TrimSpace(s.URI)
		s.MimeType = strings.TrimSpace(s.MimeType)
		out = append(out, s)
	}
	return out
}

// URIs returns the URIs of sources in order.
func URIs(sources []Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.URI
	}
	return out
}
