// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capability

import (
	"strings"

	"github.com/ManuGH/mediagate/internal/media"
)

// CanPlayTypeFunc is a runtime's native type query. It answers "probably",
// "maybe", or "" (some runtimes answer "no" instead of "").
type CanPlayTypeFunc func(mimeType string) string

// Runtime probes a host runtime through its per-category type query.
// A category without a query func is treated as having no playback
// capability at all.
type Runtime struct {
	Queries map[media.Category]CanPlayTypeFunc
}

// SupportsCategory reports whether the runtime exposes a type query for category.
func (r Runtime) SupportsCategory(category media.Category) bool {
	return r.Queries[category] != nil
}

// SupportsType routes the query to the category named by the MIME top-level
// type. Types outside audio/video (playlists, manifests) are asked of every
// category and any positive answer wins.
func (r Runtime) SupportsType(mimeType string) Verdict {
	pt, ok := parseType(mimeType)
	if !ok {
		return Unknown
	}
	switch pt.topLevel {
	case string(media.CategoryAudio), string(media.CategoryVideo):
		return ask(r.Queries[media.Category(pt.topLevel)], mimeType)
	}

	out := Unknown
	for _, q := range r.Queries {
		switch ask(q, mimeType) {
		case Playable:
			return Playable
		case NotPlayable:
			out = NotPlayable
		}
	}
	return out
}

func ask(q CanPlayTypeFunc, mimeType string) (v Verdict) {
	if q == nil {
		return Unknown
	}
	defer func() {
		if recover() != nil {
			v = Unknown
		}
	}()
	return VerdictFromAnswer(q(mimeType))
}

// VerdictFromAnswer maps a native type query answer to a Verdict.
func VerdictFromAnswer(answer string) Verdict {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "probably", "maybe":
		return Playable
	case "", "no":
		return NotPlayable
	default:
		return Unknown
	}
}

// AnswerTable builds a CanPlayTypeFunc from a fixed answer table keyed by MIME
// type. Lookups first try the full string and then the bare media type, so
// "video/mp4" also answers for `video/mp4; codecs="avc1"` when no codec
// specific entry exists.
func AnswerTable(answers map[string]string) CanPlayTypeFunc {
	norm := make(map[string]string, len(answers))
	for k, v := range answers {
		norm[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return func(mimeType string) string {
		key := strings.ToLower(strings.TrimSpace(mimeType))
		if a, ok := norm[key]; ok {
			return a
		}
		if base, _, ok := strings.Cut(key, ";"); ok {
			return norm[strings.TrimSpace(base)]
		}
		return ""
	}
}
