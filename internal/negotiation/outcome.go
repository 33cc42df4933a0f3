// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package negotiation

import "github.com/ManuGH/mediagate/internal/media"

// OutcomeKind is the terminal result of a negotiation session.
type OutcomeKind string

const (
	// OutcomeReady: a candidate survived pruning and the runtime buffered
	// enough data to begin playback.
	OutcomeReady OutcomeKind = "ready"
	// OutcomeUnsupported: the category is playable but every candidate failed.
	OutcomeUnsupported OutcomeKind = "unsupported"
	// OutcomeNoCapability: the runtime cannot play this category at all.
	OutcomeNoCapability OutcomeKind = "no_capability"
)

// Outcome is emitted exactly once per non-cancelled session.
type Outcome struct {
	Kind          OutcomeKind    `json:"outcome"`
	SessionID     string         `json:"session_id"`
	Category      media.Category `json:"category"`
	Selected      *media.Source  `json:"selected,omitempty"`
	Candidates    []media.Source `json:"candidates,omitempty"`
	LastResortURI string         `json:"last_resort_uri,omitempty"`
}
