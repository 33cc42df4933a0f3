// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package negotiation

// EventKind is a domain event in the negotiation lifecycle.
type EventKind int

const (
	EvUnknown EventKind = iota
	EvLoad
	EvCategorySupported
	EvCategoryUnsupported
	EvCandidatesSurvived
	EvCandidatesExhausted
	EvReadinessReported
	EvLastResortFailed
	EvCancel
)

// AllEvents lists every dispatchable event.
var AllEvents = []EventKind{
	EvLoad,
	EvCategorySupported,
	EvCategoryUnsupported,
	EvCandidatesSurvived,
	EvCandidatesExhausted,
	EvReadinessReported,
	EvLastResortFailed,
	EvCancel,
}

func (e EventKind) String() string {
	switch e {
	case EvLoad:
		return "load"
	case EvCategorySupported:
		return "category_supported"
	case EvCategoryUnsupported:
		return "category_unsupported"
	case EvCandidatesSurvived:
		return "candidates_survived"
	case EvCandidatesExhausted:
		return "candidates_exhausted"
	case EvReadinessReported:
		return "readiness_reported"
	case EvLastResortFailed:
		return "last_resort_failed"
	case EvCancel:
		return "cancel"
	default:
		return "unknown"
	}
}
