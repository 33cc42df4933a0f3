// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package negotiation

const (
	ForbiddenTerminalAbsorbing = "terminal_absorbing"
	ForbiddenOutOfOrder        = "out_of_order"
	ForbiddenRequiresLoad      = "requires_load"
	ForbiddenAlreadyInState    = "already_in_state"
)

func allowed() Decision        { return Decision{Allowed: true} }
func forbid(r string) Decision { return Decision{Allowed: false, Reason: r} }

func absorbing() map[EventKind]Decision {
	m := make(map[EventKind]Decision, len(AllEvents))
	for _, ev := range AllEvents {
		m[ev] = forbid(ForbiddenTerminalAbsorbing)
	}
	return m
}

// decisionTable defines an explicit decision for every State×Event combination.
var decisionTable = map[State]map[EventKind]Decision{
	StateIdle: {
		EvLoad:                allowed(),
		EvCategorySupported:   forbid(ForbiddenRequiresLoad),
		EvCategoryUnsupported: forbid(ForbiddenRequiresLoad),
		EvCandidatesSurvived:  forbid(ForbiddenRequiresLoad),
		EvCandidatesExhausted: allowed(),
		EvReadinessReported:   forbid(ForbiddenRequiresLoad),
		EvLastResortFailed:    forbid(ForbiddenRequiresLoad),
		EvCancel:              forbid(ForbiddenRequiresLoad),
	},
	StateProbingCategory: {
		EvLoad:                forbid(ForbiddenAlreadyInState),
		EvCategorySupported:   allowed(),
		EvCategoryUnsupported: allowed(),
		EvCandidatesSurvived:  forbid(ForbiddenOutOfOrder),
		EvCandidatesExhausted: forbid(ForbiddenOutOfOrder),
		EvReadinessReported:   forbid(ForbiddenOutOfOrder),
		EvLastResortFailed:    forbid(ForbiddenOutOfOrder),
		EvCancel:              allowed(),
	},
	StatePruningSources: {
		EvLoad:                forbid(ForbiddenAlreadyInState),
		EvCategorySupported:   forbid(ForbiddenAlreadyInState),
		EvCategoryUnsupported: forbid(ForbiddenOutOfOrder),
		EvCandidatesSurvived:  allowed(),
		EvCandidatesExhausted: allowed(),
		EvReadinessReported:   forbid(ForbiddenOutOfOrder),
		EvLastResortFailed:    forbid(ForbiddenOutOfOrder),
		EvCancel:              allowed(),
	},
	StateAwaitingReadiness: {
		EvLoad:                forbid(ForbiddenAlreadyInState),
		EvCategorySupported:   forbid(ForbiddenOutOfOrder),
		EvCategoryUnsupported: forbid(ForbiddenOutOfOrder),
		EvCandidatesSurvived:  forbid(ForbiddenAlreadyInState),
		EvCandidatesExhausted: forbid(ForbiddenOutOfOrder),
		EvReadinessReported:   allowed(),
		EvLastResortFailed:    allowed(),
		EvCancel:              allowed(),
	},
	StateReady:        absorbing(),
	StateUnsupported:  absorbing(),
	StateNoCapability: absorbing(),
	StateCancelled:    absorbing(),
}

// DecisionFor returns the explicit decision for state×event.
func DecisionFor(from State, ev EventKind) (Decision, bool) {
	m, ok := decisionTable[from]
	if !ok {
		return Decision{}, false
	}
	d, ok := m[ev]
	return d, ok
}
