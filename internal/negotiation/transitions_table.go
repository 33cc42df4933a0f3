// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package negotiation

// Transition is a single allowed edge in the negotiation state machine.
type Transition struct {
	From  State
	To    State
	Event EventKind
}

// Decision records whether a transition is allowed and why it is forbidden.
type Decision struct {
	Allowed bool
	Reason  string
}

var transitionsTable = []Transition{
	// Load path
	{From: StateIdle, To: StateProbingCategory, Event: EvLoad},
	{From: StateIdle, To: StateUnsupported, Event: EvCandidatesExhausted},
	{From: StateProbingCategory, To: StatePruningSources, Event: EvCategorySupported},
	{From: StateProbingCategory, To: StateNoCapability, Event: EvCategoryUnsupported},
	{From: StatePruningSources, To: StateAwaitingReadiness, Event: EvCandidatesSurvived},
	{From: StatePruningSources, To: StateUnsupported, Event: EvCandidatesExhausted},

	// Runtime signals
	{From: StateAwaitingReadiness, To: StateReady, Event: EvReadinessReported},
	{From: StateAwaitingReadiness, To: StateUnsupported, Event: EvLastResortFailed},

	// Cancellation
	{From: StateProbingCategory, To: StateCancelled, Event: EvCancel},
	{From: StatePruningSources, To: StateCancelled, Event: EvCancel},
	{From: StateAwaitingReadiness, To: StateCancelled, Event: EvCancel},
}

// TransitionFor returns the allowed transition for a given state+event.
func TransitionFor(from State, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}
