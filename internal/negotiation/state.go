// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package negotiation

// State is the lifecycle state of one negotiation session.
type State string

const (
	StateIdle              State = "idle"
	StateProbingCategory   State = "probing_category"
	StatePruningSources    State = "pruning_sources"
	StateAwaitingReadiness State = "awaiting_readiness"
	StateReady             State = "ready"
	StateUnsupported       State = "unsupported"
	StateNoCapability      State = "no_capability"
	StateCancelled         State = "cancelled"
)

// AllStates lists every state in lifecycle order.
var AllStates = []State{
	StateIdle,
	StateProbingCategory,
	StatePruningSources,
	StateAwaitingReadiness,
	StateReady,
	StateUnsupported,
	StateNoCapability,
	StateCancelled,
}

// IsTerminal returns true if the state is absorbing.
func (s State) IsTerminal() bool {
	switch s {
	case StateReady, StateUnsupported, StateNoCapability, StateCancelled:
		return true
	}
	return false
}

// Outcome maps a terminal state to the outcome it emits. Cancelled and
// non-terminal states emit nothing.
func (s State) Outcome() (OutcomeKind, bool) {
	switch s {
	case StateReady:
		return OutcomeReady, true
	case StateUnsupported:
		return OutcomeUnsupported, true
	case StateNoCapability:
		return OutcomeNoCapability, true
	default:
		return "", false
	}
}
