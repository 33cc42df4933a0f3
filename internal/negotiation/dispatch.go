// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package negotiation

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalTransition = errors.New("illegal transition")
	ErrNilProbe          = errors.New("capability probe is required")
	ErrNilSurface        = errors.New("display surface is required")
)

// Dispatch resolves the transition for state+event from the tables.
// Forbidden or unmapped combinations return ErrIllegalTransition and leave
// the state unchanged.
func Dispatch(from State, ev EventKind) (Transition, error) {
	decision, ok := DecisionFor(from, ev)
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s + %s (no decision)", ErrIllegalTransition, from, ev)
	}
	if !decision.Allowed {
		return Transition{}, fmt.Errorf("%w: %s + %s (%s)", ErrIllegalTransition, from, ev, decision.Reason)
	}
	tr, ok := TransitionFor(from, ev)
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s + %s (no edge)", ErrIllegalTransition, from, ev)
	}
	return tr, nil
}
