// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package negotiation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable_Coverage(t *testing.T) {
	allowedEdges := map[State]map[EventKind]struct{}{}
	for _, tr := range transitionsTable {
		if _, ok := allowedEdges[tr.From]; !ok {
			allowedEdges[tr.From] = map[EventKind]struct{}{}
		}
		if _, exists := allowedEdges[tr.From][tr.Event]; exists {
			t.Fatalf("duplicate transition: %s + %v", tr.From, tr.Event)
		}
		allowedEdges[tr.From][tr.Event] = struct{}{}
	}

	for _, state := range AllStates {
		for _, ev := range AllEvents {
			decision, ok := DecisionFor(state, ev)
			require.True(t, ok, "missing decision for %s + %v", state, ev)
			if _, ok := allowedEdges[state][ev]; ok {
				require.True(t, decision.Allowed, "allowed transition must be marked allowed for %s + %v", state, ev)
				continue
			}
			require.False(t, decision.Allowed, "forbidden transition must be marked forbidden for %s + %v", state, ev)
			require.NotEmpty(t, decision.Reason, "forbidden transition must have reason for %s + %v", state, ev)
		}
	}
}

func TestTransitionTable_TerminalStatesAbsorb(t *testing.T) {
	for _, state := range AllStates {
		if !state.IsTerminal() {
			continue
		}
		for _, ev := range AllEvents {
			_, err := Dispatch(state, ev)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIllegalTransition))
			assert.Contains(t, err.Error(), ForbiddenTerminalAbsorbing)
		}
	}
}

func TestTransitionTable_OnlyCancelledEmitsNothing(t *testing.T) {
	for _, state := range AllStates {
		_, emits := state.Outcome()
		switch {
		case state == StateCancelled:
			assert.False(t, emits)
		case state.IsTerminal():
			assert.True(t, emits, "terminal state %s must map to an outcome", state)
		default:
			assert.False(t, emits, "non-terminal state %s must not emit", state)
		}
	}
}

func TestDispatch_LoadPath(t *testing.T) {
	path := []struct {
		ev   EventKind
		want State
	}{
		{EvLoad, StateProbingCategory},
		{EvCategorySupported, StatePruningSources},
		{EvCandidatesSurvived, StateAwaitingReadiness},
		{EvReadinessReported, StateReady},
	}
	state := StateIdle
	for _, step := range path {
		tr, err := Dispatch(state, step.ev)
		require.NoError(t, err, "%s + %s", state, step.ev)
		require.Equal(t, step.want, tr.To)
		state = tr.To
	}
}

func TestDispatch_UnknownEvent(t *testing.T) {
	_, err := Dispatch(StateIdle, EvUnknown)
	require.ErrorIs(t, err, ErrIllegalTransition)

	_, err = Dispatch(State("bogus"), EvLoad)
	require.ErrorIs(t, err, ErrIllegalTransition)
}
