// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package resilience guards calls to optional backing services.
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/mediagate/internal/log"
	"github.com/ManuGH/mediagate/internal/metrics"
)

// State represents the circuit breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// ErrCircuitOpen is returned by Execute while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// clock abstracts time operations for testability.
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// CircuitBreaker opens after threshold consecutive failures and rejects
// calls until resetTimeout has passed. Then a single probe call is let
// through; its result closes or reopens the breaker.
type CircuitBreaker struct {
	mu           sync.Mutex
	name         string // component label for metrics
	state        State
	failures     int
	threshold    int
	resetTimeout time.Duration
	openedAt     time.Time
	probing      bool
	clock        clock
}

// Option configures a CircuitBreaker.
type Option func(*CircuitBreaker)

func WithClock(c clock) Option {
	return func(cb *CircuitBreaker) { cb.clock = c }
}

// NewCircuitBreaker creates a closed breaker. Non-positive arguments fall
// back to 3 failures and 30 seconds.
func NewCircuitBreaker(name string, threshold int, resetTimeout time.Duration, opts ...Option) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}

	cb := &CircuitBreaker{
		name:         name,
		state:        StateClosed,
		threshold:    threshold,
		resetTimeout: resetTimeout,
		clock:        realClock{},
	}
	for _, opt := range opts {
		opt(cb)
	}

	metrics.SetBreakerState(cb.name, string(cb.state))
	return cb
}

// Execute runs fn unless the breaker is open. Errors for which ignore
// returns true count as successes (a cache miss is not an outage).
func (cb *CircuitBreaker) Execute(fn func() error, ignore ...func(error) bool) error {
	if !cb.allowRequest() {
		metrics.RecordBreakerRejected(cb.name)
		return ErrCircuitOpen
	}

	err := fn()
	if err == nil || ignored(err, ignore) {
		cb.recordSuccess()
		return err
	}
	cb.recordFailure()
	return err
}

func ignored(err error, ignore []func(error) bool) bool {
	for _, fn := range ignore {
		if fn(err) {
			return true
		}
	}
	return false
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.clock.Now().Sub(cb.openedAt) < cb.resetTimeout {
			return false
		}
		cb.transitionTo(StateHalfOpen)
		cb.probing = true
		return true
	default:
		// One probe at a time while half-open.
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	switch {
	case cb.state == StateHalfOpen:
		cb.probing = false
		metrics.RecordBreakerTrip(cb.name, true)
		cb.transitionTo(StateOpen)
	case cb.state == StateClosed && cb.failures >= cb.threshold:
		metrics.RecordBreakerTrip(cb.name, false)
		cb.transitionTo(StateOpen)
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.probing = false
	cb.transitionTo(StateClosed)
}

// transitionTo updates state and metrics. Caller must hold lock.
func (cb *CircuitBreaker) transitionTo(newState State) {
	if cb.state == newState {
		return
	}
	logger := log.WithComponent("resilience")
	ev := logger.Info()
	if newState == StateOpen {
		cb.openedAt = cb.clock.Now()
		ev = logger.Warn().Dur("retry_after", cb.resetTimeout)
	}
	ev.Str(log.FieldEvent, "breaker.transition").
		Str("breaker", cb.name).
		Str(log.FieldOldState, string(cb.state)).
		Str(log.FieldNewState, string(newState)).
		Int("failures", cb.failures).
		Msg("circuit breaker state changed")
	cb.state = newState
	metrics.SetBreakerState(cb.name, string(newState))
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
