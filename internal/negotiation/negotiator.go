// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package negotiation decides which candidate media source a runtime can
// play and reports exactly one terminal outcome per load attempt.
package negotiation

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/mediagate/internal/capability"
	"github.com/ManuGH/mediagate/internal/log"
	"github.com/ManuGH/mediagate/internal/media"
	"github.com/ManuGH/mediagate/internal/metrics"
)

// Config configures a Negotiator.
type Config struct {
	// Probe answers category and type queries. Required.
	Probe capability.Probe
	// Device carries runtime quirk flags. Zero value: no quirks.
	Device capability.Device
	// Extensions infers types for sources without one. Zero value: the
	// built-in extension table.
	Extensions media.ExtensionTable
	// Logger defaults to the "negotiation" component logger.
	Logger *zerolog.Logger

	// Outcome handlers; nil handlers are skipped. They run without the
	// Negotiator's lock held and may call Load or Cancel.
	OnReady        func(Outcome)
	OnUnsupported  func(Outcome)
	OnNoCapability func(Outcome)
}

// Negotiator owns at most one live session at a time. Load must not be
// called from two goroutines at once; observer callbacks may arrive on any
// goroutine.
type Negotiator struct {
	cfg     Config
	planner planner
	logger  zerolog.Logger

	mu      sync.Mutex
	current *session
}

// New creates a Negotiator.
func New(cfg Config) (*Negotiator, error) {
	if cfg.Probe == nil {
		return nil, ErrNilProbe
	}
	logger := log.WithComponent("negotiation")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Negotiator{
		cfg: cfg,
		planner: planner{
			probe:      cfg.Probe,
			device:     cfg.Device,
			extensions: cfg.Extensions,
		},
		logger: logger,
	}, nil
}

// Plan runs the synchronous probe and pruning steps for category and sources
// without a surface and without touching the current session. A non-nil def
// stands in for a surface default source: when valid it replaces sources,
// otherwise it is ignored exactly as Load ignores it.
func (n *Negotiator) Plan(category media.Category, def *media.Source, sources []media.Source) Plan {
	if def == nil {
		return n.planner.plan(category, media.Source{}, false, sources)
	}
	return n.planner.plan(category, *def, true, sources)
}

// State returns the state of the current session, or StateIdle.
func (n *Negotiator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return StateIdle
	}
	return n.current.state
}

// SessionID returns the ID of the current session, or "".
func (n *Negotiator) SessionID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return ""
	}
	return n.current.id
}

// Load starts a new session for surface. A non-terminal prior session is
// cancelled first and never emits. Probing and pruning complete before any
// observer is attached; the terminal outcome is delivered through the Config
// handlers, possibly before Load returns.
func (n *Negotiator) Load(surface Surface, sources []media.Source) error {
	if surface == nil {
		return ErrNilSurface
	}

	n.mu.Lock()
	prev := n.cancelLocked()
	n.mu.Unlock()
	runAll(prev)

	category := surface.Category()
	def, hasDef := surface.DefaultSource()

	n.mu.Lock()
	s := &session{
		id:       uuid.NewString(),
		surface:  surface,
		category: category,
		state:    StateIdle,
		plan:     Plan{Category: category, Candidates: []media.Source{}},
	}
	s.logger = n.logger.With().
		Str(log.FieldSessionID, s.id).
		Str(log.FieldCategory, category.String()).
		Logger()
	n.current = s

	list := n.planner.candidates(&s.plan, def, hasDef, sources)
	metrics.RecordPrunedSources(string(PruneInvalidURI), len(s.plan.Pruned))
	if len(list) == 0 {
		return n.finishLocked(s, EvCandidatesExhausted)
	}

	if err := n.applyLocked(s, EvLoad); err != nil {
		n.mu.Unlock()
		return err
	}
	if !n.planner.probe.SupportsCategory(category) {
		return n.finishLocked(s, EvCategoryUnsupported)
	}
	if err := n.applyLocked(s, EvCategorySupported); err != nil {
		n.mu.Unlock()
		return err
	}

	invalid := len(s.plan.Pruned)
	n.planner.prune(&s.plan, list)
	metrics.RecordPrunedSources(string(PruneNotPlayable), len(s.plan.Pruned)-invalid)
	metrics.RecordQuirkOverrides(s.plan.QuirkOverrides)
	for _, p := range s.plan.Pruned[invalid:] {
		s.logger.Debug().
			Str(log.FieldEvent, "negotiation.pruned").
			Str(log.FieldSourceURI, p.Source.URI).
			Str(log.FieldMimeType, p.MimeType).
			Str(log.FieldVerdict, capability.NotPlayable.String()).
			Msg("candidate not playable")
	}
	if s.plan.QuirkOverrides > 0 {
		s.logger.Debug().
			Str(log.FieldEvent, "negotiation.quirk_override").
			Int("count", s.plan.QuirkOverrides).
			Msg("kept candidates despite unreliable type probe")
	}
	if len(s.plan.Candidates) == 0 {
		return n.finishLocked(s, EvCandidatesExhausted)
	}

	if err := n.applyLocked(s, EvCandidatesSurvived); err != nil {
		n.mu.Unlock()
		return err
	}
	candidates := append([]media.Source(nil), s.plan.Candidates...)
	s.logger.Debug().
		Str(log.FieldEvent, "negotiation.awaiting").
		Strs(log.FieldCandidates, media.URIs(candidates)).
		Str(log.FieldLastResortURI, s.plan.LastResortURI).
		Msg("awaiting runtime readiness")
	n.mu.Unlock()

	surface.ReplaceSources(candidates)
	n.attach(s)
	return nil
}

// Cancel aborts the current session. No outcome is emitted for it, even if
// its observers fire later.
func (n *Negotiator) Cancel() {
	n.mu.Lock()
	detach := n.cancelLocked()
	n.mu.Unlock()
	runAll(detach)
}

// attach registers this session's observers. Registrations made after the
// session already ended are detached immediately.
func (n *Negotiator) attach(s *session) {
	detach := []func(){
		s.surface.OnError(func(err error) { n.handleError(s, err) }),
		s.surface.OnReadyOnce(func() { n.handleReady(s) }),
	}
	if n.cfg.Device.RequiresActivation {
		detach = append(detach, s.surface.OnUserActivate(func() { n.handleActivate(s) }))
	}

	n.mu.Lock()
	if n.current == s && s.state == StateAwaitingReadiness {
		s.detach = append(s.detach, detach...)
		n.mu.Unlock()
		return
	}
	n.mu.Unlock()
	runAll(detach)
}

func (n *Negotiator) handleReady(s *session) {
	uri := s.surface.CurrentSourceURI()

	n.mu.Lock()
	if n.current != s || s.state != StateAwaitingReadiness {
		n.mu.Unlock()
		return
	}
	selected := s.selected(uri)
	out, detach, ok := n.terminateLocked(s, EvReadinessReported, &selected)
	n.mu.Unlock()

	runAll(detach)
	n.emit(out, ok)
}

func (n *Negotiator) handleError(s *session, err error) {
	uri := s.surface.CurrentSourceURI()

	n.mu.Lock()
	if n.current != s || s.state != StateAwaitingReadiness {
		n.mu.Unlock()
		metrics.RecordRuntimeError("stale")
		return
	}
	if !s.exhausted(uri) {
		s.logger.Debug().
			Err(err).
			Str(log.FieldEvent, "negotiation.runtime_error_ignored").
			Str(log.FieldSourceURI, uri).
			Msg("candidate failed, runtime advances to next source")
		n.mu.Unlock()
		metrics.RecordRuntimeError("ignored")
		return
	}
	s.logger.Debug().
		Err(err).
		Str(log.FieldEvent, "negotiation.runtime_error_terminal").
		Str(log.FieldSourceURI, uri).
		Msg("last candidate failed")
	out, detach, ok := n.terminateLocked(s, EvLastResortFailed, nil)
	n.mu.Unlock()

	metrics.RecordRuntimeError("terminal")
	runAll(detach)
	n.emit(out, ok)
}

func (n *Negotiator) handleActivate(s *session) {
	n.mu.Lock()
	live := n.current == s && s.state == StateAwaitingReadiness
	n.mu.Unlock()
	if !live {
		return
	}
	s.logger.Debug().Str(log.FieldEvent, "negotiation.activation_nudge").Msg("requesting playback on user activation")
	s.surface.Play()
}

// finishLocked applies a terminal event during Load, releases the lock and
// emits the outcome.
func (n *Negotiator) finishLocked(s *session, ev EventKind) error {
	out, detach, ok := n.terminateLocked(s, ev, nil)
	n.mu.Unlock()
	runAll(detach)
	n.emit(out, ok)
	return nil
}

// applyLocked applies a non-terminal transition to s.
func (n *Negotiator) applyLocked(s *session, ev EventKind) error {
	tr, err := Dispatch(s.state, ev)
	if err != nil {
		metrics.RecordIllegalTransition()
		s.logger.Error().
			Err(err).
			Str(log.FieldEvent, "negotiation.illegal_transition").
			Str(log.FieldOldState, string(s.state)).
			Msg("rejected state transition")
		return fmt.Errorf("negotiation %s: %w", s.id, err)
	}
	s.logger.Debug().
		Str(log.FieldEvent, "negotiation.transition").
		Str(log.FieldOldState, string(tr.From)).
		Str(log.FieldNewState, string(tr.To)).
		Msg("state transition")
	metrics.RecordTransition(string(tr.From), string(tr.To))
	s.state = tr.To
	return nil
}

// terminateLocked moves s into a terminal state and hands back its observer
// detach funcs. ok is false when nothing must be emitted.
func (n *Negotiator) terminateLocked(s *session, ev EventKind, selected *media.Source) (Outcome, []func(), bool) {
	if err := n.applyLocked(s, ev); err != nil {
		return Outcome{}, nil, false
	}
	detach := s.detach
	s.detach = nil

	kind, ok := s.state.Outcome()
	if !ok {
		return Outcome{}, detach, false
	}
	s.plan.Terminal = kind
	out := Outcome{
		Kind:          kind,
		SessionID:     s.id,
		Category:      s.category,
		Selected:      selected,
		Candidates:    append([]media.Source(nil), s.plan.Candidates...),
		LastResortURI: s.plan.LastResortURI,
	}
	metrics.RecordNegotiationOutcome(string(kind), s.category.String())

	entry := s.logger.Info().
		Str(log.FieldEvent, "negotiation.terminal").
		Str(log.FieldOutcome, string(kind))
	if selected != nil {
		entry = entry.Str(log.FieldSourceURI, selected.URI)
	}
	entry.Msg("negotiation finished")
	return out, detach, true
}

// cancelLocked cancels the current session if it is still live and returns
// its detach funcs.
func (n *Negotiator) cancelLocked() []func() {
	s := n.current
	if s == nil || s.state.IsTerminal() || s.state == StateIdle {
		return nil
	}
	if err := n.applyLocked(s, EvCancel); err != nil {
		return nil
	}
	metrics.RecordNegotiationCancelled()
	detach := s.detach
	s.detach = nil
	return detach
}

func (n *Negotiator) emit(out Outcome, ok bool) {
	if !ok {
		return
	}
	switch out.Kind {
	case OutcomeReady:
		if n.cfg.OnReady != nil {
			n.cfg.OnReady(out)
		}
	case OutcomeUnsupported:
		if n.cfg.OnUnsupported != nil {
			n.cfg.OnUnsupported(out)
		}
	case OutcomeNoCapability:
		if n.cfg.OnNoCapability != nil {
			n.cfg.OnNoCapability(out)
		}
	}
}
