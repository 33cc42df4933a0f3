// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package surface provides a simulated display surface that emulates how
// media runtimes walk a candidate list and report readiness and failure.
package surface

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ManuGH/mediagate/internal/media"
)

// ErrSourceFailed is the error reported when a candidate cannot be played.
var ErrSourceFailed = errors.New("media source failed")

// Family selects how the simulated runtime reports candidate failures.
type Family int

const (
	// FamilyPerSource raises an error for every failed candidate and keeps
	// the current source on the candidate that failed.
	FamilyPerSource Family = iota
	// FamilyFinalOnly stays silent while candidates remain and raises a single
	// error with an empty current source once the list is exhausted.
	FamilyFinalOnly
)

// ParseFamily parses "per-source" or "final-only".
func ParseFamily(raw string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "per-source", "per_source":
		return FamilyPerSource, nil
	case "final-only", "final_only":
		return FamilyFinalOnly, nil
	default:
		return 0, fmt.Errorf("unknown runtime family %q", raw)
	}
}

func (f Family) String() string {
	if f == FamilyFinalOnly {
		return "final-only"
	}
	return "per-source"
}

// Option configures a Simulated surface.
type Option func(*Simulated)

// WithDefaultSource attaches a single default source to the surface.
func WithDefaultSource(src media.Source) Option {
	return func(s *Simulated) {
		s.def = &src
	}
}

// WithFailing marks URIs the runtime will fail to play.
func WithFailing(uris ...string) Option {
	return func(s *Simulated) {
		for _, u := range uris {
			if u = strings.TrimSpace(u); u != "" {
				s.failing[u] = true
			}
		}
	}
}

// WithBaseURL makes the runtime report resolved absolute URLs for relative
// candidates, the way browsers report their current source.
func WithBaseURL(base string) Option {
	return func(s *Simulated) {
		s.baseURL = strings.TrimSuffix(base, "/")
	}
}

// Simulated is an in-memory Surface. Handlers are invoked without the
// surface lock held.
type Simulated struct {
	mu       sync.Mutex
	category media.Category
	family   Family
	def      *media.Source
	baseURL  string
	failing  map[string]bool

	sources []media.Source
	pos     int
	current string
	plays   int

	nextID   int
	ready    map[int]func()
	errs     map[int]func(error)
	activate map[int]func()
}

// NewSimulated creates a surface for category that behaves like family.
func NewSimulated(category media.Category, family Family, opts ...Option) *Simulated {
	s := &Simulated{
		category: category,
		family:   family,
		failing:  map[string]bool{},
		ready:    map[int]func(){},
		errs:     map[int]func(error){},
		activate: map[int]func(){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulated) Category() media.Category { return s.category }

func (s *Simulated) DefaultSource() (media.Source, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.def == nil {
		return media.Source{}, false
	}
	return *s.def, true
}

// ReplaceSources installs the candidate list and rewinds the runtime to its
// first entry.
func (s *Simulated) ReplaceSources(sources []media.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append([]media.Source(nil), sources...)
	s.pos = 0
	s.current = ""
	if len(s.sources) > 0 {
		s.current = s.resolve(s.sources[0].URI)
	}
}

// Sources returns the installed candidate list.
func (s *Simulated) Sources() []media.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]media.Source(nil), s.sources...)
}

func (s *Simulated) Play() {
	s.mu.Lock()
	s.plays++
	s.mu.Unlock()
}

// Plays returns how often Play was requested.
func (s *Simulated) Plays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays
}

func (s *Simulated) CurrentSourceURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetCurrentSourceURI overrides the reported current source.
func (s *Simulated) SetCurrentSourceURI(uri string) {
	s.mu.Lock()
	s.current = uri
	s.mu.Unlock()
}

func (s *Simulated) OnReadyOnce(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.ready[id] = fn
	return s.detacher(func() { delete(s.ready, id) })
}

func (s *Simulated) OnError(fn func(error)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.errs[id] = fn
	return s.detacher(func() { delete(s.errs, id) })
}

func (s *Simulated) OnUserActivate(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.activate[id] = fn
	return s.detacher(func() { delete(s.activate, id) })
}

func (s *Simulated) detacher(remove func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			remove()
			s.mu.Unlock()
		})
	}
}

// Listeners returns the number of registered handlers.
func (s *Simulated) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ready) + len(s.errs) + len(s.activate)
}

// FireReady reports readiness to every ready handler once.
func (s *Simulated) FireReady() {
	s.mu.Lock()
	fns := drain(s.ready)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// FireError reports err to every error handler.
func (s *Simulated) FireError(err error) {
	s.mu.Lock()
	fns := make([]func(error), 0, len(s.errs))
	for _, id := range sortedKeys(s.errs) {
		fns = append(fns, s.errs[id])
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}

// Activate simulates a direct user interaction with the surface.
func (s *Simulated) Activate() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.activate))
	for _, id := range sortedKeys(s.activate) {
		fns = append(fns, s.activate[id])
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Advance performs one step of the runtime's own source selection: the
// current candidate either becomes ready or fails. It reports whether the
// runtime has more candidates to try.
func (s *Simulated) Advance() bool {
	s.mu.Lock()
	if s.pos >= len(s.sources) {
		s.mu.Unlock()
		return false
	}
	raw := s.sources[s.pos].URI
	s.current = s.resolve(raw)
	if !s.failing[raw] {
		s.pos = len(s.sources)
		s.mu.Unlock()
		s.FireReady()
		return false
	}

	s.pos++
	more := s.pos < len(s.sources)
	next := ""
	if more {
		next = s.resolve(s.sources[s.pos].URI)
	}
	failure := fmt.Errorf("%w: %s", ErrSourceFailed, raw)

	switch {
	case s.family == FamilyPerSource:
		s.mu.Unlock()
		s.FireError(failure)
		if more {
			s.SetCurrentSourceURI(next)
		}
	case more:
		s.current = next
		s.mu.Unlock()
	default:
		s.current = ""
		s.mu.Unlock()
		s.FireError(failure)
	}
	return more
}

// Run advances the runtime until it settles on a candidate or runs out.
func (s *Simulated) Run() {
	for s.Advance() {
	}
}

func (s *Simulated) resolve(uri string) string {
	if s.baseURL == "" || strings.Contains(uri, "://") {
		return uri
	}
	return s.baseURL + "/" + strings.TrimPrefix(uri, "/")
}

func drain(m map[int]func()) []func() {
	out := make([]func(), 0, len(m))
	for _, id := range sortedKeys(m) {
		out = append(out, m[id])
		delete(m, id)
	}
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
