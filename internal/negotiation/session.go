// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package negotiation

import (
	"math"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/mediagate/internal/media"
)

// session is the mutable state of one load attempt. It is owned by the
// Negotiator that created it and guarded by the Negotiator's mutex.
type session struct {
	id       string
	surface  Surface
	category media.Category
	state    State
	plan     Plan
	detach   []func()
	logger   zerolog.Logger
}

// selected returns the surviving candidate the runtime is playing, falling
// back to the first survivor when the runtime does not report a match.
func (s *session) selected(currentURI string) media.Source {
	if i, ok := s.match(currentURI); ok {
		return s.plan.Candidates[i]
	}
	return s.plan.Candidates[0]
}

// exhausted reports whether a failure while the runtime sits on currentURI
// means no candidate is left. Runtimes disagree: some leave the current
// source on the last candidate tried, some clear it entirely. A failure on
// an unrecognised URI is not terminal.
func (s *session) exhausted(currentURI string) bool {
	if strings.TrimSpace(currentURI) == "" {
		return true
	}
	i, ok := s.match(currentURI)
	return ok && s.plan.Candidates[i].URI == s.plan.LastResortURI
}

// match returns the index of the candidate that best explains currentURI.
// An exact match wins outright; otherwise the longest path suffix does, so
// "hd/clip.mp4" is preferred over "clip.mp4". Ties go to the earlier
// candidate.
func (s *session) match(currentURI string) (int, bool) {
	best, bestScore := -1, 0
	for i, c := range s.plan.Candidates {
		if score := matchScore(currentURI, c.URI); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, best >= 0
}

// matchScore rates how specifically a runtime-reported URI names candidate;
// zero means no match. Runtimes report resolved absolute URLs, so a relative
// candidate matches when it is a path suffix of the reported URI, scored by
// its length. Both sides are compared in NFC form.
func matchScore(reported, candidate string) int {
	reported, candidate = strings.TrimSpace(reported), strings.TrimSpace(candidate)
	if reported == "" || candidate == "" {
		return 0
	}
	reported, candidate = norm.NFC.String(reported), norm.NFC.String(candidate)
	if reported == candidate {
		return math.MaxInt
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(candidate, "./"), "/")
	if rel == "" || !strings.HasSuffix(reported, "/"+rel) {
		return 0
	}
	return len(rel)
}

func runAll(fns []func()) {
	for _, fn := range fns {
		if fn != nil {
			fn()
		}
	}
}
