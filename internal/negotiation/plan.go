// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package negotiation

import (
	"github.com/ManuGH/mediagate/internal/capability"
	"github.com/ManuGH/mediagate/internal/media"
)

// PruneReason explains why a candidate was dropped.
type PruneReason string

const (
	PruneInvalidURI  PruneReason = "invalid_uri"
	PruneNotPlayable PruneReason = "not_playable"
)

// PrunedSource is a candidate removed before readiness observation.
type PrunedSource struct {
	Source   media.Source `json:"source"`
	MimeType string       `json:"type,omitempty"`
	Reason   PruneReason  `json:"reason"`
}

// Plan is the synchronous part of a negotiation: category probe and
// candidate pruning. It never touches a runtime.
type Plan struct {
	Category       media.Category `json:"category"`
	Terminal       OutcomeKind    `json:"terminal,omitempty"`
	Candidates     []media.Source `json:"candidates"`
	Pruned         []PrunedSource `json:"pruned,omitempty"`
	LastResortURI  string         `json:"last_resort_uri,omitempty"`
	QuirkOverrides int            `json:"quirk_overrides,omitempty"`
	FromDefault    bool           `json:"from_default,omitempty"`
}

type planner struct {
	probe      capability.Probe
	device     capability.Device
	extensions media.ExtensionTable
}

// candidates selects the list to negotiate over: the surface default alone
// when present, otherwise the valid entries of sources.
func (p planner) candidates(out *Plan, def media.Source, hasDef bool, sources []media.Source) []media.Source {
	if hasDef && def.Valid() {
		out.FromDefault = true
		return media.FilterValid([]media.Source{def})
	}
	for _, s := range sources {
		if !s.Valid() {
			out.Pruned = append(out.Pruned, PrunedSource{Source: s, Reason: PruneInvalidURI})
		}
	}
	return media.FilterValid(sources)
}

// prune asks the probe about each candidate in order and records survivors
// and the last-resort URI on out.
func (p planner) prune(out *Plan, list []media.Source) {
	for _, s := range list {
		mimeType := p.extensions.Resolve(s)
		if mimeType == "" {
			// Nothing to ask; an unknown extension is kept optimistically.
			out.Candidates = append(out.Candidates, s)
			continue
		}
		verdict := p.probe.SupportsType(mimeType)
		if p.device.UnreliableTypeProbe && verdict != capability.Playable {
			out.Candidates = append(out.Candidates, s.WithoutType())
			out.QuirkOverrides++
			continue
		}
		if verdict == capability.NotPlayable {
			out.Pruned = append(out.Pruned, PrunedSource{Source: s, MimeType: mimeType, Reason: PruneNotPlayable})
			continue
		}
		out.Candidates = append(out.Candidates, s)
	}
	if len(out.Candidates) > 0 {
		// Runtimes walk candidates in order, so only the final survivor's
		// failure means the list is exhausted.
		out.LastResortURI = out.Candidates[len(out.Candidates)-1].URI
	}
}

// plan runs every synchronous step without a surface.
func (p planner) plan(category media.Category, def media.Source, hasDef bool, sources []media.Source) Plan {
	out := Plan{Category: category, Candidates: []media.Source{}}
	list := p.candidates(&out, def, hasDef, sources)
	if len(list) == 0 {
		out.Terminal = OutcomeUnsupported
		return out
	}
	if !p.probe.SupportsCategory(category) {
		out.Terminal = OutcomeNoCapability
		return out
	}
	p.prune(&out, list)
	if len(out.Candidates) == 0 {
		out.Terminal = OutcomeUnsupported
	}
	return out
}
