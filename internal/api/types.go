// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"errors"
	"fmt"

	"github.com/ManuGH/mediagate/internal/journal"
	"github.com/ManuGH/mediagate/internal/media"
	"github.com/ManuGH/mediagate/internal/negotiation"
	"github.com/ManuGH/mediagate/internal/playback"
	"github.com/ManuGH/mediagate/internal/surface"
)

// maxSources bounds the candidate list of one request.
const maxSources = 256

// PlanRequest asks for the synchronous probe and pruning result.
type PlanRequest struct {
	Category      string            `json:"category"`
	UserAgent     string            `json:"user_agent,omitempty"`
	Sources       []media.Source    `json:"sources"`
	DefaultSource *media.Source     `json:"default_source,omitempty"`
	CanPlay       map[string]string `json:"can_play,omitempty"`
}

// NegotiateRequest runs a full negotiation against a simulated runtime.
type NegotiateRequest struct {
	PlanRequest
	Failing []string `json:"failing,omitempty"`
	Family  string   `json:"family,omitempty"`
	BaseURL string   `json:"base_url,omitempty"`
}

// PlanResponse is a plan tagged with the request ID.
type PlanResponse struct {
	RequestID string `json:"request_id"`
	Cached    bool   `json:"cached"`
	negotiation.Plan
}

// NegotiateResponse is a terminal outcome tagged with the request ID.
type NegotiateResponse struct {
	RequestID string `json:"request_id"`
	playback.Result
}

// OutcomeList is the newest-first journal view.
type OutcomeList struct {
	Entries []journal.Entry `json:"entries"`
}

// OutcomeSummary counts retained journal entries per outcome.
type OutcomeSummary struct {
	Counts map[string]int `json:"counts"`
}

func (p PlanRequest) toRequest() (playback.Request, error) {
	cat, err := media.ParseCategory(p.Category)
	if err != nil {
		return playback.Request{}, err
	}
	if len(p.Sources) > maxSources {
		return playback.Request{}, fmt.Errorf("too many sources: %d (max %d)", len(p.Sources), maxSources)
	}
	if p.DefaultSource != nil && !p.DefaultSource.Valid() {
		return playback.Request{}, errors.New("default_source.uri cannot be empty")
	}
	return playback.Request{
		Category:      cat,
		UserAgent:     p.UserAgent,
		Sources:       p.Sources,
		DefaultSource: p.DefaultSource,
		CanPlay:       p.CanPlay,
	}, nil
}

func (n NegotiateRequest) toRequest() (playback.Request, error) {
	req, err := n.PlanRequest.toRequest()
	if err != nil {
		return req, err
	}
	family, err := surface.ParseFamily(n.Family)
	if err != nil {
		return req, err
	}
	req.Failing = n.Failing
	req.Family = family
	req.BaseURL = n.BaseURL
	return req, nil
}

func journalEntry(requestID string, res playback.Result) journal.Entry {
	e := journal.Entry{
		SessionID:     res.SessionID,
		RequestID:     requestID,
		Category:      string(res.Category),
		Outcome:       string(res.Kind),
		Candidates:    len(res.Candidates),
		LastResortURI: res.LastResortURI,
		Platform:      res.Platform,
		Family:        res.Family,
	}
	if res.Selected != nil {
		e.SelectedURI = res.Selected.URI
	}
	return e
}
