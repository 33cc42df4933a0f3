// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ManuGH/mediagate/internal/journal"
	"github.com/ManuGH/mediagate/internal/log"
	"github.com/ManuGH/mediagate/internal/metrics"
	"github.com/ManuGH/mediagate/internal/playback"
)

const (
	maxBodyBytes         = 64 << 10
	defaultOutcomesLimit = 50
	maxOutcomesLimit     = 500
)

// decode reads a single JSON object, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return false
	}
	return true
}

// handlePlan handles POST /api/v1/plan.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var body PlanRequest
	if !decode(w, r, &body) {
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	cfg := s.Config()
	plan, hit, err := playback.CachedPlan(r.Context(), s.plans, cfg.Cache.PlanTTL, cfg, req)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PlanResponse{
		RequestID: log.RequestIDFromContext(r.Context()),
		Cached:    hit,
		Plan:      plan,
	})
}

// handleNegotiate handles POST /api/v1/negotiate.
func (s *Server) handleNegotiate(w http.ResponseWriter, r *http.Request) {
	var body NegotiateRequest
	if !decode(w, r, &body) {
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	res, err := playback.Negotiate(r.Context(), s.Config(), req)
	if errors.Is(err, playback.ErrInvalidBaseURL) {
		writeError(w, r, http.StatusBadRequest, codeInvalidBaseURL, err.Error())
		return
	}
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	requestID := log.RequestIDFromContext(r.Context())
	if s.journal != nil {
		// A journal failure never fails the negotiation.
		err := s.journal.Record(r.Context(), journalEntry(requestID, res))
		metrics.RecordJournalWrite(err)
		if err != nil {
			logger := log.WithComponentFromContext(r.Context(), "journal")
			logger.Warn().Err(err).
				Str(log.FieldEvent, "journal.write_failed").
				Str(log.FieldSessionID, res.SessionID).
				Msg("failed to record outcome")
		}
	}
	writeJSON(w, http.StatusOK, NegotiateResponse{RequestID: requestID, Result: res})
}

// handleOutcomes handles GET /api/v1/outcomes.
func (s *Server) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, r, http.StatusNotFound, codeJournalDisabled, "outcome journal is not configured")
		return
	}
	limit := defaultOutcomesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxOutcomesLimit {
			writeError(w, r, http.StatusBadRequest, codeInvalidRequest, "limit must be an integer between 1 and "+strconv.Itoa(maxOutcomesLimit))
			return
		}
		limit = n
	}

	entries, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, OutcomeList{Entries: entries})
}

// handleOutcomeSummary handles GET /api/v1/outcomes/summary.
func (s *Server) handleOutcomeSummary(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, r, http.StatusNotFound, codeJournalDisabled, "outcome journal is not configured")
		return
	}
	counts, err := s.journal.Counts(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OutcomeSummary{Counts: counts})
}
