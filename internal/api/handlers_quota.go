// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardshowfinder/showfinder/internal/audit"
	"github.com/cardshowfinder/showfinder/internal/database"
	"github.com/cardshowfinder/showfinder/internal/logging"
	"github.com/cardshowfinder/showfinder/internal/models"
)

// HandleGetQuota serves GET /api/v1/organizers/{id}/broadcast-quota.
func (h *Handler) HandleGetQuota(w http.ResponseWriter, r *http.Request) {
	organizerID := chi.URLParam(r, "id")
	if organizerID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation,
			"organizer id is required", nil)
		return
	}

	quota, err := h.quotas.GetQuota(r.Context(), organizerID)
	if err != nil {
		h.respondQuotaError(w, r, organizerID, err)
		return
	}

	respondJSON(w, r, quota, models.Metadata{})
}

// HandleConsumeQuota serves POST
// /api/v1/organizers/{id}/broadcast-quota/consume?kind=pre_show|post_show.
// The decrement is atomic with a floor at zero; an exhausted counter yields
// 409 QUOTA_EXHAUSTED.
func (h *Handler) HandleConsumeQuota(w http.ResponseWriter, r *http.Request) {
	organizerID := chi.URLParam(r, "id")
	if organizerID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation,
			"organizer id is required", nil)
		return
	}
	kind := r.URL.Query().Get("kind")

	quota, err := h.quotas.ConsumeQuota(r.Context(), organizerID, kind)
	if err != nil {
		if errors.Is(err, database.ErrQuotaExhausted) {
			h.recordConsumption(r.Context(), organizerID, kind, audit.OutcomeExhausted, 0)
		}
		h.respondQuotaError(w, r, organizerID, err)
		return
	}

	h.recordConsumption(r.Context(), organizerID, kind, audit.OutcomeSuccess, remainingFor(quota, kind))
	respondJSON(w, r, quota, models.Metadata{})
}

func (h *Handler) recordConsumption(ctx context.Context, organizerID, kind string, outcome audit.Outcome, remaining int) {
	if h.audit == nil {
		return
	}
	h.audit.RecordConsumption(ctx, organizerID, kind, outcome, remaining)
}

func remainingFor(quota *models.BroadcastQuota, kind string) int {
	if kind == database.QuotaPostShow {
		return quota.PostShowRemaining
	}
	return quota.PreShowRemaining
}

func (h *Handler) respondQuotaError(w http.ResponseWriter, r *http.Request, organizerID string, err error) {
	switch {
	case errors.Is(err, database.ErrInvalidQuotaKind):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation,
			"kind must be pre_show or post_show", nil)
	case errors.Is(err, database.ErrQuotaNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound,
			"No broadcast quota for organizer", map[string]interface{}{"organizer_id": organizerID})
	case errors.Is(err, database.ErrQuotaExhausted):
		respondError(w, r, http.StatusConflict, ErrCodeQuotaExhausted,
			"Broadcast quota exhausted", map[string]interface{}{"organizer_id": organizerID})
	default:
		logging.FromContext(r.Context()).Error().Err(err).
			Str("organizer_id", organizerID).Msg("Quota operation failed")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeDatabase,
			"The quota store is unavailable", nil)
	}
}
