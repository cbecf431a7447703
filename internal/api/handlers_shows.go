// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cardshowfinder/showfinder/internal/cache"
	"github.com/cardshowfinder/showfinder/internal/database"
	"github.com/cardshowfinder/showfinder/internal/logging"
	"github.com/cardshowfinder/showfinder/internal/metrics"
	"github.com/cardshowfinder/showfinder/internal/models"
	"github.com/cardshowfinder/showfinder/internal/validation"
)

// HandleShows serves GET /api/v1/shows, the paginated geo-filtered show
// query. All validation failures return 400 before any query executes;
// store failures surface as 503 so clients can distinguish bad input from
// an unavailable backend.
func (h *Handler) HandleShows(w http.ResponseWriter, r *http.Request) {
	req, err := parseShowsRequest(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}
	if msg := req.crossFieldError(h.cfg.Query.MaxRadiusMiles); msg != "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, msg, nil)
		return
	}

	cacheKey := cache.GenerateKey("shows", req)
	if data, ok := h.cacheGet(cacheKey); ok {
		metrics.CacheOperationsTotal.WithLabelValues("hit").Inc()
		respondJSON(w, r, data, models.Metadata{Cached: true})
		return
	}
	metrics.CacheOperationsTotal.WithLabelValues("miss").Inc()

	queryStart := time.Now()
	page, err := h.shows.GetPaginatedShows(r.Context(), req.ToFilter(), req.ToPageRequest(),
		h.cfg.API.DefaultPageSize, h.cfg.API.MaxPageSize)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	h.cacheSet(cacheKey, page)
	respondJSON(w, r, page, models.Metadata{
		QueryTimeMS: time.Since(queryStart).Milliseconds(),
	})
}

// respondStoreError maps store failures to the API error envelope.
func (h *Handler) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context())

	switch {
	case errors.Is(err, database.ErrInvalidFilter):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error().Err(err).Msg("Query timed out")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeService,
			"The query timed out", nil)
	default:
		logger.Error().Err(err).Msg("Show query failed")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeDatabase,
			"The show database is unavailable", nil)
	}
}
