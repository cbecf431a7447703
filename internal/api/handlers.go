// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

// Package api implements the HTTP handlers for the Showfinder read API:
// the paginated geo-radius show query, broadcast quota endpoints and
// health probes, all wrapped in the standardized response envelope.
package api

import (
	"net/http"
	"time"

	"github.com/cardshowfinder/showfinder/internal/audit"
	"github.com/cardshowfinder/showfinder/internal/cache"
	"github.com/cardshowfinder/showfinder/internal/config"
	"github.com/cardshowfinder/showfinder/internal/database"
)

// Error codes surfaced in the API error envelope.
const (
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeQuotaExhausted = "QUOTA_EXHAUSTED"
	ErrCodeDatabase       = "DATABASE_ERROR"
	ErrCodeService        = "SERVICE_ERROR"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// Handler holds the dependencies of all API endpoints.
type Handler struct {
	db     *database.DB
	shows  *database.ShowStore
	quotas *database.QuotaStore
	cache  *cache.Cache
	cfg    *config.Config
	audit  *audit.Recorder

	startedAt time.Time
}

// ConfigureAudit attaches the quota audit recorder. Without it, consumption
// attempts are simply not recorded.
func (h *Handler) ConfigureAudit(recorder *audit.Recorder) {
	h.audit = recorder
}

// NewHandler creates the API handler. The cache may be nil when the
// read-through layer is disabled.
func NewHandler(db *database.DB, shows *database.ShowStore, quotas *database.QuotaStore, queryCache *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{
		db:        db,
		shows:     shows,
		quotas:    quotas,
		cache:     queryCache,
		cfg:       cfg,
		startedAt: time.Now(),
	}
}

// cachedResult is the value stored in the read-through cache for the show
// query endpoint.
type cachedResult struct {
	Data interface{}
}

// cacheGet looks up a cached payload and records the hit/miss metric.
func (h *Handler) cacheGet(key string) (interface{}, bool) {
	if h.cache == nil {
		return nil, false
	}
	if entry, ok := h.cache.Get(key); ok {
		if result, ok := entry.(cachedResult); ok {
			return result.Data, true
		}
	}
	return nil, false
}

// cacheSet stores a payload under the key if caching is enabled.
func (h *Handler) cacheSet(key string, data interface{}) {
	if h.cache == nil {
		return
	}
	h.cache.Set(key, cachedResult{Data: data})
}

// MethodNotAllowed is the router's 405 handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, ErrCodeValidation,
		"Method not allowed", nil)
}

// NotFound is the router's 404 handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, ErrCodeNotFound,
		"Resource not found", nil)
}
