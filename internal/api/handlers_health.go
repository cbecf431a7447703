// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package api

import (
	"net/http"
	"time"

	"github.com/cardshowfinder/showfinder/internal/models"
)

// healthStatus is the payload of the health endpoints.
type healthStatus struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Database string `json:"database,omitempty"`
}

// HandleHealth serves GET /api/v1/health: liveness plus a database probe.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status: "ok",
		Uptime: time.Since(h.startedAt).Round(time.Second).String(),
	}

	if err := h.db.Ping(r.Context()); err != nil {
		status.Status = "degraded"
		status.Database = "unreachable"
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeService,
			"Database unreachable", map[string]interface{}{"uptime": status.Uptime})
		return
	}
	status.Database = "ok"

	respondJSON(w, r, status, models.Metadata{})
}

// HandleLive serves GET /api/v1/health/live: process-up check only.
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, healthStatus{
		Status: "ok",
		Uptime: time.Since(h.startedAt).Round(time.Second).String(),
	}, models.Metadata{})
}

// HandleReady serves GET /api/v1/health/ready: ready to take traffic, i.e.
// the database answers.
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeService,
			"Not ready: database unreachable", nil)
		return
	}
	respondJSON(w, r, healthStatus{Status: "ready"}, models.Metadata{})
}
