// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cardshowfinder/showfinder/internal/config"
	"github.com/cardshowfinder/showfinder/internal/middleware"
)

// NewRouter builds the chi router with the full middleware stack and all
// API routes.
//
// Route layout:
//
//	GET  /metrics                                        Prometheus scrape
//	GET  /api/v1/health                                  health + DB probe
//	GET  /api/v1/health/live                             liveness
//	GET  /api/v1/health/ready                            readiness
//	GET  /api/v1/shows                                   paginated show query
//	GET  /api/v1/organizers/{id}/broadcast-quota         quota counters
//	POST /api/v1/organizers/{id}/broadcast-quota/consume decrement a counter
func NewRouter(h *Handler, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match", requestIDHeader},
		ExposedHeaders:   []string{"ETag", requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	// Metrics endpoint stays outside the rate limit so scrapes never get
	// throttled by API traffic.
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Prometheus)
		if !cfg.Security.RateLimitDisabled {
			r.Use(httprate.LimitByIP(cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow))
		}

		r.Get("/health", h.HandleHealth)
		r.Get("/health/live", h.HandleLive)
		r.Get("/health/ready", h.HandleReady)

		r.Get("/shows", h.HandleShows)

		r.Route("/organizers/{id}/broadcast-quota", func(r chi.Router) {
			r.Get("/", h.HandleGetQuota)
			r.Post("/consume", h.HandleConsumeQuota)
		})
	})

	return r
}
