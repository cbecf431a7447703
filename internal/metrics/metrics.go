// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

// Package metrics defines the Prometheus instrumentation for Showfinder.
// All collectors are registered with the default registry via promauto and
// exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "showfinder"

var (
	// HTTPRequestsTotal counts API requests by method, route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed, by method, route and status code.",
		},
		[]string{"method", "route", "code"},
	)

	// HTTPRequestDuration observes request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds, by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// ShowQueriesTotal counts paginated show queries by outcome.
	// outcome: "ok", "relaxed", "error".
	ShowQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "shows_total",
			Help:      "Total paginated show queries, by outcome.",
		},
		[]string{"outcome"},
	)

	// ShowQueryDuration observes end-to-end show query latency including
	// count, page select and row shaping.
	ShowQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "shows_duration_seconds",
			Help:      "Show query execution time in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// RelaxedFallbacksTotal counts queries that matched nothing under the
	// full filter set and were re-run with status and date window only.
	RelaxedFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "relaxed_fallbacks_total",
			Help:      "Queries that fell back to the relaxed filter set.",
		},
	)

	// SkippedRecordsTotal counts stored rows dropped during shaping because
	// their data was malformed.
	SkippedRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "skipped_records_total",
			Help:      "Stored rows skipped during result shaping due to malformed data.",
		},
	)

	// CacheOperationsTotal counts cache lookups by result ("hit" or "miss").
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Cache lookups on the query endpoint, by result.",
		},
		[]string{"result"},
	)

	// QuotaConsumptionsTotal counts broadcast quota consumption attempts by
	// kind ("pre_show" or "post_show") and result ("ok" or "exhausted").
	QuotaConsumptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "consumptions_total",
			Help:      "Broadcast quota consumption attempts, by kind and result.",
		},
		[]string{"kind", "result"},
	)
)
