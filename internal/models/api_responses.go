// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package models

import (
	"time"
)

// APIResponse is the standardized wrapper used by all HTTP endpoints.
//
// Status is "success" or "error". Data carries the payload on success;
// Error is populated only on failure. Metadata is always present so clients
// and monitoring can track query timing and cache effectiveness.
//
// Example success:
//
//	{
//	  "status": "success",
//	  "data": {"data": [...], "pagination": {...}},
//	  "metadata": {"timestamp": "2026-08-30T12:00:00Z", "query_time_ms": 12}
//	}
//
// Example error:
//
//	{
//	  "status": "error",
//	  "error": {"code": "VALIDATION_ERROR", "message": "latitude must be a valid latitude (-90 to 90)"},
//	  "metadata": {"timestamp": "2026-08-30T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields.
// QueryTimeMS is 0 and Cached true when served from the read-through cache.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is a structured error payload.
//
// Error codes in use:
//   - VALIDATION_ERROR: invalid request parameters (HTTP 400)
//   - NOT_FOUND: resource does not exist (HTTP 404)
//   - QUOTA_EXHAUSTED: broadcast quota at zero (HTTP 409)
//   - DATABASE_ERROR: query execution failure (HTTP 503)
//   - SERVICE_ERROR: upstream store unavailable (HTTP 503)
//   - RATE_LIMIT_EXCEEDED: too many requests (HTTP 429)
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}
