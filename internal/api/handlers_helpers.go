// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package api

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/cardshowfinder/showfinder/internal/logging"
	"github.com/cardshowfinder/showfinder/internal/models"
	"github.com/cardshowfinder/showfinder/internal/validation"
)

// respondJSON writes a success envelope. An FNV-1a ETag over the payload
// lets clients revalidate cheaply; a matching If-None-Match short-circuits
// to 304 without a body.
func respondJSON(w http.ResponseWriter, r *http.Request, data interface{}, meta models.Metadata) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}

	response := models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: meta,
	}

	body, err := json.Marshal(response)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Failed to encode response")
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
		return
	}

	etag := computeETag(body)
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}

// respondError writes an error envelope with the given HTTP status.
func respondError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string, details map[string]interface{}) {
	response := models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Failed to encode error response")
	}
}

// respondValidationError writes a 400 from translated validation errors.
func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
}

func computeETag(body []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(body)
	return fmt.Sprintf(`"%x"`, h.Sum64())
}

// Query parameter parsing helpers. Each returns a validation-style error
// message for malformed input so handlers reject bad requests before any
// query runs.

func parseFloatParam(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &value, nil
}

func parseIntParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return value, nil
}

func parseBoolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false", name)
	}
	return value, nil
}

func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	// RFC3339 first, bare date second.
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("%s must be an RFC3339 timestamp or YYYY-MM-DD date", name)
}

// parseCSVParam splits a comma-separated parameter into trimmed non-empty
// values.
func parseCSVParam(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}

// parseFeaturesParam parses "key:bool" comma pairs, e.g.
// "on_site_grading:true,free_parking:false". A bare key means true.
func parseFeaturesParam(r *http.Request, name string) (map[string]bool, error) {
	pairs := parseCSVParam(r, name)
	if len(pairs) == 0 {
		return nil, nil
	}
	features := make(map[string]bool, len(pairs))
	for _, pair := range pairs {
		key, rawValue, found := strings.Cut(pair, ":")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%s contains an empty feature name", name)
		}
		if !found {
			features[key] = true
			continue
		}
		value, err := strconv.ParseBool(strings.TrimSpace(rawValue))
		if err != nil {
			return nil, fmt.Errorf("%s value for %q must be true or false", name, key)
		}
		features[key] = value
	}
	return features, nil
}
