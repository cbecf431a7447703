// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package api

import (
	"net/http"
	"time"

	"github.com/cardshowfinder/showfinder/internal/database"
	"github.com/cardshowfinder/showfinder/internal/geo"
)

// ShowsRequest carries the parsed and validated query parameters of
// GET /api/v1/shows.
type ShowsRequest struct {
	Latitude    *float64        `validate:"omitempty,latitude"`
	Longitude   *float64        `validate:"omitempty,longitude"`
	RadiusMiles *float64        `validate:"omitempty,gt=0"`
	StartDate   *time.Time      `validate:"-"`
	EndDate     *time.Time      `validate:"-"`
	MaxEntryFee *float64        `validate:"omitempty,gte=0"`
	Categories  []string        `validate:"omitempty,max=20,dive,min=1,max=64"`
	Features    map[string]bool `validate:"omitempty,max=20"`
	Keyword     string          `validate:"omitempty,max=128"`
	Status      string          `validate:"omitempty,max=32"`
	Page        int             `validate:"omitempty,min=1"`
	PageSize    int             `validate:"omitempty,min=1"`
	Strict      bool            `validate:"-"`
}

// parseShowsRequest extracts the show query parameters. Malformed values
// yield a parse error; range violations are caught by validation afterward.
func parseShowsRequest(r *http.Request) (*ShowsRequest, error) {
	req := &ShowsRequest{}

	var err error
	if req.Latitude, err = parseFloatParam(r, "lat"); err != nil {
		return nil, err
	}
	if req.Longitude, err = parseFloatParam(r, "lon"); err != nil {
		return nil, err
	}
	if req.RadiusMiles, err = parseFloatParam(r, "radius"); err != nil {
		return nil, err
	}
	if req.StartDate, err = parseTimeParam(r, "start_date"); err != nil {
		return nil, err
	}
	if req.EndDate, err = parseTimeParam(r, "end_date"); err != nil {
		return nil, err
	}
	if req.MaxEntryFee, err = parseFloatParam(r, "max_entry_fee"); err != nil {
		return nil, err
	}
	req.Categories = parseCSVParam(r, "categories")
	if req.Features, err = parseFeaturesParam(r, "features"); err != nil {
		return nil, err
	}
	req.Keyword = r.URL.Query().Get("keyword")
	req.Status = r.URL.Query().Get("status")
	if req.Page, err = parseIntParam(r, "page"); err != nil {
		return nil, err
	}
	if req.PageSize, err = parseIntParam(r, "page_size"); err != nil {
		return nil, err
	}
	if req.Strict, err = parseBoolParam(r, "strict"); err != nil {
		return nil, err
	}

	return req, nil
}

// crossFieldError returns a message for the cross-field rules the tag
// syntax cannot express, or "" when the request is consistent.
func (req *ShowsRequest) crossFieldError(maxRadius float64) string {
	// lat and lon must travel together.
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return "lat and lon must both be provided for a radius query"
	}
	if req.RadiusMiles != nil {
		if req.Latitude == nil {
			return "radius requires lat and lon"
		}
		if maxRadius > 0 && *req.RadiusMiles > maxRadius {
			return "radius exceeds the maximum allowed"
		}
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return "end_date must not precede start_date"
	}
	return ""
}

// ToFilter converts the request into the store's filter representation.
func (req *ShowsRequest) ToFilter() database.ShowFilter {
	filter := database.ShowFilter{
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      req.Status,
		MaxEntryFee: req.MaxEntryFee,
		Categories:  req.Categories,
		Features:    req.Features,
		Keyword:     req.Keyword,
		Strict:      req.Strict,
	}
	if req.Latitude != nil && req.Longitude != nil {
		filter.Center = &geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
		if req.RadiusMiles != nil {
			filter.RadiusMiles = *req.RadiusMiles
		}
	}
	return filter
}

// ToPageRequest converts the pagination parameters.
func (req *ShowsRequest) ToPageRequest() database.PageRequest {
	return database.PageRequest{Page: req.Page, PageSize: req.PageSize}
}
