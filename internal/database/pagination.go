// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package database

import (
	"github.com/cardshowfinder/showfinder/internal/models"
)

// PageRequest is a 1-indexed page selection as received from the client.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize clamps the request into valid bounds: pages below 1 become 1,
// non-positive sizes take defaultSize, and sizes above maxSize are capped.
func (p PageRequest) Normalize(defaultSize, maxSize int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultSize
	}
	if maxSize > 0 && p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	return p
}

// Offset returns the row offset for the page. Callers must Normalize first.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Meta computes the pagination metadata for a total result count.
//
// TotalPages is computed against max(totalCount, 1) so an empty result set
// still reports one (empty) page rather than zero pages. HasMore is true
// when rows exist beyond the requested page.
func (p PageRequest) Meta(totalCount int) models.PaginationMeta {
	if totalCount < 0 {
		totalCount = 0
	}

	effective := totalCount
	if effective < 1 {
		effective = 1
	}
	totalPages := (effective + p.PageSize - 1) / p.PageSize

	return models.PaginationMeta{
		TotalCount:  totalCount,
		PageSize:    p.PageSize,
		CurrentPage: p.Page,
		TotalPages:  totalPages,
		HasMore:     p.Offset()+p.PageSize < totalCount,
	}
}
