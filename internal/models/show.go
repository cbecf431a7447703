// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

// Package models defines the domain types shared across storage, query and
// API layers: shows, pagination metadata, broadcast quotas and the
// standardized API response envelope.
package models

import (
	"time"
)

// Show statuses stored in the database. The query layer compares
// case-insensitively and treats anything outside this set as non-matching.
const (
	StatusActive    = "active"
	StatusUpcoming  = "upcoming"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Show is a card show event as returned by the query API.
//
// Latitude/Longitude are pointers because legacy rows may lack coordinates;
// such rows are excluded from radius queries but still match non-spatial
// filters. DistanceMiles is populated only when the request supplied a
// center point.
type Show struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Location    string          `json:"location"`
	Address     string          `json:"address,omitempty"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     time.Time       `json:"endDate"`
	EntryFee    *float64        `json:"entryFee,omitempty"`
	Status      string          `json:"status"`
	Latitude    *float64        `json:"latitude,omitempty"`
	Longitude   *float64        `json:"longitude,omitempty"`
	Categories  []string        `json:"categories,omitempty"`
	Features    map[string]bool `json:"features,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	OrganizerID string          `json:"organizerId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	// DistanceMiles is the great-circle distance from the query center.
	DistanceMiles *float64 `json:"distanceMiles,omitempty"`
}

// PaginationMeta describes one page of a larger result set.
type PaginationMeta struct {
	TotalCount  int  `json:"totalCount"`
	PageSize    int  `json:"pageSize"`
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	HasMore     bool `json:"hasMore"`
}

// ShowPage is the payload of a paginated show query.
//
// Relaxed is true when the primary filter set matched nothing and the
// service re-ran the query with only status and date-window constraints.
// Skipped counts stored rows dropped from this page because their data
// could not be shaped (malformed coordinates and similar).
type ShowPage struct {
	Data       []Show         `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
	Relaxed    bool           `json:"relaxed,omitempty"`
	Skipped    int            `json:"skipped,omitempty"`
}

// BroadcastQuota tracks an organizer's remaining pre-show and post-show
// broadcast message allowances.
type BroadcastQuota struct {
	OrganizerID       string    `json:"organizerId"`
	PreShowRemaining  int       `json:"preShowRemaining"`
	PostShowRemaining int       `json:"postShowRemaining"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
