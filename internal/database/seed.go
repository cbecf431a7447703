// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cardshowfinder/showfinder/internal/logging"
	"github.com/cardshowfinder/showfinder/internal/models"
)

// SeedMockData populates an empty shows table with sample shows around a
// few US metro areas for development. A non-empty table is left untouched.
func (db *DB) SeedMockData(ctx context.Context) error {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM shows").Scan(&count); err != nil {
		return fmt.Errorf("failed to check shows table: %w", err)
	}
	if count > 0 {
		logging.Debug().Int("existing", count).Msg("Skipping mock data seed, shows table not empty")
		return nil
	}

	store := NewShowStore(db, nil, FilterDefaults{})
	now := time.Now().Truncate(24 * time.Hour)
	fee := func(f float64) *float64 { return &f }
	coord := func(f float64) *float64 { return &f }

	seeds := []models.Show{
		{
			Title:       "Dallas Card & Collectibles Expo",
			Description: "Monthly sports card show with 120 dealer tables",
			Location:    "Dallas Market Hall",
			Address:     "2200 N Stemmons Fwy, Dallas, TX",
			StartDate:   now.AddDate(0, 0, 7),
			EndDate:     now.AddDate(0, 0, 8),
			EntryFee:    fee(5),
			Status:      models.StatusActive,
			Latitude:    coord(32.8029),
			Longitude:   coord(-96.8207),
			Categories:  []string{"sports", "vintage"},
			Features:    map[string]bool{"on_site_grading": true, "autograph_guests": false},
			OrganizerID: "org-dallas",
		},
		{
			Title:       "Fort Worth Trading Card Meetup",
			Description: "Pokemon and TCG focused community event",
			Location:    "Will Rogers Memorial Center",
			Address:     "3401 W Lancaster Ave, Fort Worth, TX",
			StartDate:   now.AddDate(0, 0, 14),
			EndDate:     now.AddDate(0, 0, 14),
			Status:      models.StatusActive,
			Latitude:    coord(32.7392),
			Longitude:   coord(-97.3647),
			Categories:  []string{"tcg", "pokemon"},
			Features:    map[string]bool{"free_parking": true},
			OrganizerID: "org-fortworth",
		},
		{
			Title:       "NYC Vintage Sports Card Show",
			Description: "Premier east coast vintage card event",
			Location:    "New Yorker Hotel",
			Address:     "481 8th Ave, New York, NY",
			StartDate:   now.AddDate(0, 0, 21),
			EndDate:     now.AddDate(0, 0, 22),
			EntryFee:    fee(10),
			Status:      models.StatusActive,
			Latitude:    coord(40.7527),
			Longitude:   coord(-73.9935),
			Categories:  []string{"sports", "vintage"},
			Features:    map[string]bool{"autograph_guests": true},
			OrganizerID: "org-nyc",
		},
		{
			Title:     "Chicago Collectors Convention",
			Location:  "Donald E. Stephens Convention Center",
			Address:   "5555 N River Rd, Rosemont, IL",
			StartDate: now.AddDate(0, 0, 45),
			EndDate:   now.AddDate(0, 0, 47),
			EntryFee:  fee(15),
			Status:    models.StatusUpcoming,
			Latitude:  coord(41.9795),
			Longitude: coord(-87.8643),
			Categories: []string{
				"sports", "tcg", "memorabilia",
			},
			OrganizerID: "org-chicago",
		},
		{
			// Coordinates unknown: excluded from radius queries by design.
			Title:       "Mail-Order Breakers Night",
			Description: "Online-first box break event with local pickup",
			Location:    "TBD",
			StartDate:   now.AddDate(0, 0, 10),
			Status:      models.StatusActive,
			Categories:  []string{"breaks"},
			OrganizerID: "org-online",
		},
	}

	for i := range seeds {
		seeds[i].ID = uuid.NewString()
		if err := store.InsertShow(ctx, &seeds[i]); err != nil {
			return fmt.Errorf("failed to seed show %q: %w", seeds[i].Title, err)
		}
	}

	quotas := NewQuotaStore(db)
	for _, organizerID := range []string{"org-dallas", "org-fortworth", "org-nyc", "org-chicago", "org-online"} {
		if err := quotas.EnsureQuota(ctx, organizerID); err != nil {
			return fmt.Errorf("failed to seed quota: %w", err)
		}
	}

	logging.Info().Int("shows", len(seeds)).Msg("Seeded mock data")
	return nil
}
