// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package database

// migrations is the append-only schema history. Never edit a released
// entry; add a new version instead.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create_shows",
		SQL: `
CREATE TABLE IF NOT EXISTS shows (
    id            VARCHAR PRIMARY KEY,
    title         VARCHAR NOT NULL,
    description   VARCHAR,
    location      VARCHAR NOT NULL,
    address       VARCHAR,
    start_date    TIMESTAMP NOT NULL,
    end_date      TIMESTAMP,
    entry_fee     DOUBLE,
    status        VARCHAR NOT NULL DEFAULT 'active',
    latitude      DOUBLE,
    longitude     DOUBLE,
    categories    JSON,
    features      JSON,
    organizer_id  VARCHAR,
    created_at    TIMESTAMP NOT NULL DEFAULT current_timestamp,
    updated_at    TIMESTAMP NOT NULL DEFAULT current_timestamp
)`,
	},
	{
		Version: 2,
		Name:    "create_shows_indexes",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_shows_start_date ON shows (start_date, id);
CREATE INDEX IF NOT EXISTS idx_shows_status ON shows (status);
CREATE INDEX IF NOT EXISTS idx_shows_coords ON shows (latitude, longitude)`,
	},
	{
		Version: 3,
		Name:    "create_broadcast_quotas",
		SQL: `
CREATE TABLE IF NOT EXISTS broadcast_quotas (
    organizer_id        VARCHAR PRIMARY KEY,
    pre_show_remaining  INTEGER NOT NULL DEFAULT 2,
    post_show_remaining INTEGER NOT NULL DEFAULT 1,
    updated_at          TIMESTAMP NOT NULL DEFAULT current_timestamp
)`,
	},
	{
		Version: 4,
		Name:    "add_shows_image_url",
		SQL:     `ALTER TABLE shows ADD COLUMN IF NOT EXISTS image_url VARCHAR`,
	},
}
