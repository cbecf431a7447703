// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package database

import (
	"context"
	"testing"
)

func TestMigrateFreshDatabase(t *testing.T) {
	db := setupTestDB(t)

	version, err := db.schemaVersion(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := migrations[len(migrations)-1].Version
	if version != want {
		t.Errorf("schema version = %d, want %d", version, want)
	}

	// Every migration leaves a log row.
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != len(migrations) {
		t.Errorf("schema_migrations rows = %d, want %d", count, len(migrations))
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("re-running Migrate failed: %v", err)
	}

	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != len(migrations) {
		t.Errorf("re-migration duplicated log rows: %d, want %d", count, len(migrations))
	}
}

func TestMigrationVersionsStrictlyIncreasing(t *testing.T) {
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version <= migrations[i-1].Version {
			t.Errorf("migration %d (%s) does not increase version over %d",
				migrations[i].Version, migrations[i].Name, migrations[i-1].Version)
		}
	}
}

func TestMigratedTablesExist(t *testing.T) {
	db := setupTestDB(t)

	for _, table := range []string{"shows", "broadcast_quotas", "schema_migrations"} {
		var count int
		//nolint:gosec // table names come from the test literal above
		if err := db.conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Errorf("table %s missing after migration: %v", table, err)
		}
	}
}

func TestSeedMockData(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SeedMockData(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	var shows int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM shows").Scan(&shows); err != nil {
		t.Fatal(err)
	}
	if shows == 0 {
		t.Fatal("seed inserted no shows")
	}

	// Seeding again must not duplicate.
	if err := db.SeedMockData(ctx); err != nil {
		t.Fatal(err)
	}
	var after int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM shows").Scan(&after); err != nil {
		t.Fatal(err)
	}
	if after != shows {
		t.Errorf("re-seed changed row count from %d to %d", shows, after)
	}

	var quotas int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM broadcast_quotas").Scan(&quotas); err != nil {
		t.Fatal(err)
	}
	if quotas == 0 {
		t.Error("seed created no quota rows")
	}
}
