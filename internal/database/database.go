// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

// Package database implements the DuckDB-backed store for shows and
// broadcast quotas, including the paginated geo-radius show query.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/cardshowfinder/showfinder/internal/config"
	"github.com/cardshowfinder/showfinder/internal/logging"
)

// DB wraps the DuckDB connection.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens (or creates) the DuckDB database, configures the connection pool
// and applies pending schema migrations.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Create the parent directory so a fresh deployment does not fail with
	// "No such file or directory". 0750 per gosec G301.
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}

	db.configureConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if cfg.SeedMockData {
		if err := db.SeedMockData(ctx); err != nil {
			logging.Warn().Err(err).Msg("Mock data seeding failed")
		}
	}

	return db, nil
}

// configureConnectionPool sizes the database/sql pool. DuckDB is embedded,
// so connections are cheap handles onto the same process-local database.
func (db *DB) configureConnectionPool() {
	maxConns := runtime.NumCPU() * 2
	if maxConns < 4 {
		maxConns = 4
	}
	db.conn.SetMaxOpenConns(maxConns)
	db.conn.SetMaxIdleConns(maxConns / 2)
	db.conn.SetConnMaxLifetime(0) // embedded: connections do not go stale
}

// Conn exposes the underlying *sql.DB for callers that need raw access.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if _, err := db.conn.Exec("CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("Checkpoint on close failed")
	}
	return db.conn.Close()
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database connection")
	}
}
