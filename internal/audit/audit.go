// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

// Package audit records broadcast quota consumption events to a DuckDB
// table. The trail answers organizer disputes ("I never used my pre-show
// message") without digging through server logs.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Outcome classifies how a quota consumption attempt ended.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeFailure   Outcome = "failure"
)

// Event is one recorded quota consumption attempt.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	OrganizerID string    `json:"organizerId"`
	Kind        string    `json:"kind"`
	Outcome     Outcome   `json:"outcome"`

	// Remaining is the counter value after the attempt. For exhausted and
	// failed attempts it reflects the unchanged counter, or -1 when unknown.
	Remaining int `json:"remaining"`

	// RequestID links the event back to the originating HTTP request.
	RequestID string `json:"requestId,omitempty"`
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error
	Recent(ctx context.Context, organizerID string, limit int) ([]Event, error)
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// DuckDBStore implements Store on the shared DuckDB connection. The table
// is owned by this package and created outside the migration log, matching
// how optional subsystems manage their own schema.
type DuckDBStore struct {
	conn *sql.DB
}

// NewDuckDBStore creates a store on an existing connection.
func NewDuckDBStore(conn *sql.DB) *DuckDBStore {
	return &DuckDBStore{conn: conn}
}

// CreateTable creates the audit table and its organizer index if missing.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS quota_audit_events (
			id VARCHAR PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL,
			organizer_id VARCHAR NOT NULL,
			kind VARCHAR NOT NULL,
			outcome VARCHAR NOT NULL,
			remaining INTEGER NOT NULL,
			request_id VARCHAR
		)`)
	if err != nil {
		return fmt.Errorf("failed to create quota_audit_events table: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_quota_audit_organizer
		ON quota_audit_events (organizer_id, timestamp)`)
	if err != nil {
		return fmt.Errorf("failed to create quota audit index: %w", err)
	}
	return nil
}

// Save persists one event.
func (s *DuckDBStore) Save(ctx context.Context, event *Event) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO quota_audit_events
			(id, timestamp, organizer_id, kind, outcome, remaining, request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp, event.OrganizerID, event.Kind,
		string(event.Outcome), event.Remaining, nullable(event.RequestID))
	if err != nil {
		return fmt.Errorf("failed to save audit event %s: %w", event.ID, err)
	}
	return nil
}

// Recent returns the organizer's latest events, newest first.
func (s *DuckDBStore) Recent(ctx context.Context, organizerID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, timestamp, organizer_id, kind, outcome, remaining, request_id
		FROM quota_audit_events
		WHERE organizer_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, organizerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var events []Event
	for rows.Next() {
		var (
			event     Event
			outcome   string
			requestID sql.NullString
		)
		if err := rows.Scan(&event.ID, &event.Timestamp, &event.OrganizerID,
			&event.Kind, &outcome, &event.Remaining, &requestID); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.Outcome = Outcome(outcome)
		event.RequestID = requestID.String
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}
	return events, nil
}

// Delete removes events older than the cutoff and reports how many went.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM quota_audit_events WHERE timestamp < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit events: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return deleted, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
