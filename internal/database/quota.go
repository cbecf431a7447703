// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cardshowfinder/showfinder/internal/metrics"
	"github.com/cardshowfinder/showfinder/internal/models"
)

// Quota consumption kinds.
const (
	QuotaPreShow  = "pre_show"
	QuotaPostShow = "post_show"
)

// Default quota allowances granted when an organizer row is first created.
const (
	defaultPreShowQuota  = 2
	defaultPostShowQuota = 1
)

var (
	// ErrQuotaExhausted is returned when a counter is already at zero.
	ErrQuotaExhausted = errors.New("broadcast quota exhausted")

	// ErrQuotaNotFound is returned when the organizer has no quota row.
	ErrQuotaNotFound = errors.New("broadcast quota not found")

	// ErrInvalidQuotaKind is returned for kinds other than pre_show and
	// post_show.
	ErrInvalidQuotaKind = errors.New("invalid quota kind")
)

// QuotaStore manages per-organizer broadcast quota counters.
type QuotaStore struct {
	db *DB
}

// NewQuotaStore creates a QuotaStore.
func NewQuotaStore(db *DB) *QuotaStore {
	return &QuotaStore{db: db}
}

// EnsureQuota creates the organizer's quota row with default allowances if
// it does not exist. Existing rows are left untouched.
func (q *QuotaStore) EnsureQuota(ctx context.Context, organizerID string) error {
	_, err := q.db.conn.ExecContext(ctx, `
		INSERT INTO broadcast_quotas (organizer_id, pre_show_remaining, post_show_remaining)
		VALUES (?, ?, ?)
		ON CONFLICT (organizer_id) DO NOTHING`,
		organizerID, defaultPreShowQuota, defaultPostShowQuota)
	if err != nil {
		return fmt.Errorf("failed to ensure quota for %s: %w", organizerID, err)
	}
	return nil
}

// GetQuota returns the organizer's current quota counters.
func (q *QuotaStore) GetQuota(ctx context.Context, organizerID string) (*models.BroadcastQuota, error) {
	quota := &models.BroadcastQuota{OrganizerID: organizerID}
	err := q.db.conn.QueryRowContext(ctx, `
		SELECT pre_show_remaining, post_show_remaining, updated_at
		FROM broadcast_quotas WHERE organizer_id = ?`, organizerID).
		Scan(&quota.PreShowRemaining, &quota.PostShowRemaining, &quota.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuotaNotFound
		}
		return nil, fmt.Errorf("failed to read quota for %s: %w", organizerID, err)
	}
	return quota, nil
}

// ConsumeQuota atomically decrements one counter for the organizer.
//
// The decrement is a guarded UPDATE (WHERE remaining > 0), so concurrent
// consumers can never drive a counter below zero: whichever statement runs
// second matches no row and reports ErrQuotaExhausted.
func (q *QuotaStore) ConsumeQuota(ctx context.Context, organizerID, kind string) (*models.BroadcastQuota, error) {
	var column string
	switch kind {
	case QuotaPreShow:
		column = "pre_show_remaining"
	case QuotaPostShow:
		column = "post_show_remaining"
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidQuotaKind, kind)
	}

	sqlUpdate := fmt.Sprintf(`
		UPDATE broadcast_quotas
		SET %s = %s - 1, updated_at = current_timestamp
		WHERE organizer_id = ? AND %s > 0`, column, column, column)

	result, err := q.db.conn.ExecContext(ctx, sqlUpdate, organizerID)
	if err != nil {
		metrics.QuotaConsumptionsTotal.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("failed to consume %s quota for %s: %w", kind, organizerID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish "no row" from "counter at zero".
		if _, err := q.GetQuota(ctx, organizerID); err != nil {
			metrics.QuotaConsumptionsTotal.WithLabelValues(kind, "not_found").Inc()
			return nil, err
		}
		metrics.QuotaConsumptionsTotal.WithLabelValues(kind, "exhausted").Inc()
		return nil, ErrQuotaExhausted
	}

	metrics.QuotaConsumptionsTotal.WithLabelValues(kind, "ok").Inc()
	return q.GetQuota(ctx, organizerID)
}
