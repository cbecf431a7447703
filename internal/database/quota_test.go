// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package database

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestEnsureQuotaIdempotent(t *testing.T) {
	db := setupTestDB(t)
	store := NewQuotaStore(db)
	ctx := context.Background()

	if err := store.EnsureQuota(ctx, "org-1"); err != nil {
		t.Fatal(err)
	}

	// Consume one, then ensure again: counters must not reset.
	if _, err := store.ConsumeQuota(ctx, "org-1", QuotaPreShow); err != nil {
		t.Fatal(err)
	}
	if err := store.EnsureQuota(ctx, "org-1"); err != nil {
		t.Fatal(err)
	}

	quota, err := store.GetQuota(ctx, "org-1")
	if err != nil {
		t.Fatal(err)
	}
	if quota.PreShowRemaining != defaultPreShowQuota-1 {
		t.Errorf("PreShowRemaining = %d, want %d", quota.PreShowRemaining, defaultPreShowQuota-1)
	}
	if quota.PostShowRemaining != defaultPostShowQuota {
		t.Errorf("PostShowRemaining = %d, want %d", quota.PostShowRemaining, defaultPostShowQuota)
	}
}

func TestConsumeQuotaFloorsAtZero(t *testing.T) {
	db := setupTestDB(t)
	store := NewQuotaStore(db)
	ctx := context.Background()

	if err := store.EnsureQuota(ctx, "org-1"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < defaultPostShowQuota; i++ {
		if _, err := store.ConsumeQuota(ctx, "org-1", QuotaPostShow); err != nil {
			t.Fatalf("consume %d failed: %v", i, err)
		}
	}

	_, err := store.ConsumeQuota(ctx, "org-1", QuotaPostShow)
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Errorf("err = %v, want ErrQuotaExhausted", err)
	}

	quota, err := store.GetQuota(ctx, "org-1")
	if err != nil {
		t.Fatal(err)
	}
	if quota.PostShowRemaining != 0 {
		t.Errorf("PostShowRemaining = %d, want 0 (never negative)", quota.PostShowRemaining)
	}
}

func TestConsumeQuotaUnknownOrganizer(t *testing.T) {
	db := setupTestDB(t)
	store := NewQuotaStore(db)

	_, err := store.ConsumeQuota(context.Background(), "org-missing", QuotaPreShow)
	if !errors.Is(err, ErrQuotaNotFound) {
		t.Errorf("err = %v, want ErrQuotaNotFound", err)
	}

	_, err = store.GetQuota(context.Background(), "org-missing")
	if !errors.Is(err, ErrQuotaNotFound) {
		t.Errorf("GetQuota err = %v, want ErrQuotaNotFound", err)
	}
}

func TestConsumeQuotaInvalidKind(t *testing.T) {
	db := setupTestDB(t)
	store := NewQuotaStore(db)

	_, err := store.ConsumeQuota(context.Background(), "org-1", "mid_show")
	if !errors.Is(err, ErrInvalidQuotaKind) {
		t.Errorf("err = %v, want ErrInvalidQuotaKind", err)
	}
}

func TestConsumeQuotaKindsIndependent(t *testing.T) {
	db := setupTestDB(t)
	store := NewQuotaStore(db)
	ctx := context.Background()

	if err := store.EnsureQuota(ctx, "org-1"); err != nil {
		t.Fatal(err)
	}

	quota, err := store.ConsumeQuota(ctx, "org-1", QuotaPreShow)
	if err != nil {
		t.Fatal(err)
	}
	if quota.PreShowRemaining != defaultPreShowQuota-1 {
		t.Errorf("PreShowRemaining = %d, want %d", quota.PreShowRemaining, defaultPreShowQuota-1)
	}
	if quota.PostShowRemaining != defaultPostShowQuota {
		t.Errorf("post-show counter changed by pre-show consumption: %d", quota.PostShowRemaining)
	}
}

func TestConsumeQuotaConcurrentNeverNegative(t *testing.T) {
	db := setupTestDB(t)
	store := NewQuotaStore(db)
	ctx := context.Background()

	if err := store.EnsureQuota(ctx, "org-1"); err != nil {
		t.Fatal(err)
	}

	const attempts = 10
	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.ConsumeQuota(ctx, "org-1", QuotaPreShow); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	granted := 0
	for range successes {
		granted++
	}
	if granted != defaultPreShowQuota {
		t.Errorf("granted %d consumptions, want exactly %d", granted, defaultPreShowQuota)
	}

	quota, err := store.GetQuota(ctx, "org-1")
	if err != nil {
		t.Fatal(err)
	}
	if quota.PreShowRemaining != 0 {
		t.Errorf("PreShowRemaining = %d, want 0", quota.PreShowRemaining)
	}
}
