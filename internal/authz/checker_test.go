// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package authz

import (
	"context"
	"testing"
)

func TestAllowAll(t *testing.T) {
	var c Checker = AllowAll{}
	ok, err := c.CanViewShow(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("AllowAll denied a show")
	}
}

func TestCheckerFunc(t *testing.T) {
	var c Checker = CheckerFunc(func(_ context.Context, organizerID string) (bool, error) {
		return organizerID == "org-visible", nil
	})

	if ok, _ := c.CanViewShow(context.Background(), "org-visible"); !ok {
		t.Error("expected org-visible to be allowed")
	}
	if ok, _ := c.CanViewShow(context.Background(), "org-hidden"); ok {
		t.Error("expected org-hidden to be denied")
	}
}
