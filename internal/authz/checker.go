// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

// Package authz defines the authorization seam for show visibility.
//
// The query layer stays policy-free: instead of baking row-level rules into
// SQL, it consults an injected Checker. The default AllowAll checker matches
// the public read API, where every active show is visible to every caller.
// Deployments needing organizer-scoped or role-scoped visibility swap in
// their own Checker without touching the query code.
package authz

import (
	"context"
)

// Checker decides whether the caller in ctx may see the show with the given
// organizer. Implementations must be safe for concurrent use.
type Checker interface {
	CanViewShow(ctx context.Context, organizerID string) (bool, error)
}

// AllowAll permits every caller to view every show.
type AllowAll struct{}

// CanViewShow always returns true.
func (AllowAll) CanViewShow(context.Context, string) (bool, error) {
	return true, nil
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context, organizerID string) (bool, error)

// CanViewShow calls f.
func (f CheckerFunc) CanViewShow(ctx context.Context, organizerID string) (bool, error) {
	return f(ctx, organizerID)
}
