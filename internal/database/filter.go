// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package database

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cardshowfinder/showfinder/internal/database/query"
	"github.com/cardshowfinder/showfinder/internal/geo"
)

// ShowFilter describes the predicate of a paginated show query. Zero values
// mean "not filtered"; WithDefaults fills the service defaults for status,
// date window and radius before the filter reaches SQL.
type ShowFilter struct {
	// Center enables radius filtering and per-result distances.
	Center *geo.Point

	// RadiusMiles bounds the search around Center. Ignored without a center.
	RadiusMiles float64

	// StartDate/EndDate bound the date window the show must overlap.
	StartDate *time.Time
	EndDate   *time.Time

	// Status is compared case-insensitively against the stored status.
	Status string

	// MaxEntryFee keeps shows with unknown fees or fees at or under the cap.
	MaxEntryFee *float64

	// Categories matches shows sharing at least one category.
	Categories []string

	// Features requires every listed flag to match; flags absent from a
	// show's feature map count as false.
	Features map[string]bool

	// Keyword is matched case-insensitively as a substring of the show's
	// title, description, location or address.
	Keyword string

	// Strict disables the relaxed fallback when nothing matches.
	Strict bool
}

// FilterDefaults are the service-level defaults applied to requests that
// omit the corresponding filter.
type FilterDefaults struct {
	RadiusMiles float64
	WindowDays  int
	Status      string
}

// Validate rejects filters that cannot produce a meaningful query.
func (f ShowFilter) Validate() error {
	if f.Center != nil {
		if err := f.Center.Validate(); err != nil {
			return fmt.Errorf("invalid center: %w", err)
		}
		if f.RadiusMiles < 0 {
			return fmt.Errorf("radius must not be negative, got %v", f.RadiusMiles)
		}
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return fmt.Errorf("end date %v precedes start date %v", f.EndDate, f.StartDate)
	}
	return nil
}

// WithDefaults returns a copy with service defaults applied: status when
// empty, each absent date bound independently (start defaults to today, end
// to today+WindowDays), and the default radius when a center is given
// without one.
func (f ShowFilter) WithDefaults(d FilterDefaults, now time.Time) ShowFilter {
	if f.Status == "" {
		f.Status = d.Status
	}
	today := now.Truncate(24 * time.Hour)
	if f.StartDate == nil {
		f.StartDate = &today
	}
	if f.EndDate == nil {
		end := today.AddDate(0, 0, d.WindowDays)
		f.EndDate = &end
	}
	if f.Center != nil && f.RadiusMiles == 0 {
		f.RadiusMiles = d.RadiusMiles
	}
	return f
}

// Relaxed returns the fallback filter: status and date window only. Used
// when the full filter set matches nothing and the caller did not ask for
// strict matching.
func (f ShowFilter) Relaxed() ShowFilter {
	return ShowFilter{
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		Status:    f.Status,
		Strict:    true, // a relaxed query never falls back again
	}
}

// hasRelaxableConstraints reports whether the filter carries predicates
// beyond status and date window, i.e. whether a relaxed re-run could return
// a different result.
func (f ShowFilter) hasRelaxableConstraints() bool {
	return f.Center != nil ||
		f.MaxEntryFee != nil ||
		len(f.Categories) > 0 ||
		len(f.Features) > 0 ||
		f.Keyword != ""
}

// distanceExpr is the SQL haversine distance in miles from a parameterized
// center. It uses the same Earth radius and mile conversion as the geo
// package so SQL-filtered and Go-computed distances agree.
//
// Bound parameters, in order: center latitude, center latitude, center
// longitude.
var distanceExpr = fmt.Sprintf(
	"2 * %s * ASIN(SQRT(LEAST(1.0, "+
		"POWER(SIN(RADIANS(latitude - ?) / 2), 2) + "+
		"COS(RADIANS(?)) * COS(RADIANS(latitude)) * "+
		"POWER(SIN(RADIANS(longitude - ?) / 2), 2)))) / %s",
	formatFloat(geo.EarthRadiusMeters),
	formatFloat(geo.MetersPerMile),
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// distanceArgs returns the bound parameters for one occurrence of
// distanceExpr.
func distanceArgs(center geo.Point) []interface{} {
	return []interface{}{center.Latitude, center.Latitude, center.Longitude}
}

// buildShowWhere composes the WHERE clause for a show filter. Every value is
// a bound parameter.
func buildShowWhere(f ShowFilter) *query.WhereBuilder {
	wb := query.NewWhereBuilder()

	wb.AddStatus(f.Status)
	wb.AddDateWindow(f.StartDate, f.EndDate)
	wb.AddMaxEntryFee(f.MaxEntryFee)

	if f.Center != nil {
		// Rows without coordinates can never satisfy a radius filter.
		wb.AddClause("latitude IS NOT NULL AND longitude IS NOT NULL")

		// Padded bounding box prefilter lets DuckDB prune on the
		// (latitude, longitude) index before the exact haversine check.
		box := geo.BoundingBoxFor(*f.Center, f.RadiusMiles)
		wb.AddClause("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)
		wb.AddClause("longitude BETWEEN ? AND ?", box.MinLon, box.MaxLon)

		// Inclusive boundary: epsilon absorbs float rounding at the edge.
		args := append(distanceArgs(*f.Center), f.RadiusMiles+geo.DistanceEpsilonMiles)
		wb.AddClause(distanceExpr+" <= ?", args...)
	}

	if len(f.Categories) > 0 {
		clauses := make([]string, len(f.Categories))
		args := make([]interface{}, len(f.Categories))
		for i, category := range f.Categories {
			clauses[i] = "json_contains(categories, ?)"
			// json_contains needs the needle as a JSON literal.
			args[i] = jsonStringLiteral(category)
		}
		wb.AddClause("("+strings.Join(clauses, " OR ")+")", args...)
	}

	for _, key := range sortedKeys(f.Features) {
		required := f.Features[key]
		// Absent flags read as NULL from json_extract and coalesce to false.
		wb.AddClause(
			"COALESCE(CAST(json_extract(features, ?) AS BOOLEAN), FALSE) = ?",
			jsonPath(key), required,
		)
	}

	wb.AddKeyword(f.Keyword)

	return wb
}

// jsonStringLiteral encodes s as a JSON string literal for json_contains.
func jsonStringLiteral(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

// jsonPath builds a quoted JSON path for a feature key.
func jsonPath(key string) string {
	escaped := strings.ReplaceAll(key, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `$."` + escaped + `"`
}

// sortedKeys returns map keys in deterministic order so generated SQL is
// stable for equal filters.
func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
