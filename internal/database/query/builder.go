// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

// Package query provides SQL WHERE clause construction for the database
// package. All values travel as bound parameters; helper methods cover the
// recurring show-filter fragments.
package query

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder accumulates parameterized WHERE clause fragments.
//
//	wb := query.NewWhereBuilder()
//	wb.AddStatus("active")
//	wb.AddDateWindow(start, end)
//	whereClause, args := wb.Build()
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates an empty WhereBuilder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw condition fragment with its bound arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddStatus adds a case-insensitive status equality check. Rows whose stored
// status does not exactly match (after lowering) are excluded, so unknown
// statuses never leak into results.
func (wb *WhereBuilder) AddStatus(status string) *WhereBuilder {
	if status == "" {
		return wb
	}
	wb.clauses = append(wb.clauses, "lower(status) = ?")
	wb.args = append(wb.args, strings.ToLower(status))
	return wb
}

// AddDateWindow constrains shows to those overlapping [windowStart,
// windowEnd]. A show overlaps when its start date is on or before the window
// end and its effective end date is on or after the window start. The
// effective end date falls back to the start date when end_date is NULL or
// precedes start_date, tolerating malformed producer data.
func (wb *WhereBuilder) AddDateWindow(windowStart, windowEnd *time.Time) *WhereBuilder {
	const effectiveEnd = "CASE WHEN end_date IS NULL OR end_date < start_date THEN start_date ELSE end_date END"

	if windowEnd != nil {
		wb.clauses = append(wb.clauses, "start_date <= ?")
		wb.args = append(wb.args, *windowEnd)
	}
	if windowStart != nil {
		wb.clauses = append(wb.clauses, effectiveEnd+" >= ?")
		wb.args = append(wb.args, *windowStart)
	}
	return wb
}

// AddMaxEntryFee keeps shows whose fee is unknown or within budget.
func (wb *WhereBuilder) AddMaxEntryFee(maxFee *float64) *WhereBuilder {
	if maxFee == nil {
		return wb
	}
	wb.clauses = append(wb.clauses, "(entry_fee IS NULL OR entry_fee <= ?)")
	wb.args = append(wb.args, *maxFee)
	return wb
}

// AddIn adds "column IN (?, ?, ...)" for a string slice. Empty slices are
// skipped. The column name must come from code, never from user input.
func (wb *WhereBuilder) AddIn(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		wb.args = append(wb.args, v)
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	return wb
}

// AddKeyword adds a case-insensitive substring match OR'd across the show's
// text columns. LIKE metacharacters in the keyword are escaped so user input
// is matched literally.
func (wb *WhereBuilder) AddKeyword(keyword string) *WhereBuilder {
	if keyword == "" {
		return wb
	}
	pattern := "%" + EscapeLike(keyword) + "%"
	wb.clauses = append(wb.clauses,
		`(title ILIKE ? ESCAPE '\' OR description ILIKE ? ESCAPE '\' OR location ILIKE ? ESCAPE '\' OR address ILIKE ? ESCAPE '\')`)
	wb.args = append(wb.args, pattern, pattern, pattern, pattern)
	return wb
}

// EscapeLike escapes LIKE metacharacters (%, _, and the escape char itself)
// so the value matches literally under ESCAPE '\'.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// Build returns the combined clause (without the WHERE keyword) and its
// arguments. With no clauses it returns "1=1" so callers can always
// interpolate the result.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the clause with a leading "WHERE ".
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses added.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty reports whether no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
