// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package query

import (
	"strings"
	"testing"
	"time"
)

func TestBuildEmpty(t *testing.T) {
	wb := NewWhereBuilder()
	clause, args := wb.Build()
	if clause != "1=1" {
		t.Errorf("empty Build() = %q, want 1=1", clause)
	}
	if len(args) != 0 {
		t.Errorf("empty Build() args = %v, want none", args)
	}
	if !wb.IsEmpty() {
		t.Error("IsEmpty() = false for empty builder")
	}
}

func TestAddStatusLowersValue(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddStatus("ACTIVE")
	clause, args := wb.Build()
	if clause != "lower(status) = ?" {
		t.Errorf("clause = %q", clause)
	}
	if len(args) != 1 || args[0] != "active" {
		t.Errorf("args = %v, want [active]", args)
	}
}

func TestAddStatusSkipsEmpty(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddStatus("")
	if !wb.IsEmpty() {
		t.Error("empty status should add no clause")
	}
}

func TestAddDateWindow(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	wb := NewWhereBuilder()
	wb.AddDateWindow(&start, &end)
	clause, args := wb.Build()

	if !strings.Contains(clause, "start_date <= ?") {
		t.Errorf("clause missing window-end bound: %q", clause)
	}
	if !strings.Contains(clause, "CASE WHEN end_date IS NULL OR end_date < start_date THEN start_date ELSE end_date END >= ?") {
		t.Errorf("clause missing effective-end bound: %q", clause)
	}
	if len(args) != 2 {
		t.Fatalf("args = %v, want 2", args)
	}
	// Window end binds to the start_date bound, which comes first.
	if args[0] != end || args[1] != start {
		t.Errorf("args = %v, want [end start]", args)
	}
}

func TestAddDateWindowPartial(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	wb := NewWhereBuilder()
	wb.AddDateWindow(&start, nil)
	clause, args := wb.Build()
	if strings.Contains(clause, "start_date <= ?") {
		t.Errorf("nil window end should not bound start_date: %q", clause)
	}
	if len(args) != 1 {
		t.Errorf("args = %v, want 1", args)
	}
}

func TestAddMaxEntryFeeKeepsNullFees(t *testing.T) {
	fee := 10.0
	wb := NewWhereBuilder()
	wb.AddMaxEntryFee(&fee)
	clause, _ := wb.Build()
	if clause != "(entry_fee IS NULL OR entry_fee <= ?)" {
		t.Errorf("clause = %q", clause)
	}

	wb = NewWhereBuilder()
	wb.AddMaxEntryFee(nil)
	if !wb.IsEmpty() {
		t.Error("nil fee should add no clause")
	}
}

func TestAddIn(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddIn("organizer_id", []string{"a", "b", "c"})
	clause, args := wb.Build()
	if clause != "organizer_id IN (?, ?, ?)" {
		t.Errorf("clause = %q", clause)
	}
	if len(args) != 3 {
		t.Errorf("args = %v, want 3", args)
	}

	wb = NewWhereBuilder()
	wb.AddIn("organizer_id", nil)
	if !wb.IsEmpty() {
		t.Error("empty values should add no clause")
	}
}

func TestAddKeywordCoversAllTextColumns(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddKeyword("pokemon")
	clause, args := wb.Build()

	for _, col := range []string{"title", "description", "location", "address"} {
		if !strings.Contains(clause, col+" ILIKE ?") {
			t.Errorf("clause missing %s: %q", col, clause)
		}
	}
	if len(args) != 4 {
		t.Fatalf("args = %v, want 4", args)
	}
	for _, arg := range args {
		if arg != "%pokemon%" {
			t.Errorf("arg = %v, want %%pokemon%%", arg)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"50%", `50\%`},
		{"under_score", `under\_score`},
		{`back\slash`, `back\\slash`},
		{`%_\`, `\%\_\\`},
	}
	for _, tt := range tests {
		if got := EscapeLike(tt.in); got != tt.want {
			t.Errorf("EscapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildJoinsWithAND(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddStatus("active")
	wb.AddClause("entry_fee IS NULL")
	clause, _ := wb.Build()
	if clause != "lower(status) = ? AND entry_fee IS NULL" {
		t.Errorf("clause = %q", clause)
	}
	if wb.Count() != 2 {
		t.Errorf("Count() = %d, want 2", wb.Count())
	}
}

func TestBuildWithPrefix(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddStatus("active")
	clause, _ := wb.BuildWithPrefix()
	if !strings.HasPrefix(clause, "WHERE ") {
		t.Errorf("clause = %q, want WHERE prefix", clause)
	}
}
