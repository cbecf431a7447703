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
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/cardshowfinder/showfinder/internal/authz"
	"github.com/cardshowfinder/showfinder/internal/geo"
	"github.com/cardshowfinder/showfinder/internal/logging"
	"github.com/cardshowfinder/showfinder/internal/metrics"
	"github.com/cardshowfinder/showfinder/internal/models"
)

// ErrInvalidFilter marks filters rejected before query execution, letting
// the API layer map them to 400 rather than 503.
var ErrInvalidFilter = errors.New("invalid filter")

// showColumns is the SELECT list shared by all show queries.
const showColumns = `id, title, description, location, address, start_date, end_date,
	entry_fee, status, latitude, longitude,
	categories::VARCHAR AS categories, features::VARCHAR AS features, image_url,
	organizer_id, created_at, updated_at`

// ShowStore runs paginated show queries against the DuckDB store.
//
// The store owns the query pipeline: predicate composition, COUNT, the
// ordered page SELECT and row shaping. Visibility decisions are delegated to
// the injected authz.Checker so row-level policy never leaks into SQL.
type ShowStore struct {
	db       *DB
	checker  authz.Checker
	defaults FilterDefaults

	// now is injectable for deterministic date-window defaults in tests.
	now func() time.Time
}

// NewShowStore creates a ShowStore. A nil checker defaults to AllowAll.
func NewShowStore(db *DB, checker authz.Checker, defaults FilterDefaults) *ShowStore {
	if checker == nil {
		checker = authz.AllowAll{}
	}
	return &ShowStore{
		db:       db,
		checker:  checker,
		defaults: defaults,
		now:      time.Now,
	}
}

// GetPaginatedShows executes the paginated show query.
//
// Pipeline: apply defaults, COUNT under the predicate, page SELECT ordered
// by start date (then distance when a center is given, then id for a stable
// tiebreak), shape rows, compute pagination metadata.
//
// When the full filter set matches nothing and the filter is not strict, the
// query re-runs with only status and date-window constraints and the result
// is flagged Relaxed. Rows whose stored data cannot be shaped are logged,
// skipped and counted in Skipped; they never abort the page. Zero matches is
// a valid result, not an error.
func (s *ShowStore) GetPaginatedShows(ctx context.Context, filter ShowFilter, page PageRequest, defaultPageSize, maxPageSize int) (*models.ShowPage, error) {
	start := time.Now()

	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	filter = filter.WithDefaults(s.defaults, s.now())
	page = page.Normalize(defaultPageSize, maxPageSize)

	relaxed := false
	totalCount, err := s.countShows(ctx, filter)
	if err != nil {
		metrics.ShowQueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if totalCount == 0 && !filter.Strict && filter.hasRelaxableConstraints() {
		relaxedFilter := filter.Relaxed()
		relaxedCount, err := s.countShows(ctx, relaxedFilter)
		if err != nil {
			metrics.ShowQueriesTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		// The fallback engaging is itself signal to the caller, so the page
		// is flagged Relaxed even when the relaxed predicate matches nothing.
		logging.FromContext(ctx).Debug().
			Int("relaxed_count", relaxedCount).
			Msg("No exact matches, falling back to relaxed filter")
		filter = relaxedFilter
		totalCount = relaxedCount
		relaxed = true
		metrics.RelaxedFallbacksTotal.Inc()
	}

	shows, skipped, err := s.fetchPage(ctx, filter, page)
	if err != nil {
		metrics.ShowQueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	outcome := "ok"
	if relaxed {
		outcome = "relaxed"
	}
	metrics.ShowQueriesTotal.WithLabelValues(outcome).Inc()
	metrics.ShowQueryDuration.Observe(time.Since(start).Seconds())

	return &models.ShowPage{
		Data:       shows,
		Pagination: page.Meta(totalCount),
		Relaxed:    relaxed,
		Skipped:    skipped,
	}, nil
}

// countShows runs COUNT(*) under the filter predicate.
func (s *ShowStore) countShows(ctx context.Context, filter ShowFilter) (int, error) {
	whereClause, args := buildShowWhere(filter).Build()
	sqlQuery := fmt.Sprintf("SELECT COUNT(*) FROM shows WHERE %s", whereClause)

	var count int
	if err := s.db.conn.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count shows: %w", err)
	}
	return count, nil
}

// fetchPage runs the ordered page SELECT and shapes the rows.
func (s *ShowStore) fetchPage(ctx context.Context, filter ShowFilter, page PageRequest) ([]models.Show, int, error) {
	selectList := showColumns
	orderBy := "start_date ASC, id ASC"
	var selectArgs []interface{}

	if filter.Center != nil {
		// The distance expression appears once in the SELECT list; ORDER BY
		// references it through the alias.
		selectList += ", " + distanceExpr + " AS distance_miles"
		selectArgs = distanceArgs(*filter.Center)
		orderBy = "start_date ASC, distance_miles ASC, id ASC"
	}

	whereClause, whereArgs := buildShowWhere(filter).Build()
	sqlQuery := fmt.Sprintf(
		"SELECT %s FROM shows WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		selectList, whereClause, orderBy)

	args := make([]interface{}, 0, len(selectArgs)+len(whereArgs)+2)
	args = append(args, selectArgs...)
	args = append(args, whereArgs...)
	args = append(args, page.PageSize, page.Offset())

	rows, err := s.db.conn.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query shows: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	shows := make([]models.Show, 0, page.PageSize)
	skipped := 0
	withDistance := filter.Center != nil

	for rows.Next() {
		show, err := scanShow(rows, withDistance)
		if err != nil {
			// Malformed stored data must not abort the page.
			logging.FromContext(ctx).Error().Err(err).Msg("Skipping unshapeable show row")
			skipped++
			metrics.SkippedRecordsTotal.Inc()
			continue
		}

		allowed, err := s.checker.CanViewShow(ctx, show.OrganizerID)
		if err != nil {
			return nil, 0, fmt.Errorf("authorization check failed: %w", err)
		}
		if !allowed {
			continue
		}

		shows = append(shows, *show)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate shows: %w", err)
	}

	return shows, skipped, nil
}

// scanShow shapes one result row into a models.Show. Returns an error for
// rows whose stored data is malformed; the caller skips them.
func scanShow(rows *sql.Rows, withDistance bool) (*models.Show, error) {
	var (
		show          models.Show
		description   sql.NullString
		address       sql.NullString
		endDate       sql.NullTime
		entryFee      sql.NullFloat64
		latitude      sql.NullFloat64
		longitude     sql.NullFloat64
		categoriesRaw sql.NullString
		featuresRaw   sql.NullString
		imageURL      sql.NullString
		organizerID   sql.NullString
		distance      sql.NullFloat64
	)

	dest := []interface{}{
		&show.ID, &show.Title, &description, &show.Location, &address,
		&show.StartDate, &endDate, &entryFee, &show.Status,
		&latitude, &longitude, &categoriesRaw, &featuresRaw, &imageURL,
		&organizerID, &show.CreatedAt, &show.UpdatedAt,
	}
	if withDistance {
		dest = append(dest, &distance)
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to scan show row: %w", err)
	}

	show.Description = description.String
	show.Address = address.String
	show.ImageURL = imageURL.String
	show.OrganizerID = organizerID.String

	// Effective end date: fall back to the start date when the stored end
	// is missing or precedes the start.
	if endDate.Valid && !endDate.Time.Before(show.StartDate) {
		show.EndDate = endDate.Time
	} else {
		show.EndDate = show.StartDate
	}

	if entryFee.Valid {
		fee := entryFee.Float64
		show.EntryFee = &fee
	}

	if latitude.Valid != longitude.Valid {
		return nil, fmt.Errorf("show %s has a partial coordinate pair", show.ID)
	}
	if latitude.Valid {
		point := geo.Point{Latitude: latitude.Float64, Longitude: longitude.Float64}
		if err := point.Validate(); err != nil {
			return nil, fmt.Errorf("show %s: %w", show.ID, err)
		}
		show.Latitude = &point.Latitude
		show.Longitude = &point.Longitude
	}

	if categoriesRaw.Valid && categoriesRaw.String != "" {
		if err := json.Unmarshal([]byte(categoriesRaw.String), &show.Categories); err != nil {
			return nil, fmt.Errorf("show %s has malformed categories: %w", show.ID, err)
		}
	}
	if featuresRaw.Valid && featuresRaw.String != "" {
		if err := json.Unmarshal([]byte(featuresRaw.String), &show.Features); err != nil {
			return nil, fmt.Errorf("show %s has malformed features: %w", show.ID, err)
		}
	}

	if withDistance && distance.Valid {
		d := distance.Float64
		show.DistanceMiles = &d
	}

	return &show, nil
}

// InsertShow stores a show. Categories and features are JSON-encoded.
// Intended for seeding and tests; the public API surface is read-only.
func (s *ShowStore) InsertShow(ctx context.Context, show *models.Show) error {
	categoriesJSON, err := json.Marshal(show.Categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	featuresJSON, err := json.Marshal(show.Features)
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}

	var endDate interface{}
	if !show.EndDate.IsZero() {
		endDate = show.EndDate
	}

	status := show.Status
	if status == "" {
		status = models.StatusActive
	}
	status = strings.ToLower(status)

	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO shows (id, title, description, location, address,
			start_date, end_date, entry_fee, status, latitude, longitude,
			categories, features, image_url, organizer_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		show.ID, show.Title, nullableString(show.Description), show.Location,
		nullableString(show.Address), show.StartDate, endDate, show.EntryFee,
		status, show.Latitude, show.Longitude,
		string(categoriesJSON), string(featuresJSON),
		nullableString(show.ImageURL), nullableString(show.OrganizerID))
	if err != nil {
		return fmt.Errorf("failed to insert show %s: %w", show.ID, err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
