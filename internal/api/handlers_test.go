// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/cardshowfinder/showfinder/internal/audit"
	"github.com/cardshowfinder/showfinder/internal/cache"
	"github.com/cardshowfinder/showfinder/internal/config"
	"github.com/cardshowfinder/showfinder/internal/database"
	"github.com/cardshowfinder/showfinder/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:        "127.0.0.1",
			Port:        8787,
			Timeout:     10 * time.Second,
			Environment: "test",
		},
		Database: config.DatabaseConfig{
			Path:      ":memory:",
			MaxMemory: "512MB",
			Threads:   2,
		},
		API: config.APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Query: config.QueryConfig{
			DefaultRadiusMiles: 25,
			MaxRadiusMiles:     500,
			DefaultWindowDays:  30,
			DefaultStatus:      "active",
		},
		Cache: config.CacheConfig{
			Enabled:    true,
			TTL:        time.Minute,
			MaxEntries: 100,
		},
		Security: config.SecurityConfig{
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
		Logging: config.LoggingConfig{Level: "error", Format: "json"},
	}
}

type testEnv struct {
	server     *httptest.Server
	shows      *database.ShowStore
	quotas     *database.QuotaStore
	auditStore *audit.DuckDBStore
	recorder   *audit.Recorder
	cfg        *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testConfig()

	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	shows := database.NewShowStore(db, nil, database.FilterDefaults{
		RadiusMiles: cfg.Query.DefaultRadiusMiles,
		WindowDays:  cfg.Query.DefaultWindowDays,
		Status:      cfg.Query.DefaultStatus,
	})
	quotas := database.NewQuotaStore(db)

	queryCache := cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	t.Cleanup(queryCache.Close)

	auditStore := audit.NewDuckDBStore(db.Conn())
	if err := auditStore.CreateTable(context.Background()); err != nil {
		t.Fatalf("failed to create audit table: %v", err)
	}
	recorder := audit.NewRecorder(auditStore, 16)
	t.Cleanup(func() {
		if err := recorder.Close(); err != nil {
			t.Errorf("failed to close audit recorder: %v", err)
		}
	})

	handler := NewHandler(db, shows, quotas, queryCache, cfg)
	handler.ConfigureAudit(recorder)
	server := httptest.NewServer(NewRouter(handler, cfg))
	t.Cleanup(server.Close)

	return &testEnv{
		server:     server,
		shows:      shows,
		quotas:     quotas,
		auditStore: auditStore,
		recorder:   recorder,
		cfg:        cfg,
	}
}

// insertShow stores a show starting daysOut days from now so it lands inside
// the default date window.
func (env *testEnv) insertShow(t *testing.T, title string, daysOut int, lat, lon *float64) string {
	t.Helper()

	start := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, daysOut)
	show := &models.Show{
		ID:          uuid.NewString(),
		Title:       title,
		Location:    "Dallas Convention Center",
		StartDate:   start,
		EndDate:     start,
		Status:      models.StatusActive,
		Latitude:    lat,
		Longitude:   lon,
		Categories:  []string{"sports cards"},
		OrganizerID: "org-" + title,
	}
	if err := env.shows.InsertShow(context.Background(), show); err != nil {
		t.Fatalf("failed to insert show %q: %v", title, err)
	}
	return show.ID
}

func (env *testEnv) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	return env.do(t, http.MethodGet, path)
}

func (env *testEnv) do(t *testing.T, method, path string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, env.server.URL+path, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := env.server.Client().Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Errorf("failed to close response body: %v", err)
	}
	return resp, body
}

// envelope mirrors models.APIResponse with a raw data payload so tests can
// decode it into endpoint-specific types.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("failed to decode envelope: %v\nbody: %s", err, body)
	}
	return env
}

func decodeShowPage(t *testing.T, body []byte) (envelope, models.ShowPage) {
	t.Helper()
	env := decodeEnvelope(t, body)
	var page models.ShowPage
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("failed to decode show page: %v\ndata: %s", err, env.Data)
	}
	return env, page
}

func wantError(t *testing.T, resp *http.Response, body []byte, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected HTTP %d, got %d\nbody: %s", status, resp.StatusCode, body)
	}
	env := decodeEnvelope(t, body)
	if env.Status != "error" {
		t.Errorf("expected status \"error\", got %q", env.Status)
	}
	if env.Error == nil {
		t.Fatalf("expected error payload, got none\nbody: %s", body)
	}
	if env.Error.Code != code {
		t.Errorf("expected error code %s, got %s (%s)", code, env.Error.Code, env.Error.Message)
	}
}

func TestShowsEndpointEnvelope(t *testing.T) {
	env := newTestEnv(t)
	env.insertShow(t, "Dallas Card Expo", 3, fptr(32.7767), fptr(-96.7970))
	env.insertShow(t, "Plano Trade Night", 7, fptr(33.0198), fptr(-96.6989))

	resp, body := env.get(t, "/api/v1/shows")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d\nbody: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("expected JSON content type, got %q", ct)
	}
	if resp.Header.Get("ETag") == "" {
		t.Error("expected an ETag header")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected an X-Request-ID header")
	}

	wrapped, page := decodeShowPage(t, body)
	if wrapped.Status != "success" {
		t.Errorf("expected status \"success\", got %q", wrapped.Status)
	}
	if wrapped.Metadata.Timestamp.IsZero() {
		t.Error("expected a metadata timestamp")
	}
	if len(page.Data) != 2 {
		t.Fatalf("expected 2 shows, got %d", len(page.Data))
	}
	if page.Data[0].Title != "Dallas Card Expo" {
		t.Errorf("expected earliest show first, got %q", page.Data[0].Title)
	}
	if page.Pagination.TotalCount != 2 || page.Pagination.CurrentPage != 1 {
		t.Errorf("unexpected pagination: %+v", page.Pagination)
	}
	if page.Pagination.HasMore {
		t.Error("expected hasMore=false for a single page")
	}
}

func TestShowsRadiusQueryIncludesDistance(t *testing.T) {
	env := newTestEnv(t)
	env.insertShow(t, "Dallas Card Expo", 3, fptr(32.9029), fptr(-96.9639))
	env.insertShow(t, "OKC Collectors Fair", 3, fptr(35.4676), fptr(-97.5164))
	env.insertShow(t, "No Coordinates Show", 3, nil, nil)

	resp, body := env.get(t, "/api/v1/shows?lat=32.7767&lon=-96.7970&radius=25")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d\nbody: %s", resp.StatusCode, body)
	}

	_, page := decodeShowPage(t, body)
	if len(page.Data) != 1 {
		t.Fatalf("expected only the Dallas show within 25 miles, got %d shows", len(page.Data))
	}
	show := page.Data[0]
	if show.Title != "Dallas Card Expo" {
		t.Errorf("expected Dallas Card Expo, got %q", show.Title)
	}
	if show.DistanceMiles == nil {
		t.Fatal("expected distanceMiles on a radius query result")
	}
	if *show.DistanceMiles < 10 || *show.DistanceMiles > 16 {
		t.Errorf("distanceMiles %v outside the expected ~13 mile range", *show.DistanceMiles)
	}
}

func TestShowsNoDistanceWithoutCenter(t *testing.T) {
	env := newTestEnv(t)
	env.insertShow(t, "Dallas Card Expo", 3, fptr(32.7767), fptr(-96.7970))

	_, body := env.get(t, "/api/v1/shows")
	_, page := decodeShowPage(t, body)
	if len(page.Data) != 1 {
		t.Fatalf("expected 1 show, got %d", len(page.Data))
	}
	if page.Data[0].DistanceMiles != nil {
		t.Error("distanceMiles must be absent without a query center")
	}
}

func TestShowsValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		query string
	}{
		{"malformed latitude", "lat=abc&lon=-96.7"},
		{"latitude out of range", "lat=95&lon=-96.7"},
		{"longitude out of range", "lat=32.7&lon=200"},
		{"lat without lon", "lat=32.7"},
		{"radius without center", "radius=25"},
		{"negative radius", "lat=32.7&lon=-96.7&radius=-5"},
		{"radius above maximum", "lat=32.7&lon=-96.7&radius=9999"},
		{"end before start", "start_date=2026-09-10&end_date=2026-09-01"},
		{"malformed date", "start_date=next-tuesday"},
		{"negative fee", "max_entry_fee=-1"},
		{"negative page", "page=-1"},
		{"malformed page size", "page_size=lots"},
		{"malformed feature flag", "features=on_site_grading:maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.get(t, "/api/v1/shows?"+tt.query)
			wantError(t, resp, body, http.StatusBadRequest, ErrCodeValidation)
		})
	}
}

func TestShowsCacheHit(t *testing.T) {
	env := newTestEnv(t)
	env.insertShow(t, "Dallas Card Expo", 3, fptr(32.7767), fptr(-96.7970))

	_, body := env.get(t, "/api/v1/shows?page=1")
	first := decodeEnvelope(t, body)
	if first.Metadata.Cached {
		t.Fatal("first request must not be served from cache")
	}

	_, body = env.get(t, "/api/v1/shows?page=1")
	second := decodeEnvelope(t, body)
	if !second.Metadata.Cached {
		t.Fatal("expected second identical request to be a cache hit")
	}

	// A different parameter set misses the cache.
	_, body = env.get(t, "/api/v1/shows?page=1&keyword=expo")
	third := decodeEnvelope(t, body)
	if third.Metadata.Cached {
		t.Error("different query parameters must not share a cache entry")
	}
}

func TestShowsRelaxedFallback(t *testing.T) {
	env := newTestEnv(t)
	env.insertShow(t, "Dallas Card Expo", 3, fptr(32.7767), fptr(-96.7970))

	resp, body := env.get(t, "/api/v1/shows?keyword="+url.QueryEscape("pokemon regional"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d\nbody: %s", resp.StatusCode, body)
	}

	_, page := decodeShowPage(t, body)
	if !page.Relaxed {
		t.Fatal("expected relaxed=true when the keyword matches nothing")
	}
	if len(page.Data) != 1 {
		t.Fatalf("expected the relaxed result to surface 1 show, got %d", len(page.Data))
	}

	// strict=true suppresses the fallback.
	_, body = env.get(t, "/api/v1/shows?strict=true&keyword="+url.QueryEscape("pokemon regional"))
	_, page = decodeShowPage(t, body)
	if page.Relaxed {
		t.Error("strict query must not relax")
	}
	if len(page.Data) != 0 {
		t.Errorf("expected 0 shows under strict, got %d", len(page.Data))
	}
	if page.Pagination.TotalPages != 1 {
		t.Errorf("expected totalPages=1 for an empty result, got %d", page.Pagination.TotalPages)
	}
}

func TestQuotaEndpoints(t *testing.T) {
	env := newTestEnv(t)
	organizerID := uuid.NewString()
	if err := env.quotas.EnsureQuota(context.Background(), organizerID); err != nil {
		t.Fatalf("failed to seed quota: %v", err)
	}
	base := "/api/v1/organizers/" + organizerID + "/broadcast-quota"

	resp, body := env.get(t, base)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d\nbody: %s", resp.StatusCode, body)
	}
	wrapped := decodeEnvelope(t, body)
	var quota models.BroadcastQuota
	if err := json.Unmarshal(wrapped.Data, &quota); err != nil {
		t.Fatalf("failed to decode quota: %v", err)
	}
	if quota.PreShowRemaining != 2 || quota.PostShowRemaining != 1 {
		t.Errorf("unexpected default allowances: %+v", quota)
	}

	// Drain the post-show counter: one consume succeeds, the next conflicts.
	resp, body = env.do(t, http.MethodPost, base+"/consume?kind=post_show")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on first consume, got %d\nbody: %s", resp.StatusCode, body)
	}
	wrapped = decodeEnvelope(t, body)
	if err := json.Unmarshal(wrapped.Data, &quota); err != nil {
		t.Fatalf("failed to decode quota: %v", err)
	}
	if quota.PostShowRemaining != 0 {
		t.Errorf("expected postShowRemaining=0 after consume, got %d", quota.PostShowRemaining)
	}

	resp, body = env.do(t, http.MethodPost, base+"/consume?kind=post_show")
	wantError(t, resp, body, http.StatusConflict, ErrCodeQuotaExhausted)

	resp, body = env.do(t, http.MethodPost, base+"/consume?kind=mid_show")
	wantError(t, resp, body, http.StatusBadRequest, ErrCodeValidation)

	resp, body = env.get(t, "/api/v1/organizers/"+uuid.NewString()+"/broadcast-quota")
	wantError(t, resp, body, http.StatusNotFound, ErrCodeNotFound)

	// The successful and the exhausted consume both leave an audit trail.
	// Close is idempotent; closing here flushes the recorder's buffer.
	if err := env.recorder.Close(); err != nil {
		t.Fatalf("failed to flush audit recorder: %v", err)
	}
	events, err := env.auditStore.Recent(context.Background(), organizerID, 10)
	if err != nil {
		t.Fatalf("failed to read audit events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(events))
	}
	outcomes := map[audit.Outcome]bool{}
	for _, e := range events {
		outcomes[e.Outcome] = true
		if e.Kind != database.QuotaPostShow {
			t.Errorf("unexpected audit kind %q", e.Kind)
		}
	}
	if !outcomes[audit.OutcomeSuccess] || !outcomes[audit.OutcomeExhausted] {
		t.Errorf("expected success and exhausted outcomes, got %v", outcomes)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/health", "/api/v1/health/live", "/api/v1/health/ready"} {
		resp, body := env.get(t, path)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d\nbody: %s", path, resp.StatusCode, body)
			continue
		}
		wrapped := decodeEnvelope(t, body)
		if wrapped.Status != "success" {
			t.Errorf("%s: expected success envelope, got %q", path, wrapped.Status)
		}
	}
}

func TestRouterFallbackHandlers(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/api/v1/nope")
	wantError(t, resp, body, http.StatusNotFound, ErrCodeNotFound)

	resp, body = env.do(t, http.MethodDelete, "/api/v1/shows")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d\nbody: %s", resp.StatusCode, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.insertShow(t, "Dallas Card Expo", 3, nil, nil)
	env.get(t, "/api/v1/shows")

	resp, body := env.get(t, "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "showfinder_") {
		t.Error("expected showfinder metrics in the scrape output")
	}
}

func TestRespondJSONConditionalGet(t *testing.T) {
	meta := models.Metadata{Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	payload := map[string]string{"status": "ok"}

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	respondJSON(first, req, payload, meta)

	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag")
	}
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("If-None-Match", etag)
	respondJSON(second, req, payload, meta)

	if second.Code != http.StatusNotModified {
		t.Fatalf("expected 304 for a matching If-None-Match, got %d", second.Code)
	}
	if second.Body.Len() != 0 {
		t.Errorf("expected an empty 304 body, got %q", second.Body.String())
	}
}

func TestShowsPagination(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 5; i++ {
		env.insertShow(t, fmt.Sprintf("Show %d", i), i+1, nil, nil)
	}

	_, body := env.get(t, "/api/v1/shows?page=1&page_size=2")
	_, page := decodeShowPage(t, body)
	if len(page.Data) != 2 {
		t.Fatalf("expected 2 shows on page 1, got %d", len(page.Data))
	}
	if !page.Pagination.HasMore {
		t.Error("expected hasMore=true on page 1 of 3")
	}
	if page.Pagination.TotalPages != 3 {
		t.Errorf("expected totalPages=3, got %d", page.Pagination.TotalPages)
	}

	_, body = env.get(t, "/api/v1/shows?page=3&page_size=2")
	_, page = decodeShowPage(t, body)
	if len(page.Data) != 1 {
		t.Fatalf("expected 1 show on the last page, got %d", len(page.Data))
	}
	if page.Pagination.HasMore {
		t.Error("expected hasMore=false on the last page")
	}
}

func fptr(f float64) *float64 { return &f }
