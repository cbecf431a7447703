// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

// Command server runs the Showfinder HTTP API: the geo-filtered show query
// endpoint, broadcast quota endpoints, health probes and Prometheus metrics,
// all under a suture supervisor tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cardshowfinder/showfinder/internal/api"
	"github.com/cardshowfinder/showfinder/internal/audit"
	"github.com/cardshowfinder/showfinder/internal/cache"
	"github.com/cardshowfinder/showfinder/internal/config"
	"github.com/cardshowfinder/showfinder/internal/database"
	"github.com/cardshowfinder/showfinder/internal/logging"
	"github.com/cardshowfinder/showfinder/internal/supervisor"
	"github.com/cardshowfinder/showfinder/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("database", cfg.Database.Path).
		Msg("Starting Showfinder server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	shows := database.NewShowStore(db, nil, database.FilterDefaults{
		RadiusMiles: cfg.Query.DefaultRadiusMiles,
		WindowDays:  cfg.Query.DefaultWindowDays,
		Status:      cfg.Query.DefaultStatus,
	})
	quotas := database.NewQuotaStore(db)

	var queryCache *cache.Cache
	if cfg.Cache.Enabled {
		queryCache = cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)
		defer queryCache.Close()
		logging.Info().
			Dur("ttl", cfg.Cache.TTL).
			Int("max_entries", cfg.Cache.MaxEntries).
			Msg("Query cache enabled")
	}

	handler := api.NewHandler(db, shows, quotas, queryCache, cfg)

	// Quota audit trail. A table creation failure disables auditing but
	// never blocks startup.
	auditStore := audit.NewDuckDBStore(db.Conn())
	if err := auditStore.CreateTable(ctx); err != nil {
		logging.Warn().Err(err).Msg("Audit table creation failed, quota auditing disabled")
	} else {
		recorder := audit.NewRecorder(auditStore, 256)
		defer func() {
			if err := recorder.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing audit recorder")
			}
		}()
		recorder.StartCleanup(ctx, 24*time.Hour, 90*24*time.Hour)
		handler.ConfigureAudit(recorder)
		logging.Info().Msg("Quota audit trail enabled")
	}

	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor closes the channel.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}
