// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/crmkit/crmkit/internal/cache"
	"github.com/crmkit/crmkit/internal/config"
	"github.com/crmkit/crmkit/internal/geoip"
	"github.com/crmkit/crmkit/internal/handler/api"
	"github.com/crmkit/crmkit/internal/logging"
	"github.com/crmkit/crmkit/internal/mailer"
	"github.com/crmkit/crmkit/internal/middleware"
	"github.com/crmkit/crmkit/internal/scheduler"
	"github.com/crmkit/crmkit/internal/service"
	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/version"
	"github.com/crmkit/crmkit/internal/workflow"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "crmkit - CRM and portal builder backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CRMKIT_API_KEY             API key for the REST API (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CRMKIT_DB_PATH             SQLite database path (default: ./data/crmkit.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CRMKIT_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CRMKIT_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CRMKIT_REDIS_URL           Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CRMKIT_GEOIP_DB_PATH       GeoLite2-Country.mmdb path for request geolocation (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("crmkit %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Cache backend for resolved page layers
	cacheConfig := cache.CacheConfig{
		Type:             "memory",
		RedisURL:         cfg.RedisURL,
		Prefix:           cfg.CachePrefix,
		DefaultTTL:       time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:          cfg.CacheMaxSize,
		CleanupInterval:  time.Minute,
		FallbackToMemory: true,
	}
	if cfg.UseRedisCache() {
		cacheConfig.Type = "redis"
	}
	cacheResult, err := cache.NewCacheWithInfo(cacheConfig)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	switch {
	case cacheResult.BackendType == cache.CacheBackendRedis:
		slog.Info("cache initialized", "backend", "redis", "url", cache.SanitizeRedisURL(cfg.RedisURL))
	case cacheResult.IsFallback:
		slog.Warn("cache initialized", "backend", "memory", "note", "Redis unavailable, using fallback")
	default:
		slog.Info("cache initialized", "backend", "memory")
	}
	layers := service.NewLayersCache(cacheResult.Cache, time.Duration(cfg.CacheTTL)*time.Second)

	// GeoIP lookup for workflow telemetry (optional)
	geo := geoip.NewLookup()
	if cfg.GeoIPEnabled() {
		if err := geo.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("geoip disabled", "error", err)
		} else {
			slog.Info("geoip initialized", "path", cfg.GeoIPDBPath)
		}
	}
	defer func() {
		if err := geo.Close(); err != nil {
			slog.Error("closing geoip database", "error", err)
		}
	}()

	// Mail dispatcher worker pool
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	mail := mailer.NewDispatcher(db, nil, logger, mailer.Config{Workers: cfg.MailWorkers})
	mail.Start(runCtx)
	defer mail.Stop()

	// Workflow invoker with its collaborators
	invoker := workflow.NewInvoker(
		service.NewContactService(db),
		service.NewEventService(db),
		mail,
		scheduler.NewQueue(db),
		logger,
	)

	// Cron scheduler: due deferred actions, mail sweep, event pruning
	sched := scheduler.New(db, invoker, mail, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// HTTP surface
	h := api.NewHandler(db, layers, mail, invoker, geo, logger)
	trigger := middleware.NewIPRateLimiter(cfg.TriggerRateLimit, cfg.TriggerRateBurst)
	router := api.Routes(h, cfg.APIKey, trigger)

	server := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			"addr", cfg.ServerAddr(),
			"env", cfg.Env,
			"version", versionInfo.Version,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
