// Copyright (c) 2025-2026 Oleg Ivanchenko
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
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/olegiv/uniblog/internal/cache"
	"github.com/olegiv/uniblog/internal/config"
	"github.com/olegiv/uniblog/internal/handler/api"
	"github.com/olegiv/uniblog/internal/logging"
	"github.com/olegiv/uniblog/internal/middleware"
	"github.com/olegiv/uniblog/internal/notify"
	"github.com/olegiv/uniblog/internal/scheduler"
	"github.com/olegiv/uniblog/internal/service"
	"github.com/olegiv/uniblog/internal/session"
	"github.com/olegiv/uniblog/internal/store"
	"github.com/olegiv/uniblog/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// requestTimeout bounds a single API request.
const requestTimeout = 30 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "uniblog - university blog server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UNIBLOG_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UNIBLOG_DB_PATH           SQLite database path (default: ./data/uniblog.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UNIBLOG_SERVER_HOST       Listen host (default: localhost)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UNIBLOG_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UNIBLOG_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UNIBLOG_LOG_LEVEL         debug|info|warn|error (default: info)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UNIBLOG_REDIS_URL         Redis URL for caching and notifications (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UNIBLOG_CACHE_TTL         Published post cache TTL in seconds (default: 300)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UNIBLOG_SETTINGS_TTL      Settings cache TTL in seconds (default: 300)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UNIBLOG_WEBHOOK_URL       Notification webhook endpoint (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UNIBLOG_WEBHOOK_SECRET    Webhook signing secret (required with URL)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UNIBLOG_CORS_ORIGINS      Comma-separated allowed origins (default: *)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	if *showVersion {
		_, _ = fmt.Println(versionInfo.String())
		os.Exit(0)
	}

	if err := run(versionInfo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func newLogHandler(cfg *config.Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsDevelopment() {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

func run(versionInfo version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(newLogHandler(cfg))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
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

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Warnings and errors are also written to the event log table.
	logger = slog.New(logging.NewEventLogHandler(newLogHandler(cfg), db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.SeedAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	queries := store.New(db)
	sessionManager := session.New(db, cfg.IsDevelopment())

	cacheResult, err := cache.New(cache.Config{
		RedisURL:         cfg.RedisURL,
		Prefix:           cfg.CachePrefix,
		DefaultTTL:       cfg.PostCacheTTL(),
		MaxSize:          cfg.CacheMaxSize,
		CleanupInterval:  time.Minute,
		FallbackToMemory: cfg.CacheFallback,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = cacheResult.Cache.Close() }()
	postCache := cache.NewPostCache(cacheResult.Cache, cfg.PostCacheTTL(), logger)

	settingsCache := service.NewSettingsCache(queries, cfg.SettingsTTL(), logger)
	settingsService := service.NewSettingsService(queries, settingsCache, logger)

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.WebhookEnabled() {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookSecret))
		slog.Info("webhook notifications enabled")
	}
	if cacheResult.Redis != nil {
		notifiers = append(notifiers, notify.NewRedisNotifier(cacheResult.Redis.Client(), cfg.NotifyChannel))
		slog.Info("redis notifications enabled", "channel", cfg.NotifyChannel)
	}

	postService := service.NewPostService(queries, settingsCache, notifiers, logger)
	postService.SetCacheInvalidator(postCache)
	commentService := service.NewCommentService(queries, queries, queries, settingsCache, logger)
	userService := service.NewUserService(queries, settingsCache, notifiers, logger)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Stop()

	sched := scheduler.New(logger)
	for _, job := range []scheduler.Job{
		scheduler.PurgeEventsJob(service.NewEventService(db, logger), cfg.EventRetention(), logger),
		scheduler.PurgeSessionsJob(queries, logger),
	} {
		if err := sched.Add(job); err != nil {
			return fmt.Errorf("scheduling %s: %w", job.Name, err)
		}
	}
	sched.Start()
	defer sched.Stop()

	apiHandler := api.NewHandler(api.Deps{
		DB:              db,
		Sessions:        sessionManager,
		Posts:           postService,
		Comments:        commentService,
		Users:           userService,
		Settings:        settingsService,
		PostCache:       postCache,
		LoginProtection: loginProtection,
		Logger:          logger,
		Version:         versionInfo.Version,
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: !slices.Contains(cfg.CORSOrigins, "*"),
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	r.Get("/health", apiHandler.Health)

	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(
			[]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.CORSOrigins)))
		r.Use(middleware.LoadActor(sessionManager, queries))
		r.Use(middleware.Maintenance(settingsCache))
		r.Mount("/api/v1", apiHandler.Routes())
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr, "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
