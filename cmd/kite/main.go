// Kite - OSINT aggregation that deploys in 60 seconds.
// Copyright (c) 2025 openrecon
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/openrecon/kite/internal/alerts"
	"github.com/openrecon/kite/internal/api"
	"github.com/openrecon/kite/internal/bus"
	"github.com/openrecon/kite/internal/cache"
	"github.com/openrecon/kite/internal/correlate"
	"github.com/openrecon/kite/internal/domain"
	"github.com/openrecon/kite/internal/orchestrator"
	"github.com/openrecon/kite/internal/repository"
	"github.com/openrecon/kite/internal/score"
	"github.com/openrecon/kite/internal/sources"
	"github.com/openrecon/kite/internal/variations"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("KITE_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting kite",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for distributed tier via environment
	if os.Getenv("KITE_TIER") == "distributed" {
		cfg = domain.DistributedConfig()
		slog.Info("running in distributed tier mode")
	}

	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"external_tools", cfg.Sources.EnableExternalTools,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize source adapters
	adapters := sources.Build(cfg.Sources, &http.Client{Timeout: 30 * time.Second})
	slog.Info("source adapters initialized", "count", len(adapters))

	// Initialize Alert Engine
	alertEngine, err := alerts.NewEngine()
	if err != nil {
		slog.Error("failed to initialize alert engine", "error", err)
		os.Exit(1)
	}
	if err := loadAlertRules(ctx, repo, alertEngine); err != nil {
		slog.Error("failed to load alert rules", "error", err)
		os.Exit(1)
	}
	slog.Info("alert engine initialized", "rules_count", alertEngine.RulesCount())

	// Initialize Orchestrator
	orch := orchestrator.New(orchestrator.Options{
		Adapters:    adapters,
		Correlator:  correlate.NewEngine(cfg.Sources.FreeProviders),
		Scorer:      score.New(cfg.Sources.CriticalPorts),
		AlertEngine: alertEngine,
		Repository:  repo,
		Cache:       cacheImpl,
		EventBus:    busImpl,
		ResultTTL:   cfg.Cache.ResultTTL,
		Logger:      logger,
	})
	slog.Info("orchestrator initialized")

	// Initialize Server
	srv := api.NewServer(cfg.Server, orch, repo, cacheImpl, busImpl, alertEngine, adapters,
		variations.New(cfg.Sources.FreeProviders), Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("kite is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("kite shutdown complete")
}

// applyEnvOverrides maps KITE_* environment variables onto the config.
func applyEnvOverrides(cfg *domain.Config) {
	if v := os.Getenv("KITE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("KITE_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("KITE_SQLITE_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("KITE_POSTGRES_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := os.Getenv("KITE_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Repository.PostgresPort = port
		}
	}
	if v := os.Getenv("KITE_POSTGRES_USER"); v != "" {
		cfg.Repository.PostgresUser = v
	}
	if v := os.Getenv("KITE_POSTGRES_PASSWORD"); v != "" {
		cfg.Repository.PostgresPassword = v
	}
	if v := os.Getenv("KITE_POSTGRES_DB"); v != "" {
		cfg.Repository.PostgresDB = v
	}
	if v := os.Getenv("KITE_POSTGRES_SSLMODE"); v != "" {
		cfg.Repository.PostgresSSLMode = v
	}
	if v := os.Getenv("KITE_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("KITE_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	if v := os.Getenv("KITE_DISABLE_TOOLS"); v == "true" {
		cfg.Sources.EnableExternalTools = false
	}

	// External API credentials
	cfg.Sources.Breach.Key = os.Getenv("KITE_HIBP_API_KEY")
	cfg.Sources.Hunter.Key = os.Getenv("KITE_HUNTER_API_KEY")
	cfg.Sources.EmailRep.Key = os.Getenv("KITE_EMAILREP_API_KEY")
	cfg.Sources.Numverify.Key = os.Getenv("KITE_NUMVERIFY_API_KEY")
	cfg.Sources.Shodan.Key = os.Getenv("KITE_SHODAN_API_KEY")
	cfg.Sources.WebSearch.Key = os.Getenv("KITE_SERPAPI_KEY")
}

// loadAlertRules loads alert rules from the database, seeding the
// built-in defaults on first run.
func loadAlertRules(ctx context.Context, repo domain.Repository, engine *alerts.Engine) error {
	dbRules, err := repo.ListAlertRules(ctx)
	if err != nil {
		slog.Warn("failed to list alert rules from database", "error", err)
		return engine.LoadRules(domain.DefaultAlertRules())
	}

	if len(dbRules) > 0 {
		slog.Info("loading alert rules from database", "count", len(dbRules))
		return engine.LoadRules(dbRules)
	}

	// First run: persist the defaults so they can be edited via the API.
	defaults := domain.DefaultAlertRules()
	slog.Info("no alert rules in database, seeding defaults", "count", len(defaults))
	for _, rule := range defaults {
		if err := repo.SaveAlertRule(ctx, rule); err != nil {
			slog.Warn("failed to seed alert rule", "id", rule.ID, "error", err)
		}
	}
	return engine.LoadRules(defaults)
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║                🪁 KITE                    ║")
	fmt.Println("  ║        OSINT Aggregation Engine           ║")
	fmt.Println("  ║       One query, every source.            ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /api/detect                    - Classify a query string")
	fmt.Println("    POST /api/variations                - Generate person-name variations")
	fmt.Println("    POST /api/search                    - Run an investigation")
	fmt.Println("    GET  /api/investigations            - List investigations")
	fmt.Println("    GET  /api/investigations/{id}       - Get investigation by ID")
	fmt.Println("    GET  /api/investigations/{id}/data  - Get collected data")
	fmt.Println("    GET  /api/investigations/{id}/alerts - Get raised alerts")
	fmt.Println("    GET  /api/alert-rules               - List alert rules")
	fmt.Println("    POST /api/alert-rules               - Create an alert rule")
	fmt.Println("    POST /api/alert-rules/reload        - Hot-reload rules from database")
	fmt.Println("    GET  /api/stats                     - Pipeline statistics")
	fmt.Println("    GET  /health                        - Health check")
	fmt.Println()
}
