package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/sibyl/internal/agent"
	"github.com/MikeSquared-Agency/sibyl/internal/api"
	"github.com/MikeSquared-Agency/sibyl/internal/config"
	"github.com/MikeSquared-Agency/sibyl/internal/geo"
	"github.com/MikeSquared-Agency/sibyl/internal/hermes"
	"github.com/MikeSquared-Agency/sibyl/internal/metrics"
	"github.com/MikeSquared-Agency/sibyl/internal/openrouter"
	"github.com/MikeSquared-Agency/sibyl/internal/reading"
	"github.com/MikeSquared-Agency/sibyl/internal/store"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)
	logger := slog.Default()

	logger.Info("sibyl starting", "port", cfg.Port, "version", version)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OpenRouterAPIKey == "" {
		return errors.New("OPENROUTER_API_KEY is required")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	llm := openrouter.NewClient(cfg.OpenRouterAPIKey, cfg.OpenRouterURL, cfg.LLMTimeout, logger,
		openrouter.WithAppInfo(cfg.AppURL, cfg.AppTitle),
		openrouter.WithMetrics(m),
	)
	chain := openrouter.NewChain(cfg.Models...)
	if len(chain) == 0 {
		chain = openrouter.DefaultChain
	}
	logger.Info("openrouter client ready", "models", chain)

	deps := api.Deps{Gatherer: reg, APIToken: cfg.APIToken, Logger: logger}

	// Database (optional: without it readings use the built-in template and
	// the questionnaire API is not mounted)
	var templates reading.TemplateSource
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		templates = db
		deps.Questions = db
		deps.Archive = db
		logger.Info("database connected")
	} else {
		logger.Warn("DATABASE_URL not set, running without persistence")
	}
	deps.Readings = reading.New(templates, llm, chain, logger, m)

	locator, err := geo.NewClient(cfg.NominatimURL, cfg.OverpassURL, cfg.GeoCacheSize, cfg.GeoCacheTTL, logger, m)
	if err != nil {
		return err
	}
	defer locator.Close()
	deps.Agent = agent.New(llm, locator, chain, logger)

	// NATS/Hermes (optional)
	var events *hermes.Client
	if cfg.NatsURL != "" {
		events, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			return err
		}
		defer events.Close()
		deps.Events = events
		logger.Info("NATS connected", "url", cfg.NatsURL)
	}

	if cfg.APIToken == "" {
		logger.Warn("SIBYL_API_TOKEN not set, authenticated routes will reject every request")
	}

	srv := api.NewServer(cfg.Port, deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := events.Announce(cfg.Port, version); err != nil {
		logger.Warn("failed to publish registration", "error", err)
	}
	logger.Info("sibyl ready", "port", cfg.Port)

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("sibyl stopped")
	return nil
}
