package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/proviq/internal/adapter/cpanel"
	"github.com/neomorfeo/proviq/internal/adapter/domains"
	"github.com/neomorfeo/proviq/internal/adapter/fsm"
	"github.com/neomorfeo/proviq/internal/adapter/otel"
	"github.com/neomorfeo/proviq/internal/adapter/river"
	"github.com/neomorfeo/proviq/internal/adapter/sqlite"
	"github.com/neomorfeo/proviq/internal/adapter/ssl"
	"github.com/neomorfeo/proviq/internal/adapter/support"
	"github.com/neomorfeo/proviq/internal/app"
	"github.com/neomorfeo/proviq/internal/config"

	handler "github.com/neomorfeo/proviq/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Telemetry ---
	telemetry, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(flushCtx); err != nil {
			logger.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	store, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("preparing database: %w", err)
	}

	subscriptions := otel.NewTracingSubscriptionRepository(store)
	components := otel.NewTracingComponentStore(store)

	// --- Provisioning providers ---
	registry := app.NewHandlerRegistry(logger)
	if cfg.CPanel.BaseURL != "" {
		registry.Register("cpanel", cpanel.New(cpanel.Config{
			BaseURL:  cfg.CPanel.BaseURL,
			Username: cfg.CPanel.Username,
			Token:    cfg.CPanel.Token,
		}, nil))
	}
	if cfg.SSL.BaseURL != "" {
		registry.Register("ssl_certificate", ssl.New(ssl.Config{
			BaseURL: cfg.SSL.BaseURL,
			Token:   cfg.SSL.Token,
		}, nil))
	}
	if cfg.Domains.BaseURL != "" {
		registry.Register("domain_registration", domains.New(domains.Config{
			BaseURL: cfg.Domains.BaseURL,
			APIKey:  cfg.Domains.APIKey,
		}, nil))
	}
	if cfg.Support.BaseURL != "" {
		registry.Register("support_plan", support.New(support.Config{
			BaseURL: cfg.Support.BaseURL,
			Token:   cfg.Support.Token,
		}, nil))
	}
	logger.Info("providers registered", "keys", registry.Keys())

	// --- Queue ---
	dispatcher := otel.NewTracingDispatcher(
		app.NewLifecycleDispatcher(components, registry, logger, cfg.HandlerTimeout))

	queue, err := river.Setup(ctx, db, dispatcher, river.Options{
		MaxWorkers:  cfg.QueueMaxWorkers,
		MaxAttempts: cfg.QueueMaxAttempts,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("queue setup: %w", err)
	}
	if err := queue.Start(ctx); err != nil {
		return fmt.Errorf("starting queue: %w", err)
	}

	publisher := otel.NewTracingPublisher(river.NewPublisher(queue, logger))

	// --- Application ---
	svc := app.NewSubscriptionService(subscriptions, components, publisher, fsm.New())

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware("proviq", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("proviq", "0.1.0"))
	handler.Register(api, svc, registry)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("proviq listening", "port", cfg.Port)
		logger.Info("API docs", "url", "http://localhost:"+cfg.Port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if stopErr := queue.Stop(stopCtx); stopErr != nil {
			logger.Error("queue stop", "error", stopErr)
		}
		return fmt.Errorf("server: %w", err)
	case <-done:
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop accepting HTTP traffic first, then drain in-flight queue jobs.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := queue.Stop(shutdownCtx); err != nil {
		logger.Error("queue stop", "error", err)
	}

	logger.Info("stopped")
	return nil
}
