package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JeffersonLab/rfClassifier/internal/api"
	"github.com/JeffersonLab/rfClassifier/internal/api/handler"
	mw "github.com/JeffersonLab/rfClassifier/internal/api/middleware"
	"github.com/JeffersonLab/rfClassifier/internal/config"
	"github.com/JeffersonLab/rfClassifier/internal/store"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			log.Info("config loaded",
				zap.String("env", cfg.Server.Env),
				zap.String("inference_backend", cfg.Inference.Backend),
				zap.String("mode_deployment", cfg.Modes.Deployment))
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if err := store.RunMigrations(cfg.Database.URL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations applied")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := newApp(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer a.Close()

	router := api.NewRouter(buildDependencies(a, reg))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutdown signal received, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}

func buildDependencies(a *app, reg *prometheus.Registry) api.Dependencies {
	checks := []handler.Check{
		{Name: "database", Ping: a.store.Ping},
		{Name: "inference", Ping: a.engines.Ready},
	}
	var counter mw.Counter
	if a.redis != nil {
		checks = append(checks, handler.Check{Name: "cache", Ping: a.redis.Ping})
		counter = a.redis
	}

	keys := handler.NewKeys(a.store, a.logger)
	return api.Dependencies{
		Logger:    a.logger,
		Observer:  a.metrics,
		Auth:      mw.NewAuth(a.store, a.logger),
		RateLimit: mw.NewRateLimit(counter, a.cfg.Server.RequestsPerMinute, a.logger),

		HealthHandler:    handler.NewHealthHandler(checks...),
		MetricsHandler:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		AnalyzeHandler:   handler.NewAnalyzeHandler(a.service),
		ResultsHandler:   handler.NewResultsHandler(a.store, a.logger),
		ModelHandler:     handler.NewModelHandler(a.model),
		CreateKeyHandler: keys.Create,
		ListKeysHandler:  keys.List,
		RevokeKeyHandler: keys.Revoke,
	}
}
