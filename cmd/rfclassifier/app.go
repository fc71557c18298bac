package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JeffersonLab/rfClassifier/internal/cache"
	"github.com/JeffersonLab/rfClassifier/internal/classify"
	"github.com/JeffersonLab/rfClassifier/internal/config"
	"github.com/JeffersonLab/rfClassifier/internal/inference"
	"github.com/JeffersonLab/rfClassifier/internal/logger"
	"github.com/JeffersonLab/rfClassifier/internal/metrics"
	"github.com/JeffersonLab/rfClassifier/internal/modelinfo"
	"github.com/JeffersonLab/rfClassifier/internal/publish"
	"github.com/JeffersonLab/rfClassifier/internal/store"
	"github.com/JeffersonLab/rfClassifier/internal/waveform"
)

// app holds the long-lived collaborators shared by analyze and serve.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	pool      *pgxpool.Pool
	store     *store.PostgresStore
	redis     *cache.RedisCache
	engines   inference.Engines
	model     *modelinfo.Description
	metrics   *metrics.Metrics
	publisher *publish.Publisher
	service   *classify.Service
}

// loadConfig reads the environment and builds the logger for it.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, log, nil
}

// openStore connects to Postgres. The caller closes the pool.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pgxpool.Pool, *store.PostgresStore, error) {
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("database connected")
	return pool, store.NewPostgresStore(pool), nil
}

// newApp wires the classification pipeline. Metrics are registered with reg.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, reg prometheus.Registerer) (_ *app, err error) {
	a := &app{cfg: cfg, logger: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.model, err = modelinfo.Load(cfg.Model.DescriptionFile); err != nil {
		return nil, err
	}
	log.Info("model description loaded", zap.String("model", a.model.Identity()))

	if a.pool, a.store, err = openStore(ctx, cfg, log); err != nil {
		return nil, err
	}

	var modes classify.ModeSource = a.store
	if cfg.Redis.URL != "" {
		if a.redis, err = cache.NewRedisCache(cfg.Redis); err != nil {
			return nil, fmt.Errorf("create redis cache: %w", err)
		}
		if err = a.redis.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		modes = cache.NewModeCache(a.store, a.redis, cfg.Redis.ModeCacheTTL, log)
		log.Info("redis connected", zap.Duration("mode_cache_ttl", cfg.Redis.ModeCacheTTL))
	}

	if a.engines, err = inference.NewEngines(ctx, cfg.Inference, log); err != nil {
		return nil, fmt.Errorf("open inference engines: %w", err)
	}
	log.Info("inference engines ready",
		zap.String("cavity", a.engines.Cavity.Name()),
		zap.String("fault", a.engines.Fault.Name()))

	if a.publisher, err = publish.New(cfg.Kafka, log); err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}

	a.metrics = metrics.New(reg)

	policy := classify.DeploymentPolicy{Fixed: cfg.Modes.Deployment, OpsWindow: cfg.Modes.OpsWindow}
	validator := classify.NewValidator(classify.DefaultValidationParams(), modes, policy)
	classifier := classify.NewClassifier(a.engines.Cavity, a.engines.Fault, a.metrics)

	opts := []classify.Option{classify.WithStore(a.store), classify.WithRecorder(a.metrics)}
	if a.publisher != nil {
		opts = append(opts, classify.WithPublisher(a.publisher))
	}
	a.service = classify.NewService(waveform.NewRepository(log), validator, classifier, a.model.Identity(), log, opts...)
	return a, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("closing kafka publisher", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
