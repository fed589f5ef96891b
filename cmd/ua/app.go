package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alfredjeanlab/userassets/internal/cache"
	"github.com/alfredjeanlab/userassets/internal/config"
	"github.com/alfredjeanlab/userassets/internal/events"
	"github.com/alfredjeanlab/userassets/internal/logging"
	"github.com/alfredjeanlab/userassets/internal/metrics"
	"github.com/alfredjeanlab/userassets/internal/protect"
	"github.com/alfredjeanlab/userassets/internal/schema"
	"github.com/alfredjeanlab/userassets/internal/service"
	"github.com/alfredjeanlab/userassets/internal/store"
	"github.com/alfredjeanlab/userassets/internal/store/postgres"
	"github.com/alfredjeanlab/userassets/internal/store/sqlite"
)

// app holds the configured components for one CLI invocation. The
// store and its collaborators are opened on first use so commands such as
// schema and validate never touch the database.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	validator *schema.Validator
	metrics   *metrics.Metrics

	store     store.Store
	publisher events.Publisher
	cache     *cache.RedisCache
	svc       *service.AssetService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	registry := schema.Default()
	if cfg.SchemaFile != "" {
		registry, err = schema.LoadFile(cfg.SchemaFile)
		if err != nil {
			return nil, err
		}
		logger.Debug("schema loaded", "file", cfg.SchemaFile)
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		validator: schema.NewValidator(registry),
		metrics:   metrics.New(prometheus.NewRegistry()),
	}, nil
}

// Service opens the store, event publisher and cache, and returns the asset
// service built on them.
func (a *app) Service(ctx context.Context) (*service.AssetService, error) {
	if a.svc != nil {
		return a.svc, nil
	}

	st, err := openStore(a.cfg)
	if err != nil {
		return nil, err
	}
	a.store = st

	opts := []service.Option{
		service.WithLogger(a.logger),
		service.WithMetrics(a.metrics),
		service.WithSanitizer(schema.Sanitizer{StripDenylist: a.cfg.StripSQLTokens}),
	}

	if a.cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(a.cfg.NATSURL)
		if err != nil {
			return nil, err
		}
		a.publisher = pub
		a.logger.Debug("events enabled", "nats_url", a.cfg.NATSURL)
	} else {
		a.publisher = events.NoopPublisher{}
	}
	opts = append(opts, service.WithPublisher(a.publisher))

	if a.cfg.RedisURL != "" {
		c, err := cache.New(ctx, a.cfg.RedisURL, a.cfg.CacheTTL)
		if err != nil {
			// Reads fall back to the store.
			a.logger.Warn("cache disabled", "err", err)
		} else {
			a.cache = c
			opts = append(opts, service.WithCache(c))
		}
	}

	a.svc = service.New(st, a.validator, opts...)
	return a.svc, nil
}

// Protector returns a protector over the asset service.
func (a *app) Protector(ctx context.Context) (*protect.Protector, error) {
	svc, err := a.Service(ctx)
	if err != nil {
		return nil, err
	}
	return protect.New(svc, protect.WithPublisher(a.publisher), protect.WithLogger(a.logger)), nil
}

// ServeMetrics exposes the Prometheus handler on the configured address and
// returns a function that shuts it down. It is a no-op when no address is
// configured.
func (a *app) ServeMetrics() func() {
	if a.cfg.MetricsAddr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux}
	go func() {
		a.logger.Info("metrics listening", "addr", a.cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "err", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Error("metrics server shutdown error", "err", err)
		}
	}
}

// Close releases whatever Service opened.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("error closing cache", "err", err)
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("error closing publisher", "err", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("error closing store", "err", err)
		}
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		return postgres.New(cfg.DatabaseURL)
	case config.DriverSQLite:
		return sqlite.New(cfg.DatabaseURL)
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
}
