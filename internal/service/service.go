// Package service runs validated reads and writes of user assets on top of a
// store, and fans the results out to the event bus, the cache and metrics.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/userassets/internal/events"
	"github.com/alfredjeanlab/userassets/internal/metrics"
	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/schema"
	"github.com/alfredjeanlab/userassets/internal/store"
)

// Cache is the read-through cache consulted by Get. *cache.RedisCache
// satisfies it; lookups that miss return cache.ErrMiss.
type Cache interface {
	GetAsset(ctx context.Context, ownerID int64, name string) (*model.Asset, error)
	SetAsset(ctx context.Context, a *model.Asset) error
	DeleteAsset(ctx context.Context, ownerID int64, name string) error
	DeleteOwner(ctx context.Context, ownerID int64) error
}

// AssetService validates, sanitizes and persists user assets.
type AssetService struct {
	store     store.Store
	validator *schema.Validator
	sanitizer schema.Sanitizer
	publisher events.Publisher
	cache     Cache
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

// Option configures an AssetService.
type Option func(*AssetService)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *AssetService) { s.log = l }
}

// WithPublisher sets the event publisher. The default discards events.
func WithPublisher(p events.Publisher) Option {
	return func(s *AssetService) { s.publisher = p }
}

// WithCache enables the read-through cache.
func WithCache(c Cache) Option {
	return func(s *AssetService) { s.cache = c }
}

// WithMetrics records validation, store and cache metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AssetService) { s.metrics = m }
}

// WithSanitizer replaces the write-path sanitizer.
func WithSanitizer(z schema.Sanitizer) Option {
	return func(s *AssetService) { s.sanitizer = z }
}

// WithClock sets the time source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *AssetService) { s.now = now }
}

// New returns a service over st. A nil validator checks against the
// built-in schema.
func New(st store.Store, v *schema.Validator, opts ...Option) *AssetService {
	if v == nil {
		v = schema.NewValidator(nil)
	}
	s := &AssetService{
		store:     st,
		validator: v,
		publisher: events.NoopPublisher{},
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the schema the service validates against.
func (s *AssetService) Registry() *schema.Registry {
	return s.validator.Registry()
}

// Store returns the underlying store.
func (s *AssetService) Store() store.Store {
	return s.store
}

// publish sends an event. Failures are logged and never reach the caller.
func (s *AssetService) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.log.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

// observe times one store call.
func (s *AssetService) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.metrics.ObserveStore(op, start, err)
	return err
}

func (s *AssetService) forget(ctx context.Context, ownerID int64, name string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteAsset(ctx, ownerID, name); err != nil {
		s.log.Warn("failed to invalidate cached asset", "owner_id", ownerID, "asset", name, "error", err)
	}
}

// storeError gives err a persistence classification. Errors the backend
// already classified keep their code; everything else is a StorageError.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *model.StoreError
	if errors.As(err, &se) {
		return err
	}
	code := model.CodeStorageError
	if errors.Is(err, store.ErrIntegrity) {
		code = model.CodeIntegrityError
	}
	return &model.StoreError{Code: code, Op: op, Err: err}
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
