// Package cache implements the cache-aside discipline shared by every
// service: reads go through the cache and fall back to the loader, writes
// invalidate. A cache outage is logged and never fails the caller.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shop-backend/internal/redisclient"
	"shop-backend/internal/util"

	"go.uber.org/zap"
)

// Backend is the key/value store behind a cache. *redisclient.Client
// satisfies it; Get must return redisclient.ErrMiss for absent keys.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Loader reads an entity from the source of truth. It returns an error
// (typically store.ErrNotFound) when the entity does not exist.
type Loader[T any] func(ctx context.Context, id int64) (*T, error)

// Store caches snapshots of one entity kind under "<entity>:<id>".
type Store[T any] struct {
	backend   Backend
	entity    string
	ttl       time.Duration
	cacheable func(*T) bool
	logger    *zap.Logger
}

type Option[T any] func(*Store[T])

// WithCacheable restricts which loaded values are written to the cache.
func WithCacheable[T any](fn func(*T) bool) Option[T] {
	return func(s *Store[T]) {
		s.cacheable = fn
	}
}

// New creates a cache-aside store for one entity kind.
func New[T any](backend Backend, entity string, ttl time.Duration, opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		backend: backend,
		entity:  entity,
		ttl:     ttl,
		logger:  util.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the cache key of id.
func (s *Store[T]) Key(id int64) string {
	return fmt.Sprintf("%s:%d", s.entity, id)
}

// Get returns the cached snapshot of id, or loads it and populates the
// cache. Loader errors are returned unchanged and nothing is cached.
func (s *Store[T]) Get(ctx context.Context, id int64, load Loader[T]) (*T, error) {
	key := s.Key(id)

	raw, err := s.backend.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			util.CacheRequestsTotal.WithLabelValues(s.entity, "hit").Inc()
			return &v, nil
		}
		s.logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
		util.CacheRequestsTotal.WithLabelValues(s.entity, "error").Inc()
	case errors.Is(err, redisclient.ErrMiss):
		util.CacheRequestsTotal.WithLabelValues(s.entity, "miss").Inc()
	default:
		s.logger.Warn("Cache read failed, falling back to database",
			zap.String("key", key),
			zap.Error(err))
		util.CacheRequestsTotal.WithLabelValues(s.entity, "error").Inc()
	}

	v, err := load(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cacheable == nil || s.cacheable(v) {
		s.put(ctx, key, v)
	}
	return v, nil
}

func (s *Store[T]) put(ctx context.Context, key string, v *T) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.backend.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes the cached snapshots of ids. Failures are logged.
// The delete is issued even when ctx is already cancelled: it follows a
// committed write and must not be dropped because the caller went away.
func (s *Store[T]) Invalidate(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.Key(id)
	}

	if err := s.backend.Del(ctx, keys...); err != nil {
		s.logger.Warn("Cache invalidation failed",
			zap.Strings("keys", keys),
			zap.Error(err))
		return
	}
	util.CacheInvalidationsTotal.WithLabelValues(s.entity).Add(float64(len(keys)))
}
