// Package cache is the TTL response cache for slow-changing upstream
// payloads: the configs dictionary and per-EEZ boundary geometries. Detection
// queries are never cached; they are date-ranged and cheap to re-issue
// relative to their freshness requirements.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/marisklase/darkwatch/internal/cache/keys"
	"github.com/marisklase/darkwatch/internal/observability"
)

// Store is the subset of redisstore.Client the cache needs; split out so
// tests and the invalidation consumer can swap implementations.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Responses struct {
	logger        *slog.Logger
	store         Store
	configsTTL    time.Duration
	boundariesTTL time.Duration
}

func NewResponses(logger *slog.Logger, store Store, configsTTL, boundariesTTL time.Duration) *Responses {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responses{
		logger:        logger,
		store:         store,
		configsTTL:    configsTTL,
		boundariesTTL: boundariesTTL,
	}
}

// GetConfigs returns the cached configs body, or nil on a miss. Cache errors
// degrade to a miss; the caller falls through to the upstream.
func (r *Responses) GetConfigs(ctx context.Context) []byte {
	return r.lookup(ctx, keys.Configs())
}

func (r *Responses) SetConfigs(ctx context.Context, body []byte) {
	r.fill(ctx, keys.Configs(), body, r.configsTTL)
}

// GetBoundary returns one EEZ's cached boundary geometry, or nil.
func (r *Responses) GetBoundary(ctx context.Context, eezID string) []byte {
	return r.lookup(ctx, keys.Boundary(eezID))
}

func (r *Responses) SetBoundary(ctx context.Context, eezID string, body []byte) {
	r.fill(ctx, keys.Boundary(eezID), body, r.boundariesTTL)
}

// Invalidate drops the configs entry and the boundary entries for the given
// EEZs. Called by the detection-batch consumer when new data lands.
func (r *Responses) Invalidate(ctx context.Context, eezIDs []string) error {
	ks := make([]string, 0, len(eezIDs)+1)
	ks = append(ks, keys.Configs())
	for _, id := range eezIDs {
		ks = append(ks, keys.Boundary(id))
	}
	return r.store.Del(ctx, ks...)
}

func (r *Responses) lookup(ctx context.Context, key string) []byte {
	b, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache read failed; treating as miss", "key", key, "err", err)
		return nil
	}
	if b == nil {
		observability.IncCacheMiss()
		return nil
	}
	observability.IncCacheHit()
	return b
}

func (r *Responses) fill(ctx context.Context, key string, body []byte, ttl time.Duration) {
	if len(body) == 0 || ttl <= 0 {
		return
	}
	if err := r.store.Set(ctx, key, body, ttl); err != nil {
		r.logger.Warn("cache fill failed", "key", key, "err", err)
	}
}
