package cache

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ModeSource looks up a cavity's control mode at a point in time.
type ModeSource interface {
	CavityMode(ctx context.Context, zone string, cavity int, deployment string, at time.Time) (int, error)
}

// ModeCache is a read-through cache in front of a ModeSource. Historical modes never
// change, so entries live for the full TTL. Cache failures fall through to the source.
type ModeCache struct {
	next   ModeSource
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewModeCache wraps next with a read-through cache.
func NewModeCache(next ModeSource, c Cache, ttl time.Duration, logger *zap.Logger) *ModeCache {
	return &ModeCache{next: next, cache: c, ttl: ttl, logger: logger}
}

func (m *ModeCache) CavityMode(ctx context.Context, zone string, cavity int, deployment string, at time.Time) (int, error) {
	key := ModeKey(deployment, zone, cavity, at)

	val, ok, err := m.cache.Get(ctx, key)
	switch {
	case err != nil:
		m.logger.Warn("mode cache read failed", zap.String("key", key), zap.Error(err))
	case ok:
		if mode, err := strconv.Atoi(string(val)); err == nil {
			return mode, nil
		}
		m.logger.Warn("discarding corrupt mode cache entry", zap.String("key", key))
	}

	mode, err := m.next.CavityMode(ctx, zone, cavity, deployment, at)
	if err != nil {
		return 0, err
	}

	if err := m.cache.Set(ctx, key, []byte(strconv.Itoa(mode)), m.ttl); err != nil {
		m.logger.Warn("mode cache write failed", zap.String("key", key), zap.Error(err))
	}
	return mode, nil
}
