// Package cache stores the latest per-asset analysis for fast API reads.
package cache

import (
	"context"
	"time"
)

// Cache is a JSON value cache keyed by string.
type Cache interface {
	// Set stores value under key. A non-positive ttl keeps it until deleted.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Get decodes the value under key into dest, or returns core.ErrCacheMiss.
	Get(ctx context.Context, key string, dest any) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Config configures the cache. A disabled cache uses process memory.
type Config struct {
	Enabled  bool          `mapstructure:"enabled" json:"enabled"`
	Addr     string        `mapstructure:"addr" json:"addr" default:"localhost:6379"`
	Password string        `mapstructure:"password" json:"-"`
	DB       int           `mapstructure:"db" json:"db" validate:"gte=0,lte=15"`
	Prefix   string        `mapstructure:"prefix" json:"prefix" default:"sentinel"`
	TTL      time.Duration `mapstructure:"ttl" json:"ttl" default:"10m"`
}

// AnalysisKey is the cache key of an asset's latest analysis.
func AnalysisKey(symbol string) string {
	return "analysis:" + symbol
}

// New returns a Redis cache when enabled, otherwise an in-memory one.
func New(ctx context.Context, cfg Config) (Cache, error) {
	if !cfg.Enabled {
		return NewMemoryCache(), nil
	}
	return NewRedisCache(ctx, cfg)
}
