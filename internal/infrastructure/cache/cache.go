// Package cache holds the search result cache and its backends.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eslsoft/wordindex/internal/infrastructure/config"
)

// Cache stores opaque values under string keys. Implementations are safe
// for concurrent use.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set uses the default TTL when ttl is 0.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

var (
	ErrCacheMiss   = errors.New("cache miss")
	ErrCacheClosed = errors.New("cache closed")
)

// New builds the cache selected by cache.driver.
func New(cfg *config.Config) (Cache, func(), error) {
	var (
		c   Cache
		err error
	)
	switch cfg.Cache.Driver {
	case "", "memory":
		c = NewMemoryCache(cfg.Cache.TTL)
	case "redis":
		c, err = NewRedisCache(cfg.Cache.RedisURL, cfg.Cache.Prefix, cfg.Cache.TTL)
	case "none":
		c = Noop{}
	default:
		err = fmt.Errorf("unsupported cache driver %q", cfg.Cache.Driver)
	}
	if err != nil {
		return nil, nil, err
	}
	return c, func() { _ = c.Close() }, nil
}

// Noop never holds anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Delete(context.Context, string) error { return nil }
func (Noop) Clear(context.Context) error { return nil }
func (Noop) Close() error { return nil }
