package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// cacher is one layer of the cache.
type cacher interface {
	GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// LayeredCache implements a simple tiered cache: an in-memory layer backed by
// optional Postgres for persistent storage. Hits at lower layers are
// automatically percolated up.
type LayeredCache struct {
	hits   atomic.Int64
	misses atomic.Int64

	wrapped []cacher
}

// NewCache constructs a new layered cache. An empty DSN skips the Postgres
// layer and keeps everything in memory.
func NewCache(ctx context.Context, dsn string) (*LayeredCache, error) {
	layers := []cacher{newMemory()}
	if dsn != "" {
		pg, err := newPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		layers = append(layers, pg)
	}
	c := &LayeredCache{wrapped: layers}

	// Log cache stats every minute.
	go func() {
		for {
			time.Sleep(1 * time.Minute)
			hits, misses := c.hits.Load(), c.misses.Load()
			Log(ctx).LogAttrs(ctx, slog.LevelDebug, "cache stats",
				slog.Int64("hits", hits),
				slog.Int64("misses", misses),
				slog.Float64("ratio", float64(hits)/(float64(hits)+float64(misses))),
			)
		}
	}()

	return c, nil
}

// GetWithTTL returns the cached value and its TTL. The boolean returned is
// false if no value was found.
func (c *LayeredCache) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, bool) {
	var val []byte
	var ttl time.Duration
	var ok bool

	for idx, cc := range c.wrapped {
		val, ttl, ok = cc.GetWithTTL(ctx, key)
		if !ok {
			// Percolate the value back up if we eventually find it.
			defer func(cc cacher) {
				if val == nil {
					return
				}
				if err := cc.Set(ctx, key, val, ttl); err != nil {
					Log(ctx).Warn("problem caching", "key", key, "layer", idx)
				}
			}(cc)
			continue
		}

		_ = c.hits.Add(1)

		return val, ttl, true
	}

	_ = c.misses.Add(1)

	return nil, 0, false
}

// Get returns a cache value, if it exists, and a boolean if a value was found.
func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, _, ok := c.GetWithTTL(ctx, key)
	return val, ok
}

// Expire removes a key from all layers of the cache.
func (c *LayeredCache) Expire(ctx context.Context, key string) error {
	var err error
	for _, cc := range c.wrapped {
		err = errors.Join(err, cc.Delete(ctx, key))
	}
	return err
}

// Set a key/value in all layers of the cache.
func (c *LayeredCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if len(val) == 0 {
		Log(ctx).Warn("refusing to set empty value", "key", key)
		return
	}
	if ttl == 0 {
		Log(ctx).Warn("refusing to set zero ttl", "key", key)
		return
	}

	for idx, cc := range c.wrapped {
		if err := cc.Set(ctx, key, val, ttl); err != nil {
			Log(ctx).Warn("problem setting cache", "err", err, "layer", idx)
		}
	}
}

// memcache is the in-memory layer.
type memcache struct {
	r *ristretto.Cache[string, []byte]
}

func newMemory() *memcache {
	r, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e7,                          // Track LRU for up to 10M keys.
		MaxCost:     debug.SetMemoryLimit(-1) / 2, // Use half of available memory.
		BufferItems: 64,                           // Number of keys per Get buffer.
	})
	if err != nil {
		panic(err)
	}
	return &memcache{r: r}
}

func (m *memcache) GetWithTTL(_ context.Context, key string) ([]byte, time.Duration, bool) {
	val, ok := m.r.Get(key)
	if !ok {
		return nil, 0, false
	}
	ttl, ok := m.r.GetTTL(key)
	if !ok {
		return nil, 0, false
	}
	return val, ttl, true
}

func (m *memcache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.r.SetWithTTL(key, val, int64(len(val)), ttl)
	m.r.Wait()
	return nil
}

func (m *memcache) Delete(_ context.Context, key string) error {
	m.r.Del(key)
	return nil
}

// LinksKey returns a cache key for one page's outbound links.
func LinksKey(lang, title string) string {
	return fmt.Sprintf("l|%s|%s", lang, strings.ToLower(title))
}

// SearchKey returns a cache key for a search result.
func SearchKey(from, to, lang string) string {
	return fmt.Sprintf("s|%s|%s|%s", lang, strings.ToLower(from), strings.ToLower(to))
}

// fuzz spreads TTLs out so entries don't all expire at once.
func fuzz(d time.Duration, f float64) time.Duration {
	if f < 1.0 {
		f = 1.0
	}
	factor := 1.0 + rand.Float64()*(f-1.0)
	return time.Duration(float64(d) * factor)
}
