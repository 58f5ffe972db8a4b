// Package cache provides a freecache read-through decorator for store.KV.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unsafe"

	"github.com/coocood/freecache"
	"github.com/phrazzld/arcana/internal/platform/metrics"
	"github.com/phrazzld/arcana/internal/store"
)

// KV caches successful reads of the wrapped store. Writes go to the wrapped
// store first and then evict the affected keys.
type KV struct {
	next    store.KV
	cache   *freecache.Cache
	ttl     int
	metrics metrics.Recorder

	// mu orders cache fills after a miss against writes, so a fill can never
	// store a value older than a completed write.
	mu sync.RWMutex
}

var _ store.KV = (*KV)(nil)

// Options configures the decorator.
type Options struct {
	SizeMB  int
	TTL     time.Duration
	Metrics metrics.Recorder
	Logger  *slog.Logger
}

// Wrap returns next decorated with a cache, or next itself when the size is not positive.
func Wrap(next store.KV, opts Options) store.KV {
	if next == nil {
		panic("next cannot be nil")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SizeMB <= 0 {
		opts.Logger.Info("record cache disabled")
		return next
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop()
	}

	ttl := int(opts.TTL.Seconds())
	if ttl < 0 {
		ttl = 0
	}
	opts.Logger.Info("record cache initialized",
		slog.Int("size_mb", opts.SizeMB),
		slog.Int("ttl_seconds", ttl))

	return &KV{
		next:    next,
		cache:   freecache.NewCache(opts.SizeMB * 1024 * 1024),
		ttl:     ttl,
		metrics: opts.Metrics,
	}
}

// unsafeStringToBytes converts string to []byte without allocation.
// freecache copies keys internally and never modifies them.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// Get implements store.KV.Get
func (c *KV) Get(ctx context.Context, key string) ([]byte, error) {
	if val, err := c.cache.Get(unsafeStringToBytes(key)); err == nil {
		c.metrics.IncCacheHits()
		return val, nil
	}
	c.metrics.IncCacheMisses()

	c.mu.RLock()
	defer c.mu.RUnlock()

	val, err := c.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	// An oversized value is simply not cached.
	_ = c.cache.Set(unsafeStringToBytes(key), val, c.ttl)
	return val, nil
}

// Set implements store.KV.Set
func (c *KV) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.next.Set(ctx, key, value)
	c.evict(key)
	return err
}

// SetMany implements store.KV.SetMany
func (c *KV) SetMany(ctx context.Context, entries []store.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.next.SetMany(ctx, entries)
	for _, e := range entries {
		c.evict(e.Key)
	}
	return err
}

// Remove implements store.KV.Remove
func (c *KV) Remove(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.next.Remove(ctx, key)
	c.evict(key)
	return err
}

// RemovePrefix implements store.KV.RemovePrefix
func (c *KV) RemovePrefix(ctx context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.next.ListKeys(ctx, prefix)
	if err != nil {
		return 0, err
	}
	n, err := c.next.RemovePrefix(ctx, prefix)
	for _, key := range keys {
		c.evict(key)
	}
	return n, err
}

// ListKeys implements store.KV.ListKeys. Listings are never cached.
func (c *KV) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	return c.next.ListKeys(ctx, prefix)
}

// EntryCount returns the number of cached entries.
func (c *KV) EntryCount() int64 {
	return c.cache.EntryCount()
}

func (c *KV) evict(key string) {
	c.cache.Del(unsafeStringToBytes(key))
}
