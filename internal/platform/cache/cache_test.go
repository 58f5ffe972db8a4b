package cache_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/arcana/internal/platform/cache"
	"github.com/phrazzld/arcana/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingKV is an in-memory store.KV that counts reads.
type countingKV struct {
	mu    sync.Mutex
	data  map[string][]byte
	reads int
}

func newCountingKV() *countingKV {
	return &countingKV{data: make(map[string][]byte)}
}

func (k *countingKV) Get(_ context.Context, key string) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.reads++
	v, ok := k.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (k *countingKV) Set(_ context.Context, key string, value []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.data[key] = append([]byte(nil), value...)
	return nil
}

func (k *countingKV) SetMany(ctx context.Context, entries []store.Entry) error {
	for _, e := range entries {
		_ = k.Set(ctx, e.Key, e.Value)
	}
	return nil
}

func (k *countingKV) Remove(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.data, key)
	return nil
}

func (k *countingKV) RemovePrefix(_ context.Context, prefix string) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := 0
	for key := range k.data {
		if strings.HasPrefix(key, prefix) {
			delete(k.data, key)
			n++
		}
	}
	return n, nil
}

func (k *countingKV) ListKeys(_ context.Context, prefix string) ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	keys := []string{}
	for key := range k.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (k *countingKV) readCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.reads
}

func TestWrapDisabledReturnsNext(t *testing.T) {
	next := newCountingKV()
	assert.Same(t, next, cache.Wrap(next, cache.Options{SizeMB: 0}).(*countingKV))
}

func TestCacheServesRepeatedReads(t *testing.T) {
	ctx := context.Background()
	next := newCountingKV()
	kv := cache.Wrap(next, cache.Options{SizeMB: 1, TTL: time.Minute})

	require.NoError(t, kv.Set(ctx, "player/a/character", []byte("v1")))

	for i := 0; i < 3; i++ {
		got, err := kv.Get(ctx, "player/a/character")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
	}
	assert.Equal(t, 1, next.readCount())
}

func TestCacheEvictsOnWrite(t *testing.T) {
	ctx := context.Background()
	next := newCountingKV()
	kv := cache.Wrap(next, cache.Options{SizeMB: 1})

	require.NoError(t, kv.Set(ctx, "k", []byte("v1")))
	_, err := kv.Get(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, kv.SetMany(ctx, []store.Entry{{Key: "k", Value: []byte("v2")}}))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, kv.Remove(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCacheEvictsOnRemovePrefix(t *testing.T) {
	ctx := context.Background()
	next := newCountingKV()
	kv := cache.Wrap(next, cache.Options{SizeMB: 1})

	require.NoError(t, kv.Set(ctx, "player/a/character", []byte("a")))
	require.NoError(t, kv.Set(ctx, "player/b/character", []byte("b")))
	_, _ = kv.Get(ctx, "player/a/character")
	_, _ = kv.Get(ctx, "player/b/character")

	n, err := kv.RemovePrefix(ctx, "player/a/")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = kv.Get(ctx, "player/a/character")
	assert.ErrorIs(t, err, store.ErrNotFound)
	got, err := kv.Get(ctx, "player/b/character")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)
}

func TestCacheDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	next := newCountingKV()
	kv := cache.Wrap(next, cache.Options{SizeMB: 1})

	_, err := kv.Get(ctx, "absent")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, next.Set(ctx, "absent", []byte("now present")))
	got, err := kv.Get(ctx, "absent")
	require.NoError(t, err)
	assert.Equal(t, []byte("now present"), got)
}
