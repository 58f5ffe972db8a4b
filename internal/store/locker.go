package store

import (
	"context"
	"slices"
	"sync"
)

// KeyLocker serializes read-modify-write sequences per logical key. Locks are
// created on demand and released when no goroutine holds or waits for them.
type KeyLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// NewKeyLocker creates an empty KeyLocker.
func NewKeyLocker() *KeyLocker {
	return &KeyLocker{locks: make(map[string]*keyLock)}
}

// Lock acquires every key, in sorted order so that overlapping callers cannot
// deadlock. It returns a function releasing all of them, or the context error
// if ctx ends first, in which case nothing stays held.
func (l *KeyLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]string, 0, len(sorted))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlock(held[i])
		}
	}

	for _, key := range sorted {
		kl := l.acquireRef(key)
		select {
		case kl.sem <- struct{}{}:
			held = append(held, key)
		case <-ctx.Done():
			l.releaseRef(key)
			release()
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *KeyLocker) acquireRef(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *KeyLocker) releaseRef(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl := l.locks[key]
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *KeyLocker) unlock(key string) {
	l.mu.Lock()
	kl := l.locks[key]
	l.mu.Unlock()
	<-kl.sem
	l.releaseRef(key)
}

// size reports how many keys currently have a lock entry.
func (l *KeyLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
