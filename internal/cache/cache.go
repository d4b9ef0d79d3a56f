// Package cache provides the bounded LRU caches shared by the resolver,
// the market fetchers and the converter. Entries never expire; they are
// only evicted when the cache is full.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Recorder observes cache lookups. metrics.Registry implements it.
type Recorder interface {
	CacheHit(cache string)
	CacheMiss(cache string)
}

// Cache is a size-bounded LRU keyed by K. It is safe for concurrent use;
// concurrent loads of the same key share one call to the loader.
type Cache[K comparable, V any] struct {
	name     string
	lru      *lru.Cache[K, V]
	group    singleflight.Group
	recorder Recorder
}

// Option configures a Cache
type Option func(*options)

type options struct {
	recorder Recorder
}

// WithRecorder reports hits and misses to r
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// New creates a cache holding at most size entries.
func New[K comparable, V any](name string, size int, opts ...Option) (*Cache[K, V], error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	l, err := lru.New[K, V](size)
	if err != nil {
		return nil, fmt.Errorf("creating %s cache: %w", name, err)
	}

	return &Cache[K, V]{
		name:     name,
		lru:      l,
		recorder: o.recorder,
	}, nil
}

// Must is New that panics on an invalid size
func Must[K comparable, V any](name string, size int, opts ...Option) *Cache[K, V] {
	c, err := New[K, V](name, size, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the cache name used in metrics
func (c *Cache[K, V]) Name() string {
	return c.name
}

// Get returns the cached value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.lru.Get(key)
	c.record(ok)
	return v, ok
}

// Add stores a value. The last write for a key wins.
func (c *Cache[K, V]) Add(key K, value V) {
	c.lru.Add(key, value)
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Errors are returned to every waiting caller and are not cached.
// The shared load runs detached from any single caller's cancellation; each
// caller stops waiting when its own ctx is done.
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, key K, load func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fmt.Sprint(key), func() (any, error) {
		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		c.lru.Add(key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		v, _ := res.Val.(V)
		return v, res.Err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Remove drops a single key
func (c *Cache[K, V]) Remove(key K) {
	c.lru.Remove(key)
}

// Purge empties the cache
func (c *Cache[K, V]) Purge() {
	c.lru.Purge()
}

// Len returns the number of cached entries
func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}

func (c *Cache[K, V]) record(hit bool) {
	if c.recorder == nil {
		return
	}
	if hit {
		c.recorder.CacheHit(c.name)
	} else {
		c.recorder.CacheMiss(c.name)
	}
}
