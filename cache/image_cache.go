// Package cache provides a fixed-capacity image cache with deduplicated
// asynchronous fetches: for any key at most one download is in flight, and
// every concurrent caller for that key receives the same outcome.
package cache

import (
	"container/list"
	"context"
	"sync"
)

// FetchFunc retrieves the raw bytes for a key (an S3 object key or URL; the
// cache does not care which).
type FetchFunc func(ctx context.Context, key string) ([]byte, error)

// ImageCache memoizes fetch results under an LRU bound. Stored values belong
// to the cache; callers must treat the returned bytes as read-only.
type ImageCache struct {
	mu         sync.Mutex
	maxEntries int
	fetch      FetchFunc

	ll       *list.List               // front = most recently used
	entries  map[string]*list.Element // present keys
	inflight map[string]*inflightFetch
}

type cacheEntry struct {
	key  string
	data []byte
}

// inflightFetch is the shared state every waiter for a key attaches to.
type inflightFetch struct {
	done chan struct{} // closed when the fetch settles
	data []byte
	err  error

	// discarded is set by Invalidate/Clear while the fetch is pending:
	// waiters still get the result, but it is not retained.
	discarded bool
}

// New creates a cache holding at most maxEntries values, populating misses
// through fetch.
func New(maxEntries int, fetch FetchFunc) *ImageCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &ImageCache{
		maxEntries: maxEntries,
		fetch:      fetch,
		ll:         list.New(),
		entries:    make(map[string]*list.Element),
		inflight:   make(map[string]*inflightFetch),
	}
}

// Get returns the cached value for key, fetching it on a miss. Concurrent
// callers for an absent key share a single fetch and all observe its result.
// A failed fetch is not cached; the next Get retries from scratch.
//
// The underlying fetch is detached from ctx: a caller giving up does not
// cancel it for the remaining waiters. ctx only bounds how long this caller
// waits.
func (c *ImageCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()

	if elem, ok := c.entries[key]; ok {
		c.ll.MoveToFront(elem)
		data := elem.Value.(*cacheEntry).data
		c.mu.Unlock()
		return data, nil
	}

	if f, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		return c.wait(ctx, f)
	}

	f := &inflightFetch{done: make(chan struct{})}
	c.inflight[key] = f
	c.mu.Unlock()

	f.data, f.err = c.fetch(context.WithoutCancel(ctx), key)

	c.mu.Lock()
	delete(c.inflight, key)
	if f.err == nil && !f.discarded {
		c.insert(key, f.data)
	}
	c.mu.Unlock()
	close(f.done)

	return f.data, f.err
}

// wait blocks until the in-flight fetch settles or ctx ends.
func (c *ImageCache) wait(ctx context.Context, f *inflightFetch) ([]byte, error) {
	select {
	case <-f.done:
		return f.data, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// insert stores a value, evicting the least recently used entry when full.
// Caller holds c.mu.
func (c *ImageCache) insert(key string, data []byte) {
	if elem, ok := c.entries[key]; ok {
		c.ll.MoveToFront(elem)
		elem.Value.(*cacheEntry).data = data
		return
	}
	if c.ll.Len() >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = c.ll.PushFront(&cacheEntry{key: key, data: data})
}

// evictOldest removes the least recently used entry. Caller holds c.mu.
func (c *ImageCache) evictOldest() {
	elem := c.ll.Back()
	if elem == nil {
		return
	}
	c.ll.Remove(elem)
	delete(c.entries, elem.Value.(*cacheEntry).key)
}

// Invalidate drops the entry for key. If a fetch for key is in flight its
// waiters still receive the result, but the cache does not retain it.
func (c *ImageCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.ll.Remove(elem)
		delete(c.entries, key)
	}
	if f, ok := c.inflight[key]; ok {
		f.discarded = true
	}
}

// Clear drops every entry. In-flight fetches still resolve their waiters;
// their results are simply not stored.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	c.entries = make(map[string]*list.Element)
	for _, f := range c.inflight {
		f.discarded = true
	}
}

// Len reports the number of stored entries (in-flight fetches excluded).
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
