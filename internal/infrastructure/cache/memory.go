package cache

import (
	"container/list"
	"encoding/json"
	"sync"

	"github.com/nutriscan/backend/internal/domain"
)

// Memory-tier bounds. A session only ever touches a handful of recent
// lookups, so both ceilings are deliberately small.
const (
	DefaultMaxEntries = 20
	DefaultMaxBytes   = 5 * 1024 * 1024
)

// lruItem pairs a cache entry with its estimated byte size.
type lruItem struct {
	entry *domain.CacheEntry
	size  int64
}

// MemoryCache is a thread-safe LRU cache bounded by entry count and by an
// approximate aggregate byte size. When either bound would be exceeded, the
// least-recently-used entry goes first.
type MemoryCache struct {
	mu         sync.Mutex
	maxEntries int
	maxBytes   int64
	totalBytes int64
	order      *list.List // front = most recently used
	items      map[string]*list.Element
}

// NewMemoryCache creates a bounded memory cache; non-positive bounds fall
// back to the defaults.
func NewMemoryCache(maxEntries int, maxBytes int64) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &MemoryCache{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		order:      list.New(),
		items:      make(map[string]*list.Element),
	}
}

// Get retrieves an entry and marks it most recently used.
func (c *MemoryCache) Get(key string) (*domain.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*lruItem).entry, true
}

// Put inserts or replaces an entry, evicting from the LRU end until both
// bounds hold again. The newly inserted entry itself is never evicted, even
// if it alone exceeds the byte ceiling.
func (c *MemoryCache) Put(entry *domain.CacheEntry) {
	if entry == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	size := entrySize(entry)

	if elem, ok := c.items[entry.Key]; ok {
		item := elem.Value.(*lruItem)
		c.totalBytes += size - item.size
		item.entry = entry
		item.size = size
		c.order.MoveToFront(elem)
	} else {
		elem := c.order.PushFront(&lruItem{entry: entry, size: size})
		c.items[entry.Key] = elem
		c.totalBytes += size
	}

	for (c.order.Len() > c.maxEntries || c.totalBytes > c.maxBytes) && c.order.Len() > 1 {
		c.evictOldest()
	}
}

// evictOldest drops the entry at the LRU end. Caller holds the lock.
func (c *MemoryCache) evictOldest() {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	item := elem.Value.(*lruItem)
	c.order.Remove(elem)
	delete(c.items, item.entry.Key)
	c.totalBytes -= item.size
}

// Len returns the current entry count.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Bytes returns the current approximate aggregate size.
func (c *MemoryCache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalBytes
}

// entrySize estimates an entry's footprint from its JSON encoding, the same
// shape it takes in the persistent tier.
func entrySize(entry *domain.CacheEntry) int64 {
	data, err := json.Marshal(entry.Result)
	if err != nil {
		return int64(len(entry.Key))
	}
	return int64(len(entry.Key) + len(data))
}
