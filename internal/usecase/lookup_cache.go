package usecase

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/nutriscan/backend/internal/domain"
	"go.uber.org/zap"
)

// CacheType distinguishes logically different lookups for the same product.
type CacheType string

const (
	CacheTypeStandard     CacheType = "standard"
	CacheTypeAlternatives CacheType = "alternatives"
	CacheTypeRefinement   CacheType = "refinement"
)

// MakeKey derives the cache key for a lookup. Keys are a pure function of the
// normalized name, normalized brand, refinement context and cache type: two
// logically identical queries always hash to the same key regardless of
// casing or surrounding whitespace.
//
// A present refinement context replaces the cache-type suffix, since the
// hints already make the key unique to that refinement.
func MakeKey(name, brand string, ref *domain.RefinementContext, cacheType CacheType) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if b := strings.ToLower(strings.TrimSpace(brand)); b != "" {
		key += "__" + b
	}
	if !ref.IsZero() {
		return key + "__ref_" + refinementHash(ref)
	}
	return key + "__" + string(cacheType)
}

// refinementHash folds the refinement hints into a short stable token.
func refinementHash(ref *domain.RefinementContext) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s", ref.Store, ref.PackageSize, ref.AdditionalDetails)
	return fmt.Sprintf("%x", h.Sum64())
}

// MemoryStore is the fast bounded in-process cache tier.
type MemoryStore interface {
	Get(key string) (*domain.CacheEntry, bool)
	Put(entry *domain.CacheEntry)
}

// LookupCache layers the bounded memory tier over the persistent store.
// Staleness is advisory only: entries are never auto-expired, and cachedAt is
// surfaced to the user instead ("found 2 days ago") with a force-refresh path
// that bypasses reads.
type LookupCache struct {
	memory       MemoryStore
	persistent   domain.CacheStore
	logger       *zap.Logger
	writeTimeout time.Duration
}

// NewLookupCache creates the two-tier cache. The persistent store may be nil,
// leaving only the memory tier active.
func NewLookupCache(memory MemoryStore, persistent domain.CacheStore, logger *zap.Logger) *LookupCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupCache{
		memory:       memory,
		persistent:   persistent,
		logger:       logger,
		writeTimeout: 5 * time.Second,
	}
}

// Get checks the memory tier first, then the persistent tier. A persistent
// hit is promoted into memory so repeat queries within the process lifetime
// stay fast. Persistent-tier failures read as a miss.
//
// Returned results are clones: callers may mutate them freely without
// touching the tiers' own copies.
func (c *LookupCache) Get(ctx context.Context, key string) (*domain.LookupResult, bool) {
	if entry, ok := c.memory.Get(key); ok {
		return entry.Result.Clone(), true
	}

	if c.persistent == nil {
		return nil, false
	}

	entry, err := c.persistent.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			c.logger.Warn("persistent cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	c.memory.Put(entry)
	return entry.Result.Clone(), true
}

// Put stores a found result in both tiers. The caller stamps cachedAt before
// calling; insertedAt records when the entry went in. The persistent write is
// fire-and-forget: a failure is logged and swallowed.
//
// The tiers keep their own clone, so the caller's result stays mutable after
// Put returns even while the persistent write is still in flight.
func (c *LookupCache) Put(key string, result *domain.LookupResult, insertedAt time.Time) {
	if result == nil || !result.Found {
		return
	}

	entry := &domain.CacheEntry{Key: key, Result: *result.Clone(), InsertedAt: insertedAt}
	c.memory.Put(entry)

	if c.persistent == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.writeTimeout)
		defer cancel()
		if err := c.persistent.Put(ctx, entry); err != nil {
			c.logger.Warn("persistent cache write failed", zap.String("key", key), zap.Error(err))
		}
	}()
}
