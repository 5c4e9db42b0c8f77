package domain

import "context"

// CacheStore defines the persistent cache tier. Retention is the store's
// concern; entries are never auto-expired by this subsystem.
type CacheStore interface {
	// Get returns ErrCacheMiss when the key is absent.
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Put(ctx context.Context, entry *CacheEntry) error
}

// QuotaStore backs the device-local daily search counter.
type QuotaStore interface {
	// Load returns the stored day ("2006-01-02") and count; an empty day means
	// nothing has been recorded yet.
	Load(ctx context.Context) (day string, count int, err error)
	Save(ctx context.Context, day string, count int) error
}

// LookupClient is the remote AI product lookup capability. It is the only
// network-dependent step in the engine.
type LookupClient interface {
	Lookup(ctx context.Context, req *LookupRequest) (*LookupResult, error)
}
