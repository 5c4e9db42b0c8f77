package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nutriscan/backend/internal/domain"
	"go.uber.org/zap"
)

// LookupService runs the end-to-end "find this product" operation:
// rate-limit gate, two-tier cache read, remote AI lookup with progress
// narration, and write-back of found results.
//
// Concurrent invocations are not deduplicated; each runs the full sequence.
// The rate limiter and memory cache are the only cross-invocation shared
// state and carry their own synchronization.
type LookupService struct {
	limiter  *RateLimiter
	cache    *LookupCache
	client   domain.LookupClient
	narrator *ProgressNarrator
	logger   *zap.Logger
	now      func() time.Time
}

// NewLookupService creates the orchestrator. The narrator may be nil to
// disable progress narration entirely.
func NewLookupService(
	limiter *RateLimiter,
	cache *LookupCache,
	client domain.LookupClient,
	narrator *ProgressNarrator,
	logger *zap.Logger,
) *LookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{
		limiter:  limiter,
		cache:    cache,
		client:   client,
		narrator: narrator,
		logger:   logger,
		now:      time.Now,
	}
}

// Find resolves a product query. skipCache bypasses both cache tiers on read,
// but a successful result is still written back to both.
func (s *LookupService) Find(ctx context.Context, req *domain.LookupRequest) (*domain.LookupResult, error) {
	if req == nil || strings.TrimSpace(req.ProductName) == "" {
		return nil, domain.ErrInvalidRequest
	}

	maxResults := req.MaxResults
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > domain.MaxAlternativeMatches {
		maxResults = domain.MaxAlternativeMatches
	}

	// The gate precedes the cache read and is never skipped: a cache hit must
	// still consume quota, or repeat queries would bypass the limits entirely.
	if err := s.limiter.TryAcquire(ctx); err != nil {
		return nil, err
	}

	cacheType := CacheTypeStandard
	switch {
	case !req.Refinement.IsZero():
		cacheType = CacheTypeRefinement
	case maxResults > 1:
		cacheType = CacheTypeAlternatives
	}
	key := MakeKey(req.ProductName, req.Brand, req.Refinement, cacheType)

	if !req.SkipCache {
		if result, ok := s.cache.Get(ctx, key); ok {
			s.logger.Debug("lookup served from cache",
				zap.String("key", key), zap.Timep("cachedAt", result.CachedAt))
			annotateRecommended(result)
			return result, nil
		}
	}

	searchID := req.SearchID
	if searchID == "" {
		searchID = uuid.NewString()
	}

	// Narration runs only while the remote call is outstanding. Cancelling
	// and waiting on done guarantees no dangling timer once the call settles.
	remoteReq := *req
	remoteReq.MaxResults = maxResults
	stopNarration := s.startNarration(ctx, searchID)
	result, err := s.client.Lookup(ctx, &remoteReq)
	stopNarration()

	if err != nil {
		// Remote errors propagate as-is and are never cached.
		s.logger.Warn("remote lookup failed",
			zap.String("product", req.ProductName), zap.Error(err))
		return nil, err
	}

	if result.Found {
		// The stored copy must not alias result: the write-back marshals it on
		// another goroutine while the caller's copy gets annotated below.
		now := s.now()
		stored := result.Clone()
		stored.CachedAt = &now
		s.cache.Put(key, stored, now)
	}

	annotateRecommended(result)
	return result, nil
}

// startNarration begins progress narration and returns a stop function that
// cancels the loop and waits for it to exit.
func (s *LookupService) startNarration(ctx context.Context, searchID string) func() {
	if s.narrator == nil {
		return func() {}
	}
	nctx, cancel := context.WithCancel(ctx)
	done := s.narrator.Run(nctx, searchID)
	return func() {
		cancel()
		<-done
	}
}

// annotateRecommended flags the first alternative as recommended when its
// confidence clears the high-confidence threshold. Input order is
// authoritative; nothing is re-sorted.
func annotateRecommended(result *domain.LookupResult) {
	if len(result.Matches) == 0 {
		return
	}
	if result.Matches[0].IsHighConfidence() {
		result.Matches[0].Recommended = true
	}
}
