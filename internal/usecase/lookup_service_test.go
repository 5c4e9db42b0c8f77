package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nutriscan/backend/internal/domain"
)

// fakeLookupClient is a mock domain.LookupClient counting remote calls.
type fakeLookupClient struct {
	result *domain.LookupResult
	err    error
	calls  int
}

func (f *fakeLookupClient) Lookup(ctx context.Context, req *domain.LookupRequest) (*domain.LookupResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	result := *f.result
	return &result, nil
}

// newTestService wires a service over in-memory fakes with a fixed clock.
func newTestService(client *fakeLookupClient) (*LookupService, *fakeMemoryStore, *fakeQuotaStore) {
	quota := &fakeQuotaStore{}
	limiter := NewRateLimiter(quota, RateLimiterConfig{
		// Generous window so the limiter never interferes unless a test wants it to.
		PerWindow: 100,
	}, nil)

	memory := newFakeMemoryStore()
	lookupCache := NewLookupCache(memory, nil, nil)

	service := NewLookupService(limiter, lookupCache, client, nil, nil)
	service.now = func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	}
	return service, memory, quota
}

func TestFind_ColdCacheCallsRemoteOnceThenServesFromCache(t *testing.T) {
	client := &fakeLookupClient{result: foundResult("Cola")}
	service, _, _ := newTestService(client)
	ctx := context.Background()

	req := &domain.LookupRequest{ProductName: "Cola", Brand: "BrandX"}

	first, err := service.Find(ctx, req)
	if err != nil {
		t.Fatalf("first Find() error = %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("remote calls = %d, want 1", client.calls)
	}
	if first.CachedAt != nil {
		t.Error("fresh result must not carry cachedAt")
	}

	second, err := service.Find(ctx, req)
	if err != nil {
		t.Fatalf("second Find() error = %v", err)
	}
	if client.calls != 1 {
		t.Errorf("remote calls = %d after cached lookup, want still 1", client.calls)
	}
	if second.CachedAt == nil {
		t.Fatal("cached result must carry cachedAt")
	}
	if !second.CachedAt.Equal(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("cachedAt = %v, want the write-time stamp", second.CachedAt)
	}
}

func TestFind_SkipCacheBypassesReadButStillWritesBack(t *testing.T) {
	client := &fakeLookupClient{result: foundResult("Cola")}
	service, memory, _ := newTestService(client)
	ctx := context.Background()

	// Warm the cache.
	if _, err := service.Find(ctx, &domain.LookupRequest{ProductName: "Cola"}); err != nil {
		t.Fatalf("warm-up Find() error = %v", err)
	}

	// Force refresh: the existing entry must not be read, but the fresh
	// result must be written back.
	putsBefore := memory.puts
	result, err := service.Find(ctx, &domain.LookupRequest{ProductName: "Cola", SkipCache: true})
	if err != nil {
		t.Fatalf("skipCache Find() error = %v", err)
	}
	if client.calls != 2 {
		t.Errorf("remote calls = %d, want 2 (skipCache must bypass the read)", client.calls)
	}
	if result.CachedAt != nil {
		t.Error("skipCache result served remotely must not carry cachedAt")
	}
	if memory.puts != putsBefore+1 {
		t.Errorf("memory puts = %d, want %d (write-back still happens)", memory.puts, putsBefore+1)
	}
}

func TestFind_RateLimitShortCircuits(t *testing.T) {
	client := &fakeLookupClient{result: foundResult("Cola")}
	quota := &fakeQuotaStore{}
	limiter := NewRateLimiter(quota, RateLimiterConfig{}, nil)
	service := NewLookupService(limiter, NewLookupCache(newFakeMemoryStore(), nil, nil), client, nil, nil)
	ctx := context.Background()

	service.Find(ctx, &domain.LookupRequest{ProductName: "Cola"})
	service.Find(ctx, &domain.LookupRequest{ProductName: "Cola"})

	_, err := service.Find(ctx, &domain.LookupRequest{ProductName: "Cola"})
	var windowErr *domain.WindowExceededError
	if !errors.As(err, &windowErr) {
		t.Fatalf("error = %v, want WindowExceededError", err)
	}
	// Only the first call reached the remote service; the second hit cache,
	// the third never got past the gate.
	if client.calls != 1 {
		t.Errorf("remote calls = %d, want 1", client.calls)
	}
}

func TestFind_CacheHitStillConsumesQuota(t *testing.T) {
	client := &fakeLookupClient{result: foundResult("Cola")}
	service, _, quota := newTestService(client)
	ctx := context.Background()

	service.Find(ctx, &domain.LookupRequest{ProductName: "Cola"})
	service.Find(ctx, &domain.LookupRequest{ProductName: "Cola"})

	if quota.count != 2 {
		t.Errorf("daily count = %d, want 2 (cache hits must not bypass the gate)", quota.count)
	}
}

func TestFind_RemoteErrorsPropagateAndAreNotCached(t *testing.T) {
	client := &fakeLookupClient{err: &domain.ServerError{StatusCode: 500}}
	service, memory, _ := newTestService(client)
	ctx := context.Background()

	_, err := service.Find(ctx, &domain.LookupRequest{ProductName: "Cola"})
	var serverErr *domain.ServerError
	if !errors.As(err, &serverErr) || serverErr.StatusCode != 500 {
		t.Fatalf("error = %v, want ServerError(500)", err)
	}
	if memory.puts != 0 {
		t.Error("failed lookups must not be cached")
	}
}

func TestFind_NotFoundIsReturnedButNotCached(t *testing.T) {
	client := &fakeLookupClient{result: &domain.LookupResult{Found: false}}
	service, memory, _ := newTestService(client)
	ctx := context.Background()

	result, err := service.Find(ctx, &domain.LookupRequest{ProductName: "Obscurium"})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if result.Found {
		t.Error("Found = true, want false")
	}
	if memory.puts != 0 {
		t.Error("not-found results must not be cached")
	}
}

func TestFind_EmptyNameRejected(t *testing.T) {
	client := &fakeLookupClient{result: foundResult("Cola")}
	service, _, _ := newTestService(client)

	_, err := service.Find(context.Background(), &domain.LookupRequest{ProductName: "   "})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
	if client.calls != 0 {
		t.Errorf("remote calls = %d, want 0", client.calls)
	}
}

func TestFind_RecommendedAnnotation(t *testing.T) {
	high := 92.0
	low := 60.0
	client := &fakeLookupClient{result: &domain.LookupResult{
		Found: true,
		Name:  "Cola",
		Matches: []domain.ProductMatch{
			{Name: "Cola Classic", Confidence: &high},
			{Name: "Cola Zero", Confidence: &low},
		},
	}}
	service, _, _ := newTestService(client)

	result, err := service.Find(context.Background(),
		&domain.LookupRequest{ProductName: "Cola", MaxResults: 3})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if !result.Matches[0].Recommended {
		t.Error("first high-confidence match should be flagged recommended")
	}
	if result.Matches[1].Recommended {
		t.Error("only the first match may be flagged")
	}
	if result.Matches[0].Name != "Cola Classic" || result.Matches[1].Name != "Cola Zero" {
		t.Error("match order must never change")
	}
}

func TestFind_ReturnedMatchesDoNotAliasCachedCopy(t *testing.T) {
	high := 92.0
	client := &fakeLookupClient{result: &domain.LookupResult{
		Found:   true,
		Name:    "Cola",
		Matches: []domain.ProductMatch{{Name: "Cola Classic", Confidence: &high}},
	}}
	service, memory, _ := newTestService(client)
	ctx := context.Background()

	// The cold lookup writes back and then annotates the returned copy. The
	// write-back marshals its entry on another goroutine, so the two copies
	// must not share the Matches backing array.
	first, err := service.Find(ctx, &domain.LookupRequest{ProductName: "Cola", MaxResults: 3})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if !first.Matches[0].Recommended {
		t.Fatal("returned match should be flagged recommended")
	}
	first.Matches[0].Name = "mutated"

	key := MakeKey("Cola", "", nil, CacheTypeAlternatives)
	entry, ok := memory.Get(key)
	if !ok {
		t.Fatal("write-back entry missing from memory tier")
	}
	if entry.Result.Matches[0].Name != "Cola Classic" {
		t.Errorf("cached Matches[0].Name = %q, caller mutations must not reach the cache",
			entry.Result.Matches[0].Name)
	}

	// A cache-served result is annotated on its own copy too.
	second, err := service.Find(ctx, &domain.LookupRequest{ProductName: "Cola", MaxResults: 3})
	if err != nil {
		t.Fatalf("cached Find() error = %v", err)
	}
	if !second.Matches[0].Recommended {
		t.Error("cache-served match should be flagged recommended")
	}
	if second.Matches[0].Name != "Cola Classic" {
		t.Errorf("cache-served Matches[0].Name = %q, want the stored value", second.Matches[0].Name)
	}
}

func TestFind_MaxResultsClamped(t *testing.T) {
	var seen int
	client := &fakeLookupClient{result: foundResult("Cola")}
	service, _, _ := newTestService(client)

	capture := &capturingClient{inner: client, maxResults: &seen}
	service.client = capture

	service.Find(context.Background(), &domain.LookupRequest{ProductName: "Cola", MaxResults: 10})
	if seen != domain.MaxAlternativeMatches {
		t.Errorf("remote maxResults = %d, want clamped to %d", seen, domain.MaxAlternativeMatches)
	}
}

// capturingClient records the maxResults forwarded to the remote call.
type capturingClient struct {
	inner      domain.LookupClient
	maxResults *int
}

func (c *capturingClient) Lookup(ctx context.Context, req *domain.LookupRequest) (*domain.LookupResult, error) {
	*c.maxResults = req.MaxResults
	return c.inner.Lookup(ctx, req)
}
