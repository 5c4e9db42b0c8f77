package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/nutriscan/backend/internal/domain"
	"go.uber.org/zap"
)

// Default rate-limit parameters.
const (
	DefaultSearchWindow      = 60 * time.Second
	DefaultSearchesPerWindow = 2
	DefaultDailySearchLimit  = 10
)

// dayFormat keys the daily quota to the device-local calendar day.
const dayFormat = "2006-01-02"

// RateLimiterConfig tunes the limiter; zero values fall back to the defaults
// above.
type RateLimiterConfig struct {
	Window     time.Duration
	PerWindow  int
	DailyLimit int
}

// RateLimiter gates product lookups behind a short sliding window and a
// calendar-day quota. The window state lives in process memory; the daily
// count is persisted through a QuotaStore so it survives restarts.
//
// All state is mutated under one mutex: two concurrent acquisitions can never
// both observe a stale "under quota" state, and a rejected attempt never
// increments any counter.
type RateLimiter struct {
	mu sync.Mutex

	window     time.Duration
	perWindow  int
	dailyLimit int

	quota  domain.QuotaStore
	logger *zap.Logger
	now    func() time.Time

	lastSearch  time.Time
	windowCount int
}

// NewRateLimiter creates a rate limiter backed by the given quota store.
func NewRateLimiter(quota domain.QuotaStore, cfg RateLimiterConfig, logger *zap.Logger) *RateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultSearchWindow
	}
	if cfg.PerWindow <= 0 {
		cfg.PerWindow = DefaultSearchesPerWindow
	}
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = DefaultDailySearchLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		window:     cfg.Window,
		perWindow:  cfg.PerWindow,
		dailyLimit: cfg.DailyLimit,
		quota:      quota,
		logger:     logger,
		now:        time.Now,
	}
}

// TryAcquire consumes one search slot. The window check runs first, then the
// daily quota; both must pass. On success the last-search time, window count
// and persisted daily count all advance together.
func (r *RateLimiter) TryAcquire(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	if !r.lastSearch.IsZero() {
		elapsed := now.Sub(r.lastSearch)
		if elapsed < r.window {
			if r.windowCount >= r.perWindow {
				return &domain.WindowExceededError{Wait: r.window - elapsed}
			}
		} else {
			r.windowCount = 0
		}
	}

	today := now.Format(dayFormat)
	count := r.dailyCount(ctx, today)
	if count >= r.dailyLimit {
		return domain.ErrDailyLimitReached
	}

	r.lastSearch = now
	r.windowCount++
	if err := r.quota.Save(ctx, today, count+1); err != nil {
		// The quota store is best-effort; a write failure must not block the
		// search itself.
		r.logger.Warn("failed to persist daily search count", zap.Error(err))
	}

	return nil
}

// dailyCount loads the persisted count for today. A stored date other than
// today means the quota rolled over and starts from zero. Store failures read
// as zero.
func (r *RateLimiter) dailyCount(ctx context.Context, today string) int {
	day, count, err := r.quota.Load(ctx)
	if err != nil {
		r.logger.Warn("failed to load daily search count", zap.Error(err))
		return 0
	}
	if day != today {
		return 0
	}
	return count
}
