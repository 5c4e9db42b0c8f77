package usecase

import (
	"context"
	"sync"
	"time"
)

// progressInterval is how long each status line is shown before the narration
// advances to the next one.
const progressInterval = 1200 * time.Millisecond

// progressMessages cycle, in order and wrapping, while a remote lookup is
// outstanding. Plausible sources first, generic work last.
var progressMessages = []string{
	"Checking Open Food Facts…",
	"Searching Tesco…",
	"Searching Sainsbury's…",
	"Checking brand websites…",
	"Analyzing nutrition data…",
	"Verifying ingredients…",
}

// ProgressNarrator publishes a rotating status line per in-flight lookup for
// UI consumption. It is purely cosmetic: it never affects the result or its
// timing, and it is cancelled the instant the remote call settles.
type ProgressNarrator struct {
	interval time.Duration
	messages []string

	mu      sync.Mutex
	current map[string]string // keyed by search ID
}

// NewProgressNarrator creates a narrator with the standard cadence and lines.
func NewProgressNarrator() *ProgressNarrator {
	return &ProgressNarrator{
		interval: progressInterval,
		messages: progressMessages,
		current:  make(map[string]string),
	}
}

// Run starts narrating for searchID until ctx is cancelled. The returned
// channel closes once the loop has fully stopped, so callers can guarantee no
// timer is left behind.
func (n *ProgressNarrator) Run(ctx context.Context, searchID string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		ticker := time.NewTicker(n.interval)
		defer ticker.Stop()

		i := 0
		n.set(searchID, n.messages[i])
		for {
			select {
			case <-ctx.Done():
				n.clear(searchID)
				return
			case <-ticker.C:
				i = (i + 1) % len(n.messages)
				n.set(searchID, n.messages[i])
			}
		}
	}()
	return done
}

// Current returns the live status line for a search, if one is in flight.
func (n *ProgressNarrator) Current(searchID string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	msg, ok := n.current[searchID]
	return msg, ok
}

func (n *ProgressNarrator) set(searchID, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current[searchID] = message
}

func (n *ProgressNarrator) clear(searchID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.current, searchID)
}
