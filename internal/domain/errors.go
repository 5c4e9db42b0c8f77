package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrDailyLimitReached is returned when the calendar-day search quota is
	// exhausted; it resets at local midnight
	ErrDailyLimitReached = errors.New("daily search limit reached")

	// ErrNotConfigured is returned when no lookup API key is configured
	ErrNotConfigured = errors.New("product lookup is not configured")

	// ErrInvalidResponse is returned when the lookup service body cannot be decoded
	ErrInvalidResponse = errors.New("lookup service returned an unreadable response")

	// ErrNetwork is returned when the lookup service cannot be reached
	ErrNetwork = errors.New("network error contacting lookup service")

	// ErrNoIngredientsFound is returned when recognized label text yields no ingredients
	ErrNoIngredientsFound = errors.New("no ingredients found in recognized text")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// WindowExceededError is returned when the short sliding-window search limit
// is hit. Wait is how long until the window opens again.
type WindowExceededError struct {
	Wait time.Duration
}

func (e *WindowExceededError) Error() string {
	return fmt.Sprintf("search limit reached, try again in %d seconds", e.WaitSeconds())
}

// WaitSeconds is the wait rounded up to whole seconds for user display.
func (e *WindowExceededError) WaitSeconds() int {
	return int(math.Ceil(e.Wait.Seconds()))
}

// ServerError is returned when the lookup service answers with a non-2xx
// status other than 429.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("lookup service error (status %d)", e.StatusCode)
}

// IsRateLimit reports whether err is either rate-limit failure. Callers show
// the message and take no other action; both are recoverable.
func IsRateLimit(err error) bool {
	var windowErr *WindowExceededError
	return errors.As(err, &windowErr) || errors.Is(err, ErrDailyLimitReached)
}
