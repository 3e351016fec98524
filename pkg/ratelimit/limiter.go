// Package ratelimit paces outbound requests to the comic server.
//
// The crawl is strictly sequential, so the throttle is the only
// concurrency control: one pause after every iteration that touched
// the network.
package ratelimit

import (
	"context"
	"time"
)

// Throttle defines the interface for request pacing
type Throttle interface {
	// Wait blocks for the configured pause, or until the context is cancelled
	Wait(ctx context.Context) error
}

// FixedDelay pauses for a constant duration between requests
type FixedDelay struct {
	delay time.Duration
}

// NewFixedDelay creates a throttle with a constant inter-request delay
func NewFixedDelay(delay time.Duration) *FixedDelay {
	return &FixedDelay{delay: delay}
}

// Wait sleeps for the configured delay or returns early on cancellation
func (f *FixedDelay) Wait(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}

	timer := time.NewTimer(f.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Nop is a throttle that never waits, for use in tests
type Nop struct{}

// Wait returns immediately
func (Nop) Wait(ctx context.Context) error {
	return ctx.Err()
}
