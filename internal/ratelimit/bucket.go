// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit provides token-bucket admission control for
// outbound API requests.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// pollInterval is the sleep between AwaitToken attempts. Tests override
// this to avoid real waits.
var pollInterval = 100 * time.Millisecond

// Bucket is a token bucket: it accumulates permits at a fixed rate up
// to a capacity and spends one permit per admitted request. One Bucket
// may be shared by any number of concurrent searches; it then acts as a
// process-wide throttle on outbound request rate.
type Bucket struct {
	mu       sync.Mutex
	capacity float64
	fillRate float64 // tokens per second
	tokens   float64
	last     time.Time
	now      func() time.Time
}

// New returns a full Bucket holding capacity tokens that refills at
// fillRate tokens per second. Capacity and fill rate must be positive.
func New(capacity, fillRate float64) *Bucket {
	b := &Bucket{
		capacity: capacity,
		fillRate: fillRate,
		tokens:   capacity,
		now:      time.Now,
	}
	b.last = b.now()
	return b
}

// TryConsume refills the bucket as of the call instant, then deducts
// one token and returns true if at least one is available. It cannot
// fail, only report that the caller must wait.
func (b *Bucket) TryConsume() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// AwaitToken blocks until a token is consumed or ctx is cancelled. It
// polls TryConsume with a short sleep between attempts and never times
// out on its own.
func (b *Bucket) AwaitToken(ctx context.Context) error {
	for {
		if b.TryConsume() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// refill credits tokens for the time elapsed since the last refill,
// capped at capacity. Caller holds b.mu.
func (b *Bucket) refill() {
	now := b.now()
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.fillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
	}
	b.last = now
}

// Available reports the token count as of the call instant.
func (b *Bucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}
