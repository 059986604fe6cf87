// Package stream turns the raw real-time feed into discrete, non-empty
// batches. Events arriving within a fixed window are collected and emitted
// together; windows that see no traffic produce nothing.
package stream

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultWindow is the batching window used when none is configured.
const DefaultWindow = 200 * time.Millisecond

// RawEvent is a single payload from the real-time feed. The payload is kept
// opaque: the feed carries arbitrary JSON and only the normalizer downstream
// assigns it a shape.
type RawEvent struct {
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Batch is an ordered set of events that arrived within one window.
type Batch []RawEvent

// Batcher buffers inbound events over a fixed time window and emits only
// non-empty batches, preserving arrival order. It never duplicates an event
// and never drops one except on context cancellation.
type Batcher struct {
	window time.Duration
}

// NewBatcher creates a Batcher with the given window. A non-positive window
// falls back to DefaultWindow.
func NewBatcher(window time.Duration) *Batcher {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Batcher{window: window}
}

// Window returns the configured batching window.
func (b *Batcher) Window() time.Duration {
	return b.window
}

// Run consumes events from in until it is closed or ctx is cancelled, and
// returns the channel on which batches are delivered. The returned channel is
// closed when the input terminates; a partial batch pending at input close is
// still flushed once, since it may be non-empty. Cancellation stops output
// immediately without flushing.
func (b *Batcher) Run(ctx context.Context, in <-chan RawEvent) <-chan Batch {
	out := make(chan Batch)

	go func() {
		defer close(out)

		ticker := time.NewTicker(b.window)
		defer ticker.Stop()

		var pending Batch

		flush := func() bool {
			if len(pending) == 0 {
				return true
			}
			batch := pending
			pending = nil
			select {
			case out <- batch:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-in:
				if !ok {
					flush()
					return
				}
				pending = append(pending, ev)
			case <-ticker.C:
				if !flush() {
					return
				}
			}
		}
	}()

	return out
}
