package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func event(i int) RawEvent {
	return RawEvent{
		ReceivedAt: time.Now(),
		Payload:    json.RawMessage(fmt.Sprintf(`{"seq":%d}`, i)),
	}
}

func collect(out <-chan Batch) []Batch {
	var batches []Batch
	for b := range out {
		batches = append(batches, b)
	}
	return batches
}

func TestBatcher_DefaultWindow(t *testing.T) {
	b := NewBatcher(0)
	if b.Window() != DefaultWindow {
		t.Errorf("expected default window %v, got %v", DefaultWindow, b.Window())
	}

	b = NewBatcher(50 * time.Millisecond)
	if b.Window() != 50*time.Millisecond {
		t.Errorf("expected 50ms window, got %v", b.Window())
	}
}

func TestBatcher_FlushOnClose(t *testing.T) {
	in := make(chan RawEvent, 3)
	for i := 0; i < 3; i++ {
		in <- event(i)
	}
	close(in)

	out := NewBatcher(time.Hour).Run(context.Background(), in)

	batches := collect(out)
	if len(batches) != 1 {
		t.Fatalf("expected 1 flushed batch, got %d", len(batches))
	}
	if len(batches[0]) != 3 {
		t.Fatalf("expected 3 events in flushed batch, got %d", len(batches[0]))
	}
}

func TestBatcher_NoEmptyBatches(t *testing.T) {
	in := make(chan RawEvent)

	out := NewBatcher(5 * time.Millisecond).Run(context.Background(), in)

	// Let several windows expire with no traffic.
	time.Sleep(40 * time.Millisecond)
	select {
	case batch, ok := <-out:
		if ok {
			t.Fatalf("expected no batch during idle windows, got %d events", len(batch))
		}
		t.Fatal("output closed while input still open")
	default:
	}

	in <- event(0)
	select {
	case batch := <-out:
		if len(batch) != 1 {
			t.Fatalf("expected batch of 1, got %d", len(batch))
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for batch after event")
	}

	close(in)
	for range out {
	}
}

func TestBatcher_OrderPreservedAcrossBatches(t *testing.T) {
	const n = 50
	in := make(chan RawEvent)

	out := NewBatcher(2 * time.Millisecond).Run(context.Background(), in)

	done := make(chan []Batch)
	go func() {
		done <- collect(out)
	}()

	for i := 0; i < n; i++ {
		in <- event(i)
		if i%7 == 0 {
			// Straddle window boundaries so multiple batches are emitted.
			time.Sleep(5 * time.Millisecond)
		}
	}
	close(in)

	batches := <-done

	var got []int
	for _, batch := range batches {
		if len(batch) == 0 {
			t.Fatal("emitted an empty batch")
		}
		for _, ev := range batch {
			var payload struct {
				Seq int `json:"seq"`
			}
			if err := json.Unmarshal(ev.Payload, &payload); err != nil {
				t.Fatalf("unmarshal payload: %v", err)
			}
			got = append(got, payload.Seq)
		}
	}

	if len(got) != n {
		t.Fatalf("expected %d events across all batches, got %d", n, len(got))
	}
	for i, seq := range got {
		if seq != i {
			t.Fatalf("order broken at position %d: got seq %d", i, seq)
		}
	}
}

func TestBatcher_CancellationClosesOutput(t *testing.T) {
	in := make(chan RawEvent)
	ctx, cancel := context.WithCancel(context.Background())

	out := NewBatcher(time.Hour).Run(ctx, in)

	cancel()

	select {
	case _, ok := <-out:
		if ok {
			t.Fatal("expected closed output after cancellation, got a batch")
		}
	case <-time.After(time.Second):
		t.Fatal("output not closed after cancellation")
	}
}

func TestBatcher_CancelWhileBlockedOnSend(t *testing.T) {
	in := make(chan RawEvent)
	ctx, cancel := context.WithCancel(context.Background())

	out := NewBatcher(2 * time.Millisecond).Run(ctx, in)

	// Fill a window but never read the output, so the flush blocks.
	in <- event(0)
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-out:
		// A batch may have been in flight; either way the channel must close.
	case <-time.After(time.Second):
		t.Fatal("batcher did not unblock after cancellation")
	}
}
