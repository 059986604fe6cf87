// Package feed subscribes to the real-time HL7 event channel. It is the sole
// producer of raw events for the batching pipeline: one WebSocket connection
// in, one ordered channel of RawEvent out.
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hl7dash/hl7dash/internal/domain/stream"
)

// Subscriber owns one feed connection. Events are delivered in arrival order
// on the channel returned by Events; when the remote closes or the read
// fails, the channel is closed and no further events are ever delivered.
// Reconnection is deliberately not handled here.
type Subscriber struct {
	conn   *gorillawebsocket.Conn
	log    zerolog.Logger
	events chan stream.RawEvent
	done   chan struct{}

	closeOnce sync.Once
}

// Dial connects to the feed at url and starts reading. The context bounds
// only the connection handshake, not the lifetime of the subscription; use
// Close to unsubscribe.
func Dial(ctx context.Context, url string, logger zerolog.Logger) (*Subscriber, error) {
	conn, _, err := gorillawebsocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: dial %s: %w", url, err)
	}

	s := &Subscriber{
		conn:   conn,
		log:    logger.With().Str("component", "feed").Logger(),
		events: make(chan stream.RawEvent, 64),
		done:   make(chan struct{}),
	}

	go s.readLoop()

	return s, nil
}

// Events returns the channel carrying feed events in arrival order. The
// channel is closed when the subscription ends for any reason.
func (s *Subscriber) Events() <-chan stream.RawEvent {
	return s.events
}

// Close unsubscribes. Batches already handed to the pipeline are unaffected;
// no new events are delivered after Close returns and the events channel is
// closed shortly after.
func (s *Subscriber) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *Subscriber) readLoop() {
	defer close(s.events)
	defer s.Close()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			// Remote close and local unsubscribe both land here; the
			// pipeline sees a closed channel either way.
			s.log.Debug().Err(err).Msg("feed read ended")
			return
		}

		ev := stream.RawEvent{
			ReceivedAt: time.Now().UTC(),
			Payload:    append([]byte(nil), payload...),
		}
		// The buffer can be full with no consumer left after Close; never
		// park on the send past the subscription's lifetime.
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}
