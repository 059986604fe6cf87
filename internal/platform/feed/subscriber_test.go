package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = gorillawebsocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newFeedServer starts a WebSocket server that writes each payload from send
// to every connecting client, then holds the connection open.
func newFeedServer(t *testing.T, send []string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		for _, msg := range send {
			if err := conn.WriteMessage(gorillawebsocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// Hold open until the client disconnects.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSubscriber_DeliversEventsInOrder(t *testing.T) {
	url := newFeedServer(t, []string{`{"seq":0}`, `{"seq":1}`, `{"seq":2}`})

	sub, err := Dial(context.Background(), url, zerolog.Nop())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer sub.Close()

	want := []string{`{"seq":0}`, `{"seq":1}`, `{"seq":2}`}
	for i, expected := range want {
		select {
		case ev := <-sub.Events():
			if string(ev.Payload) != expected {
				t.Errorf("event %d: expected %s, got %s", i, expected, ev.Payload)
			}
			if ev.ReceivedAt.IsZero() {
				t.Errorf("event %d: missing arrival timestamp", i)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestSubscriber_CloseEndsEventChannel(t *testing.T) {
	url := newFeedServer(t, nil)

	sub, err := Dial(context.Background(), url, zerolog.Nop())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("expected closed channel, got event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event channel not closed after Close")
	}

	// A second Close must be a no-op.
	if err := sub.Close(); err != nil {
		t.Errorf("second close returned error: %v", err)
	}
}

func TestSubscriber_CloseUnblocksFullBuffer(t *testing.T) {
	// Well past the subscriber's buffer so the read loop is parked on a
	// channel send when Close arrives.
	burst := make([]string, 256)
	for i := range burst {
		burst[i] = `{"n":1}`
	}
	url := newFeedServer(t, burst)

	sub, err := Dial(context.Background(), url, zerolog.Nop())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	// Give the read loop time to fill the buffer without any consumer.
	time.Sleep(100 * time.Millisecond)

	if err := sub.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event channel not closed after Close with a full buffer")
		}
	}
}

func TestSubscriber_RemoteCloseEndsEventChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	sub, err := Dial(context.Background(), url, zerolog.Nop())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer sub.Close()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("expected closed channel after remote close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event channel not closed after remote close")
	}
}

func TestDial_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := Dial(ctx, "ws://127.0.0.1:1/feed", zerolog.Nop())
	if err == nil {
		t.Fatal("expected dial error for unreachable feed")
	}
}
