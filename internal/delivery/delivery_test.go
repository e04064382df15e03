package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

// ackServer accepts one websocket connection and acks every received frame
// with sequential message ids.
func ackServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for i := 1; ; i++ {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			ack := fmt.Sprintf(`{"messageId":"m-%d"}`, i)
			if err := conn.WriteMessage(websocket.TextMessage, []byte(ack)); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSChannel_SubmitReturnsAckID(t *testing.T) {
	t.Parallel()

	srv := ackServer(t)
	defer srv.Close()

	c := NewWSChannel(wsURL(srv), testLogger())
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := c.Submit(ctx, []byte(`{"type":"offer"}`))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id != "m-1" {
		t.Fatalf("unexpected delivery id: %q", id)
	}

	// The connection is reused across submissions.
	id, err = c.Submit(ctx, []byte(`{"type":"answer"}`))
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if id != "m-2" {
		t.Fatalf("unexpected delivery id: %q", id)
	}
}

func TestWSChannel_DialFailure(t *testing.T) {
	t.Parallel()

	c := NewWSChannel("ws://127.0.0.1:1/submit", testLogger())
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := c.Submit(ctx, []byte("{}")); err == nil {
		t.Fatal("expected error")
	}
}

func TestWSChannel_RedialsAfterServerClose(t *testing.T) {
	t.Parallel()

	first := ackServer(t)
	firstURL := wsURL(first)

	c := NewWSChannel(firstURL, testLogger())
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := c.Submit(ctx, []byte("{}")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	first.Close()

	// The broken connection surfaces as a single failed submission; the relay
	// itself never retries.
	if _, err := c.Submit(ctx, []byte("{}")); err == nil {
		t.Fatal("expected error after server close")
	}
}

func TestMemoryChannel(t *testing.T) {
	t.Parallel()

	c := NewMemoryChannel()
	ctx := context.Background()

	id1, err := c.Submit(ctx, []byte("a"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	id2, err := c.Submit(ctx, []byte("b"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id1 == "" || id1 == id2 {
		t.Fatalf("expected distinct delivery ids, got %q and %q", id1, id2)
	}

	got := c.Drain()
	if len(got) != 2 || string(got[0]) != "a" || string(got[1]) != "b" {
		t.Fatalf("unexpected payloads: %q", got)
	}
	if len(c.Drain()) != 0 {
		t.Fatal("drain must clear the queue")
	}
}
