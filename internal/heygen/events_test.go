package heygen

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestNormalizeEventSpeakingVariants(t *testing.T) {
	evt, ok := normalizeEvent(map[string]any{"type": "avatar_start_talking", "session_id": "s1"})
	if !ok || evt.Kind != EventSpeakingStarted || evt.SessionID != "s1" {
		t.Fatalf("unexpected event: %+v ok=%v", evt, ok)
	}
	evt, ok = normalizeEvent(map[string]any{"event_type": "avatar_stop_speaking"})
	if !ok || evt.Kind != EventSpeakingStopped {
		t.Fatalf("alternate type field not normalized: %+v ok=%v", evt, ok)
	}
}

func TestNormalizeEventStreamReadyShapes(t *testing.T) {
	evt, ok := normalizeEvent(map[string]any{"type": "stream_ready", "stream": "handle-a"})
	if !ok || evt.Kind != EventStreamReady || evt.Stream != "handle-a" {
		t.Fatalf("stream field not picked up: %+v", evt)
	}
	evt, ok = normalizeEvent(map[string]any{"message_type": "stream_ready", "detail": "handle-b"})
	if !ok || evt.Stream != "handle-b" {
		t.Fatalf("detail fallback not picked up: %+v", evt)
	}
}

func TestNormalizeEventIgnoresUnknownTypes(t *testing.T) {
	if _, ok := normalizeEvent(map[string]any{"type": "task_progress"}); ok {
		t.Fatalf("unknown event types must be dropped")
	}
	if _, ok := normalizeEvent(map[string]any{}); ok {
		t.Fatalf("untyped payloads must be dropped")
	}
}

func TestNormalizeEventDisconnect(t *testing.T) {
	evt, ok := normalizeEvent(map[string]any{"type": "stream_disconnected"})
	if !ok || evt.Kind != EventStreamDisconnected {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestEventStreamCloseWithFullBuffer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	sent := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// More events than the stream buffers, with nothing draining them.
		for i := 0; i < 80; i++ {
			msg := fmt.Sprintf(`{"type":"stream_ready","session_id":"s1","stream":"h%d"}`, i)
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		close(sent)
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	stream, err := c.Listen(context.Background(), wsURL, "tok")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	<-sent
	// Give the reader time to fill the buffer, then close without ever
	// consuming an event. This must end the stream cleanly, not panic.
	time.Sleep(50 * time.Millisecond)
	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	for range stream.Events() {
		// Drain whatever was buffered; the loop ends when the channel closes.
	}
}
