package heygen

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// EventKind is the canonical event shape the rest of the gateway consumes.
// The adapter in this file absorbs provider-version variance in payload
// field names so downstream code never inspects raw messages.
type EventKind string

const (
	EventSpeakingStarted    EventKind = "speaking_started"
	EventSpeakingStopped    EventKind = "speaking_stopped"
	EventStreamReady        EventKind = "stream_ready"
	EventStreamDisconnected EventKind = "stream_disconnected"
)

type Event struct {
	Kind      EventKind
	SessionID string
	// Stream carries whatever stream handle the payload exposed, if any.
	// Consumers treat it as an opaque candidate source for attachment.
	Stream any
	TaskID string
}

// EventStream reads the provider's realtime event socket and emits
// normalized events.
type EventStream struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	events    chan Event

	mu     sync.Mutex
	closed bool
}

// Listen connects to the session's realtime endpoint. The endpoint URL comes
// from the session-create response and already encodes the session identity;
// the streaming token authorizes the connection.
func (c *Client) Listen(ctx context.Context, endpoint, token string) (*EventStream, error) {
	headers := http.Header{}
	if strings.TrimSpace(token) != "" {
		headers.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		return nil, &APIError{Operation: "listen", HTTPStatus: 0, Message: err.Error()}
	}

	s := &EventStream{conn: conn, events: make(chan Event, 64)}
	go s.readLoop()
	return s, nil
}

func (s *EventStream) Events() <-chan Event { return s.events }

func (s *EventStream) Close() error {
	var retErr error
	s.closeOnce.Do(func() {
		retErr = s.conn.Close()
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.events)
	})
	return retErr
}

func (s *EventStream) readLoop() {
	defer func() { _ = s.Close() }()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			continue
		}
		evt, ok := normalizeEvent(raw)
		if !ok {
			continue
		}
		s.emit(evt)
	}
}

// emit sends under the same lock Close takes before closing the channel, so a
// read that lands mid-teardown cannot hit a closed channel.
func (s *EventStream) emit(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- evt:
	default:
		// Slow consumers lose events rather than blocking the socket reader.
		log.Printf("heygen: event buffer full, dropping %s", evt.Kind)
	}
}

// normalizeEvent translates a raw provider payload into the canonical Event.
// Different provider versions name the type field "type", "event_type" or
// "message_type", and hang the stream handle off "stream" or "detail".
func normalizeEvent(raw map[string]any) (Event, bool) {
	kind := asString(raw["type"])
	if kind == "" {
		kind = asString(raw["event_type"])
	}
	if kind == "" {
		kind = asString(raw["message_type"])
	}

	evt := Event{
		SessionID: asString(raw["session_id"]),
		TaskID:    asString(raw["task_id"]),
	}

	switch kind {
	case "avatar_start_talking", "avatar_start_speaking":
		evt.Kind = EventSpeakingStarted
	case "avatar_stop_talking", "avatar_stop_speaking":
		evt.Kind = EventSpeakingStopped
	case "stream_ready":
		evt.Kind = EventStreamReady
		if v, ok := raw["stream"]; ok {
			evt.Stream = v
		} else if v, ok := raw["detail"]; ok {
			evt.Stream = v
		}
	case "stream_disconnected", "stream_stopped":
		evt.Kind = EventStreamDisconnected
	default:
		return Event{}, false
	}
	return evt, true
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
