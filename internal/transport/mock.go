package transport

import (
	"context"
	"sync"
)

// MockTransport is an in-process transport used in tests and when the
// gateway runs without media credentials.
type MockTransport struct {
	mu        sync.Mutex
	events    chan Event
	connected bool
	closed    bool

	ConnectErr error
	// ConnectCalls counts Connect invocations, including failed ones.
	ConnectCalls    int
	DisconnectCalls int
}

func NewMockTransport() *MockTransport {
	return &MockTransport{events: make(chan Event, 64)}
}

func (t *MockTransport) Connect(_ context.Context, _, _ string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ConnectCalls++
	if t.ConnectErr != nil {
		return t.ConnectErr
	}
	t.connected = true
	t.push(Event{Kind: EventConnectionState, Connected: true})
	return nil
}

func (t *MockTransport) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.DisconnectCalls++
	if t.closed {
		return
	}
	t.connected = false
	t.closed = true
	close(t.events)
}

func (t *MockTransport) Events() <-chan Event { return t.events }

// Emit injects an event, simulating SDK callbacks.
func (t *MockTransport) Emit(evt Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.push(evt)
}

func (t *MockTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *MockTransport) push(evt Event) {
	select {
	case t.events <- evt:
	default:
	}
}
