package transport

import (
	"context"
	"testing"
)

func TestMockTransportConnectEmitsState(t *testing.T) {
	m := NewMockTransport()
	if err := m.Connect(context.Background(), "wss://x", "tok"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	evt := <-m.Events()
	if evt.Kind != EventConnectionState || !evt.Connected {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if !m.Connected() {
		t.Fatalf("transport should report connected")
	}
}

func TestMockTransportDisconnectIdempotent(t *testing.T) {
	m := NewMockTransport()
	_ = m.Connect(context.Background(), "wss://x", "tok")
	m.Disconnect()
	m.Disconnect()
	if m.DisconnectCalls != 2 {
		t.Fatalf("DisconnectCalls = %d, want 2", m.DisconnectCalls)
	}
	// Channel must be closed exactly once.
	for range m.Events() {
	}
}

func TestMockTransportEmitAfterCloseIsNoop(t *testing.T) {
	m := NewMockTransport()
	m.Disconnect()
	m.Emit(Event{Kind: EventTrackReceived})
}
