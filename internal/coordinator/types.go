package coordinator

import (
	"context"
	"time"

	"github.com/sash-ai/avatarlink/internal/backend"
	"github.com/sash-ai/avatarlink/internal/heygen"
)

// State is the coordinator's lifecycle phase.
type State string

const (
	StateIdle     State = "idle"
	StateCreating State = "creating"
	StateActive   State = "active"
	StateRenewing State = "renewing"
	StateClosing  State = "closing"
	StateFailed   State = "failed"
)

// Status is a point-in-time snapshot of the coordinator.
type Status struct {
	State     State     `json:"state"`
	SessionID string    `json:"session_id"`
	AvatarID  string    `json:"avatar_id"`
	VoiceID   string    `json:"voice_id"`
	Speaking  bool      `json:"speaking"`
	CreatedAt time.Time `json:"created_at"`
	LastError string    `json:"last_error,omitempty"`
}

// NotificationKind enumerates events published to subscribers.
type NotificationKind string

const (
	NoteStateChanged    NotificationKind = "state_changed"
	NoteSpeakingChanged NotificationKind = "speaking_changed"
	NoteStreamReady     NotificationKind = "stream_ready"
	NoteDisconnected    NotificationKind = "disconnected"
	NoteRenewalFailed   NotificationKind = "renewal_failed"
	NoteParticipant     NotificationKind = "participant"
)

// Notification is one coordinator event delivered to subscribers.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	State     State            `json:"state"`
	SessionID string           `json:"session_id,omitempty"`
	Speaking  bool             `json:"speaking"`
	Detail    string           `json:"detail,omitempty"`
}

// Provider is the slice of the streaming control plane the coordinator drives.
type Provider interface {
	NewSession(ctx context.Context, req heygen.NewSessionRequest) (heygen.SessionInfo, error)
	StartSession(ctx context.Context, sessionID, answerSDP string) error
	Speak(ctx context.Context, sessionID, text string, taskType heygen.TaskType, mode heygen.TaskMode) error
	Interrupt(ctx context.Context, sessionID string) (bool, error)
	StopSession(ctx context.Context, sessionID string) error
}

// EventListener is implemented by providers that expose a realtime event
// socket. Optional: providers without one simply never deliver events.
type EventListener interface {
	Listen(ctx context.Context, endpoint, token string) (*heygen.EventStream, error)
}

// Backend is the slice of the companion backend the coordinator uses.
type Backend interface {
	Token(ctx context.Context) (string, error)
	RegisterSession(ctx context.Context, req backend.RegisterSessionRequest) error
	UnregisterSession(ctx context.Context, sessionID string) error
	SendPrompt(ctx context.Context, prompt string) (backend.PromptResponse, error)
}
