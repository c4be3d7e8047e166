package transport

import "context"

// EventKind enumerates transport notifications.
type EventKind string

const (
	EventTrackReceived     EventKind = "track_received"
	EventConnectionState   EventKind = "connection_state"
	EventParticipantJoined EventKind = "participant_joined"
	EventParticipantLeft   EventKind = "participant_left"
)

// TrackKind identifies the media type of a received track.
type TrackKind string

const (
	TrackAudio   TrackKind = "audio"
	TrackVideo   TrackKind = "video"
	TrackUnknown TrackKind = "unknown"
)

// Event is one transport notification. Stream is an opaque handle the
// attacher hands to the video sink; the core never inspects it.
type Event struct {
	Kind        EventKind
	TrackKind   TrackKind
	Stream      any
	Participant string
	Connected   bool
}

// Transport maintains the real-time media connection carrying the avatar's
// audio and video. Implementations must make Disconnect idempotent and must
// never treat an empty room immediately after Connect as failure: the
// provider's avatar worker can take several seconds to join.
type Transport interface {
	Connect(ctx context.Context, url, token string) error
	Disconnect()
	Events() <-chan Event
}
