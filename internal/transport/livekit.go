package transport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
)

// ErrTransport wraps transport connect failures.
var ErrTransport = errors.New("transport: connect failed")

// LiveKitTransport joins the provider's media room with sane defaults:
// auto-subscribe to all published tracks, adaptive quality left to the SFU.
// Callers never supply transport configuration beyond the credential pair.
type LiveKitTransport struct {
	pollBudget time.Duration

	mu        sync.Mutex
	room      *lksdk.Room
	events    chan Event
	closed    bool
	pollStop  chan struct{}
	pollOnce  sync.Once
	closeOnce sync.Once
}

func NewLiveKitTransport(participantPollBudget time.Duration) *LiveKitTransport {
	if participantPollBudget <= 0 {
		participantPollBudget = 2 * time.Minute
	}
	return &LiveKitTransport{
		pollBudget: participantPollBudget,
		events:     make(chan Event, 64),
		pollStop:   make(chan struct{}),
	}
}

func (t *LiveKitTransport) Connect(_ context.Context, url, token string) error {
	if strings.TrimSpace(url) == "" || strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: url and token are required", ErrTransport)
	}

	cb := &lksdk.RoomCallback{
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackSubscribed: func(track *webrtc.TrackRemote, _ *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				t.emit(Event{
					Kind:        EventTrackReceived,
					TrackKind:   trackKindOf(track),
					Stream:      track,
					Participant: rp.Identity(),
				})
			},
		},
		OnParticipantConnected: func(rp *lksdk.RemoteParticipant) {
			t.emit(Event{Kind: EventParticipantJoined, Participant: rp.Identity()})
		},
		OnParticipantDisconnected: func(rp *lksdk.RemoteParticipant) {
			t.emit(Event{Kind: EventParticipantLeft, Participant: rp.Identity()})
		},
		OnDisconnected: func() {
			t.emit(Event{Kind: EventConnectionState, Connected: false})
		},
	}

	room, err := lksdk.ConnectToRoomWithToken(url, token, cb, lksdk.WithAutoSubscribe(true))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	t.mu.Lock()
	t.room = room
	t.mu.Unlock()

	t.emit(Event{Kind: EventConnectionState, Connected: true})

	// The avatar worker joins the room asynchronously, sometimes several
	// seconds after we do. An empty room here is diagnostic, not an error;
	// the poll stops once someone shows up or the budget runs out.
	t.pollOnce.Do(func() { go t.pollParticipants() })

	return nil
}

func (t *LiveKitTransport) pollParticipants() {
	deadline := time.Now().Add(t.pollBudget)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-t.pollStop:
			return
		case <-ticker.C:
			t.mu.Lock()
			room := t.room
			t.mu.Unlock()
			if room == nil {
				return
			}
			n := len(room.GetRemoteParticipants())
			if n > 0 {
				return
			}
			if time.Now().After(deadline) {
				log.Printf("transport: no remote participants after %s, giving up polling", t.pollBudget)
				return
			}
			log.Printf("transport: waiting for avatar worker to join (0 remote participants)")
		}
	}
}

func (t *LiveKitTransport) Disconnect() {
	t.closeOnce.Do(func() {
		close(t.pollStop)
		t.mu.Lock()
		room := t.room
		t.room = nil
		t.closed = true
		t.mu.Unlock()
		if room != nil {
			room.Disconnect()
		}
		close(t.events)
	})
}

func (t *LiveKitTransport) Events() <-chan Event { return t.events }

func (t *LiveKitTransport) emit(evt Event) {
	// The send happens under the same lock Disconnect takes before closing
	// the channel, so a late SDK callback cannot hit a closed channel.
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.events <- evt:
	default:
		// Slow consumers lose notifications rather than blocking SDK callbacks.
		log.Printf("transport: event buffer full, dropping %s", evt.Kind)
	}
}

func trackKindOf(track *webrtc.TrackRemote) TrackKind {
	switch track.Kind() {
	case webrtc.RTPCodecTypeAudio:
		return TrackAudio
	case webrtc.RTPCodecTypeVideo:
		return TrackVideo
	default:
		return TrackUnknown
	}
}
