package negotiate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pion/webrtc/v4"
)

// ErrNegotiation wraps any failure of the manual offer/answer exchange.
var ErrNegotiation = errors.New("negotiate: exchange failed")

// Starter submits the local SDP answer to the provider's session-start
// endpoint, keyed by session id.
type Starter interface {
	StartSession(ctx context.Context, sessionID, answerSDP string) error
}

// TrackHandler receives remote tracks as they arrive, including during
// negotiation. It feeds the same stream-ready path the managed transport uses.
type TrackHandler func(kind string, track *webrtc.TrackRemote)

// Params configures one negotiation run.
type Params struct {
	SessionID  string
	OfferSDP   string
	ICEServers []webrtc.ICEServer
	// GatherTimeout bounds the wait for ICE gathering. On expiry the answer
	// is submitted with a partial candidate set; that is degraded behavior,
	// not an error. Zero means 15s.
	GatherTimeout time.Duration
	OnTrack       TrackHandler
}

// defaultICEServers are used when the provider supplies none.
var defaultICEServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302"}},
}

// Negotiate performs the explicit SDP offer/answer and ICE exchange used
// when the provider hands us a raw offer instead of managing transport.
// This client only ever receives media; both transceivers are recv-only.
// On any failure the half-open peer connection is closed before returning.
func Negotiate(ctx context.Context, starter Starter, p Params) (*webrtc.PeerConnection, error) {
	if strings.TrimSpace(p.SessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrNegotiation)
	}
	if strings.TrimSpace(p.OfferSDP) == "" {
		return nil, fmt.Errorf("%w: remote offer is required", ErrNegotiation)
	}
	servers := p.ICEServers
	if len(servers) == 0 {
		servers = defaultICEServers
	}
	gatherTimeout := p.GatherTimeout
	if gatherTimeout <= 0 {
		gatherTimeout = 15 * time.Second
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: servers})
	if err != nil {
		return nil, fmt.Errorf("%w: create peer connection: %v", ErrNegotiation, err)
	}

	fail := func(step string, cause error) (*webrtc.PeerConnection, error) {
		_ = pc.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrNegotiation, step, cause)
	}

	if p.OnTrack != nil {
		pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
			p.OnTrack(track.Kind().String(), track)
		})
	}

	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		if _, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			return fail("add transceiver", err)
		}
	}

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  p.OfferSDP,
	}); err != nil {
		return fail("set remote description", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return fail("create answer", err)
	}

	gatherDone := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		return fail("set local description", err)
	}

	select {
	case <-gatherDone:
	case <-time.After(gatherTimeout):
		log.Printf("negotiate: ice gathering still incomplete after %s, proceeding with partial candidates", gatherTimeout)
	case <-ctx.Done():
		return fail("ice gathering", ctx.Err())
	}

	local := pc.LocalDescription()
	if local == nil || strings.TrimSpace(local.SDP) == "" {
		return fail("local description", errors.New("empty answer"))
	}

	if err := starter.StartSession(ctx, p.SessionID, local.SDP); err != nil {
		return fail("submit answer", err)
	}

	return pc, nil
}
