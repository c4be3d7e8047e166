package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/sash-ai/avatarlink/internal/attach"
	"github.com/sash-ai/avatarlink/internal/backend"
	"github.com/sash-ai/avatarlink/internal/events"
	"github.com/sash-ai/avatarlink/internal/heygen"
	"github.com/sash-ai/avatarlink/internal/journal"
	"github.com/sash-ai/avatarlink/internal/negotiate"
	"github.com/sash-ai/avatarlink/internal/observability"
	"github.com/sash-ai/avatarlink/internal/transport"
)

// keepAliveText is the near-silent utterance submitted on keep-alive ticks.
// The provider reclaims idle sessions; a tiny async repeat task resets the
// idle clock without audible speech.
const keepAliveText = "."

// bestEffortTimeout bounds background calls that must never block teardown.
const bestEffortTimeout = 10 * time.Second

// Options configures a Coordinator. Provider and Backend are required; the
// rest default sensibly.
type Options struct {
	Provider Provider
	Backend  Backend
	// DialTransport builds a fresh media transport per managed session.
	DialTransport func() transport.Transport
	Attacher      *attach.Attacher
	Sink          attach.VideoSink
	Journal       journal.Store
	Metrics       *observability.Metrics

	DefaultAvatarID string
	DefaultVoiceID  string
	Quality         string

	// HasProviderKey reports whether the provider client carries its own API
	// key. When it does, a failed backend credential fetch is downgraded to a
	// warning instead of aborting session creation.
	HasProviderKey bool

	KeepAliveInterval time.Duration
	SessionMaxAge     time.Duration
	CloseSettleDelay  time.Duration
	SpeakingBackstop  time.Duration
	ICEGatherTimeout  time.Duration
}

// Coordinator owns the avatar session lifecycle: creation, keep-alive,
// time-boxed renewal, speech multiplexing and teardown. Construct one per
// gateway process and pass the reference around; there is no package-level
// instance.
type Coordinator struct {
	provider    Provider
	backend     Backend
	dial        func() transport.Transport
	attacher    *attach.Attacher
	sink        attach.VideoSink
	journal     journal.Store
	metrics     *observability.Metrics
	bus         *events.Bus[Notification]
	negotiateFn func(ctx context.Context, starter negotiate.Starter, p negotiate.Params) (*webrtc.PeerConnection, error)

	opts Options

	// opMu serializes the heavyweight operations: Start, Close, renewal.
	// A second Start issued while one is in flight queues behind it instead
	// of racing the half-built session.
	opMu sync.Mutex

	// mu guards the mutable fields below.
	mu       sync.Mutex
	state    State
	gen      int
	session  *activeSession
	speaking bool
	lastErr  string
}

// activeSession bundles everything owned by one live provider session. Every
// handle here is released on teardown; timers are stopped on every exit path
// so no stale callback can act on a dead session.
type activeSession struct {
	info      heygen.SessionInfo
	avatarID  string
	voiceID   string
	token     string
	createdAt time.Time
	gen       int

	transport     transport.Transport
	pc            *webrtc.PeerConnection
	eventStream   *heygen.EventStream
	lastStream    any
	keepAliveStop chan struct{}
	renewTimer    *time.Timer
	backstop      *time.Timer
}

func New(opts Options) (*Coordinator, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("coordinator: provider is required")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("coordinator: backend is required")
	}
	if opts.KeepAliveInterval <= 0 {
		opts.KeepAliveInterval = 30 * time.Second
	}
	if opts.SessionMaxAge <= 0 {
		opts.SessionMaxAge = 9 * time.Minute
	}
	if opts.CloseSettleDelay <= 0 {
		opts.CloseSettleDelay = time.Second
	}
	if opts.SpeakingBackstop <= 0 {
		opts.SpeakingBackstop = 60 * time.Second
	}
	if opts.ICEGatherTimeout <= 0 {
		opts.ICEGatherTimeout = 15 * time.Second
	}
	c := &Coordinator{
		provider:    opts.Provider,
		backend:     opts.Backend,
		dial:        opts.DialTransport,
		attacher:    opts.Attacher,
		sink:        opts.Sink,
		journal:     opts.Journal,
		metrics:     opts.Metrics,
		bus:         events.NewBus[Notification](),
		negotiateFn: negotiate.Negotiate,
		opts:        opts,
		state:       StateIdle,
	}
	return c, nil
}

// Subscribe registers a notification handler and returns its unsubscribe
// function.
func (c *Coordinator) Subscribe(fn func(Notification)) func() {
	return c.bus.Subscribe(fn)
}

// Status returns a snapshot of the coordinator.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{
		State:     c.state,
		Speaking:  c.speaking,
		LastError: c.lastErr,
	}
	if c.session != nil {
		st.SessionID = c.session.info.SessionID
		st.AvatarID = c.session.avatarID
		st.VoiceID = c.session.voiceID
		st.CreatedAt = c.session.createdAt
	}
	return st
}

// Start creates a session for the given avatar/voice pairing, replacing any
// active session first (full close, then a short settle delay before reuse).
// Empty arguments fall back to the configured defaults. Concurrent Start
// calls are serialized; the second queues behind the first.
func (c *Coordinator) Start(ctx context.Context, avatarID, voiceID string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.startLocked(ctx, avatarID, voiceID)
}

func (c *Coordinator) startLocked(ctx context.Context, avatarID, voiceID string) error {
	if strings.TrimSpace(avatarID) == "" {
		avatarID = c.opts.DefaultAvatarID
	}
	if strings.TrimSpace(voiceID) == "" {
		voiceID = c.opts.DefaultVoiceID
	}
	if avatarID == "" || voiceID == "" {
		return fmt.Errorf("%w: avatar and voice ids are required", heygen.ErrInvalidArgument)
	}

	// Replace semantics: the previous session is fully torn down and the
	// provider given a moment to release it before a new one is requested.
	if c.currentSession() != nil {
		c.closeCurrent(ctx, "replaced")
		if err := sleepCtx(ctx, c.opts.CloseSettleDelay); err != nil {
			return c.fail(fmt.Errorf("session start aborted: %w", err))
		}
	}

	c.setState(StateCreating, "")
	c.countEvent("create_requested")

	token, err := c.backend.Token(ctx)
	if err != nil {
		if !c.opts.HasProviderKey {
			return c.fail(fmt.Errorf("%w: fetch transport credential: %v", heygen.ErrAuth, err))
		}
		log.Printf("coordinator: credential fetch failed, continuing with configured key: %v", err)
		token = ""
	}

	info, err := c.provider.NewSession(ctx, heygen.NewSessionRequest{
		AvatarName: avatarID,
		VoiceID:    voiceID,
		Quality:    c.opts.Quality,
	})
	if err != nil {
		return c.fail(fmt.Errorf("create session: %w", err))
	}

	sess := &activeSession{
		info:      info,
		avatarID:  avatarID,
		voiceID:   voiceID,
		token:     token,
		createdAt: time.Now(),
	}

	if err := c.connectMedia(ctx, sess); err != nil {
		c.stopProvider(info.SessionID)
		return c.fail(err)
	}

	if el, ok := c.provider.(EventListener); ok && info.RealtimeEndpoint != "" {
		stream, err := el.Listen(ctx, info.RealtimeEndpoint, token)
		if err != nil {
			// Events enrich the session but are not required for it.
			log.Printf("coordinator: realtime event socket unavailable: %v", err)
		} else {
			sess.eventStream = stream
		}
	}

	c.install(sess)
	// Bookkeeping never delays the session becoming active.
	go c.registerSession(sess)

	c.countEvent("created")
	log.Printf("coordinator: session %s active (avatar %s, voice %s)", info.SessionID, avatarID, voiceID)
	return nil
}

// connectMedia establishes the media path: the managed transport when the
// provider handed out room credentials, manual SDP negotiation when it handed
// out a raw offer, nothing when it handed out neither.
func (c *Coordinator) connectMedia(ctx context.Context, sess *activeSession) error {
	switch {
	case sess.info.ManagedTransport():
		if c.dial == nil {
			return fmt.Errorf("%w: managed session but no transport configured", transport.ErrTransport)
		}
		tr := c.dial()
		if err := tr.Connect(ctx, sess.info.URL, sess.info.AccessToken); err != nil {
			return fmt.Errorf("connect transport: %w", err)
		}
		sess.transport = tr
	case sess.info.OfferSDP != "":
		started := time.Now()
		pc, err := c.negotiateFn(ctx, c.provider, negotiate.Params{
			SessionID:     sess.info.SessionID,
			OfferSDP:      sess.info.OfferSDP,
			ICEServers:    toWebRTCICE(sess.info.ICEServers),
			GatherTimeout: c.opts.ICEGatherTimeout,
			OnTrack: func(kind string, track *webrtc.TrackRemote) {
				c.handleTrack(kind, track)
			},
		})
		if err != nil {
			return err
		}
		if c.metrics != nil {
			c.metrics.ObserveNegotiationTime(time.Since(started))
		}
		sess.pc = pc
	default:
		log.Printf("coordinator: session %s carries no media handle, continuing without transport", sess.info.SessionID)
	}
	return nil
}

// install publishes the session as Active and arms its timers.
func (c *Coordinator) install(sess *activeSession) {
	stop := make(chan struct{})
	sess.keepAliveStop = stop

	c.mu.Lock()
	c.gen++
	sess.gen = c.gen
	gen := c.gen
	c.session = sess
	c.speaking = false
	c.state = StateActive
	c.lastErr = ""
	sess.renewTimer = time.AfterFunc(c.opts.SessionMaxAge, func() { c.renew(gen) })
	sessionID := sess.info.SessionID
	c.mu.Unlock()

	c.gaugeActive(1)
	c.publish(Notification{Kind: NoteStateChanged, State: StateActive, SessionID: sessionID})

	go c.keepAliveLoop(stop, gen)
	if sess.transport != nil {
		go c.pumpTransport(sess.transport, gen)
	}
	if sess.eventStream != nil {
		go c.pumpProviderEvents(sess.eventStream, gen)
	}
}

// Close tears down the active session. Idempotent: with nothing active it
// returns immediately without touching the provider.
func (c *Coordinator) Close(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.currentSession() == nil {
		c.setState(StateIdle, "")
		return nil
	}
	c.closeCurrent(ctx, "closed")
	return nil
}

// closeCurrent detaches the session under mu, then releases its resources
// outside the lock. Provider stop and backend unregister are best-effort.
func (c *Coordinator) closeCurrent(ctx context.Context, reason string) {
	c.mu.Lock()
	sess := c.session
	if sess == nil {
		c.mu.Unlock()
		return
	}
	c.session = nil
	c.speaking = false
	c.state = StateClosing
	stopTimersLocked(sess)
	c.mu.Unlock()

	c.publish(Notification{Kind: NoteStateChanged, State: StateClosing, SessionID: sess.info.SessionID, Detail: reason})

	if sess.keepAliveStop != nil {
		close(sess.keepAliveStop)
	}
	c.stopProvider(sess.info.SessionID)
	if sess.eventStream != nil {
		_ = sess.eventStream.Close()
	}
	if sess.transport != nil {
		sess.transport.Disconnect()
	}
	if sess.pc != nil {
		_ = sess.pc.Close()
	}
	if c.attacher != nil {
		c.attacher.Detach(c.sink)
	}
	c.unregisterSession(sess.info.SessionID)

	c.setState(StateIdle, "")
	c.gaugeActive(0)
	c.countEvent(reason)
}

// SendPrompt runs one prompt through the backend completion and vocalizes
// the response with exactly one speak call. The exchange is journaled
// best-effort.
func (c *Coordinator) SendPrompt(ctx context.Context, text string) (journal.Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return journal.Exchange{}, fmt.Errorf("%w: empty prompt", heygen.ErrInvalidArgument)
	}
	sess := c.currentSession()
	if sess == nil {
		return journal.Exchange{}, fmt.Errorf("%w: no active session", heygen.ErrSessionInactive)
	}

	started := time.Now()
	res, err := c.backend.SendPrompt(ctx, text)
	if err != nil {
		return journal.Exchange{}, err
	}
	if c.metrics != nil {
		c.metrics.ObservePromptLatency(time.Since(started))
	}
	completion := strings.TrimSpace(res.Response)
	if completion == "" {
		return journal.Exchange{}, fmt.Errorf("send prompt: backend returned empty completion")
	}

	if err := c.provider.Speak(ctx, sess.info.SessionID, completion, heygen.TaskRepeat, heygen.TaskSync); err != nil {
		c.countProviderError("streaming.task", err)
		return journal.Exchange{}, fmt.Errorf("speak completion: %w", err)
	}
	c.setSpeaking(true, sess.gen)

	ex := journal.Exchange{
		SessionID:         sess.info.SessionID,
		Prompt:            text,
		Completion:        completion,
		UsedKnowledgeBase: res.UsedKnowledgeBase,
		Mode:              res.Mode,
	}
	if c.journal != nil {
		jctx, cancel := context.WithTimeout(context.Background(), bestEffortTimeout)
		if err := c.journal.SaveExchange(jctx, ex); err != nil {
			log.Printf("coordinator: journal write failed: %v", err)
		}
		cancel()
	}
	return ex, nil
}

// Interrupt stops the current utterance. Without a session it is a no-op;
// either way the speaking flag ends up cleared.
func (c *Coordinator) Interrupt(ctx context.Context) error {
	sess := c.currentSession()
	if sess == nil {
		c.setSpeaking(false, 0)
		return nil
	}
	_, err := c.provider.Interrupt(ctx, sess.info.SessionID)
	// The flag clears regardless: a failed interrupt must not leave the
	// gateway convinced the avatar is still talking.
	c.setSpeaking(false, sess.gen)
	if err != nil {
		c.countProviderError("streaming.interrupt", err)
		return err
	}
	return nil
}

// renew replaces the aged session with a fresh one bound to the same
// avatar/voice pairing. Failure is fatal to the session and surfaced.
func (c *Coordinator) renew(gen int) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.session == nil || c.session.gen != gen || c.state != StateActive {
		c.mu.Unlock()
		return
	}
	avatarID := c.session.avatarID
	voiceID := c.session.voiceID
	c.state = StateRenewing
	c.mu.Unlock()

	c.publish(Notification{Kind: NoteStateChanged, State: StateRenewing})
	log.Printf("coordinator: session reached max age, renewing (avatar %s)", avatarID)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c.closeCurrent(ctx, "renewed")
	if err := sleepCtx(ctx, c.opts.CloseSettleDelay); err == nil {
		err = c.startLocked(ctx, avatarID, voiceID)
		if err == nil {
			c.countRenewal("ok")
			return
		}
		log.Printf("coordinator: renewal failed: %v", err)
	}
	c.countRenewal("failed")
	c.setState(StateFailed, "renewal failed")
	c.publish(Notification{Kind: NoteRenewalFailed, State: StateFailed, Detail: "automatic session renewal failed"})
}

// keepAliveLoop ticks for the lifetime of one session generation.
func (c *Coordinator) keepAliveLoop(stop <-chan struct{}, gen int) {
	ticker := time.NewTicker(c.opts.KeepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.keepAliveTick(gen)
		}
	}
}

// keepAliveTick submits the near-silent async task that keeps the provider
// from reclaiming an idle session. Never surfaces an error, never changes
// state.
func (c *Coordinator) keepAliveTick(gen int) {
	c.mu.Lock()
	if c.session == nil || c.session.gen != gen || c.state != StateActive {
		c.mu.Unlock()
		c.countKeepAlive("stale")
		return
	}
	if c.speaking {
		c.mu.Unlock()
		c.countKeepAlive("skipped_speaking")
		return
	}
	sessionID := c.session.info.SessionID
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), bestEffortTimeout)
	defer cancel()
	if err := c.provider.Speak(ctx, sessionID, keepAliveText, heygen.TaskRepeat, heygen.TaskAsync); err != nil {
		log.Printf("coordinator: keep-alive failed (ignored): %v", err)
		c.countKeepAlive("error")
		return
	}
	c.countKeepAlive("sent")
}

// HandleProviderEvent applies one normalized provider event. Events may
// arrive at any time, including during or after teardown; with no matching
// session they are no-ops.
func (c *Coordinator) HandleProviderEvent(evt heygen.Event) {
	c.mu.Lock()
	sess := c.session
	if sess == nil || (evt.SessionID != "" && evt.SessionID != sess.info.SessionID) {
		c.mu.Unlock()
		return
	}
	gen := sess.gen
	c.mu.Unlock()

	switch evt.Kind {
	case heygen.EventSpeakingStarted:
		c.setSpeaking(true, gen)
	case heygen.EventSpeakingStopped:
		c.setSpeaking(false, gen)
	case heygen.EventStreamReady:
		c.attachStream(evt.Stream, gen)
		c.publish(Notification{Kind: NoteStreamReady, State: StateActive, SessionID: sess.info.SessionID})
	case heygen.EventStreamDisconnected:
		c.handleDisconnect(gen)
	}
}

// handleDisconnect marks the session gone and notifies listeners. No
// automatic reconnection.
func (c *Coordinator) handleDisconnect(gen int) {
	c.mu.Lock()
	if c.session == nil || c.session.gen != gen {
		c.mu.Unlock()
		return
	}
	sessionID := c.session.info.SessionID
	c.mu.Unlock()

	log.Printf("coordinator: provider reported stream disconnect for %s", sessionID)
	ctx, cancel := context.WithTimeout(context.Background(), bestEffortTimeout)
	defer cancel()
	c.closeCurrent(ctx, "disconnected")
	c.publish(Notification{Kind: NoteDisconnected, State: StateIdle, SessionID: sessionID})
}

// setSpeaking flips the speaking flag, arms or disarms the backstop timer
// and notifies subscribers on change.
func (c *Coordinator) setSpeaking(speaking bool, gen int) {
	c.mu.Lock()
	if gen != 0 && (c.session == nil || c.session.gen != gen) {
		c.mu.Unlock()
		return
	}
	changed := c.speaking != speaking
	c.speaking = speaking
	var sessionID string
	if c.session != nil {
		sessionID = c.session.info.SessionID
		if c.session.backstop != nil {
			c.session.backstop.Stop()
			c.session.backstop = nil
		}
		if speaking {
			// A missed stop-event would wedge the flag forever; the backstop
			// force-clears it.
			c.session.backstop = time.AfterFunc(c.opts.SpeakingBackstop, func() {
				log.Printf("coordinator: speaking flag stuck, force-clearing")
				c.setSpeaking(false, gen)
			})
		}
	}
	state := c.state
	c.mu.Unlock()

	if changed {
		c.publish(Notification{Kind: NoteSpeakingChanged, State: state, SessionID: sessionID, Speaking: speaking})
	}
}

// pumpTransport forwards managed-transport events for one session generation.
func (c *Coordinator) pumpTransport(tr transport.Transport, gen int) {
	for evt := range tr.Events() {
		if !c.genCurrent(gen) {
			return
		}
		switch evt.Kind {
		case transport.EventTrackReceived:
			c.rememberStream(evt.Stream, gen)
			c.attachStream(evt.Stream, gen)
		case transport.EventConnectionState:
			if !evt.Connected {
				c.handleDisconnect(gen)
				return
			}
		case transport.EventParticipantJoined, transport.EventParticipantLeft:
			c.publish(Notification{Kind: NoteParticipant, State: StateActive, Detail: evt.Participant})
		}
	}
}

// pumpProviderEvents forwards realtime socket events for one generation.
func (c *Coordinator) pumpProviderEvents(stream *heygen.EventStream, gen int) {
	for evt := range stream.Events() {
		if !c.genCurrent(gen) {
			return
		}
		c.HandleProviderEvent(evt)
	}
}

// handleTrack receives tracks from the manual negotiation path.
func (c *Coordinator) handleTrack(kind string, track *webrtc.TrackRemote) {
	c.mu.Lock()
	var gen int
	if c.session != nil {
		gen = c.session.gen
	}
	c.mu.Unlock()
	log.Printf("coordinator: received %s track via manual negotiation", kind)
	c.rememberStream(track, gen)
	c.attachStream(track, gen)
}

// attachStream binds a stream candidate to the sink through the attacher,
// which falls back to the live handle (the most recently seen stream) and a
// single delayed retry when the candidate is empty.
func (c *Coordinator) attachStream(stream any, gen int) {
	if c.attacher == nil || c.sink == nil {
		return
	}
	var candidates []attach.Candidate
	if stream != nil {
		candidates = append(candidates, attach.Candidate{Source: "event_payload", Stream: stream})
	}
	c.attacher.Attach(c.sink, candidates, func() any {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.session == nil || (gen != 0 && c.session.gen != gen) {
			return nil
		}
		return c.session.lastStream
	})
}

func (c *Coordinator) rememberStream(stream any, gen int) {
	if stream == nil {
		return
	}
	c.mu.Lock()
	if c.session != nil && (gen == 0 || c.session.gen == gen) {
		c.session.lastStream = stream
	}
	c.mu.Unlock()
}

// registerSession informs the backend of the new session. Best-effort.
func (c *Coordinator) registerSession(sess *activeSession) {
	ctx, cancel := context.WithTimeout(context.Background(), bestEffortTimeout)
	defer cancel()
	err := c.backend.RegisterSession(ctx, backend.RegisterSessionRequest{
		SessionID: sess.info.SessionID,
		AvatarID:  sess.avatarID,
		VoiceID:   sess.voiceID,
		CreatedAt: sess.createdAt,
	})
	if err != nil {
		log.Printf("coordinator: session register failed (ignored): %v", err)
	}
}

func (c *Coordinator) unregisterSession(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), bestEffortTimeout)
	defer cancel()
	if err := c.backend.UnregisterSession(ctx, sessionID); err != nil {
		log.Printf("coordinator: session unregister failed (ignored): %v", err)
	}
}

func (c *Coordinator) stopProvider(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), bestEffortTimeout)
	defer cancel()
	if err := c.provider.StopSession(ctx, sessionID); err != nil {
		c.countProviderError("streaming.stop", err)
		log.Printf("coordinator: provider stop failed (ignored): %v", err)
	}
}

func (c *Coordinator) currentSession() *activeSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Coordinator) genCurrent(gen int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.gen == gen
}

// fail records the error, moves to Failed and returns the error for the
// caller. The next Start or Close leaves Failed.
func (c *Coordinator) fail(err error) error {
	c.mu.Lock()
	c.state = StateFailed
	c.lastErr = err.Error()
	c.mu.Unlock()
	c.countEvent("failed")
	c.publish(Notification{Kind: NoteStateChanged, State: StateFailed, Detail: err.Error()})
	return err
}

func (c *Coordinator) setState(state State, detail string) {
	c.mu.Lock()
	changed := c.state != state
	c.state = state
	var sessionID string
	if c.session != nil {
		sessionID = c.session.info.SessionID
	}
	c.mu.Unlock()
	if changed {
		c.publish(Notification{Kind: NoteStateChanged, State: state, SessionID: sessionID, Detail: detail})
	}
}

func (c *Coordinator) publish(n Notification) {
	c.bus.Publish(n)
}

// stopTimersLocked is called with mu held.
func stopTimersLocked(sess *activeSession) {
	if sess.renewTimer != nil {
		sess.renewTimer.Stop()
		sess.renewTimer = nil
	}
	if sess.backstop != nil {
		sess.backstop.Stop()
		sess.backstop = nil
	}
}

func (c *Coordinator) countEvent(event string) {
	if c.metrics != nil {
		c.metrics.SessionEvents.WithLabelValues(event).Inc()
	}
}

func (c *Coordinator) countKeepAlive(outcome string) {
	if c.metrics != nil {
		c.metrics.KeepAliveTicks.WithLabelValues(outcome).Inc()
	}
}

func (c *Coordinator) countRenewal(outcome string) {
	if c.metrics != nil {
		c.metrics.Renewals.WithLabelValues(outcome).Inc()
	}
}

func (c *Coordinator) countProviderError(op string, err error) {
	if c.metrics == nil {
		return
	}
	code := "transport"
	var apiErr *heygen.APIError
	if errors.As(err, &apiErr) {
		code = fmt.Sprintf("%d", apiErr.Code)
	}
	c.metrics.ProviderErrors.WithLabelValues(op, code).Inc()
}

func (c *Coordinator) gaugeActive(v float64) {
	if c.metrics != nil {
		c.metrics.SessionActive.Set(v)
	}
}

func toWebRTCICE(servers []heygen.ICEServer) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		out = append(out, webrtc.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
