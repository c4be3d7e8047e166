package attach

import (
	"log"
	"sync"
	"time"

	"github.com/sash-ai/avatarlink/internal/observability"
)

// VideoSink is the rendering surface the UI layer lends to the core. The
// core only ever writes into it: it sets a stream, toggles mute for the
// autoplay fallback, and clears it on teardown. Ownership stays with the UI.
type VideoSink interface {
	SetStream(stream any)
	SetMuted(muted bool)
	Play() error
	Clear()
}

// Candidate is one possible stream source, in preference order.
type Candidate struct {
	Source string
	Stream any
}

// Attacher binds a received media stream to a video sink despite
// event-ordering nondeterminism: the stream-ready payload shape varies by
// provider version, and the stream itself may only become available slightly
// after the event fires.
type Attacher struct {
	retryDelay time.Duration
	metrics    *observability.Metrics

	mu      sync.Mutex
	pending *time.Timer
}

func New(retryDelay time.Duration, metrics *observability.Metrics) *Attacher {
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	return &Attacher{retryDelay: retryDelay, metrics: metrics}
}

// Attach tries each candidate source in order, then the provider's live
// stream handle via live. If nothing is available yet it schedules exactly
// one retry after the configured delay, consulting live again, and gives up
// silently after that. Attachment failure never escalates; a session without
// picture is still a session.
func (a *Attacher) Attach(sink VideoSink, candidates []Candidate, live func() any) {
	if sink == nil {
		return
	}
	for _, c := range candidates {
		if c.Stream == nil {
			continue
		}
		a.bind(sink, c.Source, c.Stream)
		return
	}
	if live != nil {
		if stream := live(); stream != nil {
			a.bind(sink, "live_handle", stream)
			return
		}
	}

	a.count("none", "deferred")
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending != nil {
		a.pending.Stop()
	}
	a.pending = time.AfterFunc(a.retryDelay, func() {
		a.mu.Lock()
		a.pending = nil
		a.mu.Unlock()
		if live == nil {
			return
		}
		if stream := live(); stream != nil {
			a.bind(sink, "live_handle_retry", stream)
			return
		}
		a.count("live_handle_retry", "gave_up")
		log.Printf("attach: no stream available after retry, giving up")
	})
}

// Detach cancels any pending retry and clears the sink so no stale stream
// remains visible after teardown.
func (a *Attacher) Detach(sink VideoSink) {
	a.mu.Lock()
	if a.pending != nil {
		a.pending.Stop()
		a.pending = nil
	}
	a.mu.Unlock()
	if sink != nil {
		sink.Clear()
	}
}

func (a *Attacher) bind(sink VideoSink, source string, stream any) {
	sink.SetStream(stream)
	a.count(source, "attached")

	// Autoplay first, then a muted retry for strict browser policies.
	// An explicit strategy list with a logged outcome per step.
	steps := []struct {
		name    string
		prepare func()
	}{
		{"autoplay", func() { sink.SetMuted(false) }},
		{"muted_retry", func() { sink.SetMuted(true) }},
	}
	for _, step := range steps {
		step.prepare()
		err := sink.Play()
		if err == nil {
			log.Printf("attach: playback started via %s (source %s)", step.name, source)
			return
		}
		log.Printf("attach: playback step %s failed: %v", step.name, err)
	}
	// Playback failure is logged, never escalated.
	log.Printf("attach: all playback steps failed, leaving stream bound")
}

func (a *Attacher) count(source, outcome string) {
	if a.metrics == nil {
		return
	}
	a.metrics.AttachAttempts.WithLabelValues(source, outcome).Inc()
}
