package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sash-ai/avatarlink/internal/attach"
	"github.com/sash-ai/avatarlink/internal/backend"
	"github.com/sash-ai/avatarlink/internal/config"
	"github.com/sash-ai/avatarlink/internal/coordinator"
	"github.com/sash-ai/avatarlink/internal/heygen"
	"github.com/sash-ai/avatarlink/internal/httpapi"
	"github.com/sash-ai/avatarlink/internal/journal"
	"github.com/sash-ai/avatarlink/internal/observability"
	"github.com/sash-ai/avatarlink/internal/recorder"
	"github.com/sash-ai/avatarlink/internal/transport"
)

// logSink is the gateway's headless video sink. It records stream bindings
// in the log; a UI embedding the gateway supplies its own sink instead.
type logSink struct{}

func (logSink) SetStream(stream any) { log.Printf("video sink: stream bound (%T)", stream) }
func (logSink) SetMuted(muted bool)  { log.Printf("video sink: muted=%v", muted) }
func (logSink) Play() error          { return nil }
func (logSink) Clear()               { log.Printf("video sink: cleared") }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := journal.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("journal init failed: %v", err)
	}
	defer store.Close()

	backendClient := backend.NewClient(cfg.BackendBaseURL)
	provider := heygen.NewClient(heygen.Config{
		BaseURL: cfg.HeyGenBaseURL,
		APIKey:  cfg.HeyGenAPIKey,
	})

	var dial func() transport.Transport
	switch strings.ToLower(strings.TrimSpace(cfg.TransportMode)) {
	case "auto", "livekit":
		dial = func() transport.Transport {
			return transport.NewLiveKitTransport(cfg.ParticipantPollBudget)
		}
		log.Printf("transport: livekit rooms")
	case "mock":
		dial = func() transport.Transport {
			return transport.NewMockTransport()
		}
		log.Printf("transport: mock (no media connection)")
	case "manual":
		// Sessions fall back to explicit SDP negotiation when the provider
		// hands out a raw offer; managed room credentials are ignored.
		log.Printf("transport: manual negotiation only")
	}

	coord, err := coordinator.New(coordinator.Options{
		Provider:          provider,
		Backend:           backendClient,
		DialTransport:     dial,
		Attacher:          attach.New(cfg.AttachRetryDelay, metrics),
		Sink:              logSink{},
		Journal:           store,
		Metrics:           metrics,
		DefaultAvatarID:   cfg.DefaultAvatarID,
		DefaultVoiceID:    cfg.DefaultVoiceID,
		Quality:           cfg.SessionQuality,
		HasProviderKey:    strings.TrimSpace(cfg.HeyGenAPIKey) != "",
		KeepAliveInterval: cfg.KeepAliveInterval,
		SessionMaxAge:     cfg.SessionMaxAge,
		CloseSettleDelay:  cfg.CloseSettleDelay,
		SpeakingBackstop:  cfg.SpeakingBackstop,
		ICEGatherTimeout:  cfg.ICEGatherTimeout,
	})
	if err != nil {
		log.Fatalf("coordinator init failed: %v", err)
	}

	api := httpapi.New(cfg, coord, store, recorder.New(backendClient), backendClient, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("gateway listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := coord.Close(shutdownCtx); err != nil {
		log.Printf("session close on shutdown failed: %v", err)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
