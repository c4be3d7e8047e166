package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/sash-ai/avatarlink/internal/backend"
	"github.com/sash-ai/avatarlink/internal/config"
	"github.com/sash-ai/avatarlink/internal/coordinator"
	"github.com/sash-ai/avatarlink/internal/heygen"
	"github.com/sash-ai/avatarlink/internal/journal"
	"github.com/sash-ai/avatarlink/internal/negotiate"
	"github.com/sash-ai/avatarlink/internal/observability"
	"github.com/sash-ai/avatarlink/internal/recorder"
	"github.com/sash-ai/avatarlink/internal/transport"
)

// SessionCoordinator is the lifecycle surface the API exposes.
type SessionCoordinator interface {
	Start(ctx context.Context, avatarID, voiceID string) error
	Close(ctx context.Context) error
	SendPrompt(ctx context.Context, text string) (journal.Exchange, error)
	Interrupt(ctx context.Context) error
	Status() coordinator.Status
	Subscribe(fn func(coordinator.Notification)) func()
}

type Server struct {
	cfg      config.Config
	coord    SessionCoordinator
	journal  journal.Store
	rec      *recorder.Recorder
	backend  *backend.Client
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, coord SessionCoordinator, store journal.Store, rec *recorder.Recorder, be *backend.Client, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		coord:   coord,
		journal: store,
		rec:     rec,
		backend: be,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections may watch session events;
				// anything else could drive or observe the user's avatar session
				// if the gateway is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/avatar/session", s.handleStartSession)
	r.Post("/v1/avatar/session/close", s.handleCloseSession)
	r.Post("/v1/avatar/prompt", s.handlePrompt)
	r.Post("/v1/avatar/interrupt", s.handleInterrupt)
	r.Get("/v1/avatar/status", s.handleStatus)
	r.Get("/v1/avatar/events", s.handleEvents)
	r.Get("/v1/avatar/exchanges", s.handleExchanges)

	r.Post("/v1/voice/recording/start", s.handleRecordingStart)
	r.Post("/v1/voice/recording/chunk", s.handleRecordingChunk)
	r.Post("/v1/voice/recording/stop", s.handleRecordingStop)

	s.backendRoutes(r)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"state":  s.coord.Status().State,
	})
}

type startRequest struct {
	AvatarID string `json:"avatar_id"`
	VoiceID  string `json:"voice_id"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := s.coord.Start(r.Context(), req.AvatarID, req.VoiceID); err != nil {
		respondCoordinatorError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, s.coord.Status())
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.coord.Close(r.Context()); err != nil {
		respondCoordinatorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.coord.Status())
}

type promptRequest struct {
	Text string `json:"text"`
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ex, err := s.coord.SendPrompt(r.Context(), req.Text)
	if err != nil {
		respondCoordinatorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ex)
}

func (s *Server) handleInterrupt(w http.ResponseWriter, r *http.Request) {
	if err := s.coord.Interrupt(r.Context()); err != nil {
		respondCoordinatorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.coord.Status())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.coord.Status())
}

func (s *Server) handleExchanges(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		respondJSON(w, http.StatusOK, []journal.Exchange{})
		return
	}
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	items, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "journal_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// handleEvents streams coordinator notifications over a websocket. The first
// frame is always a status snapshot so late subscribers start from a known
// state.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	notes := make(chan coordinator.Notification, 64)
	unsubscribe := s.coord.Subscribe(func(n coordinator.Notification) {
		select {
		case notes <- n:
		default:
			// Slow consumer: drop rather than block delivery to others.
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader exists only to notice the peer going away.
	go func() {
		defer cancel()
		conn.SetReadLimit(1 << 16)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snapshot := s.coord.Status()
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(map[string]any{"kind": "snapshot", "status": snapshot}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-notes:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(n); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleRecordingStart(w http.ResponseWriter, r *http.Request) {
	if s.rec == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "voice capture not configured")
		return
	}
	if err := s.rec.Begin(r.Context()); err != nil {
		respondError(w, http.StatusConflict, "recording_busy", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "recording"})
}

type chunkRequest struct {
	AudioData string `json:"audio_data"`
	Format    string `json:"format"`
}

func (s *Server) handleRecordingChunk(w http.ResponseWriter, r *http.Request) {
	if s.rec == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "voice capture not configured")
		return
	}
	var req chunkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := s.rec.Push(r.Context(), req.AudioData, req.Format); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_chunk", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecordingStop(w http.ResponseWriter, r *http.Request) {
	if s.rec == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "voice capture not configured")
		return
	}
	text, err := s.rec.Finish(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "transcription_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "text": text})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// respondCoordinatorError maps the session error taxonomy onto HTTP statuses.
func respondCoordinatorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, heygen.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, heygen.ErrSessionInactive):
		respondError(w, http.StatusConflict, "session_inactive", err.Error())
	case errors.Is(err, heygen.ErrAuth):
		respondError(w, http.StatusBadGateway, "auth_rejected", err.Error())
	case errors.Is(err, heygen.ErrSessionCreate),
		errors.Is(err, transport.ErrTransport),
		errors.Is(err, negotiate.ErrNegotiation):
		respondError(w, http.StatusBadGateway, "session_failed", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
