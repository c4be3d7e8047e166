package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sash-ai/avatarlink/internal/backend"
)

// Knowledge-base, chat-history and session-bookkeeping routes proxy straight
// to the companion backend so the UI only ever talks to the gateway.

func (s *Server) backendRoutes(r chi.Router) {
	r.Get("/v1/backend/sessions", s.handleActiveSessions)

	r.Post("/v1/kb/upload", s.handleKBUpload)
	r.Post("/v1/kb/text", s.handleKBAddText)
	r.Get("/v1/kb/search", s.handleKBSearch)
	r.Get("/v1/kb/files", s.handleKBFiles)
	r.Delete("/v1/kb/file/{filename}", s.handleKBDeleteFile)
	r.Get("/v1/kb/stats", s.handleKBStats)
	r.Delete("/v1/kb/clear", s.handleKBClear)

	r.Get("/v1/chat/history", s.handleChatHistory)
	r.Get("/v1/chat/search", s.handleChatSearch)
	r.Get("/v1/chat/export", s.handleChatExport)
	r.Delete("/v1/chat/message/{id}", s.handleChatDeleteMessage)
	r.Delete("/v1/chat/clear", s.handleChatClear)
}

func (s *Server) requireBackend(w http.ResponseWriter) bool {
	if s.backend == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "backend proxy not configured")
		return false
	}
	return true
}

// respondBackendError passes client-side backend rejections through and turns
// everything else into a bad-gateway response.
func respondBackendError(w http.ResponseWriter, err error) {
	var se *backend.StatusError
	if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
		respondError(w, se.Code, "backend_rejected", err.Error())
		return
	}
	respondError(w, http.StatusBadGateway, "backend_error", err.Error())
}

func (s *Server) handleActiveSessions(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	res, err := s.backend.ActiveSessions(r.Context())
	if err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

const maxUploadBytes = 32 << 20

func (s *Server) handleKBUpload(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "multipart field \"file\" is required")
		return
	}
	defer file.Close()
	if err := s.backend.UploadFile(r.Context(), header.Filename, file); err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "filename": header.Filename})
}

type kbTextRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

func (s *Server) handleKBAddText(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	var req kbTextRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}
	if err := s.backend.AddText(r.Context(), req.Title, req.Text); err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleKBSearch(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}
	limit, ok := limitParam(w, r, 5)
	if !ok {
		return
	}
	results, err := s.backend.SearchKB(r.Context(), query, limit)
	if err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleKBFiles(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	files, err := s.backend.KBFiles(r.Context())
	if err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) handleKBDeleteFile(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	filename, err := url.PathUnescape(chi.URLParam(r, "filename"))
	if err != nil || strings.TrimSpace(filename) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "filename is required")
		return
	}
	if err := s.backend.DeleteKBFile(r.Context(), filename); err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleKBStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	stats, err := s.backend.KBStats(r.Context())
	if err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleKBClear(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	if err := s.backend.ClearKB(r.Context()); err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	limit, ok := limitParam(w, r, 0)
	if !ok {
		return
	}
	messages, err := s.backend.History(r.Context(), limit)
	if err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) handleChatSearch(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}
	limit, ok := limitParam(w, r, 10)
	if !ok {
		return
	}
	messages, err := s.backend.SearchHistory(r.Context(), query, limit)
	if err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) handleChatExport(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "txt" {
		respondError(w, http.StatusBadRequest, "invalid_request", "format must be json or txt")
		return
	}
	data, err := s.backend.ExportHistory(r.Context(), format)
	if err != nil {
		respondBackendError(w, err)
		return
	}
	if format == "txt" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleChatDeleteMessage(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message id is required")
		return
	}
	if err := s.backend.DeleteMessage(r.Context(), id); err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	if err := s.backend.ClearHistory(r.Context()); err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// limitParam parses an optional positive ?limit= query parameter. The second
// return value is false when the request was already answered with an error.
func limitParam(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
		return 0, false
	}
	return n, true
}
