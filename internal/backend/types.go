package backend

import "time"

// TokenResponse is the transport credential handed out by the backend.
type TokenResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

// RegisterSessionRequest is the bookkeeping payload for a new SDK session.
type RegisterSessionRequest struct {
	SessionID string    `json:"session_id"`
	AvatarID  string    `json:"avatar_id"`
	VoiceID   string    `json:"voice_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PromptResponse is the LLM completion result for one user prompt.
type PromptResponse struct {
	Status            string `json:"status"`
	Response          string `json:"response"`
	UsedKnowledgeBase bool   `json:"used_knowledge_base"`
	ContextLength     int    `json:"context_length"`
	Mode              string `json:"mode"`
	Interrupted       bool   `json:"interrupted"`
	Message           string `json:"message"`
}

// ActiveSessionsResponse lists sessions the backend believes are live.
type ActiveSessionsResponse struct {
	ActiveSessions []map[string]any `json:"active_sessions"`
}

// RecordingSession tracks a chunked voice transcription session.
type RecordingSession struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// ChunkResponse acknowledges one uploaded audio chunk.
type ChunkResponse struct {
	Status      string `json:"status"`
	ChunksCount int    `json:"chunks_count"`
	SessionID   string `json:"session_id"`
}

// TranscriptResponse is a final or one-shot transcription result.
type TranscriptResponse struct {
	Status          string `json:"status"`
	Text            string `json:"text"`
	Message         string `json:"message"`
	ChunksProcessed int    `json:"chunks_processed"`
}

// KBSearchResult is one knowledge-base hit.
type KBSearchResult struct {
	Content  string  `json:"content"`
	Source   string  `json:"source"`
	Score    float64 `json:"score"`
	Metadata any     `json:"metadata"`
}

// KBFile describes one stored knowledge-base document.
type KBFile struct {
	Filename   string `json:"filename"`
	SizeBytes  int64  `json:"size_bytes"`
	ChunkCount int    `json:"chunk_count"`
	UploadedAt string `json:"uploaded_at"`
}

// KBStats summarizes knowledge-base storage.
type KBStats struct {
	FileCount  int `json:"file_count"`
	ChunkCount int `json:"chunk_count"`
	TotalBytes int `json:"total_bytes"`
}

// ChatMessage is one stored exchange message.
type ChatMessage struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}
