package recorder

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/sash-ai/avatarlink/internal/backend"
)

// VoiceBackend is the slice of the backend API the recorder needs.
type VoiceBackend interface {
	StartRecording(ctx context.Context) (backend.RecordingSession, error)
	AddChunk(ctx context.Context, sessionID, audioBase64, format string) (backend.ChunkResponse, error)
	StopRecording(ctx context.Context, sessionID string) (backend.TranscriptResponse, error)
	Transcribe(ctx context.Context, audioBase64, format string) (backend.TranscriptResponse, error)
}

// Recorder drives the backend's chunked transcription flow and falls back to
// one-shot transcription of the buffered clip when the chunked session dies.
type Recorder struct {
	voice VoiceBackend

	mu        sync.Mutex
	sessionID string
	format    string
	clip      []byte
	active    bool
}

func New(voice VoiceBackend) *Recorder {
	return &Recorder{voice: voice}
}

// Begin opens a recording session. A backend failure here is not fatal: the
// recorder stays usable and Finish will take the one-shot path.
func (r *Recorder) Begin(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return fmt.Errorf("recorder: recording already in progress")
	}
	r.clip = nil
	r.sessionID = ""
	r.active = true

	rec, err := r.voice.StartRecording(ctx)
	if err != nil {
		log.Printf("recorder: chunked session unavailable, will transcribe one-shot: %v", err)
		return nil
	}
	r.sessionID = rec.SessionID
	return nil
}

// Push uploads one audio chunk, buffering it locally for the fallback path.
func (r *Recorder) Push(ctx context.Context, audioBase64, format string) error {
	if strings.TrimSpace(audioBase64) == "" {
		return fmt.Errorf("recorder: empty audio chunk")
	}
	decoded, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return fmt.Errorf("recorder: invalid base64 chunk: %w", err)
	}

	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return fmt.Errorf("recorder: no recording in progress")
	}
	if strings.TrimSpace(format) != "" {
		r.format = format
	}
	r.clip = append(r.clip, decoded...)
	sessionID := r.sessionID
	r.mu.Unlock()

	if sessionID == "" {
		return nil
	}
	if _, err := r.voice.AddChunk(ctx, sessionID, audioBase64, format); err != nil {
		// Downgrade to the one-shot path; the buffered clip still covers us.
		log.Printf("recorder: chunk upload failed, downgrading to one-shot: %v", err)
		r.mu.Lock()
		r.sessionID = ""
		r.mu.Unlock()
	}
	return nil
}

// Finish closes the recording and returns the final transcript. An empty
// transcript with nil error means no speech was detected.
func (r *Recorder) Finish(ctx context.Context) (string, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return "", fmt.Errorf("recorder: no recording in progress")
	}
	sessionID := r.sessionID
	clip := r.clip
	format := r.format
	r.active = false
	r.sessionID = ""
	r.clip = nil
	r.mu.Unlock()

	if sessionID != "" {
		res, err := r.voice.StopRecording(ctx, sessionID)
		if err == nil {
			return strings.TrimSpace(res.Text), nil
		}
		log.Printf("recorder: stop-recording failed, falling back to one-shot: %v", err)
	}

	if len(clip) == 0 {
		return "", nil
	}
	if format == "" {
		format = "webm"
	}
	res, err := r.voice.Transcribe(ctx, base64.StdEncoding.EncodeToString(clip), format)
	if err != nil {
		return "", fmt.Errorf("recorder: fallback transcription: %w", err)
	}
	return strings.TrimSpace(res.Text), nil
}
