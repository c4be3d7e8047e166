package backend

import (
	"context"
	"fmt"
	"strings"
)

// StartRecording opens a chunked transcription session on the backend.
func (c *Client) StartRecording(ctx context.Context) (RecordingSession, error) {
	var res RecordingSession
	if err := c.postJSON(ctx, "/voice/start-recording", nil, &res); err != nil {
		return RecordingSession{}, fmt.Errorf("start recording: %w", err)
	}
	if res.Status != "success" || strings.TrimSpace(res.SessionID) == "" {
		return RecordingSession{}, fmt.Errorf("start recording: backend status %q", res.Status)
	}
	return res, nil
}

// AddChunk uploads one base64 audio chunk to a recording session.
func (c *Client) AddChunk(ctx context.Context, sessionID, audioBase64, format string) (ChunkResponse, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(audioBase64) == "" {
		return ChunkResponse{}, fmt.Errorf("add chunk: session id and audio data are required")
	}
	if strings.TrimSpace(format) == "" {
		format = "webm"
	}
	var res ChunkResponse
	err := c.postJSON(ctx, "/voice/add-chunk", map[string]string{
		"session_id": sessionID,
		"audio_data": audioBase64,
		"format":     format,
	}, &res)
	if err != nil {
		return ChunkResponse{}, fmt.Errorf("add chunk: %w", err)
	}
	if res.Status != "success" {
		return ChunkResponse{}, fmt.Errorf("add chunk: backend status %q", res.Status)
	}
	return res, nil
}

// StopRecording closes a recording session and returns the final transcript.
// An empty transcript with a success status means no speech was detected.
func (c *Client) StopRecording(ctx context.Context, sessionID string) (TranscriptResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return TranscriptResponse{}, fmt.Errorf("stop recording: session id is required")
	}
	var res TranscriptResponse
	err := c.postJSON(ctx, "/voice/stop-recording", map[string]string{
		"session_id": sessionID,
	}, &res)
	if err != nil {
		return TranscriptResponse{}, fmt.Errorf("stop recording: %w", err)
	}
	if res.Status == "error" {
		return TranscriptResponse{}, fmt.Errorf("stop recording: backend error: %s", res.Message)
	}
	return res, nil
}

// Transcribe performs a one-shot transcription of a complete clip. Used as
// the fallback path when the chunked session flow fails.
func (c *Client) Transcribe(ctx context.Context, audioBase64, format string) (TranscriptResponse, error) {
	if strings.TrimSpace(audioBase64) == "" {
		return TranscriptResponse{}, fmt.Errorf("transcribe: audio data is required")
	}
	if strings.TrimSpace(format) == "" {
		format = "webm"
	}
	var res TranscriptResponse
	err := c.postJSON(ctx, "/voice/transcribe", map[string]string{
		"audio_data": audioBase64,
		"format":     format,
	}, &res)
	if err != nil {
		return TranscriptResponse{}, fmt.Errorf("transcribe: %w", err)
	}
	if res.Status == "error" {
		return TranscriptResponse{}, fmt.Errorf("transcribe: backend error: %s", res.Message)
	}
	return res, nil
}
