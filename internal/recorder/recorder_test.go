package recorder

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/sash-ai/avatarlink/internal/backend"
)

type fakeVoice struct {
	startErr      error
	chunkErr      error
	stopErr       error
	transcribeErr error

	chunks       int
	stopCalls    int
	oneShotCalls int
	oneShotAudio string
	finalText    string
	oneShotText  string
}

func (f *fakeVoice) StartRecording(context.Context) (backend.RecordingSession, error) {
	if f.startErr != nil {
		return backend.RecordingSession{}, f.startErr
	}
	return backend.RecordingSession{Status: "success", SessionID: "rec-1"}, nil
}

func (f *fakeVoice) AddChunk(_ context.Context, _, _, _ string) (backend.ChunkResponse, error) {
	if f.chunkErr != nil {
		return backend.ChunkResponse{}, f.chunkErr
	}
	f.chunks++
	return backend.ChunkResponse{Status: "success", ChunksCount: f.chunks}, nil
}

func (f *fakeVoice) StopRecording(context.Context, string) (backend.TranscriptResponse, error) {
	f.stopCalls++
	if f.stopErr != nil {
		return backend.TranscriptResponse{}, f.stopErr
	}
	return backend.TranscriptResponse{Status: "success", Text: f.finalText}, nil
}

func (f *fakeVoice) Transcribe(_ context.Context, audioBase64, _ string) (backend.TranscriptResponse, error) {
	f.oneShotCalls++
	f.oneShotAudio = audioBase64
	if f.transcribeErr != nil {
		return backend.TranscriptResponse{}, f.transcribeErr
	}
	return backend.TranscriptResponse{Status: "success", Text: f.oneShotText}, nil
}

func chunk(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestRecorderHappyPath(t *testing.T) {
	voice := &fakeVoice{finalText: "hello there"}
	r := New(voice)
	ctx := context.Background()

	if err := r.Begin(ctx); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := r.Push(ctx, chunk("audio-1"), "webm"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	text, err := r.Finish(ctx)
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if text != "hello there" {
		t.Fatalf("text = %q", text)
	}
	if voice.oneShotCalls != 0 {
		t.Fatalf("one-shot path should not be used when chunked flow works")
	}
}

func TestRecorderFallsBackWhenStartFails(t *testing.T) {
	voice := &fakeVoice{startErr: errors.New("backend down"), oneShotText: "fallback text"}
	r := New(voice)
	ctx := context.Background()

	if err := r.Begin(ctx); err != nil {
		t.Fatalf("Begin() should not fail when chunked start fails, got %v", err)
	}
	_ = r.Push(ctx, chunk("part-a"), "webm")
	_ = r.Push(ctx, chunk("part-b"), "webm")

	text, err := r.Finish(ctx)
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if text != "fallback text" {
		t.Fatalf("text = %q", text)
	}
	decoded, _ := base64.StdEncoding.DecodeString(voice.oneShotAudio)
	if string(decoded) != "part-apart-b" {
		t.Fatalf("fallback clip = %q, want concatenated chunks", decoded)
	}
}

func TestRecorderFallsBackWhenStopFails(t *testing.T) {
	voice := &fakeVoice{stopErr: errors.New("session lost"), oneShotText: "rescued"}
	r := New(voice)
	ctx := context.Background()

	_ = r.Begin(ctx)
	_ = r.Push(ctx, chunk("bits"), "webm")
	text, err := r.Finish(ctx)
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if text != "rescued" || voice.oneShotCalls != 1 {
		t.Fatalf("text = %q oneShotCalls = %d", text, voice.oneShotCalls)
	}
}

func TestRecorderEmptyClipNoSpeech(t *testing.T) {
	voice := &fakeVoice{startErr: errors.New("down")}
	r := New(voice)
	ctx := context.Background()

	_ = r.Begin(ctx)
	text, err := r.Finish(ctx)
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if text != "" || voice.oneShotCalls != 0 {
		t.Fatalf("empty clip should produce empty transcript without a backend call")
	}
}

func TestRecorderRejectsDoubleBegin(t *testing.T) {
	r := New(&fakeVoice{})
	ctx := context.Background()
	_ = r.Begin(ctx)
	if err := r.Begin(ctx); err == nil {
		t.Fatalf("second Begin() should fail")
	}
}

func TestRecorderRejectsBadChunk(t *testing.T) {
	r := New(&fakeVoice{})
	ctx := context.Background()
	_ = r.Begin(ctx)
	if err := r.Push(ctx, "not base64!!!", "webm"); err == nil {
		t.Fatalf("invalid base64 should be rejected")
	}
}
