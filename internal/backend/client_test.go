package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestTokenSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/heygen-token" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(TokenResponse{Status: "success", Token: "tok-9"})
	})

	tok, err := c.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok != "tok-9" {
		t.Fatalf("token = %q, want tok-9", tok)
	}
}

func TestTokenEmptyIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(TokenResponse{Status: "error"})
	})
	if _, err := c.Token(context.Background()); err == nil {
		t.Fatalf("empty token should be an error")
	}
}

func TestSendPrompt(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["prompt"] != "hello" {
			t.Fatalf("prompt = %q", req["prompt"])
		}
		_ = json.NewEncoder(w).Encode(PromptResponse{
			Status:            "success",
			Response:          "hi there",
			UsedKnowledgeBase: true,
			Mode:              "sdk_frontend",
		})
	})

	res, err := c.SendPrompt(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SendPrompt() error = %v", err)
	}
	if res.Response != "hi there" || !res.UsedKnowledgeBase {
		t.Fatalf("unexpected response: %+v", res)
	}
}

func TestSendPromptBackendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(PromptResponse{Status: "error", Message: "llm down"})
	})
	if _, err := c.SendPrompt(context.Background(), "hello"); err == nil || !strings.Contains(err.Error(), "llm down") {
		t.Fatalf("error = %v, want llm down", err)
	}
}

func TestSendPromptRejectsEmpty(t *testing.T) {
	c := NewClient("http://unused.invalid")
	if _, err := c.SendPrompt(context.Background(), "  "); err == nil {
		t.Fatalf("empty prompt should be rejected locally")
	}
}

func TestRegisterSessionPayload(t *testing.T) {
	var captured map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/heygen/register-sdk-session" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.WriteHeader(http.StatusOK)
	})

	err := c.RegisterSession(context.Background(), RegisterSessionRequest{
		SessionID: "s1", AvatarID: "a1", VoiceID: "v1",
	})
	if err != nil {
		t.Fatalf("RegisterSession() error = %v", err)
	}
	if captured["session_id"] != "s1" || captured["avatar_id"] != "a1" {
		t.Fatalf("unexpected payload: %v", captured)
	}
}

func TestVoiceRecordingFlow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/voice/start-recording":
			_ = json.NewEncoder(w).Encode(RecordingSession{Status: "success", SessionID: "rec-1"})
		case "/voice/add-chunk":
			_ = json.NewEncoder(w).Encode(ChunkResponse{Status: "success", ChunksCount: 1, SessionID: "rec-1"})
		case "/voice/stop-recording":
			_ = json.NewEncoder(w).Encode(TranscriptResponse{Status: "success", Text: "hello world", ChunksProcessed: 1})
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	})

	ctx := context.Background()
	rec, err := c.StartRecording(ctx)
	if err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	if _, err := c.AddChunk(ctx, rec.SessionID, "Zm9v", "webm"); err != nil {
		t.Fatalf("AddChunk() error = %v", err)
	}
	final, err := c.StopRecording(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("StopRecording() error = %v", err)
	}
	if final.Text != "hello world" {
		t.Fatalf("transcript = %q", final.Text)
	}
}

func TestKBSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "pricing" {
			t.Fatalf("query = %q", r.URL.Query().Get("query"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []KBSearchResult{{Content: "the price is right", Source: "faq.md", Score: 0.9}},
		})
	})

	hits, err := c.SearchKB(context.Background(), "pricing", 5)
	if err != nil {
		t.Fatalf("SearchKB() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Source != "faq.md" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
}

func TestUploadFileMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "notes.txt" {
			t.Fatalf("filename = %q", hdr.Filename)
		}
		w.WriteHeader(http.StatusOK)
	})

	err := c.UploadFile(context.Background(), "notes.txt", strings.NewReader("doc body"))
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
}

func TestExportHistoryRejectsBadFormat(t *testing.T) {
	c := NewClient("http://unused.invalid")
	if _, err := c.ExportHistory(context.Background(), "xml"); err == nil {
		t.Fatalf("xml export format should be rejected")
	}
}

func TestGetRetriesTransientStatus(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(TokenResponse{Status: "success", Token: "tok-2"})
	})

	tok, err := c.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok != "tok-2" || attempts != 2 {
		t.Fatalf("token = %q attempts = %d", tok, attempts)
	}
}

func TestGetDoesNotRetryClientError(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		http.Error(w, "nope", http.StatusNotFound)
	})

	if _, err := c.Token(context.Background()); err == nil {
		t.Fatalf("404 should surface as an error")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, 4xx must not be retried", attempts)
	}
}

func TestHTTPErrorSurfacesStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, err := c.ActiveSessions(context.Background())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("error = %v, want http 502 surfaced", err)
	}
}
