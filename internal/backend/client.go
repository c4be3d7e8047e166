package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sash-ai/avatarlink/internal/reliability"
)

// Client talks to the companion backend's REST API. The backend owns token
// issuance, LLM completion, transcription and the knowledge base; this
// client treats it as a black box over plain HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client: &http.Client{
			// Completion calls can sit behind a slow LLM; keep this generous.
			Timeout: 60 * time.Second,
		},
	}
}

// Token fetches a fresh one-time transport credential. Credentials are never
// reused across sessions, so there is no caching here.
func (c *Client) Token(ctx context.Context) (string, error) {
	var res TokenResponse
	if err := c.getJSON(ctx, "/heygen-token", nil, &res); err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	if strings.TrimSpace(res.Token) == "" {
		return "", fmt.Errorf("fetch token: backend returned empty token (status %q)", res.Status)
	}
	return res.Token, nil
}

// RegisterSession informs the backend of a new session. Best-effort: the
// caller is expected to ignore the error beyond logging.
func (c *Client) RegisterSession(ctx context.Context, req RegisterSessionRequest) error {
	return c.postJSON(ctx, "/heygen/register-sdk-session", req, nil)
}

// UnregisterSession removes backend bookkeeping for a closed session.
func (c *Client) UnregisterSession(ctx context.Context, sessionID string) error {
	return c.postJSON(ctx, "/heygen/unregister-sdk-session", map[string]string{
		"session_id": sessionID,
	}, nil)
}

// SendPrompt forwards one user prompt for LLM completion.
func (c *Client) SendPrompt(ctx context.Context, prompt string) (PromptResponse, error) {
	if strings.TrimSpace(prompt) == "" {
		return PromptResponse{}, fmt.Errorf("send prompt: empty prompt")
	}
	var res PromptResponse
	if err := c.postJSON(ctx, "/send-prompt", map[string]string{"prompt": prompt}, &res); err != nil {
		return PromptResponse{}, fmt.Errorf("send prompt: %w", err)
	}
	if res.Status == "error" {
		return PromptResponse{}, fmt.Errorf("send prompt: backend error: %s", res.Message)
	}
	return res, nil
}

// ActiveSessions lists sessions the backend believes are live.
func (c *Client) ActiveSessions(ctx context.Context) (ActiveSessionsResponse, error) {
	var res ActiveSessionsResponse
	if err := c.getJSON(ctx, "/active-sessions", nil, &res); err != nil {
		return ActiveSessionsResponse{}, fmt.Errorf("active sessions: %w", err)
	}
	return res, nil
}

// StatusError reports a non-2xx backend reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend http status %d: %s", e.Code, e.Body)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// getRetries bounds transparent retries of idempotent reads.
const getRetries = 2

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= getRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reliability.ExponentialBackoff(attempt, 100*time.Millisecond, time.Second)):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		lastErr = c.do(req, out)
		var se *StatusError
		if lastErr != nil && errors.As(lastErr, &se) && reliability.IsRetryableHTTPStatus(se.Code) {
			continue
		}
		return lastErr
	}
	return lastErr
}

func (c *Client) deleteJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<20))
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
