package heygen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sash-ai/avatarlink/internal/reliability"
)

// Client talks to the provider's streaming control plane over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type Config struct {
	BaseURL string
	APIKey  string
	// Timeout bounds every control-plane call. Zero means 30s.
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://api.heygen.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: base,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  &http.Client{Timeout: timeout},
	}
}

// envelope is the provider's uniform response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// CreateToken issues a one-time streaming token for client-side SDK use.
func (c *Client) CreateToken(ctx context.Context) (Token, error) {
	data, err := c.post(ctx, "create_token", "/v1/streaming.create_token", nil)
	if err != nil {
		return Token{}, err
	}
	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return Token{}, fmt.Errorf("heygen create_token: decode: %w", err)
	}
	if strings.TrimSpace(tok.Token) == "" {
		return Token{}, fmt.Errorf("heygen create_token: %w: empty token in response", ErrAuth)
	}
	return tok, nil
}

// NewSession requests a streaming session for the avatar/voice pairing.
func (c *Client) NewSession(ctx context.Context, req NewSessionRequest) (SessionInfo, error) {
	if strings.TrimSpace(req.AvatarName) == "" {
		return SessionInfo{}, fmt.Errorf("%w: avatar name is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(req.VoiceID) == "" {
		return SessionInfo{}, fmt.Errorf("%w: voice id is required", ErrInvalidArgument)
	}
	quality := strings.TrimSpace(req.Quality)
	if quality == "" {
		quality = "medium"
	}
	rate := req.VoiceRate
	if rate <= 0 {
		rate = 1.0
	}
	emotion := strings.TrimSpace(req.Emotion)
	if emotion == "" {
		emotion = "Friendly"
	}

	// Field casing follows the streaming SDK contract: avatarName and
	// voice.voiceId, not snake_case.
	payload := map[string]any{
		"quality":    quality,
		"avatarName": req.AvatarName,
		"voice": map[string]any{
			"voiceId": req.VoiceID,
			"rate":    rate,
			"emotion": emotion,
		},
		"version":        "v2",
		"video_encoding": "H264",
	}

	data, err := c.post(ctx, "streaming.new", "/v1/streaming.new", payload)
	if err != nil {
		if isTaxonomized(err) {
			return SessionInfo{}, err
		}
		return SessionInfo{}, fmt.Errorf("%w: %v", ErrSessionCreate, err)
	}

	var raw struct {
		SessionID        string `json:"session_id"`
		URL              string `json:"url"`
		AccessToken      string `json:"access_token"`
		RealtimeEndpoint string `json:"realtime_endpoint"`
		SDP              *struct {
			Type string `json:"type"`
			SDP  string `json:"sdp"`
		} `json:"sdp"`
		ICEServers []ICEServer `json:"ice_servers2"`
		ICELegacy  []string    `json:"ice_servers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return SessionInfo{}, fmt.Errorf("heygen streaming.new: decode: %w", err)
	}
	if raw.SessionID == "" {
		return SessionInfo{}, fmt.Errorf("%w: no session_id in response", ErrSessionCreate)
	}

	info := SessionInfo{
		SessionID:        raw.SessionID,
		URL:              raw.URL,
		AccessToken:      raw.AccessToken,
		RealtimeEndpoint: raw.RealtimeEndpoint,
		ICEServers:       raw.ICEServers,
	}
	if raw.SDP != nil {
		info.OfferSDP = raw.SDP.SDP
	}
	if len(info.ICEServers) == 0 && len(raw.ICELegacy) > 0 {
		info.ICEServers = []ICEServer{{URLs: raw.ICELegacy}}
	}
	return info, nil
}

// StartSession submits the local SDP answer for a manually negotiated
// session. Managed (v2) sessions auto-start and do not need this call.
func (c *Client) StartSession(ctx context.Context, sessionID, answerSDP string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidArgument)
	}
	payload := map[string]any{"session_id": sessionID}
	if strings.TrimSpace(answerSDP) != "" {
		payload["sdp"] = map[string]any{"type": "answer", "sdp": answerSDP}
	}
	_, err := c.post(ctx, "streaming.start", "/v1/streaming.start", payload)
	return err
}

// speakTextCap bounds task text; the provider rejects longer utterances.
const speakTextCap = 500

// Speak submits text for the avatar to vocalize.
func (c *Client) Speak(ctx context.Context, sessionID, text string, taskType TaskType, mode TaskMode) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidArgument)
	}
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return fmt.Errorf("%w: empty task text", ErrInvalidArgument)
	}
	if runes := []rune(cleaned); len(runes) > speakTextCap {
		cleaned = string(runes[:speakTextCap])
	}
	if taskType == "" {
		taskType = TaskRepeat
	}
	if mode == "" {
		mode = TaskSync
	}

	_, err := c.post(ctx, "streaming.task", "/v1/streaming.task", map[string]any{
		"session_id": sessionID,
		"text":       cleaned,
		"task_type":  string(taskType),
		"task_mode":  string(mode),
	})
	return err
}

// Interrupt asks the provider to stop the current utterance. Returns false
// without error when nothing was speaking.
func (c *Client) Interrupt(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, fmt.Errorf("%w: session id is required", ErrInvalidArgument)
	}
	_, err := c.post(ctx, "streaming.interrupt", "/v1/streaming.interrupt", map[string]any{
		"session_id": sessionID,
	})
	if err != nil {
		var apiErr *APIError
		// "No active task" style refusals are a harmless no-op.
		if errors.As(err, &apiErr) && apiErr.HTTPStatus == 400 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// StopSession tears down the provider session. Calling it on an already
// stopped or unknown session succeeds.
func (c *Client) StopSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	_, err := c.post(ctx, "streaming.stop", "/v1/streaming.stop", map[string]any{
		"session_id": sessionID,
	})
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatus == 404 || reliability.IsSessionGoneCode(apiErr.Code) {
			return nil
		}
	}
	return err
}

// ListAvatars fetches the account's avatar inventory.
func (c *Client) ListAvatars(ctx context.Context) ([]Avatar, error) {
	data, err := c.get(ctx, "avatar.list", "/v1/avatar.list")
	if err != nil {
		return nil, err
	}
	var raw struct {
		Avatars []Avatar `json:"avatars"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("heygen avatar.list: decode: %w", err)
	}
	return raw.Avatars, nil
}

func (c *Client) post(ctx context.Context, op, path string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("heygen %s: marshal: %w", op, err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("heygen %s: create request: %w", op, err)
	}
	return c.do(op, req)
}

func (c *Client) get(ctx context.Context, op, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("heygen %s: create request: %w", op, err)
	}
	return c.do(op, req)
}

func (c *Client) do(op string, req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("heygen %s: send request: %w", op, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("heygen %s: read response: %w", op, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			return nil, &APIError{Operation: op, HTTPStatus: res.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return nil, fmt.Errorf("heygen %s: decode envelope: %w", op, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 || env.Code != codeOK {
		return nil, &APIError{
			Operation:  op,
			HTTPStatus: res.StatusCode,
			Code:       env.Code,
			Message:    env.Message,
		}
	}
	return env.Data, nil
}

func isTaxonomized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
