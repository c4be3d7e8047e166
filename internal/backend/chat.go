package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// History lists stored chat messages, newest last.
func (c *Client) History(ctx context.Context, limit int) ([]ChatMessage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var res struct {
		Messages []ChatMessage `json:"messages"`
	}
	if err := c.getJSON(ctx, "/chat/history", q, &res); err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}
	return res.Messages, nil
}

// SearchHistory searches stored chat messages.
func (c *Client) SearchHistory(ctx context.Context, query string, limit int) ([]ChatMessage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("chat search: query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))

	var res struct {
		Messages []ChatMessage `json:"messages"`
	}
	if err := c.getJSON(ctx, "/chat/search", q, &res); err != nil {
		return nil, fmt.Errorf("chat search: %w", err)
	}
	return res.Messages, nil
}

// ExportHistory downloads the full history as json or txt.
func (c *Client) ExportHistory(ctx context.Context, format string) ([]byte, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "txt" {
		return nil, fmt.Errorf("chat export: format must be json or txt")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/chat/export?format="+format, nil)
	if err != nil {
		return nil, fmt.Errorf("chat export: create request: %w", err)
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat export: send request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("chat export: backend http status %d", res.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("chat export: read body: %w", err)
	}
	return data, nil
}

// DeleteMessage removes a single stored message.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	if strings.TrimSpace(messageID) == "" {
		return fmt.Errorf("chat delete: message id is required")
	}
	return c.deleteJSON(ctx, "/chat/message/"+url.PathEscape(messageID), nil)
}

// ClearHistory removes all stored messages.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.deleteJSON(ctx, "/chat/clear", nil)
}
