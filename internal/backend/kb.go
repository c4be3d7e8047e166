package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// UploadFile stores a document in the knowledge base via multipart upload.
func (c *Client) UploadFile(ctx context.Context, filename string, content io.Reader) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("kb upload: filename is required")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("kb upload: create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("kb upload: copy content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("kb upload: finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/kb/upload-file", &buf)
	if err != nil {
		return fmt.Errorf("kb upload: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, nil)
}

// AddText stores a raw text snippet in the knowledge base.
func (c *Client) AddText(ctx context.Context, title, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("kb add text: text is required")
	}
	return c.postJSON(ctx, "/kb/add-text", map[string]string{
		"title": title,
		"text":  text,
	}, nil)
}

// SearchKB queries the knowledge base.
func (c *Client) SearchKB(ctx context.Context, query string, limit int) ([]KBSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("kb search: query is required")
	}
	if limit <= 0 {
		limit = 5
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))

	var res struct {
		Results []KBSearchResult `json:"results"`
	}
	if err := c.getJSON(ctx, "/kb/search", q, &res); err != nil {
		return nil, fmt.Errorf("kb search: %w", err)
	}
	return res.Results, nil
}

// KBFiles lists stored documents.
func (c *Client) KBFiles(ctx context.Context) ([]KBFile, error) {
	var res struct {
		Files []KBFile `json:"files"`
	}
	if err := c.getJSON(ctx, "/kb/files", nil, &res); err != nil {
		return nil, fmt.Errorf("kb files: %w", err)
	}
	return res.Files, nil
}

// DeleteKBFile removes one stored document.
func (c *Client) DeleteKBFile(ctx context.Context, filename string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("kb delete: filename is required")
	}
	return c.deleteJSON(ctx, "/kb/file/"+url.PathEscape(filename), nil)
}

// KBStats returns knowledge-base storage statistics.
func (c *Client) KBStats(ctx context.Context) (KBStats, error) {
	var res KBStats
	if err := c.getJSON(ctx, "/kb/stats", nil, &res); err != nil {
		return KBStats{}, fmt.Errorf("kb stats: %w", err)
	}
	return res, nil
}

// ClearKB removes all knowledge-base content.
func (c *Client) ClearKB(ctx context.Context) error {
	return c.deleteJSON(ctx, "/kb/clear", nil)
}
