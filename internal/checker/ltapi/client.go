// Package ltapi is the HTTP adapter for a rule-based checking service
// exposing a JSON check/categories API.
package ltapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dshills/prosecheck/internal/checker"
	"github.com/dshills/prosecheck/internal/logging"
	"github.com/dshills/prosecheck/internal/textrange"
	"github.com/dshills/prosecheck/internal/validate"
)

// DefaultTimeout bounds each service call when no context deadline is set.
const DefaultTimeout = 30 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithLogger sets the client's logger.
func WithLogger(log *logging.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log.WithComponent("ltapi")
		}
	}
}

// Client talks to the checking service over HTTP. Safe for concurrent
// use; every call is independent.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logging.Logger
}

// New creates a client for the service at baseURL (no trailing slash).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// checkRequest is the wire form of one validation request.
type checkRequest struct {
	RequestID   string   `json:"requestId"`
	Text        string   `json:"text"`
	From        int      `json:"from"`
	To          int      `json:"to"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
}

// wireMatch is one match as the service reports it. Offsets are absolute
// document positions, matching the from/to submitted with the block.
type wireMatch struct {
	ID            string            `json:"id"`
	From          int               `json:"from"`
	To            int               `json:"to"`
	MatchedText   string            `json:"matchedText"`
	Message       string            `json:"message"`
	Category      validate.Category `json:"category"`
	Suggestions   []string          `json:"suggestions,omitempty"`
	MarkAsCorrect bool              `json:"markAsCorrect,omitempty"`
}

type checkResponse struct {
	Matches []wireMatch `json:"matches"`
}

// Check implements checker.Checker.
func (c *Client) Check(ctx context.Context, in validate.Input, categoryIDs []string) ([]validate.Output, error) {
	body, err := json.Marshal(checkRequest{
		RequestID:   in.ID,
		Text:        in.Text,
		From:        in.Range.From,
		To:          in.Range.To,
		CategoryIDs: categoryIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("encode check request: %w", err)
	}

	var resp checkResponse
	if err := c.post(ctx, "/check", body, &resp); err != nil {
		return nil, err
	}

	outputs := make([]validate.Output, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		outputs = append(outputs, validate.Output{
			ID:            matchID(m),
			Range:         textrange.Range{From: m.From, To: m.To},
			Text:          m.MatchedText,
			Message:       m.Message,
			Category:      m.Category,
			Suggestions:   m.Suggestions,
			MarkedCorrect: m.MarkAsCorrect,
		})
	}
	c.log.Debug("check %s returned %d matches", in.ID, len(outputs))
	return outputs, nil
}

// Categories implements checker.Checker.
func (c *Client) Categories(ctx context.Context) ([]validate.Category, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/categories", nil)
	if err != nil {
		return nil, fmt.Errorf("build categories request: %w", err)
	}
	c.setHeaders(req)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w: %v", checker.ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch categories: status %d: %w", httpResp.StatusCode, checker.ErrBadResponse)
	}

	var categories []validate.Category
	if err := json.NewDecoder(httpResp.Body).Decode(&categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w: %v", checker.ErrBadResponse, err)
	}
	return categories, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w: %v", path, checker.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post %s: status %d: %w", path, resp.StatusCode, checker.ErrBadResponse)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w: %v", path, checker.ErrBadResponse, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// matchID returns the service's match id, or a stable synthetic one when
// the service omits it, so re-reported matches replace rather than
// duplicate.
func matchID(m wireMatch) string {
	if m.ID != "" {
		return m.ID
	}
	return fmt.Sprintf("%s:%d:%d", m.Category.ID, m.From, m.To)
}
