// Package api is the HTTP client for the chat backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shaharia-lab/cypherchat/internal/logger"
	"github.com/shaharia-lab/cypherchat/internal/metrics"
)

const (
	chatPath      = "/api/chat"
	clearPath     = "/api/chat/clear"
	historyPath   = "/api/chat/history"
	examplesPath  = "/api/examples"
	healthPath    = "/api/health"
	metricsPath   = "/api/metrics"
	maxErrorBytes = 4096
)

// Client calls the backend HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout bounds every request. Zero means no client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l logger.Logger) Option {
	return func(client *Client) {
		client.log = l
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		log:        logger.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat submits a prompt. A backend rejection is returned as *Error;
// any other error is a transport or decoding failure.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, chatPath, req, &resp); err != nil {
		return ChatResponse{}, err
	}
	return resp, nil
}

// ClearHistory asks the backend to discard the stored conversation.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, clearPath, nil, nil)
}

// History returns the stored conversation exactly as the backend encodes it.
func (c *Client) History(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, historyPath, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Examples returns the prompt gallery.
func (c *Client) Examples(ctx context.Context) ([]Example, error) {
	var examples []Example
	if err := c.do(ctx, http.MethodGet, examplesPath, nil, &examples); err != nil {
		return nil, err
	}
	return examples, nil
}

// Health returns the backend health report. The body is decoded whatever the HTTP status.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	if err := c.doDecodeAlways(ctx, http.MethodGet, healthPath, &h); err != nil {
		return Health{}, err
	}
	return h, nil
}

// Metrics returns a one-off metrics summary, the same record the push channel delivers.
func (c *Client) Metrics(ctx context.Context) (metrics.Update, error) {
	var u metrics.Update
	if err := c.do(ctx, http.MethodGet, metricsPath, nil, &u); err != nil {
		return metrics.Update{}, err
	}
	return u, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends the request and decodes a 2xx body into out. Non-2xx responses become *Error.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("backend request failed", map[string]interface{}{
			"method": method, "path": path, logger.ErrorKey: err,
		})
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("backend request", map[string]interface{}{
		"method": method, "path": path, "status": resp.StatusCode, "elapsed": time.Since(start).String(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) doDecodeAlways(ctx context.Context, method, path string, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))

	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return &Error{StatusCode: resp.StatusCode, Message: body.Error}
	}

	msg := http.StatusText(resp.StatusCode)
	if msg == "" {
		msg = "unexpected status"
	}
	return &Error{StatusCode: resp.StatusCode, Message: msg}
}
