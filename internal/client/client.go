// Package client implements the transport layer for the AutoDistil KG
// pipeline service: request/response calls for submission, status snapshots
// and artifact retrieval, plus a persistent WebSocket channel for live run
// events.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nimeshaperi/Autodistil-KG-client/pkg/pipeline"
)

// DefaultBaseURL is used when no server override is configured.
const DefaultBaseURL = "http://localhost:8000"

// Options configures a Client. The base address is resolved once at
// construction: an explicit override is used verbatim (trailing slash
// stripped), otherwise the default applies.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to one pipeline service instance. It is safe for concurrent
// use.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
}

// New creates a Client from the given options.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{baseURL: base, httpc: httpc, logger: logger}
}

// BaseURL returns the resolved base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// doJSON issues the request and decodes a 2xx JSON body into out. Non-2xx
// responses become a RequestError with the extracted detail.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// SubmitRun starts a run over the request/response channel. With async set,
// the service returns immediately with a run identifier and the caller polls
// for progress.
func (c *Client) SubmitRun(ctx context.Context, cfg *pipeline.Config, async bool) (*pipeline.RunResponse, error) {
	body, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pipeline config: %w", err)
	}
	path := "/pipelines/run"
	if async {
		path += "?async=true"
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("submitting run", "stages", cfg.Stages, "async", async)

	var out pipeline.RunResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PollRunStatus fetches a point-in-time snapshot of a run.
func (c *Client) PollRunStatus(ctx context.Context, runID string) (*pipeline.RunResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/pipelines/runs/"+runID, nil)
	if err != nil {
		return nil, err
	}
	var out pipeline.RunResult
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks service availability.
func (c *Client) Health(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}
