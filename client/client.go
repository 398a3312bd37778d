// ABOUTME: HTTP client for the pipeline agent's REST API, one method per endpoint.
// ABOUTME: Decodes error bodies into APIError values carrying the response status code.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jkalend/custom-cicd/engine"
)

// DefaultTimeout bounds every request except foreground runs, which block
// until the run finishes and are bounded by the caller's context instead.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Client talks to a pipeline agent over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	// noTimeout serves foreground runs, which can legitimately take longer
	// than any fixed request timeout.
	noTimeout *http.Client
}

// New returns a client for the agent at baseURL, e.g. "http://127.0.0.1:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: DefaultTimeout},
		noTimeout: &http.Client{},
	}
}

// RunReceipt is the server's acknowledgement of a dispatched run.
type RunReceipt struct {
	PipelineID string `json:"pipeline_id,omitempty"`
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
}

// CreateReceipt is the server's acknowledgement of a created pipeline.
type CreateReceipt struct {
	PipelineID string `json:"pipeline_id"`
	Status     string `json:"status"`
}

// Health fetches the agent's health probe.
func (c *Client) Health(ctx context.Context) (engine.Health, error) {
	var out engine.Health
	err := c.do(ctx, c.http, http.MethodGet, "/health", nil, &out)
	return out, err
}

// CreatePipeline registers a new pipeline definition.
func (c *Client) CreatePipeline(ctx context.Context, cfg engine.PipelineConfig) (CreateReceipt, error) {
	var out CreateReceipt
	err := c.do(ctx, c.http, http.MethodPost, "/api/pipelines", cfg, &out)
	return out, err
}

// CreateAndRun registers a pipeline and immediately dispatches a background run.
func (c *Client) CreateAndRun(ctx context.Context, cfg engine.PipelineConfig) (RunReceipt, error) {
	var out RunReceipt
	err := c.do(ctx, c.http, http.MethodPost, "/api/pipelines/run", cfg, &out)
	return out, err
}

// ListPipelines returns every pipeline with its derived status.
func (c *Client) ListPipelines(ctx context.Context) ([]engine.PipelineStatus, error) {
	var out []engine.PipelineStatus
	err := c.do(ctx, c.http, http.MethodGet, "/api/pipelines", nil, &out)
	return out, err
}

// GetPipeline returns one pipeline's derived status.
func (c *Client) GetPipeline(ctx context.Context, id string) (engine.PipelineStatus, error) {
	var out engine.PipelineStatus
	err := c.do(ctx, c.http, http.MethodGet, "/api/pipelines/"+url.PathEscape(id), nil, &out)
	return out, err
}

// DeletePipeline removes a pipeline definition.
func (c *Client) DeletePipeline(ctx context.Context, id string) error {
	return c.do(ctx, c.http, http.MethodDelete, "/api/pipelines/"+url.PathEscape(id), nil, nil)
}

// RunPipeline dispatches a run. With background true the call returns as soon
// as the run is registered; with background false it blocks until the run is
// terminal, so only the caller's context bounds it.
func (c *Client) RunPipeline(ctx context.Context, id string, background bool) (RunReceipt, error) {
	path := fmt.Sprintf("/api/pipelines/%s/run?background=%t", url.PathEscape(id), background)
	hc := c.http
	if !background {
		hc = c.noTimeout
	}
	var out RunReceipt
	err := c.do(ctx, hc, http.MethodPost, path, nil, &out)
	return out, err
}

// CancelPipeline cancels every active run of a pipeline.
func (c *Client) CancelPipeline(ctx context.Context, id string) error {
	return c.do(ctx, c.http, http.MethodPost, "/api/pipelines/"+url.PathEscape(id)+"/cancel", nil, nil)
}

// ListRuns returns run summaries, optionally filtered to one pipeline.
func (c *Client) ListRuns(ctx context.Context, pipelineID string) ([]engine.RunSummary, error) {
	path := "/api/runs"
	if pipelineID != "" {
		path += "?pipeline_id=" + url.QueryEscape(pipelineID)
	}
	var out []engine.RunSummary
	err := c.do(ctx, c.http, http.MethodGet, path, nil, &out)
	return out, err
}

// GetRun returns the full run document including per-step results.
func (c *Client) GetRun(ctx context.Context, id string) (engine.Run, error) {
	var out engine.Run
	err := c.do(ctx, c.http, http.MethodGet, "/api/runs/"+url.PathEscape(id), nil, &out)
	return out, err
}

// CancelRun cancels one active run.
func (c *Client) CancelRun(ctx context.Context, id string) error {
	return c.do(ctx, c.http, http.MethodPost, "/api/runs/"+url.PathEscape(id)+"/cancel", nil, nil)
}

// DeleteRun removes a terminal run from the registry.
func (c *Client) DeleteRun(ctx context.Context, id string) error {
	return c.do(ctx, c.http, http.MethodDelete, "/api/runs/"+url.PathEscape(id), nil, nil)
}

// do issues one request and decodes the JSON response into out (when non-nil).
// Non-2xx responses become APIError values.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
