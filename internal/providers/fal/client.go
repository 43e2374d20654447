package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
)

// Options configures the fal queue client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client performs HTTP calls against the fal request queue. Jobs are
// submitted to {base}/{model}, then polled on the status URL until a
// terminal state is reached. Credentials travel per call because the
// orchestrator selects an API key per job.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 45 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://queue.fal.run"
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.Nop()
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

// queued is the accepted-submission envelope. fal returns ready-to-use status
// and response URLs; when absent they are derived from the model path.
type queued struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type statusResponse struct {
	Status   string          `json:"status"`
	Error    string          `json:"error"`
	Response json.RawMessage `json:"response"`
}

// Submit posts a generation payload to the queue endpoint for the model.
func (c *Client) Submit(ctx context.Context, apiKey, model string, payload map[string]any) (*queued, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(model, "/")
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("fal: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fal: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fal: submit: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fal: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: fal status %d: %s", domain.ErrSubmissionFailed, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var q queued
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("fal: decode response: %w", err)
	}
	if q.RequestID == "" {
		return nil, fmt.Errorf("%w: fal returned no request id", domain.ErrSubmissionFailed)
	}
	if q.StatusURL == "" {
		q.StatusURL = fmt.Sprintf("%s/requests/%s/status", endpoint, q.RequestID)
	}
	if q.ResponseURL == "" {
		q.ResponseURL = fmt.Sprintf("%s/requests/%s", endpoint, q.RequestID)
	}
	c.logger.Debug().
		Str("model", model).
		Str("request_id", q.RequestID).
		Msg("fal: job submitted")
	return &q, nil
}

// CheckStatus performs a single status probe. Terminal statuses are
// COMPLETED and FAILED; anything else counts as still in the queue.
func (c *Client) CheckStatus(ctx context.Context, apiKey, statusURL string) (*statusResponse, error) {
	raw, err := c.get(ctx, apiKey, statusURL)
	if err != nil {
		return nil, err
	}
	var status statusResponse
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("fal: decode status: %w", err)
	}
	return &status, nil
}

// FetchResult retrieves the completion payload from the response URL.
func (c *Client) FetchResult(ctx context.Context, apiKey, responseURL string) (json.RawMessage, error) {
	return c.get(ctx, apiKey, responseURL)
}

func (c *Client) get(ctx context.Context, apiKey, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fal: build request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fal: http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fal: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fal: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
