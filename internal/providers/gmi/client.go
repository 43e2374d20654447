package gmi

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

// Options configures the GMI request-queue client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client talks to the GMI Cloud inference request queue. Submissions wrap the
// model payload in an envelope and results are fetched by request id from the
// same endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 45 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://console.gmicloud.ai/api/v1/ie/requestqueue/apikey/requests"
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.Nop()
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

type submitEnvelope struct {
	Model   string         `json:"model"`
	Payload map[string]any `json:"payload"`
}

type submitResponse struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`
}

// Submit queues a payload for the model and returns the provider request id.
func (c *Client) Submit(ctx context.Context, apiKey, model string, payload map[string]any) (string, error) {
	body, err := json.Marshal(submitEnvelope{Model: model, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("gmi: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gmi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gmi: submit: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gmi: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: gmi status %d: %s", domain.ErrSubmissionFailed, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var submitted submitResponse
	if err := json.Unmarshal(raw, &submitted); err != nil {
		return "", fmt.Errorf("gmi: decode response: %w", err)
	}
	id := submitted.ID
	if id == "" {
		id = submitted.RequestID
	}
	if id == "" {
		return "", fmt.Errorf("%w: gmi returned no request id", domain.ErrSubmissionFailed)
	}
	c.logger.Debug().Str("model", model).Str("request_id", id).Msg("gmi: job submitted")
	return id, nil
}

type pollResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	raw     json.RawMessage
}

func (p *pollResponse) failureReason() string {
	if p.Error != "" {
		return p.Error
	}
	if p.Message != "" {
		return p.Message
	}
	return "generation failed"
}

// CheckStatus fetches the queued request by id. The whole body is kept so the
// result extractor can probe it once the status turns terminal.
func (c *Client) CheckStatus(ctx context.Context, apiKey, requestID string) (*pollResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+requestID, nil)
	if err != nil {
		return nil, fmt.Errorf("gmi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gmi: http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gmi: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gmi: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var poll pollResponse
	if err := json.Unmarshal(raw, &poll); err != nil {
		return nil, fmt.Errorf("gmi: decode status: %w", err)
	}
	poll.raw = raw
	return &poll, nil
}
