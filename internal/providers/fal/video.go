package fal

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"genstudio/internal/domain"
	"genstudio/internal/providers"
	"genstudio/internal/providers/video"
)

const (
	videoPollInterval    = 5 * time.Second
	videoPollMaxAttempts = 120
)

// VideoProvider drives fal's queue for the veo family. The endpoint changes
// with the number of reference frames supplied with the prompt.
type VideoProvider struct {
	client *Client
}

var _ video.Provider = (*VideoProvider)(nil)

func NewVideoProvider(client *Client) *VideoProvider {
	return &VideoProvider{client: client}
}

// Submit queues the job and returns a handle that survives process restarts.
func (p *VideoProvider) Submit(ctx context.Context, req video.GenerateRequest) (*video.Submission, error) {
	model, err := videoEndpoint(len(req.Images))
	if err != nil {
		return nil, err
	}
	payload := shapeVideoPayload(req)
	q, err := p.client.Submit(ctx, req.APIKey, model, payload)
	if err != nil {
		return nil, err
	}
	return &video.Submission{RequestID: q.RequestID}, nil
}

// Await polls the queue until the job reaches a terminal state. The status
// and response URLs are rebuilt from the resume handle, so a worker that
// never saw the original submit response can drive the cycle. The model
// route is recomputed from the reference frame count the same way Submit
// picked it.
func (p *VideoProvider) Await(ctx context.Context, apiKey string, resume video.Resume) (*video.Result, error) {
	model, err := videoEndpoint(resume.ReferenceImages)
	if err != nil {
		return nil, err
	}
	endpoint := p.client.baseURL + "/" + model
	q := &queued{
		RequestID:   resume.RequestID,
		StatusURL:   fmt.Sprintf("%s/requests/%s/status", endpoint, resume.RequestID),
		ResponseURL: fmt.Sprintf("%s/requests/%s", endpoint, resume.RequestID),
	}
	status, err := providers.Poll(ctx, videoPollInterval, videoPollMaxAttempts, func(ctx context.Context) (providers.Status, error) {
		return p.checkVideo(ctx, apiKey, q)
	})
	if err != nil {
		return nil, err
	}
	if status.State == providers.StateFailed {
		reason := status.Reason
		if reason == "" {
			reason = "generation failed"
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderFailure, reason)
	}
	if status.URL == "" {
		return nil, fmt.Errorf("%w: completed without a video url", domain.ErrProviderFailure)
	}
	return &video.Result{URL: status.URL}, nil
}

// videoEndpoint picks the model route from the reference frame count.
func videoEndpoint(imageCount int) (string, error) {
	switch imageCount {
	case 0:
		return "fal-ai/veo3.1/fast", nil
	case 1:
		return "fal-ai/veo3.1/fast/image-to-video", nil
	case 2:
		return "fal-ai/veo3.1/fast/first-last-frame-to-video", nil
	default:
		return "", fmt.Errorf("%w: at most two reference frames are supported", domain.ErrInvalidRequest)
	}
}

func shapeVideoPayload(req video.GenerateRequest) map[string]any {
	payload := map[string]any{
		"prompt":         req.Prompt,
		"duration":       strconv.Itoa(req.DurationSeconds) + "s",
		"resolution":     req.Resolution,
		"generate_audio": req.AudioEnabled,
	}
	if req.AspectRatio != "" && req.AspectRatio != "auto" {
		payload["aspect_ratio"] = req.AspectRatio
	}
	if req.NegativePrompt != "" {
		payload["negative_prompt"] = req.NegativePrompt
	}
	switch len(req.Images) {
	case 1:
		payload["image_url"] = req.Images[0]
	case 2:
		payload["first_frame_image"] = req.Images[0]
		payload["last_frame_image"] = req.Images[1]
	}
	return payload
}

func (p *VideoProvider) checkVideo(ctx context.Context, apiKey string, q *queued) (providers.Status, error) {
	status, err := p.client.CheckStatus(ctx, apiKey, q.StatusURL)
	if err != nil {
		return providers.Status{}, err
	}
	switch status.Status {
	case "COMPLETED":
		result, err := p.client.FetchResult(ctx, apiKey, q.ResponseURL)
		if err != nil {
			return providers.Status{}, err
		}
		return providers.Status{State: providers.StateCompleted, URL: videoURLFromPayload(result)}, nil
	case "FAILED":
		return providers.Status{State: providers.StateFailed, Reason: status.Error}, nil
	default:
		return providers.Status{State: providers.StatePending}, nil
	}
}

// videoURLFromPayload probes video.url first, then the nested output shape.
func videoURLFromPayload(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var out struct {
		Video struct {
			URL string `json:"url"`
		} `json:"video"`
		Output struct {
			Video struct {
				URL string `json:"url"`
			} `json:"video"`
		} `json:"output"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return ""
	}
	if out.Video.URL != "" {
		return out.Video.URL
	}
	return out.Output.Video.URL
}
