package gmi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"genstudio/internal/domain"
	"genstudio/internal/providers"
	"genstudio/internal/providers/image"
)

const (
	imagePollInterval    = 2 * time.Second
	imagePollMaxAttempts = 120
)

// ImageGenerator drives the GMI request queue for image models.
type ImageGenerator struct {
	client *Client
}

var _ image.Generator = (*ImageGenerator)(nil)

func NewImageGenerator(client *Client) *ImageGenerator {
	return &ImageGenerator{client: client}
}

// Generate submits the shaped payload and polls until a terminal status.
func (g *ImageGenerator) Generate(ctx context.Context, req image.GenerateRequest) (*image.Result, error) {
	payload := shapeImagePayload(req)
	requestID, err := g.client.Submit(ctx, req.APIKey, req.Model, payload)
	if err != nil {
		return nil, err
	}

	status, err := providers.Poll(ctx, imagePollInterval, imagePollMaxAttempts, func(ctx context.Context) (providers.Status, error) {
		return g.check(ctx, req.APIKey, requestID, req.OutputFormat)
	})
	if err != nil {
		return nil, err
	}
	if status.State == providers.StateFailed {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderFailure, status.Reason)
	}
	if status.URL == "" {
		return nil, fmt.Errorf("%w: completed without an image url", domain.ErrProviderFailure)
	}
	return &image.Result{URL: status.URL}, nil
}

// shapeImagePayload builds the model-specific body. Seedream takes the aspect
// token in size and pins watermark and response_format; the gemini preview
// model takes aspect_ratio plus the raw resolution tier in image_size.
func shapeImagePayload(req image.GenerateRequest) map[string]any {
	payload := map[string]any{
		"prompt": req.Prompt,
	}
	if req.Model == "seedream-4-0-250828" {
		if req.AspectRatio != "" {
			payload["size"] = req.AspectRatio
		}
		payload["watermark"] = false
		payload["response_format"] = "url"
	} else {
		if req.AspectRatio != "" && req.AspectRatio != "auto" {
			payload["aspect_ratio"] = req.AspectRatio
		}
		if req.Resolution != "" {
			payload["image_size"] = req.Resolution
		}
	}
	if len(req.Images) > 0 {
		payload["image"] = req.Images
	}
	return payload
}

func (g *ImageGenerator) check(ctx context.Context, apiKey, requestID, outputFormat string) (providers.Status, error) {
	poll, err := g.client.CheckStatus(ctx, apiKey, requestID)
	if err != nil {
		return providers.Status{}, err
	}
	switch strings.ToLower(poll.Status) {
	case "completed", "succeeded", "success":
		return providers.Status{State: providers.StateCompleted, URL: extractImageURL(poll.raw, outputFormat)}, nil
	case "failed", "error":
		return providers.Status{State: providers.StateFailed, Reason: poll.failureReason()}, nil
	default:
		return providers.Status{State: providers.StatePending}, nil
	}
}
