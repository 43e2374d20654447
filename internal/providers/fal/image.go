package fal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"genstudio/internal/domain"
	"genstudio/internal/providers"
	"genstudio/internal/providers/image"
)

const (
	imagePollInterval    = 2 * time.Second
	imagePollMaxAttempts = 60
)

// editCapable lists the models that expose a dedicated edit endpoint. When
// reference images accompany the prompt the request goes to {model}/edit
// instead of the plain text-to-image route.
var editCapable = map[string]bool{
	"fal-ai/nano-banana-pro":                     true,
	"fal-ai/bytedance/seedream/v4.5/text-to-image": true,
}

// resolutionSizes maps catalog resolution tiers to the pixel-dimension
// strings fal expects in image_size. Tokens outside the map pass through
// verbatim.
var resolutionSizes = map[string]string{
	"1K": "1024x1024",
	"2K": "2048x2048",
	"4K": "4096x4096",
}

// ImageGenerator drives fal's queue for image models.
type ImageGenerator struct {
	client *Client
}

var _ image.Generator = (*ImageGenerator)(nil)

func NewImageGenerator(client *Client) *ImageGenerator {
	return &ImageGenerator{client: client}
}

// Generate submits the shaped payload and blocks through the poll cycle.
func (g *ImageGenerator) Generate(ctx context.Context, req image.GenerateRequest) (*image.Result, error) {
	model := req.Model
	if editCapable[model] && len(req.Images) > 0 {
		model = strings.TrimSuffix(model, "/text-to-image") + "/edit"
	}

	payload := shapeImagePayload(req)
	q, err := g.client.Submit(ctx, req.APIKey, model, payload)
	if err != nil {
		return nil, err
	}

	status, err := providers.Poll(ctx, imagePollInterval, imagePollMaxAttempts, func(ctx context.Context) (providers.Status, error) {
		return g.checkImage(ctx, req.APIKey, q)
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
		return nil, fmt.Errorf("%w: completed without an image url", domain.ErrProviderFailure)
	}
	return &image.Result{URL: status.URL}, nil
}

// shapeImagePayload builds the model-specific request body. Seedream models
// accept the aspect token directly in image_size; everything else takes
// aspect_ratio plus the pixel-dimension string for the resolution tier. An
// "auto" aspect is never sent.
func shapeImagePayload(req image.GenerateRequest) map[string]any {
	payload := map[string]any{
		"prompt": req.Prompt,
	}
	if req.OutputFormat != "" {
		payload["output_format"] = req.OutputFormat
	}
	if strings.Contains(req.Model, "bytedance/seedream") {
		if req.AspectRatio != "" && req.AspectRatio != "auto" {
			payload["image_size"] = req.AspectRatio
		}
	} else {
		if req.AspectRatio != "" && req.AspectRatio != "auto" {
			payload["aspect_ratio"] = req.AspectRatio
		}
		if req.Resolution != "" {
			size, ok := resolutionSizes[req.Resolution]
			if !ok {
				size = req.Resolution
			}
			payload["image_size"] = size
		}
	}
	if len(req.Images) > 0 {
		payload["image_urls"] = req.Images
	}
	return payload
}

func (g *ImageGenerator) checkImage(ctx context.Context, apiKey string, q *queued) (providers.Status, error) {
	status, err := g.client.CheckStatus(ctx, apiKey, q.StatusURL)
	if err != nil {
		return providers.Status{}, err
	}
	switch status.Status {
	case "COMPLETED":
		if url := imageURLFromPayload(status.Response); url != "" {
			return providers.Status{State: providers.StateCompleted, URL: url}, nil
		}
		result, err := g.client.FetchResult(ctx, apiKey, q.ResponseURL)
		if err != nil {
			return providers.Status{}, err
		}
		return providers.Status{State: providers.StateCompleted, URL: imageURLFromPayload(result)}, nil
	case "FAILED":
		return providers.Status{State: providers.StateFailed, Reason: status.Error}, nil
	default:
		return providers.Status{State: providers.StatePending}, nil
	}
}

// imageURLFromPayload probes the two shapes fal image models return: an
// images array or a single image object.
func imageURLFromPayload(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var out struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
		Image struct {
			URL string `json:"url"`
		} `json:"image"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return ""
	}
	if len(out.Images) > 0 && out.Images[0].URL != "" {
		return out.Images[0].URL
	}
	return out.Image.URL
}
