package image

import "context"

// GenerateRequest describes a normalized request passed to any image provider.
// Images are data URLs or public URLs, already validated against the model's
// capability by the orchestrator.
type GenerateRequest struct {
	Prompt       string
	AspectRatio  string
	Resolution   string
	OutputFormat string
	Images       []string
	Model        string
	APIKey       string
}

// Result is the terminal outcome of a successful generation.
type Result struct {
	URL string
}

// Generator is the contract implemented by all image providers. Generate
// blocks through the provider's submit/poll cycle and returns a ready-to-use
// media URL.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Result, error)
}
