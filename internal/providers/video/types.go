package video

import "context"

// GenerateRequest describes a normalized video request. Images are reference
// frames: zero means text-to-video, one image-to-video, two first/last frame.
type GenerateRequest struct {
	Prompt          string
	NegativePrompt  string
	AspectRatio     string
	Resolution      string
	DurationSeconds int
	AudioEnabled    bool
	Images          []string
	Model           string
	APIKey          string
}

// Submission identifies an accepted provider job.
type Submission struct {
	RequestID string
}

// Resume carries what a worker needs to pick up polling for a submitted job.
// The reference frame count is persisted with the job because providers route
// by it and the worker never sees the original frames.
type Resume struct {
	RequestID       string
	ReferenceImages int
}

// Result is the terminal outcome of a successful generation.
type Result struct {
	URL string
}

// Provider submits video jobs and awaits their completion. Submit returns
// quickly with a poll handle; Await drives the polling loop to a terminal
// state and may be called from a different process than Submit.
type Provider interface {
	Submit(ctx context.Context, req GenerateRequest) (*Submission, error)
	Await(ctx context.Context, apiKey string, resume Resume) (*Result, error)
}
