package domain

import "time"

// GenerationKind separates the two media pipelines.
type GenerationKind string

const (
	KindImage GenerationKind = "image"
	KindVideo GenerationKind = "video"
)

// Server names the upstream backend a model runs on. The values are part of
// the public API contract and of the api_keys.provider column.
type Server string

const (
	Server1 Server = "server1" // fal queue API
	Server2 Server = "server2" // GMI Cloud queue API
)

// Provider translates a server identifier into the provider name stored on
// api_keys rows.
func (s Server) Provider() string {
	switch s {
	case Server1:
		return "fal_ai"
	case Server2:
		return "gmicloud"
	default:
		return ""
	}
}

// Valid reports whether the server is one of the closed set.
func (s Server) Valid() bool {
	return s == Server1 || s == Server2
}

// GenerationStatus enumerates history row lifecycle states.
type GenerationStatus string

const (
	StatusPending   GenerationStatus = "pending"
	StatusCompleted GenerationStatus = "completed"
	StatusFailed    GenerationStatus = "failed"
)

// Generation is the persisted, user-visible projection of one job. A row is
// created in pending state before the provider is called and resolved to a
// terminal state exactly once.
type Generation struct {
	ID              string
	UserID          string
	Kind            GenerationKind
	APIKeyID        string
	Prompt          string
	NegativePrompt  string
	AspectRatio     string
	Resolution      string
	DurationSeconds int
	AudioEnabled    bool
	OutputFormat    string
	ModelID         string
	ModelName       string
	Server          Server
	Status          GenerationStatus
	OutputURL       string
	ErrorMessage    string
	CreditsUsed     float64
	ReferenceImages int
	ProviderReqID   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
