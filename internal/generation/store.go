package generation

import (
	"context"

	"genstudio/internal/domain"
)

// CreditStore reads and prepares user credit accounts. Debits never happen
// here; they are part of settlement.
type CreditStore interface {
	EnsureAccount(ctx context.Context, userID string) error
	Balance(ctx context.Context, userID string) (float64, error)
}

// CredentialStore selects and reads provider API keys.
type CredentialStore interface {
	// SelectBest returns the active key with the highest remaining credits
	// strictly above cost, or domain.ErrNoCredential.
	SelectBest(ctx context.Context, provider string, cost float64) (*domain.APIKey, error)
	Secret(ctx context.Context, id string) (string, error)
}

// JobStore persists generation history rows through their lifecycle.
type JobStore interface {
	CreateImage(ctx context.Context, gen *domain.Generation) (string, error)
	CreateVideo(ctx context.Context, gen *domain.Generation) (string, error)
	AttachKey(ctx context.Context, kind domain.GenerationKind, jobID, apiKeyID string) error
	MarkVideoSubmitted(ctx context.Context, jobID, providerRequestID string) error
	Fail(ctx context.Context, kind domain.GenerationKind, jobID, reason string) error
	ImageByID(ctx context.Context, jobID, userID string) (*domain.Generation, error)
	VideoByID(ctx context.Context, jobID, userID string) (*domain.Generation, error)
}

// Settlement describes everything the success path must persist atomically.
type Settlement struct {
	Kind        domain.GenerationKind
	JobID       string
	UserID      string
	APIKeyID    string
	Cost        float64
	OutputURL   string
	TxType      string
	Description string
}

// Reconciler applies a settlement: debit the user, debit the key, record the
// transaction and complete the history row, all or nothing.
type Reconciler interface {
	Settle(ctx context.Context, s Settlement) error
}

// ClaimedVideoJob is a pending video row leased by a worker for polling.
type ClaimedVideoJob struct {
	ID              string
	UserID          string
	APIKeyID        string
	Prompt          string
	ModelID         string
	ModelName       string
	Server          domain.Server
	ProviderReqID   string
	ReferenceImages int
	CreditsUsed     float64
}

// VideoJobQueue hands out submitted video jobs to worker processes.
type VideoJobQueue interface {
	// ClaimVideoJob leases the oldest claimable pending job, or returns
	// domain.ErrNotFound when the queue is empty.
	ClaimVideoJob(ctx context.Context) (*ClaimedVideoJob, error)
	// SweepStaleVideoJobs fails pending jobs older than maxAge and returns
	// how many rows were touched.
	SweepStaleVideoJobs(ctx context.Context, maxAge string) (int64, error)
}
