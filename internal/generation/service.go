package generation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"genstudio/internal/domain"
	"genstudio/internal/metrics"
	"genstudio/internal/providers/image"
	"genstudio/internal/providers/video"
)

// failure messages stored on history rows. The client renders these verbatim.
const (
	msgInsufficientCredits = "Insufficient credits"
	msgNoCredential        = "No available API key"
)

// Options wires the orchestrator's collaborators.
type Options struct {
	Credits     CreditStore
	Credentials CredentialStore
	Jobs        JobStore
	Reconciler  Reconciler
	Images      map[domain.Server]image.Generator
	Videos      map[domain.Server]video.Provider
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// Service orchestrates a generation end to end: pricing, the credit gate,
// credential selection, the provider cycle and settlement.
type Service struct {
	credits     CreditStore
	credentials CredentialStore
	jobs        JobStore
	reconciler  Reconciler
	images      map[domain.Server]image.Generator
	videos      map[domain.Server]video.Provider
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

func NewService(opts Options) (*Service, error) {
	if opts.Credits == nil || opts.Credentials == nil || opts.Jobs == nil || opts.Reconciler == nil {
		return nil, errors.New("generation: missing store dependency")
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.Global()
	}
	return &Service{
		credits:     opts.Credits,
		credentials: opts.Credentials,
		jobs:        opts.Jobs,
		reconciler:  opts.Reconciler,
		images:      opts.Images,
		videos:      opts.Videos,
		logger:      opts.Logger,
		metrics:     m,
	}, nil
}

// ImageRequest is a client image job. DeclaredCost is optional; when set it
// must match the catalog price, which stays authoritative either way.
type ImageRequest struct {
	ModelID       string
	Prompt        string
	AspectRatio   string
	Resolution    string
	OutputFormat  string
	Images        []string
	ExistingJobID string
	DeclaredCost  float64
}

// VideoRequest is a client video job submission.
type VideoRequest struct {
	ModelID         string
	Prompt          string
	NegativePrompt  string
	AspectRatio     string
	Resolution      string
	DurationSeconds int
	AudioEnabled    bool
	Images          []string
	ExistingJobID   string
	DeclaredCost    float64
}

// Outcome reports a finished or accepted job back to the handler layer.
type Outcome struct {
	JobID       string
	OutputURL   string
	CreditsUsed float64
}

// GenerateImage runs the synchronous image pipeline: the caller blocks until
// the provider resolves or the attempt budget runs out.
func (s *Service) GenerateImage(ctx context.Context, userID string, req ImageRequest) (*Outcome, error) {
	model, ok := domain.ImageModelByID(req.ModelID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %q", domain.ErrInvalidRequest, req.ModelID)
	}
	applyImageDefaults(&req, model)
	if err := validateImageRequest(req, model); err != nil {
		return nil, err
	}
	cost := domain.ImagePriceFor(model, req.Resolution)
	if req.DeclaredCost != 0 && math.Abs(req.DeclaredCost-cost) > 1e-9 {
		return nil, fmt.Errorf("%w: cost mismatch", domain.ErrInvalidRequest)
	}

	jobID, done, err := s.ensureImageJob(ctx, userID, req, model, cost)
	if err != nil {
		return nil, err
	}
	if done != nil {
		return done, nil
	}
	s.metrics.GenerationsStarted.WithLabelValues(string(domain.KindImage), string(model.Server)).Inc()

	key, err := s.passGates(ctx, userID, domain.KindImage, jobID, model.Server, cost)
	if err != nil {
		return nil, err
	}

	generator, ok := s.images[model.Server]
	if !ok {
		return nil, fmt.Errorf("%w: image generation is not available on %s", domain.ErrNotImplemented, model.Server)
	}
	result, err := generator.Generate(ctx, image.GenerateRequest{
		Prompt:       req.Prompt,
		AspectRatio:  req.AspectRatio,
		Resolution:   req.Resolution,
		OutputFormat: req.OutputFormat,
		Images:       req.Images,
		Model:        model.Name,
		APIKey:       key.Secret,
	})
	if err != nil {
		s.failJob(ctx, domain.KindImage, model.Server, jobID, err)
		return nil, err
	}

	settlement := Settlement{
		Kind:        domain.KindImage,
		JobID:       jobID,
		UserID:      userID,
		APIKeyID:    key.ID,
		Cost:        cost,
		OutputURL:   result.URL,
		TxType:      domain.TxImageGeneration,
		Description: "Image generation: " + model.DisplayName,
	}
	if err := s.settle(ctx, settlement, model.Server); err != nil {
		return nil, err
	}
	return &Outcome{JobID: jobID, OutputURL: result.URL, CreditsUsed: cost}, nil
}

// SubmitVideo queues a video job with the provider and returns immediately.
// A worker process picks the job up and drives it to a terminal state.
func (s *Service) SubmitVideo(ctx context.Context, userID string, req VideoRequest) (*Outcome, error) {
	model, ok := domain.VideoModelByID(req.ModelID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %q", domain.ErrInvalidRequest, req.ModelID)
	}
	applyVideoDefaults(&req, model)
	if err := validateVideoRequest(req, model); err != nil {
		return nil, err
	}
	cost := domain.VideoPriceFor(model, req.DurationSeconds, req.AudioEnabled)
	if req.DeclaredCost != 0 && math.Abs(req.DeclaredCost-cost) > 1e-9 {
		return nil, fmt.Errorf("%w: cost mismatch", domain.ErrInvalidRequest)
	}

	provider, ok := s.videos[model.Server]
	if !ok {
		return nil, fmt.Errorf("%w: video generation is not available on %s", domain.ErrNotImplemented, model.Server)
	}

	jobID, done, err := s.ensureVideoJob(ctx, userID, req, model, cost)
	if err != nil {
		return nil, err
	}
	if done != nil {
		return done, nil
	}
	s.metrics.GenerationsStarted.WithLabelValues(string(domain.KindVideo), string(model.Server)).Inc()

	key, err := s.passGates(ctx, userID, domain.KindVideo, jobID, model.Server, cost)
	if err != nil {
		return nil, err
	}

	sub, err := provider.Submit(ctx, video.GenerateRequest{
		Prompt:          req.Prompt,
		NegativePrompt:  req.NegativePrompt,
		AspectRatio:     req.AspectRatio,
		Resolution:      req.Resolution,
		DurationSeconds: req.DurationSeconds,
		AudioEnabled:    req.AudioEnabled,
		Images:          req.Images,
		Model:           model.Name,
		APIKey:          key.Secret,
	})
	if err != nil {
		s.failJob(ctx, domain.KindVideo, model.Server, jobID, err)
		return nil, err
	}
	if err := s.jobs.MarkVideoSubmitted(ctx, jobID, sub.RequestID); err != nil {
		return nil, fmt.Errorf("generation: mark submitted: %w", err)
	}
	return &Outcome{JobID: jobID, CreditsUsed: cost}, nil
}

// RunVideoJob drives one claimed job from the worker: poll the provider,
// then settle or fail the row. Transient errors leave the row pending so a
// later claim can retry.
func (s *Service) RunVideoJob(ctx context.Context, job ClaimedVideoJob) error {
	provider, ok := s.videos[job.Server]
	if !ok {
		reason := fmt.Sprintf("video generation is not available on %s", job.Server)
		s.failJob(ctx, domain.KindVideo, job.Server, job.ID, errors.New(reason))
		return fmt.Errorf("%w: %s", domain.ErrNotImplemented, reason)
	}
	secret, err := s.credentials.Secret(ctx, job.APIKeyID)
	if err != nil {
		return fmt.Errorf("generation: load credential: %w", err)
	}
	result, err := provider.Await(ctx, secret, video.Resume{
		RequestID:       job.ProviderReqID,
		ReferenceImages: job.ReferenceImages,
	})
	if err != nil {
		if isTerminalProviderError(err) {
			s.failJob(ctx, domain.KindVideo, job.Server, job.ID, err)
		}
		return err
	}
	settlement := Settlement{
		Kind:        domain.KindVideo,
		JobID:       job.ID,
		UserID:      job.UserID,
		APIKeyID:    job.APIKeyID,
		Cost:        job.CreditsUsed,
		OutputURL:   result.URL,
		TxType:      domain.TxVideoGeneration,
		Description: "Video generation: " + job.ModelName,
	}
	return s.settle(ctx, settlement, job.Server)
}

// ensureImageJob creates the pending history row, or revives an existing one
// when the client retries with a job id. A job already resolved returns its
// recorded outcome instead of running again.
func (s *Service) ensureImageJob(ctx context.Context, userID string, req ImageRequest, model domain.ImageModel, cost float64) (string, *Outcome, error) {
	if req.ExistingJobID != "" {
		existing, err := s.jobs.ImageByID(ctx, req.ExistingJobID, userID)
		if err != nil {
			return "", nil, err
		}
		return resumeJob(existing)
	}
	gen := &domain.Generation{
		UserID:       userID,
		Kind:         domain.KindImage,
		Prompt:       req.Prompt,
		AspectRatio:  req.AspectRatio,
		Resolution:   req.Resolution,
		OutputFormat: req.OutputFormat,
		ModelID:      model.ID,
		ModelName:    model.Name,
		Server:       model.Server,
		CreditsUsed:  cost,
	}
	jobID, err := s.jobs.CreateImage(ctx, gen)
	if err != nil {
		return "", nil, fmt.Errorf("generation: create job: %w", err)
	}
	return jobID, nil, nil
}

func (s *Service) ensureVideoJob(ctx context.Context, userID string, req VideoRequest, model domain.VideoModel, cost float64) (string, *Outcome, error) {
	if req.ExistingJobID != "" {
		existing, err := s.jobs.VideoByID(ctx, req.ExistingJobID, userID)
		if err != nil {
			return "", nil, err
		}
		return resumeJob(existing)
	}
	gen := &domain.Generation{
		UserID:          userID,
		Kind:            domain.KindVideo,
		Prompt:          req.Prompt,
		NegativePrompt:  req.NegativePrompt,
		AspectRatio:     req.AspectRatio,
		Resolution:      req.Resolution,
		DurationSeconds: req.DurationSeconds,
		AudioEnabled:    req.AudioEnabled,
		ReferenceImages: len(req.Images),
		ModelID:         model.ID,
		ModelName:       model.Name,
		Server:          model.Server,
		CreditsUsed:     cost,
	}
	jobID, err := s.jobs.CreateVideo(ctx, gen)
	if err != nil {
		return "", nil, fmt.Errorf("generation: create job: %w", err)
	}
	return jobID, nil, nil
}

func resumeJob(existing *domain.Generation) (string, *Outcome, error) {
	switch existing.Status {
	case domain.StatusCompleted:
		return "", &Outcome{JobID: existing.ID, OutputURL: existing.OutputURL, CreditsUsed: existing.CreditsUsed}, nil
	case domain.StatusFailed:
		return "", nil, fmt.Errorf("%w: %s", domain.ErrProviderFailure, existing.ErrorMessage)
	default:
		return existing.ID, nil, nil
	}
}

// passGates enforces the balance and credential gates, resolving the pending
// row to failed when one trips.
func (s *Service) passGates(ctx context.Context, userID string, kind domain.GenerationKind, jobID string, server domain.Server, cost float64) (*domain.APIKey, error) {
	if err := s.credits.EnsureAccount(ctx, userID); err != nil {
		return nil, fmt.Errorf("generation: ensure account: %w", err)
	}
	balance, err := s.credits.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("generation: read balance: %w", err)
	}
	if balance < cost {
		if failErr := s.jobs.Fail(ctx, kind, jobID, msgInsufficientCredits); failErr != nil {
			s.logger.Error().Err(failErr).Str("job_id", jobID).Msg("generation: resolve failed row")
		}
		s.metrics.GenerationsFailed.WithLabelValues(string(kind), string(server)).Inc()
		return nil, domain.ErrInsufficientCredits
	}

	key, err := s.credentials.SelectBest(ctx, server.Provider(), cost)
	if err != nil {
		if errors.Is(err, domain.ErrNoCredential) {
			if failErr := s.jobs.Fail(ctx, kind, jobID, msgNoCredential); failErr != nil {
				s.logger.Error().Err(failErr).Str("job_id", jobID).Msg("generation: resolve failed row")
			}
			s.metrics.GenerationsFailed.WithLabelValues(string(kind), string(server)).Inc()
		}
		return nil, err
	}
	if err := s.jobs.AttachKey(ctx, kind, jobID, key.ID); err != nil {
		return nil, fmt.Errorf("generation: attach key: %w", err)
	}
	return key, nil
}

func (s *Service) settle(ctx context.Context, settlement Settlement, server domain.Server) error {
	if err := s.reconciler.Settle(ctx, settlement); err != nil {
		s.logger.Error().Err(err).
			Str("job_id", settlement.JobID).
			Str("user_id", settlement.UserID).
			Msg("generation: settlement failed")
		if errors.Is(err, domain.ErrReconciliationConflict) {
			s.metrics.ReconcileConflicts.Inc()
			if failErr := s.jobs.Fail(ctx, settlement.Kind, settlement.JobID, "Credit reconciliation failed"); failErr != nil {
				s.logger.Error().Err(failErr).Str("job_id", settlement.JobID).Msg("generation: resolve failed row")
			}
		}
		return err
	}
	s.metrics.GenerationsCompleted.WithLabelValues(string(settlement.Kind), string(server)).Inc()
	s.metrics.CreditsSpent.Add(settlement.Cost)
	s.logger.Info().
		Str("job_id", settlement.JobID).
		Str("user_id", settlement.UserID).
		Float64("credits", settlement.Cost).
		Msg("generation: completed")
	return nil
}

func (s *Service) failJob(ctx context.Context, kind domain.GenerationKind, server domain.Server, jobID string, cause error) {
	reason := failureMessage(cause)
	if err := s.jobs.Fail(ctx, kind, jobID, reason); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("generation: resolve failed row")
	}
	s.metrics.GenerationsFailed.WithLabelValues(string(kind), string(server)).Inc()
}

// failureMessage trims transport wrapping down to what a user should see.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrPollTimeout):
		return "Generation timed out"
	case err == nil:
		return "Generation failed"
	default:
		msg := err.Error()
		if idx := strings.LastIndex(msg, ": "); idx >= 0 && errors.Is(err, domain.ErrProviderFailure) {
			return msg[idx+2:]
		}
		return msg
	}
}

func isTerminalProviderError(err error) bool {
	return errors.Is(err, domain.ErrProviderFailure) ||
		errors.Is(err, domain.ErrPollTimeout) ||
		errors.Is(err, domain.ErrNotImplemented)
}

func applyImageDefaults(req *ImageRequest, model domain.ImageModel) {
	if req.AspectRatio == "" {
		req.AspectRatio = model.DefaultAspect
	}
	if req.Resolution == "" {
		req.Resolution = model.DefaultRes
	}
	if req.OutputFormat == "" {
		req.OutputFormat = model.DefaultFormat
	}
}

func applyVideoDefaults(req *VideoRequest, model domain.VideoModel) {
	if req.AspectRatio == "" {
		req.AspectRatio = model.DefaultAspect
	}
	if req.Resolution == "" {
		req.Resolution = model.DefaultRes
	}
	if req.DurationSeconds == 0 {
		req.DurationSeconds = model.DefaultDuration
	}
}

func validateImageRequest(req ImageRequest, model domain.ImageModel) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", domain.ErrInvalidRequest)
	}
	if len(req.Images) > 0 && !model.SupportsImages {
		return fmt.Errorf("%w: model %s does not accept reference images", domain.ErrInvalidRequest, model.ID)
	}
	if model.MaxImages > 0 && len(req.Images) > model.MaxImages {
		return fmt.Errorf("%w: at most %d reference images", domain.ErrInvalidRequest, model.MaxImages)
	}
	if len(model.AspectRatios) > 0 && !containsString(model.AspectRatios, req.AspectRatio) {
		return fmt.Errorf("%w: unsupported aspect ratio %q", domain.ErrInvalidRequest, req.AspectRatio)
	}
	if len(model.Resolutions) > 0 && req.Resolution != "" && !containsString(model.Resolutions, req.Resolution) {
		return fmt.Errorf("%w: unsupported resolution %q", domain.ErrInvalidRequest, req.Resolution)
	}
	if len(model.OutputFormats) > 0 && req.OutputFormat != "" && !containsString(model.OutputFormats, req.OutputFormat) {
		return fmt.Errorf("%w: unsupported output format %q", domain.ErrInvalidRequest, req.OutputFormat)
	}
	return nil
}

func validateVideoRequest(req VideoRequest, model domain.VideoModel) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", domain.ErrInvalidRequest)
	}
	if len(model.Durations) > 0 && !containsInt(model.Durations, req.DurationSeconds) {
		return fmt.Errorf("%w: unsupported duration %d", domain.ErrInvalidRequest, req.DurationSeconds)
	}
	if req.AudioEnabled && !model.SupportsAudio {
		return fmt.Errorf("%w: model %s does not support audio", domain.ErrInvalidRequest, model.ID)
	}
	switch {
	case len(req.Images) == 1 && !model.SupportsImageInput:
		return fmt.Errorf("%w: model %s does not support image to video", domain.ErrInvalidRequest, model.ID)
	case len(req.Images) == 2 && !model.SupportsFirstLast:
		return fmt.Errorf("%w: model %s does not support first and last frames", domain.ErrInvalidRequest, model.ID)
	case len(req.Images) > 2 || (model.MaxImages > 0 && len(req.Images) > model.MaxImages):
		return fmt.Errorf("%w: too many reference images", domain.ErrInvalidRequest)
	}
	if len(model.AspectRatios) > 0 && !containsString(model.AspectRatios, req.AspectRatio) {
		return fmt.Errorf("%w: unsupported aspect ratio %q", domain.ErrInvalidRequest, req.AspectRatio)
	}
	if len(model.Resolutions) > 0 && req.Resolution != "" && !containsString(model.Resolutions, req.Resolution) {
		return fmt.Errorf("%w: unsupported resolution %q", domain.ErrInvalidRequest, req.Resolution)
	}
	return nil
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func containsInt(values []int, want int) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
