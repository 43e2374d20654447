package repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"genstudio/internal/domain"
	"genstudio/internal/generation"
	"genstudio/internal/infra"
	"genstudio/internal/sqlinline"
)

// GenerationRepo persists image and video history rows across their pending,
// completed and failed states.
type GenerationRepo struct {
	runner *infra.SQLRunner
	pool   *pgxpool.Pool
}

var (
	_ generation.JobStore      = (*GenerationRepo)(nil)
	_ generation.VideoJobQueue = (*GenerationRepo)(nil)
)

func NewGenerationRepo(runner *infra.SQLRunner) *GenerationRepo {
	return &GenerationRepo{runner: runner, pool: runner.Pool}
}

func (r *GenerationRepo) CreateImage(ctx context.Context, gen *domain.Generation) (string, error) {
	var id string
	err := r.runner.QueryRow(ctx, sqlinline.QInsertImageGeneration,
		gen.UserID, gen.Prompt, gen.AspectRatio, gen.Resolution, gen.OutputFormat,
		gen.ModelID, gen.ModelName, string(gen.Server), gen.CreditsUsed,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("repo: insert image generation: %w", err)
	}
	return id, nil
}

func (r *GenerationRepo) CreateVideo(ctx context.Context, gen *domain.Generation) (string, error) {
	var id string
	err := r.runner.QueryRow(ctx, sqlinline.QInsertVideoGeneration,
		gen.UserID, gen.Prompt, gen.NegativePrompt, gen.AspectRatio, gen.Resolution,
		gen.DurationSeconds, gen.AudioEnabled, gen.ReferenceImages,
		gen.ModelID, gen.ModelName, string(gen.Server), gen.CreditsUsed,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("repo: insert video generation: %w", err)
	}
	return id, nil
}

func (r *GenerationRepo) AttachKey(ctx context.Context, kind domain.GenerationKind, jobID, apiKeyID string) error {
	query := sqlinline.QAttachImageAPIKey
	if kind == domain.KindVideo {
		query = sqlinline.QAttachVideoAPIKey
	}
	if _, err := r.runner.Exec(ctx, query, jobID, apiKeyID); err != nil {
		return fmt.Errorf("repo: attach api key: %w", err)
	}
	return nil
}

func (r *GenerationRepo) MarkVideoSubmitted(ctx context.Context, jobID, providerRequestID string) error {
	tag, err := r.runner.Exec(ctx, sqlinline.QMarkVideoSubmitted, jobID, providerRequestID)
	if err != nil {
		return fmt.Errorf("repo: mark video submitted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GenerationRepo) Fail(ctx context.Context, kind domain.GenerationKind, jobID, reason string) error {
	query := sqlinline.QResolveImageGeneration
	if kind == domain.KindVideo {
		query = sqlinline.QResolveVideoGeneration
	}
	if _, err := r.runner.Exec(ctx, query, jobID, string(domain.StatusFailed), "", reason); err != nil {
		return fmt.Errorf("repo: resolve generation: %w", err)
	}
	return nil
}

func (r *GenerationRepo) ImageByID(ctx context.Context, jobID, userID string) (*domain.Generation, error) {
	var gen domain.Generation
	gen.Kind = domain.KindImage
	err := r.runner.QueryRow(ctx, sqlinline.QSelectImageGeneration, jobID, userID).Scan(
		&gen.ID, &gen.UserID, &gen.APIKeyID, &gen.Prompt, &gen.AspectRatio, &gen.Resolution,
		&gen.OutputFormat, &gen.ModelID, &gen.ModelName, &gen.Server, &gen.Status,
		&gen.OutputURL, &gen.ErrorMessage, &gen.CreditsUsed, &gen.CreatedAt, &gen.UpdatedAt,
	)
	if infra.IsNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("repo: select image generation: %w", err)
	}
	return &gen, nil
}

func (r *GenerationRepo) VideoByID(ctx context.Context, jobID, userID string) (*domain.Generation, error) {
	var gen domain.Generation
	gen.Kind = domain.KindVideo
	err := r.runner.QueryRow(ctx, sqlinline.QSelectVideoGeneration, jobID, userID).Scan(
		&gen.ID, &gen.UserID, &gen.APIKeyID, &gen.Prompt, &gen.NegativePrompt, &gen.AspectRatio,
		&gen.Resolution, &gen.DurationSeconds, &gen.AudioEnabled, &gen.ReferenceImages,
		&gen.ModelID, &gen.ModelName, &gen.Server, &gen.Status, &gen.ProviderReqID,
		&gen.OutputURL, &gen.ErrorMessage, &gen.CreditsUsed, &gen.CreatedAt, &gen.UpdatedAt,
	)
	if infra.IsNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("repo: select video generation: %w", err)
	}
	return &gen, nil
}

// HistoryFilter narrows history listings. Zero values mean no filter.
type HistoryFilter struct {
	Status  string
	ModelID string
	Limit   uint64
	Offset  uint64
}

func (r *GenerationRepo) ListImages(ctx context.Context, userID string, filter HistoryFilter) ([]domain.Generation, error) {
	q := sq.Select("id", "user_id", "coalesce(api_key_id::text, '')", "prompt", "aspect_ratio",
		"resolution", "output_format", "model_id", "model_name", "server", "status",
		"output_url", "error_message", "credits_used", "created_at", "updated_at").
		From("image_generations").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at desc").
		PlaceholderFormat(sq.Dollar)
	q = applyHistoryFilter(q, filter)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("repo: build image history query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repo: list image generations: %w", err)
	}
	defer rows.Close()

	var items []domain.Generation
	for rows.Next() {
		var gen domain.Generation
		gen.Kind = domain.KindImage
		if err := rows.Scan(&gen.ID, &gen.UserID, &gen.APIKeyID, &gen.Prompt, &gen.AspectRatio,
			&gen.Resolution, &gen.OutputFormat, &gen.ModelID, &gen.ModelName, &gen.Server,
			&gen.Status, &gen.OutputURL, &gen.ErrorMessage, &gen.CreditsUsed,
			&gen.CreatedAt, &gen.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repo: scan image generation: %w", err)
		}
		items = append(items, gen)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: list image generations: %w", err)
	}
	return items, nil
}

func (r *GenerationRepo) ListVideos(ctx context.Context, userID string, filter HistoryFilter) ([]domain.Generation, error) {
	q := sq.Select("id", "user_id", "coalesce(api_key_id::text, '')", "prompt", "negative_prompt",
		"aspect_ratio", "resolution", "duration_seconds", "audio_enabled", "reference_image_count",
		"model_id", "model_name", "server", "status", "provider_request_id", "output_url",
		"error_message", "credits_used", "created_at", "updated_at").
		From("video_generations").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at desc").
		PlaceholderFormat(sq.Dollar)
	q = applyHistoryFilter(q, filter)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("repo: build video history query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repo: list video generations: %w", err)
	}
	defer rows.Close()

	var items []domain.Generation
	for rows.Next() {
		var gen domain.Generation
		gen.Kind = domain.KindVideo
		if err := rows.Scan(&gen.ID, &gen.UserID, &gen.APIKeyID, &gen.Prompt, &gen.NegativePrompt,
			&gen.AspectRatio, &gen.Resolution, &gen.DurationSeconds, &gen.AudioEnabled,
			&gen.ReferenceImages, &gen.ModelID, &gen.ModelName, &gen.Server, &gen.Status,
			&gen.ProviderReqID, &gen.OutputURL, &gen.ErrorMessage, &gen.CreditsUsed,
			&gen.CreatedAt, &gen.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repo: scan video generation: %w", err)
		}
		items = append(items, gen)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: list video generations: %w", err)
	}
	return items, nil
}

func applyHistoryFilter(q sq.SelectBuilder, filter HistoryFilter) sq.SelectBuilder {
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": filter.Status})
	}
	if filter.ModelID != "" {
		q = q.Where(sq.Eq{"model_id": filter.ModelID})
	}
	limit := filter.Limit
	if limit == 0 || limit > 100 {
		limit = 50
	}
	return q.Limit(limit).Offset(filter.Offset)
}

// ClaimVideoJob leases the oldest claimable submitted job for one worker.
func (r *GenerationRepo) ClaimVideoJob(ctx context.Context) (*generation.ClaimedVideoJob, error) {
	var job generation.ClaimedVideoJob
	err := r.runner.QueryRow(ctx, sqlinline.QClaimVideoJob).Scan(
		&job.ID, &job.UserID, &job.APIKeyID, &job.Prompt, &job.ModelID,
		&job.ModelName, &job.Server, &job.ProviderReqID, &job.ReferenceImages,
		&job.CreditsUsed,
	)
	if infra.IsNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("repo: claim video job: %w", err)
	}
	return &job, nil
}

// SweepStaleVideoJobs fails pending rows older than maxAge, a Postgres
// interval literal such as "15 minutes".
func (r *GenerationRepo) SweepStaleVideoJobs(ctx context.Context, maxAge string) (int64, error) {
	tag, err := r.runner.Exec(ctx, sqlinline.QSweepStaleVideoJobs, maxAge)
	if err != nil {
		return 0, fmt.Errorf("repo: sweep stale video jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}
