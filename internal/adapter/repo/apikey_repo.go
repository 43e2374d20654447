package repo

import (
	"context"
	"fmt"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
	"genstudio/internal/sqlinline"
)

// APIKeyRepo manages provider credentials. Selection is greedy on remaining
// credits so near-exhausted keys drain last.
type APIKeyRepo struct {
	db infra.SQLExecutor
}

func NewAPIKeyRepo(db infra.SQLExecutor) *APIKeyRepo {
	return &APIKeyRepo{db: db}
}

// SelectBest returns the active key for the provider with the most credits
// remaining, requiring credits strictly above cost.
func (r *APIKeyRepo) SelectBest(ctx context.Context, provider string, cost float64) (*domain.APIKey, error) {
	var key domain.APIKey
	err := r.db.QueryRow(ctx, sqlinline.QSelectBestAPIKey, provider, cost).Scan(
		&key.ID, &key.Name, &key.Provider, &key.Secret, &key.Credits,
		&key.IsActive, &key.CreatedAt, &key.UpdatedAt,
	)
	if infra.IsNoRows(err) {
		return nil, domain.ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("repo: select api key: %w", err)
	}
	return &key, nil
}

func (r *APIKeyRepo) Secret(ctx context.Context, id string) (string, error) {
	var secret string
	err := r.db.QueryRow(ctx, sqlinline.QSelectAPIKeySecret, id).Scan(&secret)
	if infra.IsNoRows(err) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("repo: select api key secret: %w", err)
	}
	return secret, nil
}

func (r *APIKeyRepo) Create(ctx context.Context, key *domain.APIKey) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, sqlinline.QInsertAPIKey,
		key.Name, key.Provider, key.Secret, key.Credits, key.IsActive,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("repo: insert api key: %w", err)
	}
	return id, nil
}

func (r *APIKeyRepo) Update(ctx context.Context, key *domain.APIKey) error {
	tag, err := r.db.Exec(ctx, sqlinline.QUpdateAPIKey, key.ID, key.Name, key.Credits, key.IsActive)
	if err != nil {
		return fmt.Errorf("repo: update api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *APIKeyRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, sqlinline.QDeleteAPIKey, id)
	if err != nil {
		return fmt.Errorf("repo: delete api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *APIKeyRepo) List(ctx context.Context) ([]domain.APIKey, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListAPIKeys)
	if err != nil {
		return nil, fmt.Errorf("repo: list api keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		var key domain.APIKey
		if err := rows.Scan(&key.ID, &key.Name, &key.Provider, &key.Secret, &key.Credits,
			&key.IsActive, &key.CreatedAt, &key.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repo: scan api key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: list api keys: %w", err)
	}
	return keys, nil
}
