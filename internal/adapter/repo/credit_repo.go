package repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
	"genstudio/internal/sqlinline"
)

// CreditRepo manages user balances and the transaction ledger. Debits for
// generations do not live here; those belong to settlement.
type CreditRepo struct {
	runner *infra.SQLRunner
	pool   *pgxpool.Pool
}

func NewCreditRepo(runner *infra.SQLRunner) *CreditRepo {
	return &CreditRepo{runner: runner, pool: runner.Pool}
}

func (r *CreditRepo) EnsureAccount(ctx context.Context, userID string) error {
	if _, err := r.runner.Exec(ctx, sqlinline.QEnsureUserCredits, userID); err != nil {
		return fmt.Errorf("repo: ensure credits account: %w", err)
	}
	return nil
}

func (r *CreditRepo) Balance(ctx context.Context, userID string) (float64, error) {
	var balance float64
	err := r.runner.QueryRow(ctx, sqlinline.QSelectBalance, userID).Scan(&balance)
	if infra.IsNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("repo: select balance: %w", err)
	}
	return balance, nil
}

// Grant adds credits to a user and records the matching ledger row in one
// transaction. Used for voucher redemptions and admin adjustments.
func (r *CreditRepo) Grant(ctx context.Context, userID string, amount float64, txType, description string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: grant amount must be positive", domain.ErrInvalidRequest)
	}
	return r.runner.InTx(ctx, func(tx infra.SQLExecutor) error {
		if _, err := tx.Exec(ctx, sqlinline.QCreditUserBalance, userID, amount); err != nil {
			return fmt.Errorf("repo: credit balance: %w", err)
		}
		var txID string
		err := tx.QueryRow(ctx, sqlinline.QInsertTransaction, userID, "", amount, txType, description).Scan(&txID)
		if err != nil {
			return fmt.Errorf("repo: record transaction: %w", err)
		}
		return nil
	})
}

// TransactionFilter narrows ListTransactions. Zero values mean no filter.
type TransactionFilter struct {
	Type   string
	Limit  uint64
	Offset uint64
}

func (r *CreditRepo) ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]domain.CreditTransaction, error) {
	q := sq.Select("id", "user_id", "coalesce(api_key_id::text, '')", "amount", "transaction_type", "coalesce(description, '')", "created_at").
		From("credit_transactions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at desc").
		PlaceholderFormat(sq.Dollar)
	if filter.Type != "" {
		q = q.Where(sq.Eq{"transaction_type": filter.Type})
	}
	limit := filter.Limit
	if limit == 0 || limit > 100 {
		limit = 50
	}
	q = q.Limit(limit).Offset(filter.Offset)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("repo: build transactions query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repo: list transactions: %w", err)
	}
	defer rows.Close()

	var items []domain.CreditTransaction
	for rows.Next() {
		var t domain.CreditTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.APIKeyID, &t.Amount, &t.Type, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("repo: scan transaction: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: list transactions: %w", err)
	}
	return items, nil
}
