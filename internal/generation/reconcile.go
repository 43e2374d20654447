package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
	"genstudio/internal/sqlinline"
)

const (
	settleRetries  = 2
	settleInterval = 50 * time.Millisecond
)

// PGReconciler settles completed jobs against Postgres. All four writes run
// in one transaction; the conditional WHERE clauses on the debits are the
// concurrency guard, so a zero-row update aborts the whole settlement.
type PGReconciler struct {
	runner *infra.SQLRunner
}

var _ Reconciler = (*PGReconciler)(nil)

func NewPGReconciler(runner *infra.SQLRunner) *PGReconciler {
	return &PGReconciler{runner: runner}
}

// Settle retries conflicts a bounded number of times. A conflict usually
// means another settlement raced this one on the same account or key; when
// retries run out the caller gets domain.ErrReconciliationConflict.
func (r *PGReconciler) Settle(ctx context.Context, s Settlement) error {
	backoff := retry.WithMaxRetries(settleRetries, retry.NewConstant(settleInterval))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.settleOnce(ctx, s)
		if err != nil && isConflict(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (r *PGReconciler) settleOnce(ctx context.Context, s Settlement) error {
	return r.runner.InTx(ctx, func(tx infra.SQLExecutor) error {
		tag, err := tx.Exec(ctx, sqlinline.QDebitUserBalance, s.UserID, s.Cost)
		if err != nil {
			return fmt.Errorf("reconcile: debit user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: user balance changed underneath", domain.ErrReconciliationConflict)
		}

		tag, err = tx.Exec(ctx, sqlinline.QDebitAPIKey, s.APIKeyID, s.Cost)
		if err != nil {
			return fmt.Errorf("reconcile: debit api key: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: api key credits changed underneath", domain.ErrReconciliationConflict)
		}

		var txID string
		err = tx.QueryRow(ctx, sqlinline.QInsertTransaction,
			s.UserID, s.APIKeyID, -s.Cost, s.TxType, s.Description).Scan(&txID)
		if err != nil {
			return fmt.Errorf("reconcile: record transaction: %w", err)
		}

		resolve := sqlinline.QResolveImageGeneration
		if s.Kind == domain.KindVideo {
			resolve = sqlinline.QResolveVideoGeneration
		}
		tag, err = tx.Exec(ctx, resolve, s.JobID, string(domain.StatusCompleted), s.OutputURL, "")
		if err != nil {
			return fmt.Errorf("reconcile: complete job: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: job is no longer pending", domain.ErrReconciliationConflict)
		}
		return nil
	})
}

func isConflict(err error) bool {
	return errors.Is(err, domain.ErrReconciliationConflict)
}
