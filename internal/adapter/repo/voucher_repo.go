package repo

import (
	"context"
	"fmt"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
	"genstudio/internal/sqlinline"
)

// VoucherRepo redeems and mints credit vouchers.
type VoucherRepo struct {
	runner *infra.SQLRunner
}

func NewVoucherRepo(runner *infra.SQLRunner) *VoucherRepo {
	return &VoucherRepo{runner: runner}
}

// Redeem marks the voucher redeemed, credits the user and writes the ledger
// row in one transaction. An unknown or spent code is domain.ErrVoucherInvalid.
func (r *VoucherRepo) Redeem(ctx context.Context, code, userID string) (float64, error) {
	var credits float64
	err := r.runner.InTx(ctx, func(tx infra.SQLExecutor) error {
		var voucherID string
		err := tx.QueryRow(ctx, sqlinline.QRedeemVoucher, code, userID).Scan(&voucherID, &credits)
		if infra.IsNoRows(err) {
			return domain.ErrVoucherInvalid
		}
		if err != nil {
			return fmt.Errorf("repo: redeem voucher: %w", err)
		}
		if _, err := tx.Exec(ctx, sqlinline.QCreditUserBalance, userID, credits); err != nil {
			return fmt.Errorf("repo: credit balance: %w", err)
		}
		var txID string
		err = tx.QueryRow(ctx, sqlinline.QInsertTransaction,
			userID, "", credits, domain.TxVoucherRedemption, "Voucher redemption").Scan(&txID)
		if err != nil {
			return fmt.Errorf("repo: record transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return credits, nil
}

func (r *VoucherRepo) Create(ctx context.Context, code string, credits float64, createdBy string) (string, error) {
	var id string
	err := r.runner.QueryRow(ctx, sqlinline.QInsertVoucher, code, credits, createdBy).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("repo: insert voucher: %w", err)
	}
	return id, nil
}
