package domain

import "time"

// VoucherStatus enumerates voucher lifecycle states.
type VoucherStatus string

const (
	VoucherActive   VoucherStatus = "active"
	VoucherRedeemed VoucherStatus = "redeemed"
)

// Voucher is a single-use credit top-up code.
type Voucher struct {
	ID         string
	Code       string
	Credits    float64
	Status     VoucherStatus
	CreatedBy  string
	RedeemedBy string
	RedeemedAt *time.Time
	CreatedAt  time.Time
}
