package domain

import "time"

// TransactionType tags credit_transactions rows.
const (
	TxImageGeneration   = "image_generation"
	TxVideoGeneration   = "video_generation"
	TxVoucherRedemption = "voucher_redemption"
	TxAdminAdjustment   = "admin_adjustment"
)

// CreditTransaction is an immutable audit row. Amounts are negative for
// debits and positive for top-ups.
type CreditTransaction struct {
	ID          string
	UserID      string
	APIKeyID    string
	Amount      float64
	Type        string
	Description string
	CreatedAt   time.Time
}
