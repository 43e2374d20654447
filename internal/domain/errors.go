package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrInsufficientCredits    = errors.New("insufficient credits")
	ErrNoCredential           = errors.New("no available api key")
	ErrSubmissionFailed       = errors.New("provider rejected submission")
	ErrPollTimeout            = errors.New("generation timed out")
	ErrProviderFailure        = errors.New("provider failure")
	ErrReconciliationConflict = errors.New("credit reconciliation conflict")
	ErrNotImplemented         = errors.New("not implemented")
	ErrVoucherLocked          = errors.New("voucher redemption locked")
	ErrVoucherInvalid         = errors.New("voucher invalid or already redeemed")
)
