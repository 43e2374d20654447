package vouchers

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"genstudio/internal/domain"
	"genstudio/internal/metrics"
)

// Redeemer is the persistence side of a redemption.
type Redeemer interface {
	Redeem(ctx context.Context, code, userID string) (float64, error)
}

// Service wraps redemption with the brute-force lockout.
type Service struct {
	repo    Redeemer
	lockout *Lockout
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewService(repo Redeemer, lockout *Lockout, logger zerolog.Logger) *Service {
	return &Service{repo: repo, lockout: lockout, logger: logger, metrics: metrics.Global()}
}

// Redeem exchanges a voucher code for credits. Invalid codes consume an
// attempt; too many failed attempts lock the user out for the window.
func (s *Service) Redeem(ctx context.Context, userID, code string) (float64, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, domain.ErrVoucherInvalid
	}

	locked, err := s.lockout.Locked(ctx, userID)
	if err != nil {
		return 0, err
	}
	if locked {
		return 0, domain.ErrVoucherLocked
	}

	credits, err := s.repo.Redeem(ctx, code, userID)
	if err != nil {
		if errors.Is(err, domain.ErrVoucherInvalid) {
			if recErr := s.lockout.RecordFailure(ctx, userID); recErr != nil {
				s.logger.Error().Err(recErr).Str("user_id", userID).Msg("vouchers: record failed attempt")
			}
		}
		return 0, err
	}

	if err := s.lockout.Reset(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("vouchers: reset lockout")
	}
	s.metrics.VouchersRedeemed.Inc()
	s.logger.Info().Str("user_id", userID).Float64("credits", credits).Msg("vouchers: redeemed")
	return credits, nil
}
