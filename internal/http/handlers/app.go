package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"genstudio/internal/adapter/repo"
	"genstudio/internal/domain"
	"genstudio/internal/generation"
	"genstudio/internal/infra"
	"genstudio/internal/middleware"
)

// GenerationService is the orchestrator surface handlers call.
type GenerationService interface {
	GenerateImage(ctx context.Context, userID string, req generation.ImageRequest) (*generation.Outcome, error)
	SubmitVideo(ctx context.Context, userID string, req generation.VideoRequest) (*generation.Outcome, error)
}

// CreditsStore serves balance and ledger reads.
type CreditsStore interface {
	EnsureAccount(ctx context.Context, userID string) error
	Balance(ctx context.Context, userID string) (float64, error)
	ListTransactions(ctx context.Context, userID string, filter repo.TransactionFilter) ([]domain.CreditTransaction, error)
}

// HistoryStore serves generation history reads.
type HistoryStore interface {
	ImageByID(ctx context.Context, jobID, userID string) (*domain.Generation, error)
	VideoByID(ctx context.Context, jobID, userID string) (*domain.Generation, error)
	ListImages(ctx context.Context, userID string, filter repo.HistoryFilter) ([]domain.Generation, error)
	ListVideos(ctx context.Context, userID string, filter repo.HistoryFilter) ([]domain.Generation, error)
}

// KeyAdmin is the admin credential CRUD surface.
type KeyAdmin interface {
	List(ctx context.Context) ([]domain.APIKey, error)
	Create(ctx context.Context, key *domain.APIKey) (string, error)
	Update(ctx context.Context, key *domain.APIKey) error
	Delete(ctx context.Context, id string) error
}

// VoucherRedeemer exchanges voucher codes for credits.
type VoucherRedeemer interface {
	Redeem(ctx context.Context, userID, code string) (float64, error)
}

// App carries the handler dependencies.
type App struct {
	Config    *infra.Config
	Logger    zerolog.Logger
	Generator GenerationService
	Credits   CreditsStore
	History   HistoryStore
	Keys      KeyAdmin
	Vouchers  VoucherRedeemer
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}

// domainError maps sentinel errors onto HTTP responses. Unknown errors log
// and collapse to a generic 500 so provider internals never leak.
func (a *App) domainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, domain.ErrInsufficientCredits):
		a.error(w, http.StatusPaymentRequired, "insufficient_credits", "Insufficient credits")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrVoucherLocked):
		a.error(w, http.StatusTooManyRequests, "voucher_locked", "too many failed attempts, try again later")
	case errors.Is(err, domain.ErrVoucherInvalid):
		a.error(w, http.StatusBadRequest, "voucher_invalid", "voucher invalid or already redeemed")
	case errors.Is(err, domain.ErrNotImplemented):
		a.error(w, http.StatusNotImplemented, "not_implemented", err.Error())
	case errors.Is(err, domain.ErrNoCredential):
		a.error(w, http.StatusServiceUnavailable, "no_api_key", "No available API key")
	case errors.Is(err, domain.ErrProviderFailure), errors.Is(err, domain.ErrSubmissionFailed):
		a.error(w, http.StatusInternalServerError, "provider_error", err.Error())
	case errors.Is(err, domain.ErrPollTimeout):
		a.error(w, http.StatusInternalServerError, "timeout", "Generation timed out")
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("handlers: unhandled error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
