package vouchers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"genstudio/internal/domain"
)

type stubRedeemer struct {
	credits float64
	err     error
	calls   int
}

func (s *stubRedeemer) Redeem(ctx context.Context, code, userID string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.credits, nil
}

func newTestLockout(t *testing.T, attempts int) (*Lockout, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewLockout(rdb, attempts, 15*time.Minute), mr
}

func TestRedeemSuccessResetsLockout(t *testing.T) {
	lockout, _ := newTestLockout(t, 3)
	repo := &stubRedeemer{credits: 25}
	svc := NewService(repo, lockout, zerolog.Nop())

	if err := lockout.RecordFailure(context.Background(), "user-1"); err != nil {
		t.Fatalf("record failure: %v", err)
	}

	credits, err := svc.Redeem(context.Background(), "user-1", "WELCOME25")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if credits != 25 {
		t.Fatalf("credits = %v, want 25", credits)
	}
	locked, err := lockout.Locked(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("locked: %v", err)
	}
	if locked {
		t.Fatalf("success should clear the failure counter")
	}
}

func TestRedeemLocksAfterRepeatedFailures(t *testing.T) {
	lockout, _ := newTestLockout(t, 3)
	repo := &stubRedeemer{err: domain.ErrVoucherInvalid}
	svc := NewService(repo, lockout, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if _, err := svc.Redeem(context.Background(), "user-1", "WRONG"); !errors.Is(err, domain.ErrVoucherInvalid) {
			t.Fatalf("attempt %d: err = %v, want voucher invalid", i+1, err)
		}
	}

	_, err := svc.Redeem(context.Background(), "user-1", "WRONG")
	if !errors.Is(err, domain.ErrVoucherLocked) {
		t.Fatalf("err = %v, want locked", err)
	}
	if repo.calls != 3 {
		t.Fatalf("repo calls = %d, the locked attempt must not reach the store", repo.calls)
	}
}

func TestRedeemLockExpiresWithWindow(t *testing.T) {
	lockout, mr := newTestLockout(t, 1)
	repo := &stubRedeemer{err: domain.ErrVoucherInvalid}
	svc := NewService(repo, lockout, zerolog.Nop())

	if _, err := svc.Redeem(context.Background(), "user-1", "WRONG"); !errors.Is(err, domain.ErrVoucherInvalid) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.Redeem(context.Background(), "user-1", "WRONG"); !errors.Is(err, domain.ErrVoucherLocked) {
		t.Fatalf("err = %v, want locked", err)
	}

	mr.FastForward(16 * time.Minute)

	if _, err := svc.Redeem(context.Background(), "user-1", "WRONG"); !errors.Is(err, domain.ErrVoucherInvalid) {
		t.Fatalf("after window err = %v, want voucher invalid again", err)
	}
}

func TestRedeemRejectsEmptyCode(t *testing.T) {
	lockout, _ := newTestLockout(t, 3)
	repo := &stubRedeemer{credits: 10}
	svc := NewService(repo, lockout, zerolog.Nop())

	if _, err := svc.Redeem(context.Background(), "user-1", "   "); !errors.Is(err, domain.ErrVoucherInvalid) {
		t.Fatalf("err = %v, want voucher invalid", err)
	}
	if repo.calls != 0 {
		t.Fatalf("empty code must not reach the store")
	}
}
