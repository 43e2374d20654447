package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"genstudio/internal/domain"
)

func TestPollStopsOnTerminalState(t *testing.T) {
	calls := 0
	status, err := Poll(context.Background(), time.Millisecond, 10, func(ctx context.Context) (Status, error) {
		calls++
		if calls < 3 {
			return Status{State: StatePending}, nil
		}
		return Status{State: StateCompleted, URL: "https://done"}, nil
	})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if status.URL != "https://done" {
		t.Fatalf("url = %q", status.URL)
	}
}

func TestPollExhaustsAttemptBudget(t *testing.T) {
	calls := 0
	_, err := Poll(context.Background(), time.Millisecond, 5, func(ctx context.Context) (Status, error) {
		calls++
		return Status{State: StatePending}, nil
	})
	if !errors.Is(err, domain.ErrPollTimeout) {
		t.Fatalf("err = %v, want poll timeout", err)
	}
	if calls != 5 {
		t.Fatalf("calls = %d, want 5", calls)
	}
}

func TestPollRetriesTransientErrors(t *testing.T) {
	calls := 0
	status, err := Poll(context.Background(), time.Millisecond, 10, func(ctx context.Context) (Status, error) {
		calls++
		if calls == 1 {
			return Status{}, errors.New("connection reset")
		}
		return Status{State: StateFailed, Reason: "bad prompt"}, nil
	})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if status.State != StateFailed || status.Reason != "bad prompt" {
		t.Fatalf("status = %+v", status)
	}
}

func TestPollHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Poll(ctx, time.Millisecond, 5, func(ctx context.Context) (Status, error) {
		return Status{State: StatePending}, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
