package providers

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"genstudio/internal/domain"
)

// State is the result of one status check against a provider queue.
type State int

const (
	StatePending State = iota
	StateCompleted
	StateFailed
)

// Status carries a single poll observation. URL is set when the completion
// payload already contains a usable result locator; Reason carries the
// provider's failure message verbatim when it reports one.
type Status struct {
	State  State
	URL    string
	Reason string
}

var errStillPending = errors.New("still pending")

// Poll drives a constant-interval status loop until the check reports a
// terminal state or maxAttempts checks have happened. Transient check errors
// consume attempts just like pending responses; there is no backoff and no
// jitter. Exhausting the budget yields domain.ErrPollTimeout.
func Poll(ctx context.Context, interval time.Duration, maxAttempts uint64, check func(ctx context.Context) (Status, error)) (Status, error) {
	var last Status
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewConstant(interval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		status, err := check(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		if status.State == StatePending {
			return retry.RetryableError(errStillPending)
		}
		last = status
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return Status{}, ctx.Err()
		}
		return Status{}, domain.ErrPollTimeout
	}
	return last, nil
}
