package vouchers

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var incrWithTTLScript = redis.NewScript(`
local c = redis.call("INCR", KEYS[1])
if c == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return c
`)

// Lockout counts failed redemption attempts per user in Redis and blocks
// further attempts once the budget for the window is spent. Voucher codes
// are guessable, so unlimited tries would let a user enumerate them.
type Lockout struct {
	redis    *redis.Client
	attempts int64
	window   time.Duration
}

func NewLockout(rdb *redis.Client, attempts int, window time.Duration) *Lockout {
	return &Lockout{redis: rdb, attempts: int64(attempts), window: window}
}

func (l *Lockout) key(userID string) string {
	return "genstudio:voucherlock:" + userID
}

// Locked reports whether the user has exhausted the attempt budget.
func (l *Lockout) Locked(ctx context.Context, userID string) (bool, error) {
	count, err := l.redis.Get(ctx, l.key(userID)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("vouchers: read lockout counter: %w", err)
	}
	return count >= l.attempts, nil
}

// RecordFailure bumps the counter, starting the window on the first failure.
func (l *Lockout) RecordFailure(ctx context.Context, userID string) error {
	ttl := int64(l.window.Seconds())
	if ttl < 1 {
		ttl = 1
	}
	if _, err := incrWithTTLScript.Run(ctx, l.redis, []string{l.key(userID)}, ttl).Int64(); err != nil {
		return fmt.Errorf("vouchers: lockout script: %w", err)
	}
	return nil
}

// Reset clears the counter after a successful redemption.
func (l *Lockout) Reset(ctx context.Context, userID string) error {
	if err := l.redis.Del(ctx, l.key(userID)).Err(); err != nil {
		return fmt.Errorf("vouchers: reset lockout counter: %w", err)
	}
	return nil
}
