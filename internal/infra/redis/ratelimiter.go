package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"urgency-engine/internal/ratelimit"
)

const (
	defaultDispatchPerSec int64 = 100
	backoffStep                 = 10 * time.Millisecond
	backoffMax                  = 50 * time.Millisecond
	windowSeconds               = 1
)

var allowScript = goredis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

var _ ratelimit.RateLimiter = (*DispatchRateLimiter)(nil)

// DispatchRateLimiter is a per-second dispatch throttle backed by Redis.
// Scopes are independent; the engine uses one scope per priority so urgent
// pages are never starved by a burst of low-priority reminders.
type DispatchRateLimiter struct {
	client    *goredis.Client
	perSecond int64
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	script    *goredis.Script
}

func NewDispatchRateLimiter(client *goredis.Client, perSecond int) (*DispatchRateLimiter, error) {
	return newDispatchRateLimiter(client, int64(perSecond), time.Now, sleepWithContext)
}

func newDispatchRateLimiter(
	client *goredis.Client,
	perSecond int64,
	nowFn func() time.Time,
	sleepFn func(ctx context.Context, d time.Duration) error,
) (*DispatchRateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if perSecond <= 0 {
		perSecond = defaultDispatchPerSec
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	return &DispatchRateLimiter{
		client:    client,
		perSecond: perSecond,
		now:       nowFn,
		sleep:     sleepFn,
		script:    allowScript,
	}, nil
}

func (r *DispatchRateLimiter) Allow(ctx context.Context, scope string) (bool, error) {
	if r == nil || r.client == nil || r.script == nil {
		return false, fmt.Errorf("rate limiter is not initialized")
	}

	normalized := strings.ToLower(strings.TrimSpace(scope))
	if normalized == "" {
		return false, fmt.Errorf("scope is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key := fmt.Sprintf("dispatchrate:%s:%d", normalized, r.now().UTC().Unix())
	result, err := r.script.Run(ctx, r.client, []string{key}, r.perSecond, windowSeconds).Int()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate dispatch rate limit: %w", err)
	}

	return result == 1, nil
}

func (r *DispatchRateLimiter) Wait(ctx context.Context, scope string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	backoff := backoffStep
	for {
		allowed, err := r.Allow(ctx, scope)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		if err := r.sleep(ctx, backoff); err != nil {
			return err
		}

		backoff += backoffStep
		if backoff > backoffMax {
			backoff = backoffMax
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
