package ratelimit

import "context"

// RateLimiter bounds dispatch fan-out per scope (one scope per priority).
type RateLimiter interface {
	Allow(ctx context.Context, scope string) (bool, error)
	Wait(ctx context.Context, scope string) error
}
