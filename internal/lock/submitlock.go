package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmitLock marks a session's checkout as in flight across gateway replicas.
// The in-process flag in the checkout service covers a single instance; this
// covers deployments behind a load balancer. A nil client degrades to the
// in-process flag only.
type SubmitLock struct {
	R   *redis.Client
	TTL time.Duration
}

func (l SubmitLock) key(sessionID string) string {
	return "checkout:inflight:" + sessionID
}

func (l SubmitLock) ttl() time.Duration {
	if l.TTL <= 0 {
		return 30 * time.Second
	}
	return l.TTL
}

// TryAcquire attempts to take the session's submit slot without blocking. It
// reports false when another submission already holds it.
func (l SubmitLock) TryAcquire(ctx context.Context, sessionID string) (bool, error) {
	if l.R == nil || sessionID == "" {
		return true, nil
	}
	return l.R.SetNX(ctx, l.key(sessionID), "1", l.ttl()).Result()
}

// Release frees the session's submit slot. Errors are ignored; the TTL bounds
// how long a leaked slot can block the session.
func (l SubmitLock) Release(ctx context.Context, sessionID string) {
	if l.R == nil || sessionID == "" {
		return
	}
	_ = l.R.Del(ctx, l.key(sessionID)).Err()
}
