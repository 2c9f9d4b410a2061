package redis

import (
	"context"
	"strconv"
	"time"
)

// Scope keeps message and button budgets of one user apart.
type Scope string

const (
	ScopeMessage  Scope = "msg"
	ScopeCallback Scope = "cb"
)

// RateLimiter counts hits per user and action in fixed windows.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow records a hit and reports whether the user is still within limit for
// the current window. action becomes part of the key, so callers pass a value
// from a closed set.
func (r *RateLimiter) Allow(ctx context.Context, userID int64, scope Scope, action string, limit int, window time.Duration) (bool, error) {
	key := rateKey(userID, scope, action)
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			// a counter without expiry would never reset
			_ = r.client.Del(ctx, key)
			return false, err
		}
	}
	return count <= int64(limit), nil
}

func rateKey(userID int64, scope Scope, action string) string {
	return "ratelimit:" + string(scope) + ":" + strconv.FormatInt(userID, 10) + ":" + action
}
