// Package ratelimit throttles failed logins per client address and username.
// Counters live in Redis so they survive restarts and are shared by every
// instance. A Limiter without a Redis client allows everything.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// failScript counts one failure in a fixed window that starts at the first failure.
var failScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// Limiter blocks a (client, username) pair after MaxAttempts failures within Window.
type Limiter struct {
	rdb         *redis.Client
	MaxAttempts int
	Window      time.Duration
	Prefix      string
}

// New returns a limiter. rdb may be nil, which disables throttling.
func New(rdb *redis.Client, maxAttempts int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, MaxAttempts: maxAttempts, Window: window, Prefix: "inventur:login"}
}

// Enabled reports whether failures are being counted.
func (l *Limiter) Enabled() bool {
	return l != nil && l.rdb != nil && l.MaxAttempts > 0
}

func (l *Limiter) key(client, username string) string {
	return l.Prefix + ":" + client + ":" + strings.ToLower(username)
}

// Blocked reports whether the pair has used up its attempts and how long until
// the window ends. Redis errors are logged and treated as not blocked.
func (l *Limiter) Blocked(ctx context.Context, client, username string) (bool, time.Duration) {
	if !l.Enabled() {
		return false, 0
	}
	key := l.key(client, username)

	n, err := l.rdb.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return false, 0
	}
	if err != nil {
		slog.Warn("login throttle unavailable", "error", err)
		return false, 0
	}
	if n < l.MaxAttempts {
		return false, 0
	}

	ttl, err := l.rdb.PTTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.Window
	}
	return true, ttl
}

// Fail records a failed attempt and returns the failure count in the current window.
func (l *Limiter) Fail(ctx context.Context, client, username string) int {
	if !l.Enabled() {
		return 0
	}
	res, err := failScript.Run(ctx, l.rdb, []string{l.key(client, username)}, l.Window.Milliseconds()).Int64Slice()
	if err != nil || len(res) == 0 {
		slog.Warn("login throttle unavailable", "error", err)
		return 0
	}
	return int(res[0])
}

// Reset forgets the failures of a pair after a successful login.
func (l *Limiter) Reset(ctx context.Context, client, username string) {
	if !l.Enabled() {
		return
	}
	if err := l.rdb.Del(ctx, l.key(client, username)).Err(); err != nil {
		slog.Warn("login throttle reset failed", "error", err)
	}
}
