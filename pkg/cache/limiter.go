package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// Limiter is a fixed-window request counter stored in Redis.
// A nil Limiter, or any Redis failure, allows the request.
type Limiter struct {
	client  redis.Scripter
	script  *redis.Script
	timeout time.Duration
}

// NewLimiter returns nil when no client is configured.
func NewLimiter(client redis.Scripter) *Limiter {
	if client == nil {
		return nil
	}
	return &Limiter{
		client:  client,
		script:  redis.NewScript(fixedWindowScript),
		timeout: 250 * time.Millisecond,
	}
}

// Allow increments the counter for key and reports whether it is still within limit.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if l == nil || l.client == nil {
		return true
	}
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	allowed, err := l.script.Run(ctx, l.client, []string{key}, ttl, limit).Int64()
	if err != nil {
		return true
	}
	return allowed == 1
}
