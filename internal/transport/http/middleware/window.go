package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// WindowCounter increments the hit count for key within a fixed window and
// returns the new count and the time left until the window resets.
type WindowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// incrExpireScript bumps the counter and starts the window on the first hit.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// RedisCounter is a WindowCounter shared by every instance talking to the same Redis.
type RedisCounter struct {
	rdb redis.Scripter
}

func NewRedisCounter(rdb redis.Scripter) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	res, err := incrExpireScript.Run(ctx, c.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, redis.Nil
	}
	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}

// WindowLimiter enforces max requests per client IP per window.
type WindowLimiter struct {
	counter  WindowCounter
	max      int
	window   time.Duration
	prefix   string
	onReject func()
}

func NewWindowLimiter(counter WindowCounter, max int, window time.Duration, onReject func()) *WindowLimiter {
	return &WindowLimiter{counter: counter, max: max, window: window, prefix: "rl:auth:ip:", onReject: onReject}
}

// Limit fails open when the counter backend is unavailable.
func (wl *WindowLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		count, ttl, err := wl.counter.Incr(r.Context(), wl.prefix+clientIP(r), wl.window)
		if err != nil {
			slog.Warn("rate limit backend unavailable", "err", err)
			next.ServeHTTP(w, r)
			return
		}

		resetSec := 0
		if ttl > 0 {
			resetSec = int((ttl + time.Second - 1) / time.Second)
		}
		remaining := wl.max - int(count)
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(wl.max))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if int(count) > wl.max {
			if resetSec > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(resetSec))
			}
			if wl.onReject != nil {
				wl.onReject()
			}
			writeJSONError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
