package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when the counter store is down.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

var errNoLimiterStore = errors.New("rate limiter has no redis client")

// window is one fixed-window counter read back from Redis.
type window struct {
	hits  int64
	reset time.Duration
}

func (w window) allows(limit int) bool { return w.hits <= int64(limit) }

// limitsEnforced is false outside production-like environments.
func limitsEnforced() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return false
	}
	return true
}

func limiterKey(resource, id string) string {
	return "rl:" + resource + ":" + id
}

// count bumps the counter for key and starts its window on the first hit.
func count(ctx context.Context, rdb *redis.Client, key string, span time.Duration) (window, error) {
	if rdb == nil {
		return window{}, errNoLimiterStore
	}
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	if _, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		ttl = p.TTL(ctx, key)
		return nil
	}); err != nil {
		return window{}, fmt.Errorf("count %s: %w", key, err)
	}

	w := window{hits: incr.Val(), reset: ttl.Val()}
	if w.reset < 0 {
		if err := rdb.Expire(ctx, key, span).Err(); err != nil {
			return window{}, fmt.Errorf("expire %s: %w", key, err)
		}
		w.reset = span
	}
	return w, nil
}

// CheckRateLimit reports whether id may use resource once more within span.
// Limits are not enforced when APP_ENV is unset, "test", "development" or "stress".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, span time.Duration) (bool, error) {
	if !limitsEnforced() {
		return true, nil
	}
	w, err := count(ctx, rdb, limiterKey(resource, id), span)
	if err != nil {
		return false, err
	}
	return w.allows(limit), nil
}

// RateLimit allows limit requests per span for each caller, keyed by user when
// authenticated and by IP otherwise. It fails open.
func RateLimit(rdb *redis.Client, limit int, span time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, span, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit store-failure policy.
// Rejections carry Retry-After in whole seconds.
func RateLimitWithPolicy(rdb *redis.Client, limit int, span time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !limitsEnforced() {
			return c.Next()
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}
		caller := "ip:" + c.IP()
		if uid := c.Locals("userID"); uid != nil {
			caller = fmt.Sprintf("user:%v", uid)
		}

		w, err := count(c.UserContext(), rdb, limiterKey(resource, caller), span)
		switch {
		case err != nil && policy == FailClosed:
			Logger.WarnContext(c.UserContext(), "rate limiter store unavailable",
				slog.String("resource", resource), slog.String("error", err.Error()))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "rate limit unavailable"})
		case err != nil:
			return c.Next()
		case !w.allows(limit):
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(w.reset.Seconds()))))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}
