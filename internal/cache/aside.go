package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"livaulislam/internal/observability"

	"github.com/redis/go-redis/v9"
)

func keyspace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// GetJSON decodes the value at key into dest. It reports false on a miss or
// when no client is configured.
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if client == nil {
		return false, nil
	}
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.CacheLookups.WithLabelValues(keyspace(key), "miss").Inc()
		return false, nil
	}
	if err != nil {
		observability.CacheLookups.WithLabelValues(keyspace(key), "error").Inc()
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	observability.CacheLookups.WithLabelValues(keyspace(key), "hit").Inc()
	return true, nil
}

// SetJSON stores value at key as JSON with the given TTL.
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}

// Aside fills dest from the cache, or runs load and stores dest on a miss.
// Cache errors fall through to load; load errors are returned unchanged.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func() error) error {
	if hit, err := GetJSON(ctx, key, dest); err == nil && hit {
		return nil
	}
	if err := load(); err != nil {
		return err
	}
	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}
