package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"livaulislam/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Entries are hashes {v: version, d: json}. A write only lands when its
// version is not older than the stored one, so a slow reader cannot put back
// a row that a writer has already replaced.
var storeVersionedScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'v')
if cur and tonumber(cur) > tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'd', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

var retireScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'v')
if cur and tonumber(cur) > tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[1])
redis.call('HDEL', KEYS[1], 'd')
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// StoreVersioned writes value at key unless a newer version is cached.
// It reports whether the write was applied.
func StoreVersioned(ctx context.Context, key string, version int64, value interface{}, ttl time.Duration) (bool, error) {
	if client == nil {
		return false, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	res, err := storeVersionedScript.Run(ctx, client, []string{key},
		strconv.FormatInt(version, 10), string(raw), ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// Retire drops the cached value and records version as the floor for later writes.
func Retire(ctx context.Context, key string, version int64, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	return retireScript.Run(ctx, client, []string{key}, strconv.FormatInt(version, 10), ttl.Milliseconds()).Err()
}

// LoadVersioned decodes the cached value into dest. A retired or missing entry is a miss.
func LoadVersioned(ctx context.Context, key string, dest interface{}) (bool, error) {
	if client == nil {
		return false, nil
	}
	raw, err := client.HGet(ctx, key, "d").Bytes()
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
