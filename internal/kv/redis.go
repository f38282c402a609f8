package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtroode/eventhub-server/internal/model"
)

// redisAPI is the subset of *redis.Client used by Redis.
type redisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ model.KeyValueStore = (*Redis)(nil)

// Redis is a KeyValueStore backed by Redis. Keys never expire unless their
// name was given a TTL with WithKeyTTL; every write renews that TTL.
type Redis struct {
	api    redisAPI
	prefix string
	ttls   map[string]time.Duration
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithKeyTTL expires keys named name after ttl. The name is matched against
// the last ":"-separated segment of the key, so it applies under any Scope.
func WithKeyTTL(name string, ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttls[name] = ttl
	}
}

// NewRedis creates a store over client.
func NewRedis(client *redis.Client, prefix string, opts ...RedisOption) *Redis {
	return newRedisWithAPI(client, prefix, opts...)
}

func newRedisWithAPI(api redisAPI, prefix string, opts ...RedisOption) *Redis {
	r := &Redis{api: api, prefix: prefix, ttls: make(map[string]time.Duration)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) ttlFor(key string) time.Duration {
	name := key
	if i := strings.LastIndex(key, ":"); i >= 0 {
		name = key[i+1:]
	}
	return r.ttls[name]
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.api.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get key: %w", err)
	}
	return raw, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.api.Set(ctx, r.prefix+key, value, r.ttlFor(key)).Err(); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.api.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// Connect initializes a Redis client from a redis:// URL or host:port.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
