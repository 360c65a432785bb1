package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	URL           string        `env:"CACHE_REDIS_URL"`
	Namespace     string        `env:"CACHE_REDIS_NAMESPACE" envDefault:"mvc"`
	DefaultTTL    time.Duration `env:"CACHE_REDIS_TTL" envDefault:"1h"`
	PoolSize      int           `env:"CACHE_REDIS_POOL_SIZE" envDefault:"10"`
	RetryAttempts int           `env:"CACHE_REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"CACHE_REDIS_RETRY_INTERVAL" envDefault:"2s"`
}

// OpenRedis connects to the server at cfg.URL, retrying with a linear
// backoff until the server answers PING or ctx ends.
func OpenRedis(ctx context.Context, cfg RedisConfig) (redis.UniversalClient, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(cfg.URL, "redis://") && !strings.HasPrefix(cfg.URL, "rediss://") {
		return nil, ErrFailedToParseURL
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	var lastErr error
	for i := range max(cfg.RetryAttempts, 1) {
		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnectionFailed, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}
	return nil, errors.Join(ErrConnectionFailed, lastErr)
}

// Redis is a cache stored in Redis under "<namespace>:<key>".
type Redis[V any] struct {
	client     redis.UniversalClient
	codec      Codec[V]
	namespace  string
	defaultTTL time.Duration
}

// NewRedis wraps client. A nil codec selects JSON.
func NewRedis[V any](client redis.UniversalClient, codec Codec[V], cfg RedisConfig) *Redis[V] {
	if codec == nil {
		codec = JSON[V]{}
	}
	return &Redis[V]{
		client:     client,
		codec:      codec,
		namespace:  cfg.Namespace,
		defaultTTL: cfg.DefaultTTL,
	}
}

func (r *Redis[V]) key(k string) string {
	if r.namespace == "" {
		return k
	}
	return r.namespace + ":" + k
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	return r.codec.Decode(data)
}

func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.codec.Encode(value)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = r.defaultTTL
	}
	// go-redis treats zero as "keep forever".
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Clear removes every key of the namespace with SCAN + DEL. Without a
// namespace the whole database is flushed.
func (r *Redis[V]) Clear(ctx context.Context) error {
	if r.namespace == "" {
		return r.client.FlushDB(ctx).Err()
	}

	iter := r.client.Scan(ctx, 0, r.namespace+":*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Close leaves the client open; its owner closes it.
func (r *Redis[V]) Close() error { return nil }

// Healthcheck pings the server.
func (r *Redis[V]) Healthcheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

var _ Cache[any] = (*Redis[any])(nil)
