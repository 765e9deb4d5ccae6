package redisx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by KV.Get when the key does not exist.
var ErrMiss = errors.New("redisx: cache miss")

// KV is the small cache surface the handlers and the feed consumer need;
// tests stub it with a map.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

func New(addr string) *redis.Client {
	r := redis.NewClient(&redis.Options{Addr: addr})
	_ = r.WithTimeout(2 * time.Second)
	return r
}

// Cache adapts a redis client to KV.
type Cache struct{ R *redis.Client }

func (c Cache) Get(ctx context.Context, key string) (string, error) {
	s, err := c.R.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return s, err
}

func (c Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.R.Set(ctx, key, value, ttl).Err()
}

func (c Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.R.Exists(ctx, key).Result()
	return n > 0, err
}
