package userstate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// =========== Redis Repository ===========

type redisRepo struct {
	client *redis.Client
	ttl    time.Duration
	owned  bool
}

// NewRedisRepo stores each blob as a plain string value. A zero ttl keeps
// keys forever. The client stays open when the repository is closed.
func NewRedisRepo(client *redis.Client, ttl time.Duration) Repository {
	return &redisRepo{client: client, ttl: ttl}
}

// OpenRedisRepo dials the server named by a redis:// URL.
func OpenRedisRepo(ctx context.Context, url string) (Repository, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &redisRepo{client: client, owned: true}, nil
}

func (r *redisRepo) Load(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return b, nil
}

func (r *redisRepo) Save(ctx context.Context, key string, blob []byte) error {
	if err := r.client.Set(ctx, key, blob, r.ttl).Err(); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (r *redisRepo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

func (r *redisRepo) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}
