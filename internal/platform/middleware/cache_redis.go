package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// RedisCacheStore shares cached responses between server instances. Keys
// are namespaced with a prefix so Clear only touches this cache.
type RedisCacheStore struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

func NewRedisCacheStore(client *redis.Client, prefix string, logger zerolog.Logger) *RedisCacheStore {
	if prefix == "" {
		prefix = "medref-cache:"
	}
	return &RedisCacheStore{client: client, prefix: prefix, logger: logger}
}

func (s *RedisCacheStore) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("response cache read failed")
		return nil, false
	}
	return data, true
}

func (s *RedisCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("response cache write failed")
	}
}

func (s *RedisCacheStore) Delete(ctx context.Context, key string) {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("response cache delete failed")
	}
}

// Clear removes every key under the prefix.
func (s *RedisCacheStore) Clear(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 200).Result()
		if err != nil {
			s.logger.Warn().Err(err).Msg("response cache clear failed")
			return
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("response cache clear failed")
				return
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}
