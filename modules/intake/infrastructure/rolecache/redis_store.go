package rolecache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: client, prefix: "intake:roles:v1", ttl: ttl}
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + ":" + userID
}

func (s *RedisStore) Get(ctx context.Context, userID string) ([]string, bool, error) {
	raw, err := s.redis.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "rolecache: redis get")
	}
	var roles []string
	if err := json.Unmarshal(raw, &roles); err != nil {
		return nil, false, errors.Wrap(err, "rolecache: decode roles")
	}
	return roles, true, nil
}

func (s *RedisStore) Set(ctx context.Context, userID string, roles []string) error {
	if roles == nil {
		roles = []string{}
	}
	raw, err := json.Marshal(roles)
	if err != nil {
		return errors.Wrap(err, "rolecache: encode roles")
	}
	if err := s.redis.Set(ctx, s.key(userID), raw, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "rolecache: redis set")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return errors.Wrap(err, "rolecache: redis del")
	}
	return nil
}
