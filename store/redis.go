package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowsmith/engine/config"
	rd "github.com/go-redis/redis/v9"
)

type RedisObjectStore struct {
	redisClient rd.UniversalClient
	namespace   string
}

var _ ObjectStore = new(RedisObjectStore)

func NewRedisObjectStore(conf config.RedisConfig) *RedisObjectStore {
	redisClient := rd.NewUniversalClient(&rd.UniversalOptions{
		Addrs: conf.Addrs,
	})
	return &RedisObjectStore{
		redisClient: redisClient,
		namespace:   conf.Namespace,
	}
}

func (s *RedisObjectStore) objectKey(key string) string {
	return fmt.Sprintf("%s:objects:%s", s.namespace, key)
}

func (s *RedisObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redisClient.Get(ctx, s.objectKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, ObjectNotFoundError{Key: key}
		}
		return nil, err
	}
	return data, nil
}

func (s *RedisObjectStore) PutObject(ctx context.Context, key string, data []byte) error {
	return s.redisClient.Set(ctx, s.objectKey(key), data, 0).Err()
}
