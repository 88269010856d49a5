package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flowsmith/engine/config"
	"github.com/flowsmith/engine/model"
	rd "github.com/go-redis/redis/v9"
)

type RedisStorage struct {
	redisClient rd.UniversalClient
	namespace   string
}

var _ Storage = new(RedisStorage)

func NewRedisStorage(conf config.RedisConfig) *RedisStorage {
	redisClient := rd.NewUniversalClient(&rd.UniversalOptions{
		Addrs: conf.Addrs,
	})
	return &RedisStorage{
		redisClient: redisClient,
		namespace:   conf.Namespace,
	}
}

func (s *RedisStorage) flowsKey() string {
	return fmt.Sprintf("%s:flows", s.namespace)
}

func (s *RedisStorage) SaveDefinition(def model.FlowDefinition) error {
	payload, err := json.Marshal(def)
	if err != nil {
		return err
	}
	return s.redisClient.HSet(context.Background(), s.flowsKey(), def.Name, payload).Err()
}

func (s *RedisStorage) GetDefinition(name string) (*model.FlowDefinition, error) {
	payload, err := s.redisClient.HGet(context.Background(), s.flowsKey(), name).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, FlowNotFoundError{Name: name}
		}
		return nil, err
	}
	var def model.FlowDefinition
	if err := json.Unmarshal([]byte(payload), &def); err != nil {
		return nil, err
	}
	return &def, nil
}

func (s *RedisStorage) GetAllDefinitions() ([]model.FlowDefinition, error) {
	entries, err := s.redisClient.HGetAll(context.Background(), s.flowsKey()).Result()
	if err != nil {
		return nil, err
	}
	defs := make([]model.FlowDefinition, 0, len(entries))
	for _, payload := range entries {
		var def model.FlowDefinition
		if err := json.Unmarshal([]byte(payload), &def); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (s *RedisStorage) DeleteDefinition(name string) error {
	return s.redisClient.HDel(context.Background(), s.flowsKey(), name).Err()
}
