package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/flowsmith/engine/config"
	"github.com/flowsmith/engine/logger"
	"github.com/flowsmith/engine/model"
	rd "github.com/go-redis/redis/v9"
	"github.com/spaolacci/murmur3"
	"go.uber.org/zap"
)

// RedisRunStorage spreads run records over a fixed number of hash partitions
// keyed by murmur3 of the run id, so no single hash grows unbounded.
type RedisRunStorage struct {
	redisClient rd.UniversalClient
	namespace   string
	partitions  int
}

var _ RunStorage = new(RedisRunStorage)

func NewRedisRunStorage(conf config.RedisConfig, partitions int) *RedisRunStorage {
	if partitions <= 0 {
		partitions = 16
	}
	redisClient := rd.NewUniversalClient(&rd.UniversalOptions{
		Addrs: conf.Addrs,
	})
	return &RedisRunStorage{
		redisClient: redisClient,
		namespace:   conf.Namespace,
		partitions:  partitions,
	}
}

func (s *RedisRunStorage) partitionKey(runId string) string {
	partition := int(murmur3.Sum32([]byte(runId))) % s.partitions
	return fmt.Sprintf("%s:runs:%s", s.namespace, strconv.Itoa(partition))
}

func (s *RedisRunStorage) flowIndexKey(flowName string) string {
	return fmt.Sprintf("%s:runs:flow:%s", s.namespace, flowName)
}

func (s *RedisRunStorage) Save(run *model.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := s.redisClient.HSet(ctx, s.partitionKey(run.Id), run.Id, payload).Err(); err != nil {
		logger.Error("error saving run", zap.String("runId", run.Id), zap.Error(err))
		return StorageLayerError{Message: err.Error()}
	}
	if err := s.redisClient.SAdd(ctx, s.flowIndexKey(run.FlowName), run.Id).Err(); err != nil {
		return StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (s *RedisRunStorage) Get(runId string) (*model.Run, error) {
	payload, err := s.redisClient.HGet(context.Background(), s.partitionKey(runId), runId).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, RunNotFoundError{RunId: runId}
		}
		return nil, StorageLayerError{Message: err.Error()}
	}
	var run model.Run
	if err := json.Unmarshal([]byte(payload), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *RedisRunStorage) GetByFlow(flowName string) ([]*model.Run, error) {
	ctx := context.Background()
	runIds, err := s.redisClient.SMembers(ctx, s.flowIndexKey(flowName)).Result()
	if err != nil {
		return nil, StorageLayerError{Message: err.Error()}
	}
	runs := make([]*model.Run, 0, len(runIds))
	for _, runId := range runIds {
		run, err := s.Get(runId)
		if err != nil {
			var notFound RunNotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
