package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/flowsmith/engine/config"
	"github.com/flowsmith/engine/logger"
	"github.com/flowsmith/engine/model"
	rd "github.com/go-redis/redis/v9"
	"go.uber.org/zap"
)

// RedisEventBus carries events over redis pub/sub so multiple processes can
// share one logical bus. Matching still happens on the subscriber side.
type RedisEventBus struct {
	redisClient rd.UniversalClient
	namespace   string
	mu          sync.RWMutex
	subs        []subscription
	stopFn      context.CancelFunc
	wg          *sync.WaitGroup
}

var _ EventBus = new(RedisEventBus)

func NewRedisEventBus(conf config.RedisConfig, wg *sync.WaitGroup) *RedisEventBus {
	redisClient := rd.NewUniversalClient(&rd.UniversalOptions{
		Addrs: conf.Addrs,
	})
	return &RedisEventBus{
		redisClient: redisClient,
		namespace:   conf.Namespace,
		wg:          wg,
	}
}

func (b *RedisEventBus) channel() string {
	return fmt.Sprintf("%s:bus", b.namespace)
}

func (b *RedisEventBus) Publish(event model.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = b.redisClient.Publish(context.Background(), b.channel(), payload).Err()
	if err != nil {
		return fmt.Errorf("error publishing event to redis: %w", err)
	}
	return nil
}

func (b *RedisEventBus) Subscribe(filter model.EventFilter, handler Handler) error {
	if err := ValidateFilter(filter); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{filter: filter, handler: handler})
	return nil
}

func (b *RedisEventBus) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.stopFn = cancel
	pubsub := b.redisClient.Subscribe(ctx, b.channel())
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event model.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logger.Error("error decoding event from redis", zap.Error(err))
					continue
				}
				b.deliver(event)
			case <-ctx.Done():
				logger.Info("stopping redis event bus")
				return
			}
		}
	}()
}

func (b *RedisEventBus) Stop() {
	if b.stopFn != nil {
		b.stopFn()
	}
}

func (b *RedisEventBus) deliver(event model.Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()
	for _, sub := range subs {
		if Matches(sub.filter, event) {
			sub.handler(event)
		}
	}
}
