package bus

import (
	"fmt"
	"sync"

	"github.com/flowsmith/engine/logger"
	"github.com/flowsmith/engine/model"
	"github.com/flowsmith/engine/util"
	"go.uber.org/zap"
)

type subscription struct {
	filter  model.EventFilter
	handler Handler
}

// InMemEventBus delivers events to local subscribers through a single
// dispatch worker, so publishers never block on subscriber handlers.
type InMemEventBus struct {
	mu            sync.RWMutex
	subscriptions []subscription
	dispatcher    *util.Worker
}

var _ EventBus = new(InMemEventBus)

func NewInMemEventBus(wg *sync.WaitGroup, capacity int) *InMemEventBus {
	b := &InMemEventBus{}
	b.dispatcher = util.NewWorker("bus-dispatcher", wg, b.dispatch, capacity)
	return b
}

func (b *InMemEventBus) Start() {
	b.dispatcher.Start()
}

func (b *InMemEventBus) Stop() {
	b.dispatcher.Stop()
}

func (b *InMemEventBus) Publish(event model.Event) error {
	select {
	case b.dispatcher.Sender() <- event:
		return nil
	default:
		return fmt.Errorf("event bus %s dispatch queue full", event.Bus)
	}
}

func (b *InMemEventBus) Subscribe(filter model.EventFilter, handler Handler) error {
	if err := ValidateFilter(filter); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = append(b.subscriptions, subscription{filter: filter, handler: handler})
	return nil
}

func (b *InMemEventBus) dispatch(msg util.Message) error {
	event, ok := msg.(model.Event)
	if !ok {
		return fmt.Errorf("unexpected message type %T on bus dispatcher", msg)
	}
	b.mu.RLock()
	subs := make([]subscription, len(b.subscriptions))
	copy(subs, b.subscriptions)
	b.mu.RUnlock()
	for _, sub := range subs {
		if Matches(sub.filter, event) {
			logger.Debug("dispatching event", zap.String("bus", event.Bus), zap.String("detailType", event.DetailType))
			sub.handler(event)
		}
	}
	return nil
}
