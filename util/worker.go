package util

import (
	"sync"

	"github.com/flowsmith/engine/logger"
	"go.uber.org/zap"
)

type Message any

// Worker drains a buffered channel with a single goroutine. Used for
// asynchronous dispatch where the sender must never block on the handler.
type Worker struct {
	name    string
	stop    chan struct{}
	wg      *sync.WaitGroup
	handler func(Message) error
	msgChan chan Message
}

func NewWorker(name string, wg *sync.WaitGroup, handler func(Message) error, capacity int) *Worker {
	return &Worker{
		msgChan: make(chan Message, capacity),
		name:    name,
		wg:      wg,
		stop:    make(chan struct{}),
		handler: handler,
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case msg := <-w.msgChan:
				err := w.handler(msg)
				if err != nil {
					logger.Error("error handling message in worker", zap.String("worker", w.name), zap.Error(err))
				}
			case <-w.stop:
				logger.Info("stopping worker", zap.String("worker", w.name))
				return
			}
		}
	}()
}

func (w *Worker) Sender() chan<- Message {
	return w.msgChan
}

func (w *Worker) Stop() {
	w.stop <- struct{}{}
}
