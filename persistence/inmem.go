package persistence

import (
	"sync"

	"github.com/flowsmith/engine/model"
)

type InMemRunStorage struct {
	mu   sync.RWMutex
	runs map[string]model.Run
}

var _ RunStorage = new(InMemRunStorage)

func NewInMemRunStorage() *InMemRunStorage {
	return &InMemRunStorage{
		runs: make(map[string]model.Run),
	}
}

func (s *InMemRunStorage) Save(run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.Id] = *run
	return nil
}

func (s *InMemRunStorage) Get(runId string) (*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runId]
	if !ok {
		return nil, RunNotFoundError{RunId: runId}
	}
	return &run, nil
}

func (s *InMemRunStorage) GetByFlow(flowName string) ([]*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var runs []*model.Run
	for _, run := range s.runs {
		if run.FlowName == flowName {
			r := run
			runs = append(runs, &r)
		}
	}
	return runs, nil
}
