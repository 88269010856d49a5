package registry

import (
	"sync"

	"github.com/flowsmith/engine/model"
)

type InMemStorage struct {
	mu          sync.RWMutex
	definitions map[string]model.FlowDefinition
}

var _ Storage = new(InMemStorage)

func NewInMemStorage() *InMemStorage {
	return &InMemStorage{
		definitions: make(map[string]model.FlowDefinition),
	}
}

func (s *InMemStorage) SaveDefinition(def model.FlowDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.definitions[def.Name] = def
	return nil
}

func (s *InMemStorage) GetDefinition(name string) (*model.FlowDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.definitions[name]
	if !ok {
		return nil, FlowNotFoundError{Name: name}
	}
	return &def, nil
}

func (s *InMemStorage) GetAllDefinitions() ([]model.FlowDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	defs := make([]model.FlowDefinition, 0, len(s.definitions))
	for _, def := range s.definitions {
		defs = append(defs, def)
	}
	return defs, nil
}

func (s *InMemStorage) DeleteDefinition(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.definitions, name)
	return nil
}
