package store

import (
	"context"
	"sync"
)

type InMemObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ ObjectStore = new(InMemObjectStore)

func NewInMemObjectStore() *InMemObjectStore {
	return &InMemObjectStore{
		objects: make(map[string][]byte),
	}
}

func (s *InMemObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, ObjectNotFoundError{Key: key}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *InMemObjectStore) PutObject(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = buf
	return nil
}
