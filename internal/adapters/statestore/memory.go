package statestore

import (
	"context"
	"slices"
	"sync"
)

type memoryKey struct {
	projectKey string
	fieldKey   string
}

// MemoryStore keeps state in process memory. Used in development when no
// database is reachable, and in tests.
type MemoryStore struct {
	mutex sync.Mutex
	state map[memoryKey][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: make(map[memoryKey][]byte),
	}
}

func (s *MemoryStore) Get(ctx context.Context, projectKey, fieldKey string) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	payload, ok := s.state[memoryKey{projectKey, fieldKey}]
	if !ok {
		return nil, nil
	}
	return slices.Clone(payload), nil
}

func (s *MemoryStore) Put(ctx context.Context, projectKey, fieldKey string, payload []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if payload == nil {
		delete(s.state, memoryKey{projectKey, fieldKey})
		return nil
	}

	s.state[memoryKey{projectKey, fieldKey}] = slices.Clone(payload)
	return nil
}
