package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps events in process memory. Used by tests and the
// audit-test harness.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) Recent(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit > len(s.events) {
		limit = len(s.events)
	}
	return append([]Event{}, s.events[len(s.events)-limit:]...), nil
}

func (s *InMemoryStore) Name() string { return "memory" }

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
