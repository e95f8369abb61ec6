// Package memory keeps the audit trail in process for tests and for running
// without a database.
package memory

import (
	"context"
	"sync"

	id "carematch/pkg/domain"
	audit "carematch/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
	byUser map[id.UserID][]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byUser: make(map[id.UserID][]int)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[event.UserID] = append(s.byUser[event.UserID], len(s.events))
	s.events = append(s.events, event)
	return nil
}

// ListByUser returns the user's events newest first.
func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.byUser[userID]
	out := make([]audit.Event, 0, len(idx))
	for i := len(idx) - 1; i >= 0; i-- {
		out = append(out, s.events[idx[i]])
	}
	return out, nil
}

// ListRecent returns up to limit events across all users, newest first. A
// non-positive limit returns everything.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]audit.Event, 0, n)
	for i := len(s.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}
