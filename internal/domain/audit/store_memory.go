package audit

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps audit events for the memory driver.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *MemoryStore) Count(_ context.Context, f Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if f.matches(e) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) List(_ context.Context, f Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	s.mu.Lock()
	var out []Event
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if !f.matches(e) {
			continue
		}
		if !includeDetails {
			e.Before, e.After = nil, nil
		}
		out = append(out, e)
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
