package notifications

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps notifications for the memory driver.
type MemoryStore struct {
	mu    sync.Mutex
	items []Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) CreateNotification(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, n)
	return nil
}

func (s *MemoryStore) ListNotifications(_ context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	s.mu.Lock()
	var out []Notification
	for i := len(s.items) - 1; i >= 0; i-- {
		n := s.items[i]
		if n.RecipientID == recipientID && (!unreadOnly || n.ReadAt == nil) {
			out = append(out, n)
		}
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

func (s *MemoryStore) CountNotifications(_ context.Context, recipientID string, unreadOnly bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.items {
		if item.RecipientID == recipientID && (!unreadOnly || item.ReadAt == nil) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, recipientID, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].RecipientID == recipientID {
			if s.items[i].ReadAt == nil {
				readAt := at
				s.items[i].ReadAt = &readAt
			}
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) MarkAllRead(_ context.Context, recipientID string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.items {
		if s.items[i].RecipientID == recipientID && s.items[i].ReadAt == nil {
			readAt := at
			s.items[i].ReadAt = &readAt
			n++
		}
	}
	return n, nil
}
