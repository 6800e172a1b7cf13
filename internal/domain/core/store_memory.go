package core

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore backs the directory for the memory driver and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	employees map[string]Employee
}

func NewMemoryStore(employees ...Employee) *MemoryStore {
	s := &MemoryStore{employees: map[string]Employee{}}
	for _, emp := range employees {
		_ = s.UpsertEmployee(context.Background(), emp)
	}
	return s
}

func (s *MemoryStore) GetEmployee(_ context.Context, id string) (Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[id]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, nil
}

func (s *MemoryStore) ListEmployees(_ context.Context) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		if emp.Active {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MemoryStore) UpsertEmployee(_ context.Context, emp Employee) error {
	if emp.ID == "" {
		return ErrInvalidEmployee
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := s.employees[emp.ID]; ok {
		emp.CreatedAt = existing.CreatedAt
	} else {
		emp.CreatedAt = now
	}
	emp.UpdatedAt = now
	s.employees[emp.ID] = emp
	return nil
}
