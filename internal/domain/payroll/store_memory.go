package payroll

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type periodKey struct {
	employeeID string
	year       int
	month      int
}

// MemoryStore implements StoreAPI for the memory driver and tests.
type MemoryStore struct {
	mu       sync.Mutex
	records  map[string]Record
	byPeriod map[periodKey]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]Record{}, byPeriod: map[periodKey]string{}}
}

func cloneRecord(rec Record) Record {
	rec.Allowances = rec.Allowances.Clone()
	rec.Deductions = rec.Deductions.Clone()
	return rec
}

func (s *MemoryStore) UpsertRecord(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := periodKey{rec.EmployeeID, rec.Year, rec.Month}
	if id, ok := s.byPeriod[key]; ok {
		existing := s.records[id]
		rec.ID = existing.ID
		rec.PaymentStatus = existing.PaymentStatus
		rec.CreatedBy = existing.CreatedBy
		rec.CreatedAt = existing.CreatedAt
	}
	if rec.ID == "" {
		return Record{}, fmt.Errorf("payroll: record id is required")
	}
	s.records[rec.ID] = cloneRecord(rec)
	s.byPeriod[key] = rec.ID
	return cloneRecord(rec), nil
}

func (s *MemoryStore) GetRecord(_ context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) ListMonth(_ context.Context, year, month int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.records {
		if rec.Year == year && rec.Month == month {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (s *MemoryStore) ListByEmployee(_ context.Context, employeeID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.records {
		if rec.EmployeeID == employeeID {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

func (s *MemoryStore) EmployeesWithRecords(_ context.Context, year, month int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for key := range s.byPeriod {
		if key.year == year && key.month == month {
			out = append(out, key.employeeID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) UpdateRecord(_ context.Context, id string, fn func(*Record) error) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	rec = cloneRecord(rec)
	if err := fn(&rec); err != nil {
		return Record{}, err
	}
	s.records[id] = cloneRecord(rec)
	return rec, nil
}
