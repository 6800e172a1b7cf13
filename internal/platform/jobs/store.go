package jobs

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hrdesk/internal/platform/db"
)

// Run is one recorded job execution.
type Run struct {
	ID          string          `json:"id"`
	JobType     string          `json:"jobType"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

type RunStore interface {
	StartRun(ctx context.Context, jobType string, at time.Time) (string, error)
	FinishRun(ctx context.Context, id, status string, details []byte, at time.Time) error
	// ListRuns returns the latest runs first; an empty jobType lists all.
	ListRuns(ctx context.Context, jobType string, limit int) ([]Run, error)
}

type Store struct {
	DB db.Queryer
}

func NewStore(pool db.Queryer) *Store {
	return &Store{DB: pool}
}

func (s *Store) StartRun(ctx context.Context, jobType string, at time.Time) (string, error) {
	id := uuid.NewString()
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO job_runs (id, job_type, status, started_at)
    VALUES ($1,$2,$3,$4)
  `, id, jobType, StatusRunning, at); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) FinishRun(ctx context.Context, id, status string, details []byte, at time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = $3
    WHERE id = $4
  `, status, details, at, id)
	return err
}

func (s *Store) ListRuns(ctx context.Context, jobType string, limit int) ([]Run, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, job_type, status, details_json, started_at, completed_at
    FROM job_runs
    WHERE ($1 = '' OR job_type = $1)
    ORDER BY started_at DESC
    LIMIT $2
  `, jobType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var details []byte
		if err := rows.Scan(&r.ID, &r.JobType, &r.Status, &details, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			r.Details = details
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MemoryStore keeps job runs for the memory driver.
type MemoryStore struct {
	mu   sync.Mutex
	runs []Run
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) StartRun(_ context.Context, jobType string, at time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.runs = append(s.runs, Run{ID: id, JobType: jobType, Status: StatusRunning, StartedAt: at})
	return id, nil
}

func (s *MemoryStore) FinishRun(_ context.Context, id, status string, details []byte, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID == id {
			s.runs[i].Status = status
			s.runs[i].Details = append(json.RawMessage(nil), details...)
			completed := at
			s.runs[i].CompletedAt = &completed
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) ListRuns(_ context.Context, jobType string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Run
	for _, r := range s.runs {
		if jobType == "" || r.JobType == jobType {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
