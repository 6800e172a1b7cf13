package leave

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type balanceKey struct {
	employeeID string
	year       int
}

// MemoryStore implements StoreAPI behind a single mutex, which makes every
// method one atomic write.
type MemoryStore struct {
	mu          sync.Mutex
	policies    []Policy
	balances    map[balanceKey]Balance
	adjustments []Adjustment
	requests    map[string]Request
	exceptions  map[time.Time]Exception
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balances:   map[balanceKey]Balance{},
		requests:   map[string]Request{},
		exceptions: map[time.Time]Exception{},
	}
}

func (s *MemoryStore) ActivePolicy(_ context.Context) (Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.policies) == 0 {
		return Policy{}, ErrPolicyNotFound
	}
	return clonePolicy(s.policies[len(s.policies)-1]), nil
}

func (s *MemoryStore) InsertPolicy(_ context.Context, p Policy) (Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Version = len(s.policies) + 1
	p = clonePolicy(p)
	s.policies = append(s.policies, p)
	return clonePolicy(p), nil
}

func (s *MemoryStore) PolicyHistory(_ context.Context) ([]Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Policy, 0, len(s.policies))
	for i := len(s.policies) - 1; i >= 0; i-- {
		out = append(out, clonePolicy(s.policies[i]))
	}
	return out, nil
}

func clonePolicy(p Policy) Policy {
	if p.MaxCarryOverDays != nil {
		v := *p.MaxCarryOverDays
		p.MaxCarryOverDays = &v
	}
	return p
}

func (s *MemoryStore) GetBalance(_ context.Context, employeeID string, year int) (Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[balanceKey{employeeID, year}]
	if !ok {
		return Balance{}, ErrBalanceNotFound
	}
	return b, nil
}

func (s *MemoryStore) EnsureBalance(_ context.Context, seed Balance) (Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(seed), nil
}

func (s *MemoryStore) ensureLocked(seed Balance) Balance {
	key := balanceKey{seed.EmployeeID, seed.Year}
	if b, ok := s.balances[key]; ok {
		return b
	}
	if seed.UpdatedAt.IsZero() {
		seed.UpdatedAt = time.Now().UTC()
	}
	s.balances[key] = seed
	return seed
}

func (s *MemoryStore) ApplyAdjustment(_ context.Context, adj Adjustment) (Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := balanceKey{adj.EmployeeID, adj.Year}
	b, ok := s.balances[key]
	if !ok {
		return Balance{}, ErrBalanceNotFound
	}
	b = applyAdjustment(b, adj)
	b.UpdatedAt = adj.CreatedAt
	s.balances[key] = b
	if adj.ID == "" {
		adj.ID = uuid.NewString()
	}
	s.adjustments = append(s.adjustments, adj)
	return b, nil
}

func applyAdjustment(b Balance, adj Adjustment) Balance {
	switch adj.Kind {
	case AdjustAdd:
		b.TotalEntitlement += adj.Amount
	case AdjustSubtract:
		b.TotalEntitlement -= adj.Amount
	case AdjustCarryOver:
		b.CarryOverDays += adj.Amount
	case AdjustCancelUsage:
		b.UsedDays -= adj.Amount
	}
	return b
}

func (s *MemoryStore) ListAdjustments(_ context.Context, employeeID string, year int) ([]Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Adjustment
	for i := len(s.adjustments) - 1; i >= 0; i-- {
		adj := s.adjustments[i]
		if adj.EmployeeID == employeeID && adj.Year == year {
			out = append(out, adj)
		}
	}
	return out, nil
}

func (s *MemoryStore) CarryOver(_ context.Context, op CarryOverOp) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	srcKey := balanceKey{op.EmployeeID, op.FromYear}
	src, ok := s.balances[srcKey]
	if !ok {
		return 0, false, ErrBalanceNotFound
	}
	if src.CarryOverProcessedAt != nil {
		return 0, false, nil
	}
	amount := carryAmount(src.Remaining(), op.Cap)

	target := s.ensureLocked(op.Target)
	target.CarryOverDays += amount
	target.UpdatedAt = op.At
	s.balances[balanceKey{target.EmployeeID, target.Year}] = target

	at := op.At
	src.CarryOverProcessedAt = &at
	src.UpdatedAt = op.At
	s.balances[srcKey] = src
	if amount > 0 {
		s.adjustments = append(s.adjustments, Adjustment{
			ID:         op.AdjustmentID,
			EmployeeID: op.EmployeeID,
			Year:       op.FromYear + 1,
			Kind:       AdjustCarryOver,
			Amount:     amount,
			Reason:     fmt.Sprintf("carried over from %d", op.FromYear),
			CreatedBy:  op.ActorID,
			CreatedAt:  op.At,
		})
	}
	return amount, true, nil
}

// carryAmount bounds unused days by the optional cap; negatives carry nothing.
func carryAmount(remaining float64, cap *float64) float64 {
	if remaining <= 0 {
		return 0
	}
	if cap != nil && remaining > *cap {
		return *cap
	}
	return remaining
}

func (s *MemoryStore) CreateRequest(_ context.Context, req Request) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	s.requests[req.ID] = req
	return req, nil
}

func (s *MemoryStore) GetRequest(_ context.Context, id string) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return Request{}, ErrRequestNotFound
	}
	return req, nil
}

func (s *MemoryStore) ListRequests(_ context.Context, filter RequestFilter) (RequestListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []Request
	for _, req := range s.requests {
		if filter.EmployeeIDs != nil && !slices.Contains(filter.EmployeeIDs, req.EmployeeID) {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		matched = append(matched, req)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return RequestListResult{Requests: matched, Total: total}, nil
}

func (s *MemoryStore) CountPending(_ context.Context, employeeID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, req := range s.requests {
		if req.EmployeeID == employeeID && req.Status == StatusPending {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ListActiveOverlapping(_ context.Context, start, end time.Time) ([]Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, req := range s.requests {
		if !slices.Contains(activeStatuses, req.Status) {
			continue
		}
		if req.EndDate.Before(start) || req.StartDate.After(end) {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *MemoryStore) ApplyTransition(_ context.Context, t Transition) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[t.RequestID]
	if !ok {
		return Request{}, ErrRequestNotFound
	}
	if req.Status != t.From {
		return Request{}, ErrStaleRequest
	}

	if t.UsedDelta != 0 {
		key := balanceKey{req.EmployeeID, req.StartDate.Year()}
		b, ok := s.balances[key]
		if !ok {
			return Request{}, ErrBalanceNotFound
		}
		if t.RequireRemaining && b.Remaining() < t.UsedDelta {
			return Request{}, ErrInsufficientBalance
		}
		b.UsedDays += t.UsedDelta
		b.UpdatedAt = t.At
		s.balances[key] = b
	}

	req.Status = t.To
	req.UpdatedAt = t.At
	if t.Decided {
		at := t.At
		req.ApproverID = t.ActorID
		req.DecisionComment = t.Comment
		req.DecidedAt = &at
	}
	if t.CancellationReason != "" {
		req.CancellationReason = t.CancellationReason
	}
	s.requests[req.ID] = req
	return req, nil
}

func (s *MemoryStore) CreateException(_ context.Context, ex Exception) (Exception, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := DateOnly(ex.Date)
	if _, ok := s.exceptions[key]; ok {
		return Exception{}, ErrExceptionExists
	}
	ex.Date = key
	s.exceptions[key] = ex
	return ex, nil
}

func (s *MemoryStore) UpdateException(_ context.Context, ex Exception) (Exception, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := DateOnly(ex.Date)
	existing, ok := s.exceptions[key]
	if !ok {
		return Exception{}, ErrExceptionNotFound
	}
	existing.MaxConcurrentLeaves = ex.MaxConcurrentLeaves
	existing.Reason = ex.Reason
	s.exceptions[key] = existing
	return existing, nil
}

func (s *MemoryStore) DeleteException(_ context.Context, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := DateOnly(date)
	if _, ok := s.exceptions[key]; !ok {
		return ErrExceptionNotFound
	}
	delete(s.exceptions, key)
	return nil
}

func (s *MemoryStore) ListExceptions(_ context.Context, from, to time.Time) ([]Exception, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Exception
	for day, ex := range s.exceptions {
		if !from.IsZero() && day.Before(DateOnly(from)) {
			continue
		}
		if !to.IsZero() && day.After(DateOnly(to)) {
			continue
		}
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
