package leave

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hrdesk/internal/domain/audit"
	"hrdesk/internal/domain/auth"
	"hrdesk/internal/platform/apperr"
)

// DefaultPolicy is active until the first version is stored.
func DefaultPolicy() Policy {
	return Policy{
		AdvanceNoticeRequiredDays: 3,
		MaxConsecutiveDays:        15,
		MaxPendingRequests:        5,
		SaturdayWorkingDays:       0.5,
		SundayWorkingDays:         0,
	}
}

func (p Policy) Validate() error {
	var problems []string
	if p.AdvanceNoticeRequiredDays < 0 {
		problems = append(problems, "advanceNoticeRequiredDays must not be negative")
	}
	if p.MaxConsecutiveDays < 1 {
		problems = append(problems, "maxConsecutiveDays must be at least 1")
	}
	if p.MaxPendingRequests < 0 {
		problems = append(problems, "maxPendingRequests must not be negative")
	}
	if p.SaturdayWorkingDays < 0 || p.SaturdayWorkingDays > 1 {
		problems = append(problems, "saturdayWorkingDays must be between 0 and 1")
	}
	if p.SundayWorkingDays < 0 || p.SundayWorkingDays > 1 {
		problems = append(problems, "sundayWorkingDays must be between 0 and 1")
	}
	if p.DefaultMaxConcurrentLeaves < 0 {
		problems = append(problems, "defaultMaxConcurrentLeaves must not be negative")
	}
	if p.MaxCarryOverDays != nil && *p.MaxCarryOverDays < 0 {
		problems = append(problems, "maxCarryOverDays must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPolicy, strings.Join(problems, "; "))
	}
	return nil
}

// ActivePolicy returns the newest stored version, or the default.
func (s *Service) ActivePolicy(ctx context.Context) (Policy, error) {
	policy, err := s.Store.ActivePolicy(ctx)
	if errors.Is(err, ErrPolicyNotFound) {
		return DefaultPolicy(), nil
	}
	return policy, err
}

// UpdatePolicy stores a new version; earlier versions are never changed.
func (s *Service) UpdatePolicy(ctx context.Context, actor auth.Principal, next Policy) (Policy, error) {
	if !auth.Can(actor, auth.ActLeavePolicyWrite, auth.Resource{}) {
		return Policy{}, apperr.Forbidden(ErrForbidden)
	}
	if err := next.Validate(); err != nil {
		return Policy{}, apperr.Validation(err)
	}
	previous, err := s.ActivePolicy(ctx)
	if err != nil {
		return Policy{}, err
	}
	next.Version = 0
	next.EffectiveAt = s.Now().UTC()
	next.UpdatedBy = actor.UserID
	stored, err := s.Store.InsertPolicy(ctx, next)
	if err != nil {
		return Policy{}, err
	}
	s.Audit.Record(ctx, actor, audit.ActionPolicyUpdate, audit.EntityLeavePolicy, strconv.Itoa(stored.Version), previous, stored)
	return stored, nil
}

// PolicyHistory lists versions newest first.
func (s *Service) PolicyHistory(ctx context.Context, actor auth.Principal) ([]Policy, error) {
	if !auth.Can(actor, auth.ActLeavePolicyRead, auth.Resource{}) {
		return nil, apperr.Forbidden(ErrForbidden)
	}
	return s.Store.PolicyHistory(ctx)
}
