package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"hrdesk/internal/domain/audit"
	"hrdesk/internal/domain/auth"
	"hrdesk/internal/domain/core"
	"hrdesk/internal/platform/apperr"
)

// CarryOver moves each employee's unused days from year into year+1, capped
// by the active policy. Every active employee hired by the end of year takes
// part, whether or not their balance for year was ever materialized.
// Balances already processed are skipped, so a partial run can be resumed; a
// run where everything was already processed is a conflict.
func (s *Service) CarryOver(ctx context.Context, actor auth.Principal, year int) (CarryOverSummary, error) {
	if !auth.Can(actor, auth.ActLeaveCarryOver, auth.Resource{}) {
		return CarryOverSummary{}, apperr.Forbidden(ErrForbidden)
	}
	if year < 1900 {
		return CarryOverSummary{}, apperr.Validationf("invalid carry-over year %d", year)
	}
	policy, err := s.ActivePolicy(ctx)
	if err != nil {
		return CarryOverSummary{}, err
	}
	employees, err := s.carryOverCandidates(ctx, year)
	if err != nil {
		return CarryOverSummary{}, err
	}

	summary := CarryOverSummary{Year: year}
	for _, emp := range employees {
		source, err := s.ensureBalance(ctx, emp, year)
		if err != nil {
			slog.WarnContext(ctx, "carry-over: balance unavailable", "employeeId", emp.ID, "year", year, "err", err)
			summary.FailedEmployees = append(summary.FailedEmployees, emp.ID)
			continue
		}
		if source.CarryOverProcessedAt != nil {
			summary.Skipped++
			continue
		}
		target, err := s.seedBalance(emp, year+1)
		if err != nil {
			slog.WarnContext(ctx, "carry-over: next-year entitlement unavailable", "employeeId", emp.ID, "year", year+1, "err", err)
			summary.FailedEmployees = append(summary.FailedEmployees, emp.ID)
			continue
		}
		credited, applied, err := s.Store.CarryOver(ctx, CarryOverOp{
			EmployeeID:   emp.ID,
			FromYear:     year,
			Cap:          policy.MaxCarryOverDays,
			Target:       target,
			AdjustmentID: uuid.NewString(),
			ActorID:      actor.UserID,
			At:           s.Now().UTC(),
		})
		if err != nil {
			slog.WarnContext(ctx, "carry-over: balance update failed", "employeeId", emp.ID, "year", year, "err", err)
			summary.FailedEmployees = append(summary.FailedEmployees, emp.ID)
			continue
		}
		if !applied {
			summary.Skipped++
			continue
		}
		summary.Processed++
		summary.CreditedDays += credited
	}

	if len(employees) > 0 && summary.Skipped == len(employees) {
		return summary, apperr.Conflict(fmt.Errorf("%w: year %d", ErrCarryOverProcessed, year))
	}
	slog.InfoContext(ctx, "carry-over finished",
		"year", year,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", len(summary.FailedEmployees),
		"creditedDays", summary.CreditedDays,
	)
	s.Audit.Record(ctx, actor, audit.ActionCarryOver, audit.EntityLeaveBalance, strconv.Itoa(year), nil, summary)
	return summary, nil
}

// CarryOverPending reports whether any carry-over candidate for year is
// still unprocessed. A missing balance counts as unprocessed.
func (s *Service) CarryOverPending(ctx context.Context, year int) (bool, error) {
	employees, err := s.carryOverCandidates(ctx, year)
	if err != nil {
		return false, err
	}
	for _, emp := range employees {
		b, err := s.Store.GetBalance(ctx, emp.ID, year)
		if errors.Is(err, ErrBalanceNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if b.CarryOverProcessedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

// carryOverCandidates lists active employees with a hire date on or before
// the last day of year.
func (s *Service) carryOverCandidates(ctx context.Context, year int) ([]core.Employee, error) {
	employees, err := s.Directory.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	out := make([]core.Employee, 0, len(employees))
	for _, emp := range employees {
		if !emp.Active || emp.HireDate == nil || DateOnly(*emp.HireDate).After(yearEnd) {
			continue
		}
		out = append(out, emp)
	}
	return out, nil
}
