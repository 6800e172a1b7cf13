package reports

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hrdesk/internal/domain/auth"
	"hrdesk/internal/domain/leave"
	"hrdesk/internal/domain/payroll"
	"hrdesk/internal/platform/apperr"
)

var ErrForbidden = errors.New("reports: not allowed")

// scanLimit bounds the request listings a dashboard aggregates.
const scanLimit = 1000

type LeaveSource interface {
	Balance(ctx context.Context, actor auth.Principal, employeeID string, year int) (leave.Balance, error)
	ListRequests(ctx context.Context, actor auth.Principal, employeeID string, status leave.Status, limit, offset int) (leave.RequestListResult, error)
}

type PayrollSource interface {
	History(ctx context.Context, actor auth.Principal, employeeID string) ([]payroll.Record, error)
	ListMonth(ctx context.Context, actor auth.Principal, year, month int) ([]payroll.Record, error)
}

type InboxSource interface {
	UnreadCount(ctx context.Context, actor auth.Principal) (int, error)
}

// Service builds role dashboards from the leave, payroll and inbox services,
// so every figure obeys the same access rules as the underlying endpoints.
type Service struct {
	Leave   LeaveSource
	Payroll PayrollSource
	Inbox   InboxSource
	Now     func() time.Time
}

func NewService(leaveSrc LeaveSource, payrollSrc PayrollSource, inbox InboxSource) *Service {
	return &Service{Leave: leaveSrc, Payroll: payrollSrc, Inbox: inbox, Now: time.Now}
}

func (s *Service) Employee(ctx context.Context, actor auth.Principal) (EmployeeDashboard, error) {
	if actor.EmployeeID == "" {
		return EmployeeDashboard{}, apperr.Forbidden(ErrForbidden)
	}
	year := s.Now().Year()
	out := EmployeeDashboard{Year: year}

	balance, err := s.Leave.Balance(ctx, actor, actor.EmployeeID, year)
	if err != nil {
		return EmployeeDashboard{}, err
	}
	out.RemainingDays = balance.Remaining()
	out.UsedDays = balance.UsedDays

	pending, err := s.Leave.ListRequests(ctx, actor, actor.EmployeeID, leave.StatusPending, 1, 0)
	if err != nil {
		return EmployeeDashboard{}, err
	}
	out.PendingLeave = pending.Total

	history, err := s.Payroll.History(ctx, actor, actor.EmployeeID)
	if err != nil {
		return EmployeeDashboard{}, err
	}
	out.PayslipCount = len(history)
	if latest, ok := latestRecord(history); ok {
		out.LatestPayslip = &PayslipPeriod{RecordID: latest.ID, Year: latest.Year, Month: latest.Month, NetSalary: latest.NetSalary}
	}

	if s.Inbox != nil {
		unread, err := s.Inbox.UnreadCount(ctx, actor)
		if err != nil {
			slog.WarnContext(ctx, "dashboard unread count failed", "err", err)
		}
		out.UnreadNotices = unread
	}
	return out, nil
}

func latestRecord(records []payroll.Record) (payroll.Record, bool) {
	var latest payroll.Record
	found := false
	for _, rec := range records {
		if !found || rec.Year > latest.Year || (rec.Year == latest.Year && rec.Month > latest.Month) {
			latest, found = rec, true
		}
	}
	return latest, found
}

// Manager counts only requests the caller can decide, so a supervisor's own
// requests are left out.
func (s *Service) Manager(ctx context.Context, actor auth.Principal) (ManagerDashboard, error) {
	if actor.Role != auth.RoleSupervisor && actor.Role != auth.RoleAdmin {
		return ManagerDashboard{}, apperr.Forbidden(ErrForbidden)
	}
	var out ManagerDashboard
	var err error
	if out.PendingApprovals, err = s.countDecidable(ctx, actor, leave.StatusPending); err != nil {
		return ManagerDashboard{}, err
	}
	if out.PendingCancellations, err = s.countDecidable(ctx, actor, leave.StatusCancellationPending); err != nil {
		return ManagerDashboard{}, err
	}

	approved, err := s.Leave.ListRequests(ctx, actor, "", leave.StatusApproved, scanLimit, 0)
	if err != nil {
		return ManagerDashboard{}, err
	}
	today := leave.DateOnly(s.Now())
	for _, req := range approved.Requests {
		if req.EmployeeID != actor.EmployeeID && req.Covers(today) {
			out.TeamOnLeaveToday++
		}
	}
	return out, nil
}

func (s *Service) countDecidable(ctx context.Context, actor auth.Principal, status leave.Status) (int, error) {
	res, err := s.Leave.ListRequests(ctx, actor, "", status, scanLimit, 0)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, req := range res.Requests {
		if req.EmployeeID != actor.EmployeeID {
			n++
		}
	}
	return n, nil
}

// HR summarizes open leave work and the current month's payroll.
func (s *Service) HR(ctx context.Context, actor auth.Principal) (HRDashboard, error) {
	if actor.Role != auth.RoleAdmin {
		return HRDashboard{}, apperr.Forbidden(ErrForbidden)
	}
	now := s.Now()
	out := HRDashboard{PayrollYear: now.Year(), PayrollMonth: int(now.Month())}

	pending, err := s.Leave.ListRequests(ctx, actor, "", leave.StatusPending, 1, 0)
	if err != nil {
		return HRDashboard{}, err
	}
	out.LeavePending = pending.Total
	cancellations, err := s.Leave.ListRequests(ctx, actor, "", leave.StatusCancellationPending, 1, 0)
	if err != nil {
		return HRDashboard{}, err
	}
	out.CancellationsPending = cancellations.Total

	records, err := s.Payroll.ListMonth(ctx, actor, out.PayrollYear, out.PayrollMonth)
	if err != nil {
		return HRDashboard{}, err
	}
	out.PayrollRecords = len(records)
	for _, rec := range records {
		out.PayrollNetTotal = out.PayrollNetTotal.Add(rec.NetSalary)
		if rec.PaymentStatus != payroll.PaymentPaid {
			out.PayrollUnpaid++
		}
	}
	return out, nil
}
