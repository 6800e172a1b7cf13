package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdesk/internal/domain/auth"
	"hrdesk/internal/domain/leave"
	"hrdesk/internal/domain/payroll"
	"hrdesk/internal/platform/apperr"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeLeave struct {
	balance  leave.Balance
	requests []leave.Request
}

func (f *fakeLeave) Balance(_ context.Context, _ auth.Principal, employeeID string, year int) (leave.Balance, error) {
	b := f.balance
	b.EmployeeID, b.Year = employeeID, year
	return b, nil
}

func (f *fakeLeave) ListRequests(_ context.Context, _ auth.Principal, employeeID string, status leave.Status, limit, offset int) (leave.RequestListResult, error) {
	var out []leave.Request
	for _, r := range f.requests {
		if (employeeID == "" || r.EmployeeID == employeeID) && (status == "" || r.Status == status) {
			out = append(out, r)
		}
	}
	total := len(out)
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return leave.RequestListResult{Requests: out, Total: total}, nil
}

type fakePayroll struct {
	records []payroll.Record
}

func (f *fakePayroll) History(_ context.Context, _ auth.Principal, employeeID string) ([]payroll.Record, error) {
	var out []payroll.Record
	for _, r := range f.records {
		if r.EmployeeID == employeeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePayroll) ListMonth(_ context.Context, _ auth.Principal, year, month int) ([]payroll.Record, error) {
	var out []payroll.Record
	for _, r := range f.records {
		if r.Year == year && r.Month == month {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeInbox int

func (f fakeInbox) UnreadCount(context.Context, auth.Principal) (int, error) { return int(f), nil }

var (
	admin = auth.Principal{UserID: "u-admin", EmployeeID: "e-admin", Role: auth.RoleAdmin}
	mgr   = auth.Principal{UserID: "u-mgr", EmployeeID: "e-mgr", Role: auth.RoleSupervisor}
	ana   = auth.Principal{UserID: "u-ana", EmployeeID: "e-ana", Role: auth.RoleUser}
)

func newTestService() *Service {
	leaveSrc := &fakeLeave{
		balance: leave.Balance{TotalEntitlement: 15, UsedDays: 3, CarryOverDays: 2},
		requests: []leave.Request{
			{ID: "r1", EmployeeID: "e-ana", Status: leave.StatusPending},
			{ID: "r2", EmployeeID: "e-mgr", Status: leave.StatusPending},
			{ID: "r3", EmployeeID: "e-ben", Status: leave.StatusCancellationPending},
			{ID: "r4", EmployeeID: "e-ben", Status: leave.StatusApproved, StartDate: day(2025, 5, 12), EndDate: day(2025, 5, 14)},
			{ID: "r5", EmployeeID: "e-ana", Status: leave.StatusApproved, StartDate: day(2025, 6, 2), EndDate: day(2025, 6, 2)},
		},
	}
	payrollSrc := &fakePayroll{records: []payroll.Record{
		{ID: "p1", EmployeeID: "e-ana", Year: 2025, Month: 4, NetSalary: decimal.NewFromInt(2900000), PaymentStatus: payroll.PaymentPaid},
		{ID: "p2", EmployeeID: "e-ana", Year: 2025, Month: 5, NetSalary: decimal.NewFromInt(3100000), PaymentStatus: payroll.PaymentPending},
		{ID: "p3", EmployeeID: "e-ben", Year: 2025, Month: 5, NetSalary: decimal.NewFromInt(2500000), PaymentStatus: payroll.PaymentPaid},
	}}
	svc := NewService(leaveSrc, payrollSrc, fakeInbox(2))
	svc.Now = func() time.Time { return time.Date(2025, 5, 13, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestEmployeeDashboard(t *testing.T) {
	out, err := newTestService().Employee(context.Background(), ana)
	require.NoError(t, err)
	assert.Equal(t, 2025, out.Year)
	assert.Equal(t, 14.0, out.RemainingDays)
	assert.Equal(t, 1, out.PendingLeave)
	assert.Equal(t, 2, out.PayslipCount)
	require.NotNil(t, out.LatestPayslip)
	assert.Equal(t, "p2", out.LatestPayslip.RecordID)
	assert.Equal(t, 2, out.UnreadNotices)
}

func TestManagerDashboardExcludesOwnRequests(t *testing.T) {
	out, err := newTestService().Manager(context.Background(), mgr)
	require.NoError(t, err)
	assert.Equal(t, 1, out.PendingApprovals)
	assert.Equal(t, 1, out.PendingCancellations)
	assert.Equal(t, 1, out.TeamOnLeaveToday)

	_, err = newTestService().Manager(context.Background(), ana)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestHRDashboard(t *testing.T) {
	out, err := newTestService().HR(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 2, out.LeavePending)
	assert.Equal(t, 1, out.CancellationsPending)
	assert.Equal(t, 5, out.PayrollMonth)
	assert.Equal(t, 2, out.PayrollRecords)
	assert.Equal(t, 1, out.PayrollUnpaid)
	assert.True(t, out.PayrollNetTotal.Equal(decimal.NewFromInt(5600000)))

	_, err = newTestService().HR(context.Background(), mgr)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}
