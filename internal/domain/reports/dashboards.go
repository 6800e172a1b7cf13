package reports

import "github.com/shopspring/decimal"

type EmployeeDashboard struct {
	Year          int            `json:"year"`
	RemainingDays float64        `json:"remainingDays"`
	UsedDays      float64        `json:"usedDays"`
	PendingLeave  int            `json:"pendingLeave"`
	PayslipCount  int            `json:"payslipCount"`
	LatestPayslip *PayslipPeriod `json:"latestPayslip,omitempty"`
	UnreadNotices int            `json:"unreadNotices"`
}

type PayslipPeriod struct {
	RecordID  string          `json:"recordId"`
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	NetSalary decimal.Decimal `json:"netSalary"`
}

type ManagerDashboard struct {
	PendingApprovals     int `json:"pendingApprovals"`
	PendingCancellations int `json:"pendingCancellations"`
	TeamOnLeaveToday     int `json:"teamOnLeaveToday"`
}

type HRDashboard struct {
	LeavePending         int             `json:"leavePending"`
	CancellationsPending int             `json:"cancellationsPending"`
	PayrollYear          int             `json:"payrollYear"`
	PayrollMonth         int             `json:"payrollMonth"`
	PayrollRecords       int             `json:"payrollRecords"`
	PayrollUnpaid        int             `json:"payrollUnpaid"`
	PayrollNetTotal      decimal.Decimal `json:"payrollNetTotal"`
}
