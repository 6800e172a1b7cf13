package leave

import (
	"encoding/json"
	"time"
)

type Status string

// Policy is one immutable version of the leave rules.
type Policy struct {
	Version                    int       `json:"version"`
	AdvanceNoticeRequiredDays  int       `json:"advanceNoticeRequiredDays"`
	MaxConsecutiveDays         int       `json:"maxConsecutiveDays"`
	MaxPendingRequests         int       `json:"maxPendingRequests"`
	SaturdayWorkingDays        float64   `json:"saturdayWorkingDays"`
	SundayWorkingDays          float64   `json:"sundayWorkingDays"`
	DefaultMaxConcurrentLeaves int       `json:"defaultMaxConcurrentLeaves"`
	MaxCarryOverDays           *float64  `json:"maxCarryOverDays,omitempty"`
	EffectiveAt                time.Time `json:"effectiveAt"`
	UpdatedBy                  string    `json:"updatedBy,omitempty"`
}

// Balance is one employee's ledger for one calendar year.
type Balance struct {
	EmployeeID           string     `json:"employeeId"`
	Year                 int        `json:"year"`
	TotalEntitlement     float64    `json:"totalEntitlement"`
	UsedDays             float64    `json:"usedDays"`
	CarryOverDays        float64    `json:"carryOverDays"`
	CarryOverProcessedAt *time.Time `json:"carryOverProcessedAt,omitempty"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// Remaining is always derived, never stored.
func (b Balance) Remaining() float64 {
	return b.TotalEntitlement + b.CarryOverDays - b.UsedDays
}

func (b Balance) MarshalJSON() ([]byte, error) {
	type plain Balance
	return json.Marshal(struct {
		plain
		RemainingDays float64 `json:"remainingDays"`
	}{plain: plain(b), RemainingDays: b.Remaining()})
}

type Request struct {
	ID                 string     `json:"id"`
	EmployeeID         string     `json:"employeeId"`
	LeaveType          string     `json:"leaveType"`
	StartDate          time.Time  `json:"startDate"`
	EndDate            time.Time  `json:"endDate"`
	StartHalf          bool       `json:"startHalf"`
	EndHalf            bool       `json:"endHalf"`
	DaysCount          float64    `json:"daysCount"`
	Reason             string     `json:"reason"`
	Status             Status     `json:"status"`
	PolicyVersion      int        `json:"policyVersion"`
	ApproverID         string     `json:"approverId,omitempty"`
	DecisionComment    string     `json:"decisionComment,omitempty"`
	DecidedAt          *time.Time `json:"decidedAt,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Covers reports whether the request spans day.
func (r Request) Covers(day time.Time) bool {
	return !day.Before(r.StartDate) && !day.After(r.EndDate)
}

// Exception overrides the concurrent-leave cap for one date.
type Exception struct {
	Date                time.Time `json:"date"`
	MaxConcurrentLeaves int       `json:"maxConcurrentLeaves"`
	Reason              string    `json:"reason"`
	CreatedBy           string    `json:"createdBy,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

type AdjustmentKind string

type Adjustment struct {
	ID         string         `json:"id"`
	EmployeeID string         `json:"employeeId"`
	Year       int            `json:"year"`
	Kind       AdjustmentKind `json:"kind"`
	Amount     float64        `json:"amount"`
	Reason     string         `json:"reason"`
	CreatedBy  string         `json:"createdBy"`
	CreatedAt  time.Time      `json:"createdAt"`
}

type SubmitInput struct {
	EmployeeID string
	LeaveType  string
	StartDate  time.Time
	EndDate    time.Time
	StartHalf  bool
	EndHalf    bool
	Reason     string
}

type Decision struct {
	Approve bool
	Comment string
}

// RequestFilter scopes a listing. A nil EmployeeIDs means every employee.
type RequestFilter struct {
	EmployeeIDs []string
	Status      Status
	Limit       int
	Offset      int
}

type RequestListResult struct {
	Requests []Request `json:"requests"`
	Total    int       `json:"total"`
}

// Transition is one state change applied atomically by the store, together
// with its balance effect.
type Transition struct {
	RequestID          string
	From               Status
	To                 Status
	ActorID            string
	Comment            string
	CancellationReason string
	Decided            bool
	// UsedDelta is added to usedDays of the request's balance year.
	UsedDelta float64
	// RequireRemaining rejects the transition when remaining < UsedDelta.
	RequireRemaining bool
	At               time.Time
}

type CarryOverOp struct {
	EmployeeID   string
	FromYear     int
	Cap          *float64
	Target       Balance
	AdjustmentID string
	ActorID      string
	At           time.Time
}

type CarryOverSummary struct {
	Year            int      `json:"year"`
	Processed       int      `json:"processed"`
	Skipped         int      `json:"skipped"`
	CreditedDays    float64  `json:"creditedDays"`
	FailedEmployees []string `json:"failedEmployees,omitempty"`
}
