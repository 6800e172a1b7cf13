package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	PaymentStatus    string
	MatchStatus      string
	ValidationStatus string
	IssueLevel       string
	Action           string
	RowStatus        string
)

// Components maps a pay component name to its amount.
type Components map[string]decimal.Decimal

// Record is one employee's pay for one month. At most one exists per
// (EmployeeID, Year, Month).
type Record struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employeeId"`
	EmployeeName    string          `json:"employeeName,omitempty"`
	Department      string          `json:"department,omitempty"`
	Year            int             `json:"year"`
	Month           int             `json:"month"`
	BaseSalary      decimal.Decimal `json:"baseSalary"`
	Allowances      Components      `json:"allowances"`
	Deductions      Components      `json:"deductions"`
	TotalAllowances decimal.Decimal `json:"totalAllowances"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	NetSalary       decimal.Decimal `json:"netSalary"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	SourceFile      string          `json:"sourceFile,omitempty"`
	CreatedBy       string          `json:"createdBy,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type Issue struct {
	Level   IssueLevel `json:"level"`
	Code    string     `json:"code"`
	Message string     `json:"message"`
}

// ParsedRecord is one employee pair read from an upload, before commit.
type ParsedRecord struct {
	RowNumber          int              `json:"rowNumber"`
	IncentiveRowNumber int              `json:"incentiveRowNumber,omitempty"`
	Sequence           string           `json:"sequence,omitempty"`
	EmployeeCode       string           `json:"employeeCode"`
	Name               string           `json:"name"`
	NationalIDMasked   string           `json:"nationalIdMasked,omitempty"`
	HireDate           *time.Time       `json:"hireDate,omitempty"`
	BaseSalary         decimal.Decimal  `json:"baseSalary"`
	Allowances         Components       `json:"allowances"`
	Deductions         Components       `json:"deductions"`
	TotalAllowances    decimal.Decimal  `json:"totalAllowances"`
	TotalDeductions    decimal.Decimal  `json:"totalDeductions"`
	NetSalary          decimal.Decimal  `json:"netSalary"`
	MatchStatus        MatchStatus      `json:"matchStatus"`
	ResolvedEmployeeID *string          `json:"resolvedEmployeeId"`
	MatchedBy          string           `json:"matchedBy,omitempty"`
	ValidationStatus   ValidationStatus `json:"validationStatus"`
	Issues             []Issue          `json:"issues,omitempty"`
}

func (r *ParsedRecord) addIssue(level IssueLevel, code, message string) {
	r.Issues = append(r.Issues, Issue{Level: level, Code: code, Message: message})
}

func (r ParsedRecord) hasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Level == IssueError {
			return true
		}
	}
	return false
}

func (r ParsedRecord) hasWarnings() bool {
	for _, issue := range r.Issues {
		if issue.Level == IssueWarning {
			return true
		}
	}
	return false
}

type Summary struct {
	Total     int `json:"total"`
	Valid     int `json:"valid"`
	Warning   int `json:"warning"`
	Duplicate int `json:"duplicate"`
	Invalid   int `json:"invalid"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
}

type PreviewResult struct {
	Token     string         `json:"token"`
	Year      int            `json:"year"`
	Month     int            `json:"month"`
	FileName  string         `json:"fileName,omitempty"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Records   []ParsedRecord `json:"records"`
	Summary   Summary        `json:"summary"`
}

// RecordAction overrides the default commit decision for one row.
type RecordAction struct {
	RowNumber  int    `json:"rowNumber"`
	Action     Action `json:"action"`
	EmployeeID string `json:"employeeId,omitempty"`
}

type RowResult struct {
	RowNumber  int       `json:"rowNumber"`
	Status     RowStatus `json:"status"`
	EmployeeID string    `json:"employeeId,omitempty"`
	RecordID   string    `json:"recordId,omitempty"`
	Message    string    `json:"message,omitempty"`
}

type ConfirmResult struct {
	Year    int         `json:"year"`
	Month   int         `json:"month"`
	Saved   int         `json:"saved"`
	Skipped int         `json:"skipped"`
	Failed  int         `json:"failed"`
	Results []RowResult `json:"results"`
}

// Delta is an additive correction to a stored record.
type Delta struct {
	BaseSalary    decimal.Decimal `json:"baseSalary"`
	Allowances    Components      `json:"allowances"`
	Deductions    Components      `json:"deductions"`
	PaymentStatus *PaymentStatus  `json:"paymentStatus,omitempty"`
}
