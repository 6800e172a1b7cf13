package payroll

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentOnHold    PaymentStatus = "on_hold"
	PaymentCancelled PaymentStatus = "cancelled"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentOnHold, PaymentCancelled:
		return true
	}
	return false
}

// Allowance components.
const (
	AllowanceOvertime          = "overtime"
	AllowanceHoliday           = "holiday"
	AllowanceAnnualLeave       = "annual_leave"
	AllowanceNightShift        = "night_shift"
	AllowanceVariableIncentive = "variable_incentive"
	AllowanceBonusReward       = "bonus_reward"
	AllowanceRetroactive       = "retroactive"
)

// Deduction components.
const (
	DeductionNationalPension     = "national_pension"
	DeductionHealthInsurance     = "health_insurance"
	DeductionLongTermCare        = "long_term_care"
	DeductionEmploymentInsurance = "employment_insurance"
	DeductionIncomeTax           = "income_tax"
	DeductionLocalIncomeTax      = "local_income_tax"
)

const (
	MatchMatched   MatchStatus = "matched"
	MatchUnmatched MatchStatus = "unmatched"
)

const (
	StatusValid     ValidationStatus = "valid"
	StatusWarning   ValidationStatus = "warning"
	StatusDuplicate ValidationStatus = "duplicate"
	StatusInvalid   ValidationStatus = "invalid"
)

const (
	IssueError   IssueLevel = "error"
	IssueWarning IssueLevel = "warning"
)

// Issue codes attached to parsed rows.
const (
	IssueBadCell         = "bad_cell"
	IssueMissingIdentity = "missing_identity"
	IssueBadHireDate     = "bad_hire_date"
	IssueUnmatched       = "unmatched_employee"
	IssueAmbiguousName   = "ambiguous_name"
	IssueNameMismatch    = "name_mismatch"
	IssueUnknownID       = "unknown_employee_id"
	IssueNegativeNet     = "negative_net"
	IssueZeroBase        = "zero_base_salary"
	IssueDuplicatePeriod = "duplicate_period"
	IssueDuplicateInFile = "duplicate_in_file"
)

const (
	ActionAccept      Action = "accept"
	ActionSkip        Action = "skip"
	ActionManualMatch Action = "manualMatch"
)

const (
	RowSaved   RowStatus = "saved"
	RowSkipped RowStatus = "skipped"
	RowError   RowStatus = "error"
)
