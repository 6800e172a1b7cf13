package leave

const (
	StatusPending             Status = "pending"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
	StatusCancelled           Status = "cancelled"
	StatusCancellationPending Status = "cancellation_pending"
)

const (
	AdjustAdd         AdjustmentKind = "add"
	AdjustSubtract    AdjustmentKind = "subtract"
	AdjustCarryOver   AdjustmentKind = "carry_over"
	AdjustCancelUsage AdjustmentKind = "cancel_usage"
)

const (
	TypeAnnual      = "annual"
	TypeSick        = "sick"
	TypePersonal    = "personal"
	TypeFamilyEvent = "family_event"
	TypeUnpaid      = "unpaid"
)

// TypeRule controls how a leave type is counted and validated.
type TypeRule struct {
	Code            string `json:"code"`
	DeductsBalance  bool   `json:"deductsBalance"`
	NoticeExempt    bool   `json:"noticeExempt"`
	ExcludeWeekends bool   `json:"excludeWeekends"`
}

var typeRules = map[string]TypeRule{
	TypeAnnual:      {Code: TypeAnnual, DeductsBalance: true},
	TypeSick:        {Code: TypeSick, NoticeExempt: true, ExcludeWeekends: true},
	TypePersonal:    {Code: TypePersonal, DeductsBalance: true},
	TypeFamilyEvent: {Code: TypeFamilyEvent, ExcludeWeekends: true},
	TypeUnpaid:      {Code: TypeUnpaid},
}

func LookupType(code string) (TypeRule, bool) {
	rule, ok := typeRules[code]
	return rule, ok
}

func Types() []TypeRule {
	return []TypeRule{
		typeRules[TypeAnnual],
		typeRules[TypeSick],
		typeRules[TypePersonal],
		typeRules[TypeFamilyEvent],
		typeRules[TypeUnpaid],
	}
}

// activeStatuses occupy a slot for concurrency purposes.
var activeStatuses = []Status{StatusPending, StatusApproved, StatusCancellationPending}
