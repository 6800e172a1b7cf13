package notifications

const (
	TypeLeaveSubmitted             = "leave_submitted"
	TypeLeaveApproved              = "leave_approved"
	TypeLeaveRejected              = "leave_rejected"
	TypeLeaveCancellationRequested = "leave_cancellation_requested"
	TypeLeaveCancelled             = "leave_cancelled"
	TypeLeaveCancellationRejected  = "leave_cancellation_rejected"
	TypePayslipPublished           = "payslip_published"
)
