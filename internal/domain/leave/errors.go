package leave

import "errors"

var (
	ErrInvalidDateRange      = errors.New("leave: end date before start date")
	ErrInvalidHalfDay        = errors.New("leave: invalid half-day range")
	ErrUnknownLeaveType      = errors.New("leave: unknown leave type")
	ErrNoWorkingDays         = errors.New("leave: request covers no working days")
	ErrExceedsMaxConsecutive = errors.New("leave: request exceeds max consecutive days")
	ErrAdvanceNotice         = errors.New("leave: advance notice not met")
	ErrTooManyPending        = errors.New("leave: too many pending requests")
	ErrInsufficientBalance   = errors.New("leave: insufficient balance")
	ErrConcurrencyExceeded   = errors.New("leave: concurrent leave cap reached")
	ErrInvalidPolicy         = errors.New("leave: invalid policy")
	ErrInvalidTransition     = errors.New("leave: invalid state transition")
	ErrRequestNotFound       = errors.New("leave: request not found")
	ErrBalanceNotFound       = errors.New("leave: balance not found")
	ErrExceptionNotFound     = errors.New("leave: exception not found")
	ErrExceptionExists       = errors.New("leave: exception already exists for date")
	ErrInvalidAdjustment     = errors.New("leave: invalid balance adjustment")
	ErrMissingHireDate       = errors.New("leave: employee has no hire date")
	ErrCarryOverProcessed    = errors.New("leave: carry-over already processed")
	ErrPolicyNotFound        = errors.New("leave: no policy stored")
	ErrForbidden             = errors.New("leave: forbidden")
	ErrStaleRequest          = errors.New("leave: request status changed concurrently")
)
