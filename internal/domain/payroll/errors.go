package payroll

import "errors"

var (
	ErrFormat          = errors.New("payroll: spreadsheet does not match the expected layout")
	ErrRecordNotFound  = errors.New("payroll: record not found")
	ErrSessionExpired  = errors.New("payroll: session expired")
	ErrInvalidPeriod   = errors.New("payroll: invalid year or month")
	ErrInvalidAction   = errors.New("payroll: invalid record action")
	ErrInvalidDelta    = errors.New("payroll: invalid adjustment")
	ErrForbidden       = errors.New("payroll: forbidden")
	ErrEmptyUpload     = errors.New("payroll: uploaded file is empty")
	ErrUnknownEmployee = errors.New("payroll: unknown employee")
)
