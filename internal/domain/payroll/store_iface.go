package payroll

import "context"

type StoreAPI interface {
	// UpsertRecord writes rec keyed by (employee, year, month), keeping the
	// existing ID and payment status when the period already has a record.
	UpsertRecord(ctx context.Context, rec Record) (Record, error)
	GetRecord(ctx context.Context, id string) (Record, error)
	ListMonth(ctx context.Context, year, month int) ([]Record, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]Record, error)
	EmployeesWithRecords(ctx context.Context, year, month int) ([]string, error)
	// UpdateRecord applies fn to the locked record and stores the result.
	UpdateRecord(ctx context.Context, id string, fn func(*Record) error) (Record, error)
}
