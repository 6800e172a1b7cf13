package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hrdesk/internal/domain/audit"
	"hrdesk/internal/domain/auth"
	"hrdesk/internal/domain/core"
	"hrdesk/internal/platform/apperr"
)

// Upsert writes one record directly, replacing the employee's record for
// the same period.
func (s *Service) Upsert(ctx context.Context, actor auth.Principal, rec Record) (Record, error) {
	if !auth.Can(actor, auth.ActPayrollAdjust, auth.Resource{}) {
		return Record{}, apperr.Forbidden(ErrForbidden)
	}
	if err := validatePeriod(rec.Year, rec.Month); err != nil {
		return Record{}, err
	}
	rec.EmployeeID = strings.TrimSpace(rec.EmployeeID)
	if _, err := s.Directory.GetEmployee(ctx, rec.EmployeeID); err != nil {
		if errors.Is(err, core.ErrEmployeeNotFound) {
			return Record{}, apperr.Validation(fmt.Errorf("%w: %q", ErrUnknownEmployee, rec.EmployeeID))
		}
		return Record{}, err
	}
	if rec.PaymentStatus != "" && !rec.PaymentStatus.Valid() {
		return Record{}, apperr.Validation(fmt.Errorf("%w: unknown payment status %q", ErrInvalidDelta, rec.PaymentStatus))
	}
	rec.ID = ""
	rec.CreatedBy = actor.UserID
	saved, err := s.upsert(ctx, rec, s.Now().UTC())
	if err != nil {
		return Record{}, err
	}
	s.Audit.Record(ctx, actor, audit.ActionPayrollUpsert, audit.EntityPayrollRecord, saved.ID, nil, saved)
	s.announce(ctx, saved)
	return saved, nil
}

func (s *Service) Get(ctx context.Context, actor auth.Principal, id string) (Record, error) {
	rec, err := s.Store.GetRecord(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		return Record{}, apperr.NotFound(err)
	}
	if err != nil {
		return Record{}, err
	}
	res, err := s.resource(ctx, rec.EmployeeID)
	if err != nil {
		return Record{}, err
	}
	if !auth.Can(actor, auth.ActPayrollRead, res) {
		return Record{}, apperr.Forbidden(ErrForbidden)
	}
	return s.withNames(ctx, rec), nil
}

// ListMonth returns every record of a period with employee name and department.
func (s *Service) ListMonth(ctx context.Context, actor auth.Principal, year, month int) ([]Record, error) {
	if !auth.Can(actor, auth.ActPayrollRead, auth.Resource{}) {
		return nil, apperr.Forbidden(ErrForbidden)
	}
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}
	records, err := s.Store.ListMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return s.fillNames(ctx, records)
}

func (s *Service) History(ctx context.Context, actor auth.Principal, employeeID string) ([]Record, error) {
	res, err := s.resource(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !auth.Can(actor, auth.ActPayrollRead, res) {
		return nil, apperr.Forbidden(ErrForbidden)
	}
	records, err := s.Store.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.fillNames(ctx, records)
}

// Adjust applies an additive correction and recomputes the totals.
func (s *Service) Adjust(ctx context.Context, actor auth.Principal, id string, d Delta) (Record, error) {
	if !auth.Can(actor, auth.ActPayrollAdjust, auth.Resource{}) {
		return Record{}, apperr.Forbidden(ErrForbidden)
	}
	if d.PaymentStatus != nil && !d.PaymentStatus.Valid() {
		return Record{}, apperr.Validation(fmt.Errorf("%w: unknown payment status %q", ErrInvalidDelta, *d.PaymentStatus))
	}
	if d.BaseSalary.IsZero() && len(d.Allowances) == 0 && len(d.Deductions) == 0 && d.PaymentStatus == nil {
		return Record{}, apperr.Validation(fmt.Errorf("%w: nothing to change", ErrInvalidDelta))
	}
	now := s.Now().UTC()
	var before Record
	rec, err := s.Store.UpdateRecord(ctx, id, func(rec *Record) error {
		before = *rec
		before.Allowances = rec.Allowances.Clone()
		before.Deductions = rec.Deductions.Clone()
		rec.Apply(d)
		rec.UpdatedAt = now
		return nil
	})
	if errors.Is(err, ErrRecordNotFound) {
		return Record{}, apperr.NotFound(err)
	}
	if err != nil {
		return Record{}, err
	}
	s.Audit.Record(ctx, actor, audit.ActionPayrollAdjust, audit.EntityPayrollRecord, rec.ID, before, rec)
	return s.withNames(ctx, rec), nil
}

// Payslip renders one record as a PDF.
func (s *Service) Payslip(ctx context.Context, actor auth.Principal, id string) ([]byte, Record, error) {
	rec, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, Record{}, err
	}
	pdf, err := RenderPayslip(rec)
	if err != nil {
		return nil, Record{}, err
	}
	return pdf, rec, nil
}

func (s *Service) withNames(ctx context.Context, rec Record) Record {
	if rec.EmployeeName != "" {
		return rec
	}
	if emp, err := s.Directory.GetEmployee(ctx, rec.EmployeeID); err == nil {
		rec.EmployeeName = emp.Name
		rec.Department = emp.Department
	}
	return rec
}

// fillNames attaches directory names where the store could not join them.
func (s *Service) fillNames(ctx context.Context, records []Record) ([]Record, error) {
	missing := false
	for _, rec := range records {
		if rec.EmployeeName == "" {
			missing = true
			break
		}
	}
	if !missing {
		return records, nil
	}
	employees, err := s.Directory.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]core.Employee, len(employees))
	for _, emp := range employees {
		byID[emp.ID] = emp
	}
	for i := range records {
		if emp, ok := byID[records[i].EmployeeID]; ok && records[i].EmployeeName == "" {
			records[i].EmployeeName = emp.Name
			records[i].Department = emp.Department
		}
	}
	return records, nil
}
