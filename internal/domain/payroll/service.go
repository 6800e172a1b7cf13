package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hrdesk/internal/domain/audit"
	"hrdesk/internal/domain/auth"
	"hrdesk/internal/domain/core"
	"hrdesk/internal/domain/notifications"
	"hrdesk/internal/platform/apperr"
)

// Directory is the employee lookup payroll needs for matching and display.
type Directory interface {
	GetEmployee(ctx context.Context, id string) (core.Employee, error)
	ListEmployees(ctx context.Context) ([]core.Employee, error)
}

// Recorder receives upload outcomes for metrics.
type Recorder interface {
	RecordPayrollPreview(records, invalid int)
	RecordPayrollConfirm(saved, skipped, failed int)
}

type Service struct {
	Store     StoreAPI
	Directory Directory
	Sessions  *SessionStore
	Recorder  Recorder
	Audit     *audit.Trail
	Notifier  *notifications.Service
	Now       func() time.Time

	// DuplicatesRequireOptIn leaves duplicate rows out of the default
	// commit set; they are then saved only with an explicit accept.
	DuplicatesRequireOptIn bool
}

func NewService(store StoreAPI, directory Directory, sessions *SessionStore) *Service {
	return &Service{Store: store, Directory: directory, Sessions: sessions, Now: time.Now}
}

func validatePeriod(year, month int) error {
	if year < 2000 || year > 2100 || month < 1 || month > 12 {
		return apperr.Validation(fmt.Errorf("%w: %d-%02d", ErrInvalidPeriod, year, month))
	}
	return nil
}

// resource describes the owner of an employee's payroll data. Records for
// employees no longer in the directory are owned by their ID alone.
func (s *Service) resource(ctx context.Context, employeeID string) (auth.Resource, error) {
	emp, err := s.Directory.GetEmployee(ctx, employeeID)
	if errors.Is(err, core.ErrEmployeeNotFound) {
		return auth.Resource{OwnerEmployeeID: employeeID}, nil
	}
	if err != nil {
		return auth.Resource{}, err
	}
	return auth.Resource{OwnerEmployeeID: emp.ID, OwnerManagerID: emp.ManagerID}, nil
}

func ownSession(actor auth.Principal, sess Session) error {
	if sess.OwnerID == actor.UserID || actor.Role == auth.RoleAdmin {
		return nil
	}
	return apperr.Forbidden(ErrForbidden)
}

func sessionError(err error) error {
	if errors.Is(err, ErrSessionExpired) {
		return apperr.Conflict(err)
	}
	return err
}

func (s *Service) announce(ctx context.Context, rec Record) {
	s.Notifier.Send(ctx, rec.EmployeeID, notifications.TypePayslipPublished,
		fmt.Sprintf("Payslip for %d-%02d is available", rec.Year, rec.Month),
		"Net salary "+rec.NetSalary.StringFixed(0))
}
