package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hrdesk/internal/domain/auth"
	"hrdesk/internal/platform/config"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) GetEmployee(ctx context.Context, id string) (Employee, error) {
	return s.Store.GetEmployee(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.Store.ListEmployees(ctx)
}

// ResourceFor describes an employee's data for capability checks.
func (s *Service) ResourceFor(ctx context.Context, employeeID string) (auth.Resource, error) {
	emp, err := s.Store.GetEmployee(ctx, employeeID)
	if err != nil {
		return auth.Resource{}, err
	}
	return auth.Resource{OwnerEmployeeID: emp.ID, OwnerManagerID: emp.ManagerID}, nil
}

// Seed loads configured employees, typically into the memory store.
func (s *Service) Seed(ctx context.Context, seed []config.SeedEmployee) error {
	for _, entry := range seed {
		emp, err := employeeFromSeed(entry)
		if err != nil {
			return err
		}
		if err := s.Store.UpsertEmployee(ctx, emp); err != nil {
			return fmt.Errorf("seed employee %s: %w", entry.ID, err)
		}
	}
	return nil
}

func employeeFromSeed(entry config.SeedEmployee) (Employee, error) {
	if strings.TrimSpace(entry.ID) == "" || strings.TrimSpace(entry.Name) == "" {
		return Employee{}, fmt.Errorf("%w: seed entries need id and name", ErrInvalidEmployee)
	}
	role := auth.Role(strings.ToLower(strings.TrimSpace(entry.Role)))
	if role == "" {
		role = auth.RoleUser
	}
	if !role.Valid() {
		return Employee{}, fmt.Errorf("%w: unknown role %q for %s", ErrInvalidEmployee, entry.Role, entry.ID)
	}
	emp := Employee{
		ID:             strings.TrimSpace(entry.ID),
		EmployeeNumber: strings.TrimSpace(entry.EmployeeNumber),
		Name:           strings.TrimSpace(entry.Name),
		Department:     strings.TrimSpace(entry.Department),
		Role:           role,
		ManagerID:      strings.TrimSpace(entry.ManagerID),
		Active:         true,
	}
	if raw := strings.TrimSpace(entry.HireDate); raw != "" {
		hire, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return Employee{}, errors.Join(ErrInvalidEmployee, fmt.Errorf("hire date for %s: %w", entry.ID, err))
		}
		emp.HireDate = &hire
	}
	return emp, nil
}
