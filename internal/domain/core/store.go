package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"hrdesk/internal/domain/auth"
	"hrdesk/internal/platform/db"
)

type Store struct {
	DB db.Queryer
}

func NewStore(pool db.Queryer) *Store {
	return &Store{DB: pool}
}

const employeeColumns = `id, COALESCE(employee_number, ''), name, department, role, COALESCE(manager_id, ''), hire_date, active, created_at, updated_at`

func (s *Store) GetEmployee(ctx context.Context, id string) (Employee, error) {
	row := db.QueryerFromContext(ctx, s.DB).QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE id = $1
  `, id)
	emp, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, err
}

func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := db.QueryerFromContext(ctx, s.DB).Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE active
    ORDER BY name, id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) UpsertEmployee(ctx context.Context, emp Employee) error {
	_, err := db.QueryerFromContext(ctx, s.DB).Exec(ctx, `
    INSERT INTO employees (id, employee_number, name, department, role, manager_id, hire_date, active)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    ON CONFLICT (id) DO UPDATE SET
      employee_number = EXCLUDED.employee_number,
      name = EXCLUDED.name,
      department = EXCLUDED.department,
      role = EXCLUDED.role,
      manager_id = EXCLUDED.manager_id,
      hire_date = EXCLUDED.hire_date,
      active = EXCLUDED.active,
      updated_at = now()
  `, emp.ID, nullIfEmpty(emp.EmployeeNumber), emp.Name, emp.Department, string(emp.Role), nullIfEmpty(emp.ManagerID), emp.HireDate, emp.Active)
	return err
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	var role string
	var hire *time.Time
	if err := row.Scan(&emp.ID, &emp.EmployeeNumber, &emp.Name, &emp.Department, &role, &emp.ManagerID, &hire, &emp.Active, &emp.CreatedAt, &emp.UpdatedAt); err != nil {
		return Employee{}, err
	}
	emp.Role = auth.Role(role)
	emp.HireDate = hire
	return emp, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
