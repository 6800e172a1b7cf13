package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hrdesk/internal/platform/db"
)

type Store struct {
	DB db.Queryer
	Tx *db.TxManager
}

func NewStore(pool db.Queryer, tx *db.TxManager) *Store {
	return &Store{DB: pool, Tx: tx}
}

func (s *Store) q(ctx context.Context) db.Queryer {
	return db.QueryerFromContext(ctx, s.DB)
}

const recordColumns = `r.id, r.employee_id, COALESCE(e.name, ''), COALESCE(e.department, ''), r.year, r.month,
  r.base_salary, r.allowances, r.deductions, r.total_allowances, r.total_deductions, r.net_salary,
  r.payment_status, r.source_file, r.created_by, r.created_at, r.updated_at`

const recordFrom = ` FROM payroll_records r LEFT JOIN employees e ON e.id = r.employee_id`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var allowances, deductions []byte
	var status string
	if err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.EmployeeName, &rec.Department, &rec.Year, &rec.Month,
		&rec.BaseSalary, &allowances, &deductions, &rec.TotalAllowances, &rec.TotalDeductions, &rec.NetSalary,
		&status, &rec.SourceFile, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	rec.PaymentStatus = PaymentStatus(status)
	if err := decodeComponents(allowances, &rec.Allowances); err != nil {
		return Record{}, fmt.Errorf("allowances: %w", err)
	}
	if err := decodeComponents(deductions, &rec.Deductions); err != nil {
		return Record{}, fmt.Errorf("deductions: %w", err)
	}
	return rec, nil
}

func decodeComponents(raw []byte, dst *Components) error {
	*dst = Components{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func encodeComponents(c Components) ([]byte, error) {
	if c == nil {
		c = Components{}
	}
	return json.Marshal(c)
}

func (s *Store) UpsertRecord(ctx context.Context, rec Record) (Record, error) {
	allowances, err := encodeComponents(rec.Allowances)
	if err != nil {
		return Record{}, err
	}
	deductions, err := encodeComponents(rec.Deductions)
	if err != nil {
		return Record{}, err
	}
	var status string
	err = s.q(ctx).QueryRow(ctx, `
    INSERT INTO payroll_records (id, employee_id, year, month, base_salary, allowances, deductions,
      total_allowances, total_deductions, net_salary, payment_status, source_file, created_by, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
    ON CONFLICT (employee_id, year, month) DO UPDATE SET
      base_salary = EXCLUDED.base_salary,
      allowances = EXCLUDED.allowances,
      deductions = EXCLUDED.deductions,
      total_allowances = EXCLUDED.total_allowances,
      total_deductions = EXCLUDED.total_deductions,
      net_salary = EXCLUDED.net_salary,
      source_file = EXCLUDED.source_file,
      updated_at = EXCLUDED.updated_at
    RETURNING id, payment_status, created_by, created_at, updated_at
  `, rec.ID, rec.EmployeeID, rec.Year, rec.Month, rec.BaseSalary, allowances, deductions,
		rec.TotalAllowances, rec.TotalDeductions, rec.NetSalary, string(rec.PaymentStatus), rec.SourceFile, rec.CreatedBy,
		rec.CreatedAt, rec.UpdatedAt).Scan(&rec.ID, &status, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	rec.PaymentStatus = PaymentStatus(status)
	return rec, nil
}

func (s *Store) GetRecord(ctx context.Context, id string) (Record, error) {
	return s.getRecord(ctx, id, false)
}

func (s *Store) getRecord(ctx context.Context, id string, forUpdate bool) (Record, error) {
	query := `SELECT ` + recordColumns + recordFrom + ` WHERE r.id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF r`
	}
	rec, err := scanRecord(s.q(ctx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return rec, err
}

func (s *Store) listRecords(ctx context.Context, where string, args ...any) ([]Record, error) {
	rows, err := s.q(ctx).Query(ctx, `SELECT `+recordColumns+recordFrom+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) ListMonth(ctx context.Context, year, month int) ([]Record, error) {
	return s.listRecords(ctx, ` WHERE r.year = $1 AND r.month = $2 ORDER BY e.department, e.name, r.employee_id`, year, month)
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string) ([]Record, error) {
	return s.listRecords(ctx, ` WHERE r.employee_id = $1 ORDER BY r.year DESC, r.month DESC`, employeeID)
}

func (s *Store) EmployeesWithRecords(ctx context.Context, year, month int) ([]string, error) {
	rows, err := s.q(ctx).Query(ctx, `
    SELECT employee_id FROM payroll_records WHERE year = $1 AND month = $2
  `, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) UpdateRecord(ctx context.Context, id string, fn func(*Record) error) (Record, error) {
	var out Record
	err := s.Tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		rec, err := s.getRecord(ctx, id, true)
		if err != nil {
			return err
		}
		if err := fn(&rec); err != nil {
			return err
		}
		allowances, err := encodeComponents(rec.Allowances)
		if err != nil {
			return err
		}
		deductions, err := encodeComponents(rec.Deductions)
		if err != nil {
			return err
		}
		if _, err := s.q(ctx).Exec(ctx, `
      UPDATE payroll_records
      SET base_salary = $2, allowances = $3, deductions = $4, total_allowances = $5, total_deductions = $6,
          net_salary = $7, payment_status = $8, updated_at = $9
      WHERE id = $1
    `, rec.ID, rec.BaseSalary, allowances, deductions, rec.TotalAllowances, rec.TotalDeductions,
			rec.NetSalary, string(rec.PaymentStatus), rec.UpdatedAt); err != nil {
			return err
		}
		out = rec
		return nil
	})
	return out, err
}
