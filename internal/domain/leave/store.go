package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hrdesk/internal/platform/db"
)

// Store is the Postgres implementation of StoreAPI. Writes that touch more
// than one row run inside Tx.
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

const policyColumns = `version, advance_notice_required_days, max_consecutive_days, max_pending_requests,
  saturday_working_days, sunday_working_days, default_max_concurrent_leaves, max_carry_over_days,
  effective_at, updated_by`

func scanPolicy(row pgx.Row) (Policy, error) {
	var p Policy
	err := row.Scan(&p.Version, &p.AdvanceNoticeRequiredDays, &p.MaxConsecutiveDays, &p.MaxPendingRequests,
		&p.SaturdayWorkingDays, &p.SundayWorkingDays, &p.DefaultMaxConcurrentLeaves, &p.MaxCarryOverDays,
		&p.EffectiveAt, &p.UpdatedBy)
	return p, err
}

func (s *Store) ActivePolicy(ctx context.Context) (Policy, error) {
	p, err := scanPolicy(s.q(ctx).QueryRow(ctx, `
    SELECT `+policyColumns+`
    FROM leave_policies
    ORDER BY version DESC
    LIMIT 1
  `))
	if errors.Is(err, pgx.ErrNoRows) {
		return Policy{}, ErrPolicyNotFound
	}
	return p, err
}

func (s *Store) InsertPolicy(ctx context.Context, p Policy) (Policy, error) {
	return scanPolicy(s.q(ctx).QueryRow(ctx, `
    INSERT INTO leave_policies (advance_notice_required_days, max_consecutive_days, max_pending_requests,
      saturday_working_days, sunday_working_days, default_max_concurrent_leaves, max_carry_over_days,
      effective_at, updated_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING `+policyColumns,
		p.AdvanceNoticeRequiredDays, p.MaxConsecutiveDays, p.MaxPendingRequests,
		p.SaturdayWorkingDays, p.SundayWorkingDays, p.DefaultMaxConcurrentLeaves, p.MaxCarryOverDays,
		p.EffectiveAt, p.UpdatedBy))
}

func (s *Store) PolicyHistory(ctx context.Context) ([]Policy, error) {
	rows, err := s.q(ctx).Query(ctx, `
    SELECT `+policyColumns+`
    FROM leave_policies
    ORDER BY version DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const balanceColumns = `employee_id, year, total_entitlement, used_days, carry_over_days, carry_over_processed_at, updated_at`

func scanBalance(row pgx.Row) (Balance, error) {
	var b Balance
	err := row.Scan(&b.EmployeeID, &b.Year, &b.TotalEntitlement, &b.UsedDays, &b.CarryOverDays, &b.CarryOverProcessedAt, &b.UpdatedAt)
	return b, err
}

func (s *Store) GetBalance(ctx context.Context, employeeID string, year int) (Balance, error) {
	return s.getBalance(ctx, employeeID, year, false)
}

func (s *Store) getBalance(ctx context.Context, employeeID string, year int, forUpdate bool) (Balance, error) {
	query := `
    SELECT ` + balanceColumns + `
    FROM leave_balances
    WHERE employee_id = $1 AND year = $2
  `
	if forUpdate {
		query += ` FOR UPDATE`
	}
	b, err := scanBalance(s.q(ctx).QueryRow(ctx, query, employeeID, year))
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, ErrBalanceNotFound
	}
	return b, err
}

func (s *Store) EnsureBalance(ctx context.Context, seed Balance) (Balance, error) {
	if _, err := s.q(ctx).Exec(ctx, `
    INSERT INTO leave_balances (employee_id, year, total_entitlement, used_days, carry_over_days, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (employee_id, year) DO NOTHING
  `, seed.EmployeeID, seed.Year, seed.TotalEntitlement, seed.UsedDays, seed.CarryOverDays, seed.UpdatedAt); err != nil {
		return Balance{}, err
	}
	return s.GetBalance(ctx, seed.EmployeeID, seed.Year)
}

func (s *Store) ApplyAdjustment(ctx context.Context, adj Adjustment) (Balance, error) {
	var out Balance
	err := s.Tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		b, err := s.getBalance(ctx, adj.EmployeeID, adj.Year, true)
		if err != nil {
			return err
		}
		b = applyAdjustment(b, adj)
		b.UpdatedAt = adj.CreatedAt
		if err := s.saveBalance(ctx, b); err != nil {
			return err
		}
		if err := s.insertAdjustment(ctx, adj); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

func (s *Store) saveBalance(ctx context.Context, b Balance) error {
	tag, err := s.q(ctx).Exec(ctx, `
    UPDATE leave_balances
    SET total_entitlement = $3, used_days = $4, carry_over_days = $5, carry_over_processed_at = $6, updated_at = $7
    WHERE employee_id = $1 AND year = $2
  `, b.EmployeeID, b.Year, b.TotalEntitlement, b.UsedDays, b.CarryOverDays, b.CarryOverProcessedAt, b.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBalanceNotFound
	}
	return nil
}

func (s *Store) insertAdjustment(ctx context.Context, adj Adjustment) error {
	_, err := s.q(ctx).Exec(ctx, `
    INSERT INTO leave_balance_adjustments (id, employee_id, year, kind, amount, reason, created_by, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, adj.ID, adj.EmployeeID, adj.Year, string(adj.Kind), adj.Amount, adj.Reason, adj.CreatedBy, adj.CreatedAt)
	return err
}

func (s *Store) ListAdjustments(ctx context.Context, employeeID string, year int) ([]Adjustment, error) {
	rows, err := s.q(ctx).Query(ctx, `
    SELECT id, employee_id, year, kind, amount, reason, created_by, created_at
    FROM leave_balance_adjustments
    WHERE employee_id = $1 AND year = $2
    ORDER BY created_at DESC
  `, employeeID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Adjustment
	for rows.Next() {
		var a Adjustment
		var kind string
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.Year, &kind, &a.Amount, &a.Reason, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Kind = AdjustmentKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

// CarryOver locks the source row so concurrent runs cannot credit twice.
func (s *Store) CarryOver(ctx context.Context, op CarryOverOp) (float64, bool, error) {
	var credited float64
	var applied bool
	err := s.Tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		src, err := s.getBalance(ctx, op.EmployeeID, op.FromYear, true)
		if err != nil {
			return err
		}
		if src.CarryOverProcessedAt != nil {
			return nil
		}
		amount := carryAmount(src.Remaining(), op.Cap)

		if _, err := s.q(ctx).Exec(ctx, `
      INSERT INTO leave_balances (employee_id, year, total_entitlement, used_days, carry_over_days, updated_at)
      VALUES ($1,$2,$3,0,$4,$5)
      ON CONFLICT (employee_id, year)
      DO UPDATE SET carry_over_days = leave_balances.carry_over_days + EXCLUDED.carry_over_days, updated_at = EXCLUDED.updated_at
    `, op.EmployeeID, op.FromYear+1, op.Target.TotalEntitlement, amount, op.At); err != nil {
			return fmt.Errorf("credit %d: %w", op.FromYear+1, err)
		}

		at := op.At
		src.CarryOverProcessedAt = &at
		src.UpdatedAt = op.At
		if err := s.saveBalance(ctx, src); err != nil {
			return err
		}
		if amount > 0 {
			if err := s.insertAdjustment(ctx, Adjustment{
				ID:         op.AdjustmentID,
				EmployeeID: op.EmployeeID,
				Year:       op.FromYear + 1,
				Kind:       AdjustCarryOver,
				Amount:     amount,
				Reason:     fmt.Sprintf("carried over from %d", op.FromYear),
				CreatedBy:  op.ActorID,
				CreatedAt:  op.At,
			}); err != nil {
				return err
			}
		}
		credited, applied = amount, true
		return nil
	})
	return credited, applied, err
}
