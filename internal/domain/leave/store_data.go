package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const requestColumns = `id, employee_id, leave_type, start_date, end_date, start_half, end_half, days_count, reason,
  status, policy_version, approver_id, decision_comment, decided_at, cancellation_reason, created_at, updated_at`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	var status string
	err := row.Scan(&r.ID, &r.EmployeeID, &r.LeaveType, &r.StartDate, &r.EndDate, &r.StartHalf, &r.EndHalf, &r.DaysCount, &r.Reason,
		&status, &r.PolicyVersion, &r.ApproverID, &r.DecisionComment, &r.DecidedAt, &r.CancellationReason, &r.CreatedAt, &r.UpdatedAt)
	r.Status = Status(status)
	return r, err
}

func (s *Store) CreateRequest(ctx context.Context, req Request) (Request, error) {
	return scanRequest(s.q(ctx).QueryRow(ctx, `
    INSERT INTO leave_requests (id, employee_id, leave_type, start_date, end_date, start_half, end_half, days_count,
      reason, status, policy_version, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    RETURNING `+requestColumns,
		req.ID, req.EmployeeID, req.LeaveType, req.StartDate, req.EndDate, req.StartHalf, req.EndHalf, req.DaysCount,
		req.Reason, string(req.Status), req.PolicyVersion, req.CreatedAt, req.UpdatedAt))
}

func (s *Store) GetRequest(ctx context.Context, id string) (Request, error) {
	return s.getRequest(ctx, id, false)
}

func (s *Store) getRequest(ctx context.Context, id string, forUpdate bool) (Request, error) {
	query := `SELECT ` + requestColumns + ` FROM leave_requests WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	r, err := scanRequest(s.q(ctx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrRequestNotFound
	}
	return r, err
}

func (s *Store) ListRequests(ctx context.Context, filter RequestFilter) (RequestListResult, error) {
	where := " WHERE TRUE"
	var args []any
	if filter.EmployeeIDs != nil {
		args = append(args, filter.EmployeeIDs)
		where += fmt.Sprintf(" AND employee_id = ANY($%d)", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := s.q(ctx).QueryRow(ctx, "SELECT COUNT(*) FROM leave_requests"+where, args...).Scan(&total); err != nil {
		return RequestListResult{}, err
	}

	query := "SELECT " + requestColumns + " FROM leave_requests" + where + " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return RequestListResult{}, err
	}
	defer rows.Close()

	out := RequestListResult{Total: total}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return RequestListResult{}, err
		}
		out.Requests = append(out.Requests, r)
	}
	return out, rows.Err()
}

func (s *Store) CountPending(ctx context.Context, employeeID string) (int, error) {
	var count int
	err := s.q(ctx).QueryRow(ctx, `
    SELECT COUNT(*) FROM leave_requests WHERE employee_id = $1 AND status = $2
  `, employeeID, string(StatusPending)).Scan(&count)
	return count, err
}

func (s *Store) ListActiveOverlapping(ctx context.Context, start, end time.Time) ([]Request, error) {
	statuses := make([]string, 0, len(activeStatuses))
	for _, st := range activeStatuses {
		statuses = append(statuses, string(st))
	}
	rows, err := s.q(ctx).Query(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE status = ANY($1) AND start_date <= $3 AND end_date >= $2
  `, statuses, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ApplyTransition locks the request and, when a balance moves, the balance
// row, so a status change and its debit or credit commit together.
func (s *Store) ApplyTransition(ctx context.Context, t Transition) (Request, error) {
	var out Request
	err := s.Tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		req, err := s.getRequest(ctx, t.RequestID, true)
		if err != nil {
			return err
		}
		if req.Status != t.From {
			return ErrStaleRequest
		}
		if t.UsedDelta != 0 {
			b, err := s.getBalance(ctx, req.EmployeeID, req.StartDate.Year(), true)
			if err != nil {
				return err
			}
			if t.RequireRemaining && b.Remaining() < t.UsedDelta {
				return ErrInsufficientBalance
			}
			b.UsedDays += t.UsedDelta
			b.UpdatedAt = t.At
			if err := s.saveBalance(ctx, b); err != nil {
				return err
			}
		}

		req.Status = t.To
		req.UpdatedAt = t.At
		if t.Decided {
			at := t.At
			req.ApproverID = t.ActorID
			req.DecisionComment = t.Comment
			req.DecidedAt = &at
		}
		if t.CancellationReason != "" {
			req.CancellationReason = t.CancellationReason
		}
		if _, err := s.q(ctx).Exec(ctx, `
      UPDATE leave_requests
      SET status = $2, approver_id = $3, decision_comment = $4, decided_at = $5, cancellation_reason = $6, updated_at = $7
      WHERE id = $1
    `, req.ID, string(req.Status), req.ApproverID, req.DecisionComment, req.DecidedAt, req.CancellationReason, req.UpdatedAt); err != nil {
			return err
		}
		out = req
		return nil
	})
	return out, err
}

func (s *Store) CreateException(ctx context.Context, ex Exception) (Exception, error) {
	_, err := s.q(ctx).Exec(ctx, `
    INSERT INTO leave_exceptions (date, max_concurrent_leaves, reason, created_by, created_at)
    VALUES ($1,$2,$3,$4,$5)
  `, ex.Date, ex.MaxConcurrentLeaves, ex.Reason, ex.CreatedBy, ex.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Exception{}, ErrExceptionExists
	}
	if err != nil {
		return Exception{}, err
	}
	return ex, nil
}

func (s *Store) UpdateException(ctx context.Context, ex Exception) (Exception, error) {
	var out Exception
	err := s.q(ctx).QueryRow(ctx, `
    UPDATE leave_exceptions
    SET max_concurrent_leaves = $2, reason = $3
    WHERE date = $1
    RETURNING date, max_concurrent_leaves, reason, created_by, created_at
  `, DateOnly(ex.Date), ex.MaxConcurrentLeaves, ex.Reason).Scan(&out.Date, &out.MaxConcurrentLeaves, &out.Reason, &out.CreatedBy, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Exception{}, ErrExceptionNotFound
	}
	return out, err
}

func (s *Store) DeleteException(ctx context.Context, date time.Time) error {
	tag, err := s.q(ctx).Exec(ctx, "DELETE FROM leave_exceptions WHERE date = $1", date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExceptionNotFound
	}
	return nil
}

func (s *Store) ListExceptions(ctx context.Context, from, to time.Time) ([]Exception, error) {
	if to.IsZero() {
		to = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	rows, err := s.q(ctx).Query(ctx, `
    SELECT date, max_concurrent_leaves, reason, created_by, created_at
    FROM leave_exceptions
    WHERE date BETWEEN $1 AND $2
    ORDER BY date
  `, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Exception
	for rows.Next() {
		var ex Exception
		if err := rows.Scan(&ex.Date, &ex.MaxConcurrentLeaves, &ex.Reason, &ex.CreatedBy, &ex.CreatedAt); err != nil {
			return nil, err
		}
		ex.Date = DateOnly(ex.Date)
		out = append(out, ex)
	}
	return out, rows.Err()
}
