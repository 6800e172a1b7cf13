package audit

import (
	"context"
	"fmt"

	"hrdesk/internal/platform/db"
)

type Store struct {
	DB db.Queryer
}

func NewStore(pool db.Queryer) *Store {
	return &Store{DB: pool}
}

func (s *Store) Insert(ctx context.Context, e Event) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (id, actor_id, action, entity_type, entity_id, before_json, after_json, request_id, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, e.ID, e.ActorID, e.Action, e.EntityType, e.EntityID, []byte(e.Before), []byte(e.After), e.RequestID, e.CreatedAt)
	return err
}

func (s *Store) Count(ctx context.Context, f Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", f)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) List(ctx context.Context, f Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	selectCols := "id, actor_id, action, entity_type, entity_id, request_id, created_at"
	if includeDetails {
		selectCols += ", before_json, after_json"
	}
	query, args := buildBaseQuery("SELECT "+selectCols, f)
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.CreatedAt}
		var before, after []byte
		if includeDetails {
			dest = append(dest, &before, &after)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if len(before) > 0 {
			evt.Before = before
		}
		if len(after) > 0 {
			evt.After = after
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, f Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE 1=1"
	var args []any
	if f.Action != "" {
		args = append(args, f.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if f.EntityType != "" {
		args = append(args, f.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if f.ActorID != "" {
		args = append(args, f.ActorID)
		query += fmt.Sprintf(" AND actor_id = $%d", len(args))
	}
	return query, args
}
