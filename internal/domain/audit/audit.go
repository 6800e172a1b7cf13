package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hrdesk/internal/domain/auth"
	"hrdesk/internal/platform/apperr"
	"hrdesk/internal/requestctx"
)

const (
	ActionPolicyUpdate     = "leave.policy.update"
	ActionExceptionCreate  = "leave.exception.create"
	ActionExceptionUpdate  = "leave.exception.update"
	ActionExceptionDelete  = "leave.exception.delete"
	ActionBalanceAdjust    = "leave.balance.adjust"
	ActionCarryOver        = "leave.carryover"
	ActionPayrollConfirm   = "payroll.upload.confirm"
	ActionPayrollUpsert    = "payroll.record.upsert"
	ActionPayrollAdjust    = "payroll.record.adjust"
	EntityLeavePolicy      = "leave_policy"
	EntityLeaveException   = "leave_exception"
	EntityLeaveBalance     = "leave_balance"
	EntityPayrollRecord    = "payroll_record"
	EntityPayrollUpload    = "payroll_upload"
)

var ErrForbidden = errors.New("audit: not allowed")

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorID    string
}

func (f Filter) matches(e Event) bool {
	return (f.Action == "" || e.Action == f.Action) &&
		(f.EntityType == "" || e.EntityType == f.EntityType) &&
		(f.ActorID == "" || e.ActorID == f.ActorID)
}

type StoreAPI interface {
	Insert(ctx context.Context, e Event) error
	Count(ctx context.Context, f Filter) (int, error)
	// List returns events newest first. Before/After are only loaded when
	// includeDetails is set; limit 0 means no limit.
	List(ctx context.Context, f Filter, includeDetails bool, limit, offset int) ([]Event, error)
}

type Service struct {
	Store StoreAPI
	Now   func() time.Time
}

func New(store StoreAPI) *Service {
	return &Service{Store: store, Now: time.Now}
}

// Record appends an event. Callers treat a failure as non-fatal; the change
// it describes has already been committed.
func (s *Service) Record(ctx context.Context, actor auth.Principal, action, entityType, entityID string, before, after any) error {
	evt := Event{
		ID:         uuid.NewString(),
		ActorID:    actor.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestctx.GetRequestID(ctx),
		CreatedAt:  s.Now().UTC(),
	}
	var err error
	if evt.Before, err = marshal(before); err != nil {
		return err
	}
	if evt.After, err = marshal(after); err != nil {
		return err
	}
	return s.Store.Insert(ctx, evt)
}

func marshal(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Trail wraps a Service so domain services can record without handling
// the error; a nil Trail records nothing.
type Trail struct {
	svc *Service
}

func NewTrail(svc *Service) *Trail {
	return &Trail{svc: svc}
}

func (t *Trail) Record(ctx context.Context, actor auth.Principal, action, entityType, entityID string, before, after any) {
	if t == nil || t.svc == nil {
		return
	}
	if err := t.svc.Record(ctx, actor, action, entityType, entityID, before, after); err != nil {
		slog.WarnContext(ctx, "audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}

func (s *Service) List(ctx context.Context, actor auth.Principal, f Filter, includeDetails bool, limit, offset int) ([]Event, int, error) {
	if !auth.Can(actor, auth.ActOpsRead, auth.Resource{}) {
		return nil, 0, apperr.Forbidden(ErrForbidden)
	}
	total, err := s.Store.Count(ctx, f)
	if err != nil {
		slog.WarnContext(ctx, "audit count failed", "err", err)
	}
	events, err := s.Store.List(ctx, f, includeDetails, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// Export returns every matching event without before/after payloads.
func (s *Service) Export(ctx context.Context, actor auth.Principal, f Filter) ([]Event, error) {
	if !auth.Can(actor, auth.ActOpsRead, auth.Resource{}) {
		return nil, apperr.Forbidden(ErrForbidden)
	}
	return s.Store.List(ctx, f, false, 0, 0)
}
