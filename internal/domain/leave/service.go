package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hrdesk/internal/domain/audit"
	"hrdesk/internal/domain/auth"
	"hrdesk/internal/domain/core"
	"hrdesk/internal/domain/notifications"
	"hrdesk/internal/platform/apperr"
)

// Directory is the employee lookup the leave engine needs.
type Directory interface {
	GetEmployee(ctx context.Context, id string) (core.Employee, error)
	ListEmployees(ctx context.Context) ([]core.Employee, error)
}

type Service struct {
	Store     StoreAPI
	Directory Directory
	Accrual   AccrualTable
	Now       func() time.Time

	// Audit and Notifier are optional; nil disables them.
	Audit    *audit.Trail
	Notifier *notifications.Service
}

func NewService(store StoreAPI, directory Directory, accrual AccrualTable) *Service {
	return &Service{Store: store, Directory: directory, Accrual: accrual, Now: time.Now}
}

func (s *Service) employee(ctx context.Context, employeeID string) (core.Employee, auth.Resource, error) {
	emp, err := s.Directory.GetEmployee(ctx, employeeID)
	if errors.Is(err, core.ErrEmployeeNotFound) {
		return core.Employee{}, auth.Resource{}, apperr.NotFound(err)
	}
	if err != nil {
		return core.Employee{}, auth.Resource{}, err
	}
	return emp, auth.Resource{OwnerEmployeeID: emp.ID, OwnerManagerID: emp.ManagerID}, nil
}

// EntitlementView explains how an entitlement was derived.
type EntitlementView struct {
	EmployeeID      string    `json:"employeeId"`
	AsOf            time.Time `json:"asOf"`
	YearsOfService  int       `json:"yearsOfService"`
	MonthsOfService int       `json:"monthsOfService"`
	Days            float64   `json:"days"`
}

func (s *Service) Entitlement(ctx context.Context, actor auth.Principal, employeeID string, asOf time.Time) (EntitlementView, error) {
	emp, res, err := s.employee(ctx, employeeID)
	if err != nil {
		return EntitlementView{}, err
	}
	if !auth.Can(actor, auth.ActLeaveBalanceRead, res) {
		return EntitlementView{}, apperr.Forbidden(ErrForbidden)
	}
	days, err := Entitlement(emp.HireDate, asOf, s.Accrual)
	if err != nil {
		return EntitlementView{}, apperr.Validation(err)
	}
	years, months := ServiceLength(*emp.HireDate, asOf)
	return EntitlementView{EmployeeID: emp.ID, AsOf: DateOnly(asOf), YearsOfService: years, MonthsOfService: months, Days: days}, nil
}

// ensureBalance returns the year's balance, creating it from the accrual
// table on first access.
func (s *Service) ensureBalance(ctx context.Context, emp core.Employee, year int) (Balance, error) {
	b, err := s.Store.GetBalance(ctx, emp.ID, year)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrBalanceNotFound) {
		return Balance{}, err
	}
	seed, err := s.seedBalance(emp, year)
	if err != nil {
		return Balance{}, err
	}
	return s.Store.EnsureBalance(ctx, seed)
}

func (s *Service) seedBalance(emp core.Employee, year int) (Balance, error) {
	days, err := Entitlement(emp.HireDate, EntitlementReferenceDate(emp.HireDate, year), s.Accrual)
	if err != nil {
		return Balance{}, apperr.Validation(fmt.Errorf("employee %s: %w", emp.ID, err))
	}
	return Balance{EmployeeID: emp.ID, Year: year, TotalEntitlement: days, UpdatedAt: s.Now().UTC()}, nil
}

func (s *Service) Balance(ctx context.Context, actor auth.Principal, employeeID string, year int) (Balance, error) {
	emp, res, err := s.employee(ctx, employeeID)
	if err != nil {
		return Balance{}, err
	}
	if !auth.Can(actor, auth.ActLeaveBalanceRead, res) {
		return Balance{}, apperr.Forbidden(ErrForbidden)
	}
	return s.ensureBalance(ctx, emp, year)
}

type AdjustInput struct {
	EmployeeID string
	Year       int
	Kind       AdjustmentKind
	Amount     float64
	Reason     string
}

// AdjustBalance is an administrative override; it may drive a balance negative.
func (s *Service) AdjustBalance(ctx context.Context, actor auth.Principal, in AdjustInput) (Balance, error) {
	emp, res, err := s.employee(ctx, in.EmployeeID)
	if err != nil {
		return Balance{}, err
	}
	if !auth.Can(actor, auth.ActLeaveBalanceAdjust, res) {
		return Balance{}, apperr.Forbidden(ErrForbidden)
	}
	switch in.Kind {
	case AdjustAdd, AdjustSubtract, AdjustCarryOver, AdjustCancelUsage:
	default:
		return Balance{}, apperr.Validation(fmt.Errorf("%w: unknown kind %q", ErrInvalidAdjustment, in.Kind))
	}
	if in.Amount <= 0 {
		return Balance{}, apperr.Validation(fmt.Errorf("%w: amount must be positive", ErrInvalidAdjustment))
	}
	if in.Year < 1900 {
		return Balance{}, apperr.Validation(fmt.Errorf("%w: year is required", ErrInvalidAdjustment))
	}
	before, err := s.ensureBalance(ctx, emp, in.Year)
	if err != nil {
		return Balance{}, err
	}
	adj := Adjustment{
		ID:         uuid.NewString(),
		EmployeeID: emp.ID,
		Year:       in.Year,
		Kind:       in.Kind,
		Amount:     in.Amount,
		Reason:     strings.TrimSpace(in.Reason),
		CreatedBy:  actor.UserID,
		CreatedAt:  s.Now().UTC(),
	}
	after, err := s.Store.ApplyAdjustment(ctx, adj)
	if err != nil {
		return Balance{}, err
	}
	s.Audit.Record(ctx, actor, audit.ActionBalanceAdjust, audit.EntityLeaveBalance,
		fmt.Sprintf("%s/%d", emp.ID, in.Year), before, map[string]any{"balance": after, "adjustment": adj})
	return after, nil
}

func (s *Service) Adjustments(ctx context.Context, actor auth.Principal, employeeID string, year int) ([]Adjustment, error) {
	_, res, err := s.employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !auth.Can(actor, auth.ActLeaveBalanceRead, res) {
		return nil, apperr.Forbidden(ErrForbidden)
	}
	return s.Store.ListAdjustments(ctx, employeeID, year)
}

// Submit validates a new request against the active policy and stores it
// as pending. The balance is not touched until approval.
func (s *Service) Submit(ctx context.Context, actor auth.Principal, in SubmitInput) (Request, error) {
	if in.EmployeeID == "" {
		in.EmployeeID = actor.EmployeeID
	}
	emp, res, err := s.employee(ctx, in.EmployeeID)
	if err != nil {
		return Request{}, err
	}
	if !auth.Can(actor, auth.ActLeaveSubmit, res) {
		return Request{}, apperr.Forbidden(ErrForbidden)
	}
	rule, ok := LookupType(in.LeaveType)
	if !ok {
		return Request{}, apperr.Validation(fmt.Errorf("%w: %q", ErrUnknownLeaveType, in.LeaveType))
	}
	policy, err := s.ActivePolicy(ctx)
	if err != nil {
		return Request{}, err
	}

	start, end := DateOnly(in.StartDate), DateOnly(in.EndDate)
	days, err := CalculateRequestDays(start, end, in.StartHalf, in.EndHalf, policy, rule)
	if err != nil {
		return Request{}, apperr.Validation(err)
	}
	if days > float64(policy.MaxConsecutiveDays) {
		return Request{}, apperr.Policy(
			fmt.Errorf("%w: %g days requested, limit is %d", ErrExceedsMaxConsecutive, days, policy.MaxConsecutiveDays),
			map[string]any{"limit": policy.MaxConsecutiveDays, "requested": days},
		)
	}

	now := s.Now().UTC()
	if !rule.NoticeExempt {
		if notice := NoticeDays(now, start); notice < policy.AdvanceNoticeRequiredDays {
			return Request{}, apperr.Policy(
				fmt.Errorf("%w: %d days notice given, %d required", ErrAdvanceNotice, notice, policy.AdvanceNoticeRequiredDays),
				map[string]any{"required": policy.AdvanceNoticeRequiredDays, "given": notice},
			)
		}
	}

	if policy.MaxPendingRequests > 0 {
		pending, err := s.Store.CountPending(ctx, emp.ID)
		if err != nil {
			return Request{}, err
		}
		if pending >= policy.MaxPendingRequests {
			return Request{}, apperr.Policy(
				fmt.Errorf("%w: %d pending, limit is %d", ErrTooManyPending, pending, policy.MaxPendingRequests),
				map[string]any{"limit": policy.MaxPendingRequests, "pending": pending},
			)
		}
	}

	if rule.DeductsBalance {
		balance, err := s.ensureBalance(ctx, emp, start.Year())
		if err != nil {
			return Request{}, err
		}
		if days > balance.Remaining() {
			return Request{}, apperr.Policy(
				fmt.Errorf("%w: %g days requested, %g remaining", ErrInsufficientBalance, days, balance.Remaining()),
				map[string]any{"remaining": balance.Remaining(), "requested": days},
			)
		}
	}

	if err := s.checkConcurrency(ctx, emp.ID, start, end, policy, rule); err != nil {
		return Request{}, err
	}

	created, err := s.Store.CreateRequest(ctx, Request{
		ID:            uuid.NewString(),
		EmployeeID:    emp.ID,
		LeaveType:     rule.Code,
		StartDate:     start,
		EndDate:       end,
		StartHalf:     in.StartHalf,
		EndHalf:       in.EndHalf,
		DaysCount:     days,
		Reason:        strings.TrimSpace(in.Reason),
		Status:        StatusPending,
		PolicyVersion: policy.Version,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return Request{}, err
	}
	s.Notifier.Send(ctx, emp.ManagerID, notifications.TypeLeaveSubmitted,
		fmt.Sprintf("%s requested %s leave", emp.Name, rule.Code), requestSpan(created))
	return created, nil
}

func requestSpan(r Request) string {
	return fmt.Sprintf("%s to %s (%g days)", r.StartDate.Format(time.DateOnly), r.EndDate.Format(time.DateOnly), r.DaysCount)
}

// checkConcurrency enforces the per-date cap: an exception for the date
// wins, otherwise the policy default applies, where 0 means no cap.
func (s *Service) checkConcurrency(ctx context.Context, employeeID string, start, end time.Time, policy Policy, rule TypeRule) error {
	exceptions, err := s.Store.ListExceptions(ctx, start, end)
	if err != nil {
		return err
	}
	if policy.DefaultMaxConcurrentLeaves == 0 && len(exceptions) == 0 {
		return nil
	}
	byDate := make(map[time.Time]Exception, len(exceptions))
	for _, ex := range exceptions {
		byDate[DateOnly(ex.Date)] = ex
	}
	others, err := s.Store.ListActiveOverlapping(ctx, start, end)
	if err != nil {
		return err
	}

	var violation error
	EachDay(start, end, func(day time.Time) {
		if violation != nil || DayWeight(day, policy, rule) == 0 {
			return
		}
		limit := policy.DefaultMaxConcurrentLeaves
		ex, hasException := byDate[day]
		if hasException {
			limit = ex.MaxConcurrentLeaves
		} else if limit == 0 {
			return
		}
		onLeave := map[string]struct{}{}
		for _, other := range others {
			if other.EmployeeID != employeeID && other.Covers(day) {
				onLeave[other.EmployeeID] = struct{}{}
			}
		}
		if len(onLeave) >= limit {
			violation = apperr.Concurrency(
				fmt.Errorf("%w on %s: %d already on leave, cap is %d", ErrConcurrencyExceeded, day.Format("2006-01-02"), len(onLeave), limit),
				map[string]any{"date": day.Format("2006-01-02"), "cap": limit, "onLeave": len(onLeave)},
			)
		}
	})
	return violation
}

func (s *Service) GetRequest(ctx context.Context, actor auth.Principal, id string) (Request, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if errors.Is(err, ErrRequestNotFound) {
		return Request{}, apperr.NotFound(err)
	}
	if err != nil {
		return Request{}, err
	}
	_, res, err := s.employee(ctx, req.EmployeeID)
	if err != nil {
		return Request{}, err
	}
	if !auth.Can(actor, auth.ActLeaveRead, res) {
		return Request{}, apperr.Forbidden(ErrForbidden)
	}
	return req, nil
}

// ListRequests scopes results to what actor may read: everything for admins,
// own and direct reports for supervisors, own for users.
func (s *Service) ListRequests(ctx context.Context, actor auth.Principal, employeeID string, status Status, limit, offset int) (RequestListResult, error) {
	filter := RequestFilter{Status: status, Limit: limit, Offset: offset}
	switch {
	case employeeID != "":
		_, res, err := s.employee(ctx, employeeID)
		if err != nil {
			return RequestListResult{}, err
		}
		if !auth.Can(actor, auth.ActLeaveRead, res) {
			return RequestListResult{}, apperr.Forbidden(ErrForbidden)
		}
		filter.EmployeeIDs = []string{employeeID}
	case actor.Role == auth.RoleAdmin:
	case actor.Role == auth.RoleSupervisor:
		employees, err := s.Directory.ListEmployees(ctx)
		if err != nil {
			return RequestListResult{}, err
		}
		filter.EmployeeIDs = []string{actor.EmployeeID}
		for _, emp := range employees {
			if emp.ManagerID == actor.EmployeeID {
				filter.EmployeeIDs = append(filter.EmployeeIDs, emp.ID)
			}
		}
	default:
		if actor.EmployeeID == "" {
			return RequestListResult{}, apperr.Forbidden(ErrForbidden)
		}
		filter.EmployeeIDs = []string{actor.EmployeeID}
	}
	return s.Store.ListRequests(ctx, filter)
}

// Decide approves or rejects a pending request. Approval debits the balance
// in the same store write as the status change.
func (s *Service) Decide(ctx context.Context, actor auth.Principal, id string, d Decision) (Request, error) {
	req, res, err := s.loadForAction(ctx, actor, id, auth.ActLeaveDecide)
	if err != nil {
		return Request{}, err
	}
	to := StatusRejected
	if d.Approve {
		to = StatusApproved
	}
	if req.Status != StatusPending {
		return Request{}, invalidTransition(req.Status, to)
	}
	t := Transition{To: to, ActorID: actor.UserID, Comment: strings.TrimSpace(d.Comment), Decided: true}
	if d.Approve {
		if err := s.prepareDebit(ctx, req, res, &t, req.DaysCount); err != nil {
			return Request{}, err
		}
		t.RequireRemaining = true
	}
	updated, err := s.transition(ctx, req, t)
	if err != nil {
		return Request{}, err
	}
	ntype, title := notifications.TypeLeaveRejected, "Leave request rejected"
	if d.Approve {
		ntype, title = notifications.TypeLeaveApproved, "Leave request approved"
	}
	s.Notifier.Send(ctx, updated.EmployeeID, ntype, title, requestSpan(updated))
	return updated, nil
}

// Withdraw lets the requester drop a pending request.
func (s *Service) Withdraw(ctx context.Context, actor auth.Principal, id string) (Request, error) {
	req, _, err := s.loadForAction(ctx, actor, id, auth.ActLeaveWithdraw)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, invalidTransition(req.Status, StatusCancelled)
	}
	return s.transition(ctx, req, Transition{To: StatusCancelled, ActorID: actor.UserID})
}

func (s *Service) RequestCancellation(ctx context.Context, actor auth.Principal, id, reason string) (Request, error) {
	req, res, err := s.loadForAction(ctx, actor, id, auth.ActLeaveCancelRequest)
	if err != nil {
		return Request{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "cancellation requested"
	}
	updated, err := s.transition(ctx, req, Transition{To: StatusCancellationPending, ActorID: actor.UserID, CancellationReason: reason})
	if err != nil {
		return Request{}, err
	}
	s.Notifier.Send(ctx, res.OwnerManagerID, notifications.TypeLeaveCancellationRequested,
		"Leave cancellation requested", requestSpan(updated)+": "+reason)
	return updated, nil
}

// DecideCancellation approves (credit back) or rejects (revert to approved
// without re-validation) a cancellation request.
func (s *Service) DecideCancellation(ctx context.Context, actor auth.Principal, id string, d Decision) (Request, error) {
	req, res, err := s.loadForAction(ctx, actor, id, auth.ActLeaveCancelDecide)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusCancellationPending {
		return Request{}, apperr.Conflict(fmt.Errorf("%w: %s has no pending cancellation", ErrInvalidTransition, req.Status))
	}
	t := Transition{To: StatusApproved, ActorID: actor.UserID, Comment: strings.TrimSpace(d.Comment), Decided: true}
	if d.Approve {
		t.To = StatusCancelled
		if err := s.prepareDebit(ctx, req, res, &t, -req.DaysCount); err != nil {
			return Request{}, err
		}
	}
	updated, err := s.transition(ctx, req, t)
	if err != nil {
		return Request{}, err
	}
	ntype, title := notifications.TypeLeaveCancellationRejected, "Leave cancellation rejected"
	if d.Approve {
		ntype, title = notifications.TypeLeaveCancelled, "Leave cancelled"
	}
	s.Notifier.Send(ctx, updated.EmployeeID, ntype, title, requestSpan(updated))
	return updated, nil
}

func (s *Service) loadForAction(ctx context.Context, actor auth.Principal, id string, action auth.Action) (Request, auth.Resource, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if errors.Is(err, ErrRequestNotFound) {
		return Request{}, auth.Resource{}, apperr.NotFound(err)
	}
	if err != nil {
		return Request{}, auth.Resource{}, err
	}
	_, res, err := s.employee(ctx, req.EmployeeID)
	if err != nil {
		return Request{}, auth.Resource{}, err
	}
	if !auth.Can(actor, action, res) {
		return Request{}, auth.Resource{}, apperr.Forbidden(ErrForbidden)
	}
	return req, res, nil
}

func (s *Service) prepareDebit(ctx context.Context, req Request, res auth.Resource, t *Transition, delta float64) error {
	rule, ok := LookupType(req.LeaveType)
	if !ok || !rule.DeductsBalance {
		return nil
	}
	emp, _, err := s.employee(ctx, res.OwnerEmployeeID)
	if err != nil {
		return err
	}
	if _, err := s.ensureBalance(ctx, emp, req.StartDate.Year()); err != nil {
		return err
	}
	t.UsedDelta = delta
	return nil
}

func (s *Service) transition(ctx context.Context, req Request, t Transition) (Request, error) {
	if !CanTransition(req.Status, t.To) {
		return Request{}, invalidTransition(req.Status, t.To)
	}
	t.RequestID = req.ID
	t.From = req.Status
	t.At = s.Now().UTC()
	updated, err := s.Store.ApplyTransition(ctx, t)
	switch {
	case errors.Is(err, ErrStaleRequest):
		return Request{}, apperr.Conflict(err)
	case errors.Is(err, ErrInsufficientBalance):
		return Request{}, apperr.Policy(err, map[string]any{"requested": t.UsedDelta})
	case errors.Is(err, ErrRequestNotFound):
		return Request{}, apperr.NotFound(err)
	case err != nil:
		return Request{}, err
	}
	return updated, nil
}

func invalidTransition(from, to Status) error {
	return apperr.Conflict(fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to))
}

func (s *Service) ListExceptions(ctx context.Context, actor auth.Principal, from, to time.Time) ([]Exception, error) {
	if !auth.Can(actor, auth.ActLeavePolicyRead, auth.Resource{}) {
		return nil, apperr.Forbidden(ErrForbidden)
	}
	return s.Store.ListExceptions(ctx, from, to)
}

func (s *Service) CreateException(ctx context.Context, actor auth.Principal, ex Exception) (Exception, error) {
	if err := s.checkException(actor, ex); err != nil {
		return Exception{}, err
	}
	ex.Date = DateOnly(ex.Date)
	ex.Reason = strings.TrimSpace(ex.Reason)
	ex.CreatedBy = actor.UserID
	ex.CreatedAt = s.Now().UTC()
	created, err := s.Store.CreateException(ctx, ex)
	if errors.Is(err, ErrExceptionExists) {
		return Exception{}, apperr.Conflict(err)
	}
	if err != nil {
		return Exception{}, err
	}
	s.Audit.Record(ctx, actor, audit.ActionExceptionCreate, audit.EntityLeaveException, created.Date.Format(time.DateOnly), nil, created)
	return created, nil
}

func (s *Service) UpdateException(ctx context.Context, actor auth.Principal, ex Exception) (Exception, error) {
	if err := s.checkException(actor, ex); err != nil {
		return Exception{}, err
	}
	ex.Reason = strings.TrimSpace(ex.Reason)
	updated, err := s.Store.UpdateException(ctx, ex)
	if errors.Is(err, ErrExceptionNotFound) {
		return Exception{}, apperr.NotFound(err)
	}
	if err != nil {
		return Exception{}, err
	}
	s.Audit.Record(ctx, actor, audit.ActionExceptionUpdate, audit.EntityLeaveException, updated.Date.Format(time.DateOnly), nil, updated)
	return updated, nil
}

func (s *Service) DeleteException(ctx context.Context, actor auth.Principal, day time.Time) error {
	if !auth.Can(actor, auth.ActLeaveExceptionWrite, auth.Resource{}) {
		return apperr.Forbidden(ErrForbidden)
	}
	err := s.Store.DeleteException(ctx, DateOnly(day))
	if errors.Is(err, ErrExceptionNotFound) {
		return apperr.NotFound(err)
	}
	if err != nil {
		return err
	}
	s.Audit.Record(ctx, actor, audit.ActionExceptionDelete, audit.EntityLeaveException, DateOnly(day).Format(time.DateOnly), nil, nil)
	return nil
}

func (s *Service) checkException(actor auth.Principal, ex Exception) error {
	if !auth.Can(actor, auth.ActLeaveExceptionWrite, auth.Resource{}) {
		return apperr.Forbidden(ErrForbidden)
	}
	if ex.Date.IsZero() {
		return apperr.Validationf("exception date is required")
	}
	if ex.MaxConcurrentLeaves < 0 {
		return apperr.Validationf("maxConcurrentLeaves must not be negative")
	}
	return nil
}
