package leavehandler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrdesk/internal/domain/auth"
	"hrdesk/internal/domain/leave"
	"hrdesk/internal/transport/http/api"
	"hrdesk/internal/transport/http/middleware"
	"hrdesk/internal/transport/http/shared"
)

// CarryOverRunner runs a carry-over and records it as a job.
type CarryOverRunner interface {
	CarryOverNow(ctx context.Context, actor auth.Principal, year int) (leave.CarryOverSummary, error)
}

type Handler struct {
	Service *leave.Service
	Jobs    CarryOverRunner
	Now     func() time.Time
}

func NewHandler(service *leave.Service, jobs CarryOverRunner) *Handler {
	return &Handler{Service: service, Jobs: jobs, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Get("/types", h.handleListTypes)
		r.Get("/policy", h.handleGetPolicy)
		r.Put("/policy", h.handleUpdatePolicy)
		r.Get("/policy/history", h.handlePolicyHistory)
		r.Get("/exceptions", h.handleListExceptions)
		r.Post("/exceptions", h.handleCreateException)
		r.Put("/exceptions/{date}", h.handleUpdateException)
		r.Delete("/exceptions/{date}", h.handleDeleteException)
		r.Get("/entitlement", h.handleEntitlement)
		r.Get("/balances", h.handleGetBalance)
		r.Get("/balances/adjustments", h.handleListAdjustments)
		r.Post("/balances/adjust", h.handleAdjustBalance)
		r.Post("/carry-over", h.handleCarryOver)
		r.Get("/requests", h.handleListRequests)
		r.Post("/requests", h.handleSubmit)
		r.Get("/requests/{requestID}", h.handleGetRequest)
		r.Post("/requests/{requestID}/decision", h.handleDecide)
		r.Post("/requests/{requestID}/withdraw", h.handleWithdraw)
		r.Post("/requests/{requestID}/cancellation", h.handleRequestCancellation)
		r.Post("/requests/{requestID}/cancellation/decision", h.handleDecideCancellation)
	})
}

func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
	}
	return p, ok
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	api.Success(w, leave.Types(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	policy, err := h.Service.ActivePolicy(r.Context())
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, policy, middleware.GetRequestID(r.Context()))
}

type policyPayload struct {
	AdvanceNoticeRequiredDays  int      `json:"advanceNoticeRequiredDays"`
	MaxConsecutiveDays         int      `json:"maxConsecutiveDays"`
	MaxPendingRequests         int      `json:"maxPendingRequests"`
	SaturdayWorkingDays        float64  `json:"saturdayWorkingDays"`
	SundayWorkingDays          float64  `json:"sundayWorkingDays"`
	DefaultMaxConcurrentLeaves int      `json:"defaultMaxConcurrentLeaves"`
	MaxCarryOverDays           *float64 `json:"maxCarryOverDays"`
}

func (h *Handler) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var payload policyPayload
	if !decode(w, r, &payload) {
		return
	}
	policy, err := h.Service.UpdatePolicy(r.Context(), user, leave.Policy{
		AdvanceNoticeRequiredDays:  payload.AdvanceNoticeRequiredDays,
		MaxConsecutiveDays:         payload.MaxConsecutiveDays,
		MaxPendingRequests:         payload.MaxPendingRequests,
		SaturdayWorkingDays:        payload.SaturdayWorkingDays,
		SundayWorkingDays:          payload.SundayWorkingDays,
		DefaultMaxConcurrentLeaves: payload.DefaultMaxConcurrentLeaves,
		MaxCarryOverDays:           payload.MaxCarryOverDays,
	})
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, policy, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePolicyHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	history, err := h.Service.PolicyHistory(r.Context(), user)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, history, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListExceptions(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	from := v.OptionalDate("from", r.URL.Query().Get("from"))
	to := v.OptionalDate("to", r.URL.Query().Get("to"))
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	exceptions, err := h.Service.ListExceptions(r.Context(), user, from, to)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, exceptions, middleware.GetRequestID(r.Context()))
}

type exceptionPayload struct {
	Date                string `json:"date"`
	MaxConcurrentLeaves int    `json:"maxConcurrentLeaves"`
	Reason              string `json:"reason"`
}

func (h *Handler) handleCreateException(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var payload exceptionPayload
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	day, _ := v.Date("date", payload.Date)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	ex, err := h.Service.CreateException(r.Context(), user, leave.Exception{
		Date:                day,
		MaxConcurrentLeaves: payload.MaxConcurrentLeaves,
		Reason:              strings.TrimSpace(payload.Reason),
	})
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, ex, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateException(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var payload exceptionPayload
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	day, _ := v.Date("date", chi.URLParam(r, "date"))
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	ex, err := h.Service.UpdateException(r.Context(), user, leave.Exception{
		Date:                day,
		MaxConcurrentLeaves: payload.MaxConcurrentLeaves,
		Reason:              strings.TrimSpace(payload.Reason),
	})
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, ex, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteException(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	day, _ := v.Date("date", chi.URLParam(r, "date"))
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if err := h.Service.DeleteException(r.Context(), user, day); err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

// employeeParam defaults to the caller's own employee.
func employeeParam(r *http.Request, user auth.Principal) string {
	if id := strings.TrimSpace(r.URL.Query().Get("employeeId")); id != "" {
		return id
	}
	return user.EmployeeID
}

func (h *Handler) handleEntitlement(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	asOf := v.OptionalDate("asOf", r.URL.Query().Get("asOf"))
	employeeID := employeeParam(r, user)
	v.Required("employeeId", employeeID, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if asOf.IsZero() {
		asOf = h.Now()
	}
	view, err := h.Service.Entitlement(r.Context(), user, employeeID, asOf)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

func (h *Handler) yearParam(v *shared.Validator, r *http.Request) int {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return h.Now().Year()
	}
	return v.IntRange("year", raw, 1900, 9999)
}

func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	year := h.yearParam(v, r)
	employeeID := employeeParam(r, user)
	v.Required("employeeId", employeeID, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	balance, err := h.Service.Balance(r.Context(), user, employeeID, year)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, balance, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAdjustments(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	year := h.yearParam(v, r)
	employeeID := employeeParam(r, user)
	v.Required("employeeId", employeeID, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	adjustments, err := h.Service.Adjustments(r.Context(), user, employeeID, year)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, adjustments, middleware.GetRequestID(r.Context()))
}

type adjustBalanceRequest struct {
	EmployeeID string  `json:"employeeId"`
	Year       int     `json:"year"`
	Kind       string  `json:"kind"`
	Amount     float64 `json:"amount"`
	Reason     string  `json:"reason"`
}

func (h *Handler) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var payload adjustBalanceRequest
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	v.Enum("kind", payload.Kind, []string{string(leave.AdjustAdd), string(leave.AdjustSubtract)}, "must be add or subtract")
	v.Required("kind", payload.Kind, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	balance, err := h.Service.AdjustBalance(r.Context(), user, leave.AdjustInput{
		EmployeeID: strings.TrimSpace(payload.EmployeeID),
		Year:       payload.Year,
		Kind:       leave.AdjustmentKind(strings.ToLower(strings.TrimSpace(payload.Kind))),
		Amount:     payload.Amount,
		Reason:     strings.TrimSpace(payload.Reason),
	})
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, balance, middleware.GetRequestID(r.Context()))
}

type carryOverRequest struct {
	Year int `json:"year"`
}

func (h *Handler) handleCarryOver(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var payload carryOverRequest
	if !decode(w, r, &payload) {
		return
	}
	if payload.Year == 0 {
		payload.Year = h.Now().Year() - 1
	}
	var (
		summary leave.CarryOverSummary
		err     error
	)
	if h.Jobs != nil {
		summary, err = h.Jobs.CarryOverNow(r.Context(), user, payload.Year)
	} else {
		summary, err = h.Service.CarryOver(r.Context(), user, payload.Year)
	}
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	page := shared.Page(r, shared.RequestPage)
	status := leave.Status(strings.TrimSpace(r.URL.Query().Get("status")))
	v := shared.NewValidator()
	v.Enum("status", string(status), []string{
		string(leave.StatusPending), string(leave.StatusApproved), string(leave.StatusRejected),
		string(leave.StatusCancelled), string(leave.StatusCancellationPending),
	}, "is not a known status")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	result, err := h.Service.ListRequests(r.Context(), user, strings.TrimSpace(r.URL.Query().Get("employeeId")), status, page.Limit, page.Offset)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.SetTotalCount(w, result.Total)
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

type submitRequest struct {
	EmployeeID string `json:"employeeId"`
	LeaveType  string `json:"leaveType"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	StartHalf  bool   `json:"startHalf"`
	EndHalf    bool   `json:"endHalf"`
	Reason     string `json:"reason"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var payload submitRequest
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("leaveType", payload.LeaveType, "is required")
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	req, err := h.Service.Submit(r.Context(), user, leave.SubmitInput{
		EmployeeID: strings.TrimSpace(payload.EmployeeID),
		LeaveType:  strings.TrimSpace(payload.LeaveType),
		StartDate:  start,
		EndDate:    end,
		StartHalf:  payload.StartHalf,
		EndHalf:    payload.EndHalf,
		Reason:     strings.TrimSpace(payload.Reason),
	})
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	req, err := h.Service.GetRequest(r.Context(), user, chi.URLParam(r, "requestID"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

type decisionRequest struct {
	Approve *bool  `json:"approve"`
	Comment string `json:"comment"`
}

func decodeDecision(w http.ResponseWriter, r *http.Request) (leave.Decision, bool) {
	var payload decisionRequest
	if !decode(w, r, &payload) {
		return leave.Decision{}, false
	}
	if payload.Approve == nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "approve", Reason: "is required"}})
		return leave.Decision{}, false
	}
	return leave.Decision{Approve: *payload.Approve, Comment: strings.TrimSpace(payload.Comment)}, true
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	d, ok := decodeDecision(w, r)
	if !ok {
		return
	}
	req, err := h.Service.Decide(r.Context(), user, chi.URLParam(r, "requestID"), d)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	req, err := h.Service.Withdraw(r.Context(), user, chi.URLParam(r, "requestID"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

type cancellationRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleRequestCancellation(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var payload cancellationRequest
	if r.ContentLength != 0 && !decode(w, r, &payload) {
		return
	}
	req, err := h.Service.RequestCancellation(r.Context(), user, chi.URLParam(r, "requestID"), strings.TrimSpace(payload.Reason))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDecideCancellation(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	d, ok := decodeDecision(w, r)
	if !ok {
		return
	}
	req, err := h.Service.DecideCancellation(r.Context(), user, chi.URLParam(r, "requestID"), d)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}
