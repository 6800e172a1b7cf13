package payrollhandler

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrdesk/internal/domain/auth"
	"hrdesk/internal/domain/payroll"
	"hrdesk/internal/transport/http/api"
	"hrdesk/internal/transport/http/middleware"
	"hrdesk/internal/transport/http/shared"
)

const maxMultipartMemory = 8 << 20

type Handler struct {
	Service *payroll.Service
}

func NewHandler(service *payroll.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Post("/uploads", h.handlePreview)
		r.Post("/uploads/{token}/confirm", h.handleConfirm)
		r.Delete("/uploads/{token}", h.handleDiscard)
		r.Get("/records", h.handleListMonth)
		r.Post("/records", h.handleUpsert)
		r.Get("/records/export", h.handleExportMonth)
		r.Get("/records/{recordID}", h.handleGetRecord)
		r.Patch("/records/{recordID}", h.handleAdjust)
		r.Get("/records/{recordID}/payslip", h.handlePayslip)
		r.Get("/employees/{employeeID}/history", h.handleHistory)
	})
}

func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
	}
	return p, ok
}

func periodParams(v *shared.Validator, year, month string) (int, int) {
	v.Required("year", year, "is required")
	v.Required("month", month, "is required")
	if year == "" || month == "" {
		return 0, 0
	}
	return v.IntRange("year", year, 1900, 9999), v.IntRange("month", month, 1, 12)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "expected a multipart form upload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	year, month := periodParams(v, r.FormValue("year"), r.FormValue("month"))
	file, header, err := r.FormFile("file")
	if err != nil {
		v.Add("file", "is required")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "failed to read upload", middleware.GetRequestID(r.Context()))
		return
	}
	result, err := h.Service.Preview(r.Context(), user, payroll.PreviewInput{
		FileName: filepath.Base(header.Filename),
		Data:     data,
		Year:     year,
		Month:    month,
	})
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, result, middleware.GetRequestID(r.Context()))
}

type confirmRequest struct {
	Actions []payroll.RecordAction `json:"actions"`
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var payload confirmRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && err != io.EOF {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
	}
	result, err := h.Service.Confirm(r.Context(), user, chi.URLParam(r, "token"), payload.Actions)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.Service.Discard(r.Context(), user, chi.URLParam(r, "token")); err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "discarded"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListMonth(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	year, month := periodParams(v, r.URL.Query().Get("year"), r.URL.Query().Get("month"))
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	records, err := h.Service.ListMonth(r.Context(), user, year, month)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

type upsertRequest struct {
	EmployeeID    string                `json:"employeeId"`
	Year          int                   `json:"year"`
	Month         int                   `json:"month"`
	BaseSalary    json.Number           `json:"baseSalary"`
	Allowances    payroll.Components    `json:"allowances"`
	Deductions    payroll.Components    `json:"deductions"`
	PaymentStatus payroll.PaymentStatus `json:"paymentStatus"`
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var payload upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	base := v.Decimal("baseSalary", string(payload.BaseSalary))
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	rec, err := h.Service.Upsert(r.Context(), user, payroll.Record{
		EmployeeID:    strings.TrimSpace(payload.EmployeeID),
		Year:          payload.Year,
		Month:         payload.Month,
		BaseSalary:    base,
		Allowances:    payload.Allowances,
		Deductions:    payload.Deductions,
		PaymentStatus: payload.PaymentStatus,
	})
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportMonth(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	year, month := periodParams(v, r.URL.Query().Get("year"), r.URL.Query().Get("month"))
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	records, err := h.Service.ListMonth(r.Context(), user, year, month)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payroll-%d-%02d.csv", year, month))
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"employee_id", "employee_name", "department", "base_salary", "total_allowances", "total_deductions", "net_salary", "payment_status"}); err != nil {
		slog.Warn("payroll export header failed", "err", err)
		return
	}
	for _, rec := range records {
		if err := writer.Write([]string{
			rec.EmployeeID,
			rec.EmployeeName,
			rec.Department,
			rec.BaseSalary.String(),
			rec.TotalAllowances.String(),
			rec.TotalDeductions.String(),
			rec.NetSalary.String(),
			string(rec.PaymentStatus),
		}); err != nil {
			slog.Warn("payroll export row failed", "err", err)
			return
		}
	}
	writer.Flush()
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	rec, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "recordID"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var delta payroll.Delta
	if err := json.NewDecoder(r.Body).Decode(&delta); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	rec, err := h.Service.Adjust(r.Context(), user, chi.URLParam(r, "recordID"), delta)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	pdf, rec, err := h.Service.Payslip(r.Context(), user, chi.URLParam(r, "recordID"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payslip-%s-%d-%02d.pdf", rec.EmployeeID, rec.Year, rec.Month))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		slog.Warn("payslip write failed", "err", err)
	}
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	records, err := h.Service.History(r.Context(), user, chi.URLParam(r, "employeeID"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}
