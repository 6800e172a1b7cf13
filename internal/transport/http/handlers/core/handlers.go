package corehandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrdesk/internal/domain/auth"
	"hrdesk/internal/domain/core"
	"hrdesk/internal/platform/apperr"
	"hrdesk/internal/transport/http/api"
	"hrdesk/internal/transport/http/middleware"
)

// Handler exposes the read-only employee directory.
type Handler struct {
	Service *core.Service
}

func NewHandler(service *core.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleListEmployees)
		r.Get("/{employeeID}", h.handleGetEmployee)
	})
}

func resourceOf(emp core.Employee) auth.Resource {
	return auth.Resource{OwnerEmployeeID: emp.ID, OwnerManagerID: emp.ManagerID}
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var emp *core.Employee
	if user.EmployeeID != "" {
		found, err := h.Service.GetEmployee(r.Context(), user.EmployeeID)
		switch {
		case err == nil:
			emp = &found
		case !errors.Is(err, core.ErrEmployeeNotFound):
			api.FailError(w, err, middleware.GetRequestID(r.Context()))
			return
		}
	}

	api.Success(w, map[string]any{
		"user":     user,
		"employee": emp,
	}, middleware.GetRequestID(r.Context()))
}

// handleListEmployees returns only the entries the caller may read.
func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	employees, err := h.Service.ListEmployees(r.Context())
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	visible := make([]core.Employee, 0, len(employees))
	for _, emp := range employees {
		if auth.Can(user, auth.ActEmployeeRead, resourceOf(emp)) {
			visible = append(visible, emp)
		}
	}
	api.Success(w, visible, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	emp, err := h.Service.GetEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if errors.Is(err, core.ErrEmployeeNotFound) {
		api.FailError(w, apperr.NotFound(err), middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	if !auth.Can(user, auth.ActEmployeeRead, resourceOf(emp)) {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}
