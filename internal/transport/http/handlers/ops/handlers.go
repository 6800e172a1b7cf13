package opshandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrdesk/internal/domain/auth"
	"hrdesk/internal/platform/jobs"
	"hrdesk/internal/platform/metrics"
	"hrdesk/internal/transport/http/api"
	"hrdesk/internal/transport/http/middleware"
	"hrdesk/internal/transport/http/shared"
)

type Handler struct {
	Jobs    *jobs.Service
	Metrics *metrics.Collector
}

func NewHandler(jobsSvc *jobs.Service, collector *metrics.Collector) *Handler {
	return &Handler{Jobs: jobsSvc, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAction(auth.ActOpsRead))
		if h.Metrics != nil {
			r.Get("/metrics", h.handleMetrics)
		}
		r.Get("/jobs", h.handleJobs)
	})
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.Page(r, shared.RequestPage)
	runs, err := h.Jobs.History(r.Context(), user, strings.TrimSpace(r.URL.Query().Get("type")), page.Limit)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}
