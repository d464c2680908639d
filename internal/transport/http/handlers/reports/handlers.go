package reportshandler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"evalsphere/internal/domain/evaluation"
	"evalsphere/internal/domain/org"
	"evalsphere/internal/domain/reports"
	"evalsphere/internal/platform/requestctx"
	"evalsphere/internal/transport/http/api"
	"evalsphere/internal/transport/http/middleware"
)

type Handler struct {
	Service     *reports.Service
	Org         *org.Service
	Evaluations *evaluation.Service
}

func NewHandler(service *reports.Service, orgSvc *org.Service, evalSvc *evaluation.Service) *Handler {
	return &Handler{Service: service, Org: orgSvc, Evaluations: evalSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router, perms middleware.PermissionStore) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission("reports.read", perms)).Get("/summary", h.HandleSummary)
		r.With(middleware.RequirePermission("reports.export", perms)).Get("/employees/{employeeId}/pdf", h.HandleEmployeePDF)
	})
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := requestctx.GetRequestID(r.Context())

	summary, err := h.Service.Summary(r.Context(), user.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "summary_error", "failed to build dashboard summary", requestID)
		return
	}
	api.Success(w, summary, requestID)
}

func (h *Handler) HandleEmployeePDF(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := requestctx.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeId")

	company, err := h.Org.Company(r.Context(), user.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_error", "failed to load company", requestID)
		return
	}

	employee, err := h.Org.Employee(r.Context(), user.CompanyID, employeeID)
	if err != nil {
		if errors.Is(err, org.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "report_error", "failed to load employee", requestID)
		return
	}

	result, err := h.Evaluations.EmployeeResults(r.Context(), user.CompanyID, employeeID)
	if err != nil {
		if errors.Is(err, evaluation.ErrNoReferenceData) {
			api.Fail(w, http.StatusConflict, "no_reference_data", "submissions exist but reference data is unavailable", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "report_error", "failed to compute results", requestID)
		return
	}

	doc, err := reports.BuildEmployeeReport(company, employee, result)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_error", "failed to render report", requestID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "evaluacion-"+employeeID+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
