package evaluationhandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"evalsphere/internal/domain/audit"
	"evalsphere/internal/domain/evaluation"
	"evalsphere/internal/domain/org"
	"evalsphere/internal/platform/requestctx"
	"evalsphere/internal/transport/http/api"
	"evalsphere/internal/transport/http/middleware"
	"evalsphere/internal/transport/http/shared"
)

const submitEndpoint = "POST /evaluations"

type Handler struct {
	Service     *evaluation.Service
	Org         *org.Service
	Audit       *audit.Service
	Idempotency *middleware.IdempotencyStore
	Perms       middleware.PermissionStore
}

func NewHandler(service *evaluation.Service, orgSvc *org.Service, auditSvc *audit.Service, idem *middleware.IdempotencyStore) *Handler {
	return &Handler{Service: service, Org: orgSvc, Audit: auditSvc, Idempotency: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router, perms middleware.PermissionStore) {
	h.Perms = perms
	r.With(middleware.RequirePermission("evaluations.submit", perms)).Post("/evaluations", h.HandleSubmit)
	r.With(middleware.RequirePermission("evaluations.submit", perms)).Get("/evaluations/evaluated-ids", h.HandleEvaluatedIDs)
	r.With(middleware.RequirePermission("evaluations.submit", perms)).Get("/evaluations/classify-targets", h.HandleClassifyTargets)
	r.With(middleware.RequirePermission("results.read_all", perms)).Get("/results/company", h.HandleCompanyResults)
	r.With(middleware.RequirePermission("results.read", perms)).Get("/results/employees/{employeeId}", h.HandleEmployeeResults)
}

type submitRequest struct {
	EvaluatedID string         `json:"evaluatedId"`
	Scores      map[string]int `json:"scores"`
	Comment     string         `json:"comment"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := requestctx.GetRequestID(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "failed to read request body", requestID)
		return
	}

	var payload submitRequest
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("evaluatedId", payload.EvaluatedID, "evaluated employee is required")
	if len(payload.Scores) == 0 {
		v.Add("scores", "at least one score is required")
	}
	v.ScoreRange("scores", payload.Scores)
	if v.Reject(w, requestID) {
		return
	}

	evaluator, err := h.Org.EmployeeByUserID(r.Context(), user.CompanyID, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusForbidden, "no_employee", "current user has no employee record", requestID)
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(body)
	if idemKey != "" {
		stored, hit, err := h.Idempotency.Check(r.Context(), user.CompanyID, user.UserID, submitEndpoint, idemKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", requestID)
			return
		}
		if err != nil {
			slog.Warn("idempotency lookup failed", "err", err)
		}
		if hit {
			var data any
			if err := json.Unmarshal(stored, &data); err == nil {
				api.Created(w, data, requestID)
				return
			}
		}
	}

	id, err := h.Service.Submit(r.Context(), user.CompanyID, evaluation.Submission{
		EvaluatorID: evaluator.ID,
		EvaluatedID: payload.EvaluatedID,
		Scores:      payload.Scores,
		Comment:     payload.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, evaluation.ErrAlreadyEvaluated):
			api.Fail(w, http.StatusConflict, "already_evaluated", "this employee was already evaluated by you", requestID)
		case errors.Is(err, evaluation.ErrInvalidScore):
			api.Fail(w, http.StatusBadRequest, "invalid_score", "scores must be integers between 1 and 5", requestID)
		default:
			api.Fail(w, http.StatusInternalServerError, "submit_error", "failed to store evaluation", requestID)
		}
		return
	}

	// Scores and comment stay out of the audit trail; the submission row is
	// the system of record and comments may be encrypted at rest.
	auditErr := h.Audit.Record(r.Context(), user.CompanyID, user.UserID, "evaluation.submit",
		"evaluation_submission", id, requestID, r.RemoteAddr, nil,
		map[string]string{"evaluatedId": payload.EvaluatedID})
	if auditErr != nil {
		slog.Warn("audit record failed", "action", "evaluation.submit", "err", auditErr)
	}

	response := map[string]string{"id": id}
	if idemKey != "" {
		encoded, _ := json.Marshal(response)
		if err := h.Idempotency.Save(r.Context(), user.CompanyID, user.UserID, submitEndpoint, idemKey, requestHash, encoded); err != nil {
			slog.Warn("idempotency save failed", "err", err)
		}
	}
	api.Created(w, response, requestID)
}

func (h *Handler) HandleEvaluatedIDs(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := requestctx.GetRequestID(r.Context())

	evaluator, err := h.Org.EmployeeByUserID(r.Context(), user.CompanyID, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusForbidden, "no_employee", "current user has no employee record", requestID)
		return
	}

	ids, err := h.Service.EvaluatedIDs(r.Context(), user.CompanyID, evaluator.ID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list evaluated employees", requestID)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	api.Success(w, map[string]any{"evaluatedIds": ids}, requestID)
}

func (h *Handler) HandleClassifyTargets(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := requestctx.GetRequestID(r.Context())

	evaluator, err := h.Org.EmployeeByUserID(r.Context(), user.CompanyID, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusForbidden, "no_employee", "current user has no employee record", requestID)
		return
	}

	labels, err := h.Service.ClassifyTargets(r.Context(), user.CompanyID, evaluator.ID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "classify_error", "failed to classify evaluation targets", requestID)
		return
	}
	api.Success(w, labels, requestID)
}

func (h *Handler) HandleCompanyResults(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := requestctx.GetRequestID(r.Context())

	result, err := h.Service.CompanyResults(r.Context(), user.CompanyID)
	if err != nil {
		if errors.Is(err, evaluation.ErrNoReferenceData) {
			api.Fail(w, http.StatusConflict, "no_reference_data", "submissions exist but reference data is unavailable", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "results_error", "failed to compute results", requestID)
		return
	}
	api.Success(w, resultPayload(result), requestID)
}

func (h *Handler) HandleEmployeeResults(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := requestctx.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeId")

	if !h.canReadResultsFor(r, employeeID) {
		api.Fail(w, http.StatusForbidden, "forbidden", "you may only read your own results", requestID)
		return
	}

	if _, err := h.Org.Employee(r.Context(), user.CompanyID, employeeID); err != nil {
		if errors.Is(err, org.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "results_error", "failed to load employee", requestID)
		return
	}

	result, err := h.Service.EmployeeResults(r.Context(), user.CompanyID, employeeID)
	if err != nil {
		if errors.Is(err, evaluation.ErrNoReferenceData) {
			api.Fail(w, http.StatusConflict, "no_reference_data", "submissions exist but reference data is unavailable", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "results_error", "failed to compute results", requestID)
		return
	}
	api.Success(w, resultPayload(result), requestID)
}

// canReadResultsFor allows reading another employee's results only with the
// company-wide permission; everyone else is limited to their own record.
func (h *Handler) canReadResultsFor(r *http.Request, employeeID string) bool {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		return false
	}
	if h.Perms != nil {
		if allowed, err := h.Perms.HasPermission(r.Context(), user.RoleID, "results.read_all"); err == nil && allowed {
			return true
		}
	}
	self, err := h.Org.EmployeeByUserID(r.Context(), user.CompanyID, user.UserID)
	if err != nil {
		return false
	}
	return self.ID == employeeID
}

// resultPayload shapes the aggregation for JSON clients. Relationship keys
// become their Spanish labels and the global percentage is included only
// when there is data behind it.
func resultPayload(result *evaluation.Result) map[string]any {
	breakdown := make(map[string]map[string]map[string]float64, len(result.RelationshipBreakdown))
	for employeeID, categories := range result.RelationshipBreakdown {
		breakdown[employeeID] = make(map[string]map[string]float64, len(categories))
		for category, byRel := range categories {
			labeled := make(map[string]float64, len(byRel))
			for rel, avg := range byRel {
				labeled[rel.Label()] = avg
			}
			breakdown[employeeID][category] = labeled
		}
	}

	payload := map[string]any{
		"employeeCategoryAverages":   result.EmployeeCategoryAverages,
		"departmentCategoryAverages": result.DepartmentCategoryAverages,
		"relationshipBreakdown":      breakdown,
		"commentsByEmployee":         result.CommentsByEmployee,
		"stats":                      result.Stats,
		"warnings":                   result.Warnings,
	}
	if pct, ok := evaluation.GlobalPercentage(companyAverages(result)); ok {
		payload["globalPercentage"] = pct
	}
	return payload
}

// companyAverages pools every employee's category means into company-wide
// category averages for the headline number.
func companyAverages(result *evaluation.Result) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, categories := range result.EmployeeCategoryAverages {
		for category, avg := range categories {
			sums[category] += avg
			counts[category]++
		}
	}
	out := make(map[string]float64, len(sums))
	for category, sum := range sums {
		out[category] = sum / float64(counts[category])
	}
	return out
}
