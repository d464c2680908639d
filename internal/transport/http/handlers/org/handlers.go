package orghandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"evalsphere/internal/domain/audit"
	"evalsphere/internal/domain/auth"
	"evalsphere/internal/domain/org"
	"evalsphere/internal/platform/requestctx"
	"evalsphere/internal/transport/http/api"
	"evalsphere/internal/transport/http/middleware"
	"evalsphere/internal/transport/http/shared"
)

type Handler struct {
	Service *org.Service
	Audit   *audit.Service
}

func NewHandler(service *org.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router, perms middleware.PermissionStore) {
	r.Route("/org", func(r chi.Router) {
		r.With(middleware.RequirePermission("org.read", perms)).Get("/company", h.HandleGetCompany)

		r.With(middleware.RequirePermission("org.read", perms)).Get("/departments", h.HandleListDepartments)
		r.With(middleware.RequirePermission("org.write", perms)).Post("/departments", h.HandleCreateDepartment)
		r.With(middleware.RequirePermission("org.write", perms)).Put("/departments/{departmentId}", h.HandleUpdateDepartment)
		r.With(middleware.RequirePermission("org.write", perms)).Delete("/departments/{departmentId}", h.HandleDeleteDepartment)

		r.With(middleware.RequirePermission("org.read", perms)).Get("/positions", h.HandleListPositions)
		r.With(middleware.RequirePermission("org.write", perms)).Post("/positions", h.HandleCreatePosition)
		r.With(middleware.RequirePermission("org.write", perms)).Put("/positions/{positionId}", h.HandleUpdatePosition)
		r.With(middleware.RequirePermission("org.write", perms)).Delete("/positions/{positionId}", h.HandleDeletePosition)

		r.With(middleware.RequirePermission("org.read", perms)).Get("/employees", h.HandleListEmployees)
		r.With(middleware.RequirePermission("org.read", perms)).Get("/employees/{employeeId}", h.HandleGetEmployee)
		r.With(middleware.RequirePermission("users.manage", perms)).Post("/employees", h.HandleCreateEmployee)
		r.With(middleware.RequirePermission("users.manage", perms)).Put("/employees/{employeeId}", h.HandleUpdateEmployee)
		r.With(middleware.RequirePermission("users.manage", perms)).Delete("/employees/{employeeId}", h.HandleDeleteEmployee)
	})
}

type departmentRequest struct {
	Name string `json:"name"`
}

type positionRequest struct {
	DepartmentID string `json:"departmentId"`
	Title        string `json:"title"`
	Level        int    `json:"level"`
}

type employeeRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	AvatarURL    string `json:"avatarUrl"`
	DepartmentID string `json:"departmentId"`
	PositionID   string `json:"positionId"`
	Password     string `json:"password"`
}

func (h *Handler) HandleGetCompany(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	company, err := h.Service.Company(r.Context(), user.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "company not found", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, company, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleListDepartments(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	departments, err := h.Service.ListDepartments(r.Context(), user.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list departments", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, departments, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "department name is required")
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Service.CreateDepartment(r.Context(), user.CompanyID, payload.Name)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_error", "failed to create department", requestctx.GetRequestID(r.Context()))
		return
	}

	h.record(r, user, "department.create", "department", id, nil, payload)
	api.Created(w, map[string]string{"id": id}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	departmentID := chi.URLParam(r, "departmentId")

	var payload departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "department name is required")
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.UpdateDepartment(r.Context(), user.CompanyID, departmentID, payload.Name); err != nil {
		if errors.Is(err, org.ErrDepartmentNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "department not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_error", "failed to update department", requestctx.GetRequestID(r.Context()))
		return
	}

	h.record(r, user, "department.update", "department", departmentID, nil, payload)
	api.Success(w, map[string]string{"id": departmentID}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	departmentID := chi.URLParam(r, "departmentId")

	if err := h.Service.DeleteDepartment(r.Context(), user.CompanyID, departmentID); err != nil {
		if errors.Is(err, org.ErrDepartmentNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "department not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusConflict, "delete_error", "department has positions or employees attached", requestctx.GetRequestID(r.Context()))
		return
	}

	h.record(r, user, "department.delete", "department", departmentID, nil, nil)
	api.Success(w, map[string]string{"id": departmentID}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	positions, err := h.Service.ListPositions(r.Context(), user.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list positions", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, positions, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreatePosition(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload positionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("departmentId", payload.DepartmentID, "department is required")
	v.Required("title", payload.Title, "title is required")
	if payload.Level < 1 {
		v.Add("level", "level must be a positive integer, 1 is the most senior")
	}
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Service.CreatePosition(r.Context(), user.CompanyID, org.Position{
		DepartmentID: payload.DepartmentID,
		Title:        payload.Title,
		Level:        payload.Level,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_error", "failed to create position", requestctx.GetRequestID(r.Context()))
		return
	}

	h.record(r, user, "position.create", "position", id, nil, payload)
	api.Created(w, map[string]string{"id": id}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	positionID := chi.URLParam(r, "positionId")

	var payload positionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("departmentId", payload.DepartmentID, "department is required")
	v.Required("title", payload.Title, "title is required")
	if payload.Level < 1 {
		v.Add("level", "level must be a positive integer, 1 is the most senior")
	}
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	err := h.Service.UpdatePosition(r.Context(), user.CompanyID, positionID, org.Position{
		DepartmentID: payload.DepartmentID,
		Title:        payload.Title,
		Level:        payload.Level,
	})
	if err != nil {
		if errors.Is(err, org.ErrPositionNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "position not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_error", "failed to update position", requestctx.GetRequestID(r.Context()))
		return
	}

	h.record(r, user, "position.update", "position", positionID, nil, payload)
	api.Success(w, map[string]string{"id": positionID}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeletePosition(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	positionID := chi.URLParam(r, "positionId")

	if err := h.Service.DeletePosition(r.Context(), user.CompanyID, positionID); err != nil {
		if errors.Is(err, org.ErrPositionNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "position not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusConflict, "delete_error", "position still has employees assigned", requestctx.GetRequestID(r.Context()))
		return
	}

	h.record(r, user, "position.delete", "position", positionID, nil, nil)
	api.Success(w, map[string]string{"id": positionID}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employees, err := h.Service.ListEmployees(r.Context(), user.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list employees", requestctx.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	start := page.Offset
	if start > len(employees) {
		start = len(employees)
	}
	end := start + page.Limit
	if end > len(employees) {
		end = len(employees)
	}

	api.Success(w, map[string]any{
		"items": employees[start:end],
		"total": len(employees),
	}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeId")

	employee, err := h.Service.Employee(r.Context(), user.CompanyID, employeeID)
	if err != nil {
		if errors.Is(err, org.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "get_error", "failed to load employee", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employee, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Required("email", payload.Email, "email is required")
	v.Required("departmentId", payload.DepartmentID, "department is required")
	v.Required("positionId", payload.PositionID, "position is required")
	if len(payload.Password) < 8 {
		v.Add("password", "password must be at least 8 characters")
	}
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	roleID, err := h.Service.RoleIDByName(r.Context(), user.CompanyID, "employee")
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_error", "employee role is not provisioned for this company", requestctx.GetRequestID(r.Context()))
		return
	}

	id, err := h.Service.CreateEmployee(r.Context(), user.CompanyID, roleID, payload.Password, org.Employee{
		Name:         payload.Name,
		Email:        payload.Email,
		AvatarURL:    payload.AvatarURL,
		DepartmentID: payload.DepartmentID,
		PositionID:   payload.PositionID,
	})
	if err != nil {
		if errors.Is(err, org.ErrDepartmentMismatch) {
			api.Fail(w, http.StatusBadRequest, "department_mismatch", "position does not belong to the given department", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "create_error", "failed to create employee", requestctx.GetRequestID(r.Context()))
		return
	}

	payload.Password = ""
	h.record(r, user, "employee.create", "employee", id, nil, payload)
	api.Created(w, map[string]string{"id": id}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeId")

	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Required("departmentId", payload.DepartmentID, "department is required")
	v.Required("positionId", payload.PositionID, "position is required")
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	before, err := h.Service.Employee(r.Context(), user.CompanyID, employeeID)
	if err != nil {
		if errors.Is(err, org.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_error", "failed to load employee", requestctx.GetRequestID(r.Context()))
		return
	}

	err = h.Service.UpdateEmployee(r.Context(), user.CompanyID, employeeID, org.Employee{
		Name:         payload.Name,
		AvatarURL:    payload.AvatarURL,
		DepartmentID: payload.DepartmentID,
		PositionID:   payload.PositionID,
	})
	if err != nil {
		if errors.Is(err, org.ErrDepartmentMismatch) {
			api.Fail(w, http.StatusBadRequest, "department_mismatch", "position does not belong to the given department", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_error", "failed to update employee", requestctx.GetRequestID(r.Context()))
		return
	}

	payload.Password = ""
	h.record(r, user, "employee.update", "employee", employeeID, before, payload)
	api.Success(w, map[string]string{"id": employeeID}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeId")

	before, err := h.Service.Employee(r.Context(), user.CompanyID, employeeID)
	if err != nil {
		if errors.Is(err, org.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "delete_error", "failed to load employee", requestctx.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.DeleteEmployee(r.Context(), user.CompanyID, employeeID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "delete_error", "failed to delete employee", requestctx.GetRequestID(r.Context()))
		return
	}

	h.record(r, user, "employee.delete", "employee", employeeID, before, nil)
	api.Success(w, map[string]string{"id": employeeID}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityType, entityID string, before, after any) {
	err := h.Audit.Record(r.Context(), user.CompanyID, user.UserID, action, entityType, entityID,
		requestctx.GetRequestID(r.Context()), r.RemoteAddr, before, after)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
