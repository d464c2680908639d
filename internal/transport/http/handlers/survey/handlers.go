package surveyhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"evalsphere/internal/domain/survey"
	"evalsphere/internal/platform/requestctx"
	"evalsphere/internal/transport/http/api"
	"evalsphere/internal/transport/http/middleware"
	"evalsphere/internal/transport/http/shared"
)

type Handler struct {
	Service *survey.Service
}

func NewHandler(service *survey.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router, perms middleware.PermissionStore) {
	r.Route("/survey", func(r chi.Router) {
		r.With(middleware.RequirePermission("survey.read", perms)).Get("/questions", h.HandleListQuestions)
		r.With(middleware.RequirePermission("survey.write", perms)).Post("/questions", h.HandleCreateQuestion)
		r.With(middleware.RequirePermission("survey.write", perms)).Put("/questions/{questionId}", h.HandleUpdateQuestion)
		r.With(middleware.RequirePermission("survey.write", perms)).Delete("/questions/{questionId}", h.HandleDeleteQuestion)
	})
}

type questionRequest struct {
	Question string `json:"question"`
	Category string `json:"category"`
}

func (h *Handler) HandleListQuestions(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	questions, err := h.Service.ListQuestions(r.Context(), user.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list questions", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, questions, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload questionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("question", payload.Question, "question text is required")
	v.Required("category", payload.Category, "category is required")
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Service.CreateQuestion(r.Context(), user.CompanyID, payload.Question, payload.Category)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_error", "failed to create question", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	questionID := chi.URLParam(r, "questionId")

	var payload questionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("question", payload.Question, "question text is required")
	v.Required("category", payload.Category, "category is required")
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.UpdateQuestion(r.Context(), user.CompanyID, questionID, payload.Question, payload.Category); err != nil {
		if errors.Is(err, survey.ErrQuestionNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "question not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_error", "failed to update question", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"id": questionID}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	questionID := chi.URLParam(r, "questionId")

	if err := h.Service.DeleteQuestion(r.Context(), user.CompanyID, questionID); err != nil {
		if errors.Is(err, survey.ErrQuestionNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "question not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "delete_error", "failed to delete question", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"id": questionID}, requestctx.GetRequestID(r.Context()))
}
