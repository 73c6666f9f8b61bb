package corehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"kpi/internal/domain/audit"
	"kpi/internal/domain/auth"
	"kpi/internal/domain/core"
	"kpi/internal/transport/http/api"
	"kpi/internal/transport/http/middleware"
	"kpi/internal/transport/http/shared"
)

type Handler struct {
	Service *core.Service
	Audit   *audit.Service
}

func NewHandler(service *core.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/me", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", h.handleMe)
		r.Put("/", h.handleUpdateProfile)
		r.Put("/password", h.handleChangePassword)
	})
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireCapability(middleware.CanAdminUsers))
		r.Get("/", h.handleListUsers)
		r.Post("/", h.handleCreateUser)
		r.Get("/{userID}", h.handleGetUser)
		r.Put("/{userID}", h.handleUpdateUser)
	})
	r.Route("/departments", func(r chi.Router) {
		r.With(middleware.RequireUser).Get("/", h.handleListDepartments)
		r.With(middleware.RequireCapability(middleware.CanAdminUsers)).Post("/", h.handleCreateDepartment)
	})
}

type meResponse struct {
	User         core.User         `json:"user"`
	Capabilities auth.Capabilities `json:"capabilities"`
	Landing      string            `json:"landing"`
}

func newMeResponse(user core.User) meResponse {
	caps := auth.CapabilitiesFor(user.Role)
	return meResponse{User: user, Capabilities: caps, Landing: caps.Landing}
}

func writeError(w http.ResponseWriter, err error, requestID, failCode, failMessage string) {
	if errors.Is(err, core.ErrUserNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
		return
	}
	if field := core.ErrorField(err); field != "" {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: field, Reason: err.Error()}})
		return
	}
	slog.Error(failMessage, "err", err, "requestId", requestID)
	api.Fail(w, http.StatusInternalServerError, failCode, failMessage, requestID)
}

func (h *Handler) record(r *http.Request, actorID, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), actorID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	profile, err := h.Service.GetUser(r.Context(), user.UserID)
	if errors.Is(err, core.ErrUserNotFound) {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "profile_failed", "failed to load profile")
		return
	}
	api.Success(w, newMeResponse(profile), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload core.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	profile, err := h.Service.UpdateProfile(r.Context(), user.UserID, payload)
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "profile_update_failed", "failed to update profile")
		return
	}
	api.Success(w, newMeResponse(profile), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload core.PasswordChangeInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.ChangePassword(r.Context(), user.UserID, payload); err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "password_update_failed", "failed to update password")
		return
	}
	api.Success(w, map[string]string{"status": "password_changed"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, shared.DefaultPageSize, shared.MaxPageSize)
	users, err := h.Service.ListUsers(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "user_list_failed", "failed to list users")
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	validator := shared.NewValidator()
	validator.UUID("userId", userID)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "user_load_failed", "failed to load user")
		return
	}
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload core.CreateUserInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.Role = strings.ToUpper(strings.TrimSpace(payload.Role))
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	user, err := h.Service.CreateUser(r.Context(), payload)
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "user_create_failed", "failed to create user")
		return
	}
	h.record(r, actor.UserID, audit.ActionUserCreate, "user", user.ID, nil, user)
	api.Created(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	userID := chi.URLParam(r, "userID")

	var payload core.UpdateUserInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.Role = strings.ToUpper(strings.TrimSpace(payload.Role))
	validator := shared.NewValidator()
	validator.UUID("userId", userID)
	validator.Struct(payload)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	before, after, err := h.Service.UpdateUser(r.Context(), userID, payload)
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "user_update_failed", "failed to update user")
		return
	}
	h.record(r, actor.UserID, audit.ActionUserUpdate, "user", after.ID, before, after)
	api.Success(w, after, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	deps, err := h.Service.ListDepartments(r.Context())
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "department_list_failed", "failed to list departments")
		return
	}
	api.Success(w, deps, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload core.DepartmentInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	dep, err := h.Service.CreateDepartment(r.Context(), payload)
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "department_create_failed", "failed to create department")
		return
	}
	h.record(r, actor.UserID, audit.ActionDepartmentCreate, "department", dep.ID, nil, dep)
	api.Created(w, dep, middleware.GetRequestID(r.Context()))
}
