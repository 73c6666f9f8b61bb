package authhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/go-chi/chi/v5"

	"kpi/internal/domain/audit"
	"kpi/internal/domain/auth"
	"kpi/internal/domain/core"
	"kpi/internal/domain/notifications"
	"kpi/internal/platform/metrics"
	"kpi/internal/transport/http/api"
	"kpi/internal/transport/http/middleware"
	"kpi/internal/transport/http/shared"
)

const defaultBaseURL = "http://localhost:8080"

type Handler struct {
	Auth       *auth.Service
	Users      *core.Service
	Notify     *notifications.Service
	Audit      *audit.Service
	Metrics    *metrics.Collector
	Secret     string
	TokenTTL   time.Duration
	ResetTTL   time.Duration
	AppBaseURL string
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Post("/register", h.HandleRegister)
		r.Post("/request-reset", h.HandleRequestReset)
		r.Post("/reset", h.HandleResetPassword)
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required,max=128"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

type loginUser struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	Role         string            `json:"role"`
	DepartmentID string            `json:"departmentId"`
	Capabilities auth.Capabilities `json:"capabilities"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	creds, err := h.Auth.Authenticate(r.Context(), core.NormalizeEmail(payload.Email), payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.Metrics.Inc(metrics.EventLoginFailed)
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		slog.Error("login lookup failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:       creds.ID,
		RoleName:     creds.RoleName,
		DepartmentID: creds.DepartmentID,
	}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{
		"token": token,
		"user": loginUser{
			ID:           creds.ID,
			Email:        creds.Email,
			Name:         creds.Name,
			Role:         creds.RoleName,
			DepartmentID: creds.DepartmentID,
			Capabilities: auth.CapabilitiesFor(creds.RoleName),
		},
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var payload core.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	user, err := h.Users.Register(r.Context(), payload)
	if err != nil {
		if errors.Is(err, core.ErrSignupDisabled) {
			api.Fail(w, http.StatusForbidden, "signup_disabled", "self registration is disabled", middleware.GetRequestID(r.Context()))
			return
		}
		if field := core.ErrorField(err); field != "" {
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: field, Reason: err.Error()}})
			return
		}
		slog.Error("register failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "register_failed", "failed to register", middleware.GetRequestID(r.Context()))
		return
	}

	h.Metrics.Inc(metrics.EventUserRegistered)
	if h.Audit != nil {
		if err := h.Audit.Record(r.Context(), user.ID, audit.ActionUserRegister, "user", user.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, user); err != nil {
			slog.Warn("audit user.register failed", "err", err)
		}
	}
	api.Created(w, user, middleware.GetRequestID(r.Context()))
}

// HandleRequestReset answers the same way whether or not the account exists.
func (h *Handler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	var payload resetRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	creds, token, ok, err := h.Auth.RequestReset(r.Context(), core.NormalizeEmail(payload.Email), h.ResetTTL)
	if err != nil {
		slog.Warn("password reset request failed", "err", err)
	}
	if ok && h.Notify != nil {
		link := buildResetLink(h.AppBaseURL, token)
		if err := h.Notify.SendEmail(r.Context(), creds.Email, "Password reset", buildResetEmailMessage(link, h.ResetTTL)); err != nil {
			slog.Warn("password reset email failed", "userId", creds.ID, "err", err)
		}
		if err := h.Notify.Create(r.Context(), creds.ID, notifications.TypePasswordReset, "Password reset requested", "A password reset link was sent to your e-mail address."); err != nil {
			slog.Warn("password reset notification failed", "userId", creds.ID, "err", err)
		}
	}

	api.Success(w, map[string]string{"status": "reset_requested"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	err := h.Auth.ResetPassword(r.Context(), payload.Token, payload.NewPassword)
	if errors.Is(err, auth.ErrResetTokenInvalid) {
		api.Fail(w, http.StatusBadRequest, "invalid_token", "invalid or expired token", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		slog.Error("password reset failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update password", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"status": "password_reset"}, middleware.GetRequestID(r.Context()))
}

// buildResetLink points at the SPA reset route under baseURL, falling back to
// the local default when baseURL is empty or not absolute.
func buildResetLink(baseURL, token string) string {
	parsed, err := url.Parse(baseURL)
	if baseURL == "" || err != nil || parsed.Scheme == "" || parsed.Host == "" {
		parsed, _ = url.Parse(defaultBaseURL)
	}
	parsed.Path = path.Join("/", parsed.Path, "reset")
	query := url.Values{}
	query.Set("token", token)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func buildResetEmailMessage(link string, ttl time.Duration) string {
	hours := int(ttl.Hours())
	if hours < 1 {
		hours = 1
	}
	return fmt.Sprintf("A password reset was requested for your KPI account.\n\nOpen the link below to choose a new password:\n%s\n\nThe link expires in %d hour(s). If you did not ask for a reset, ignore this message.", link, hours)
}
