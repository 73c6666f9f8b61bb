package evaluationhandler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kpi/internal/domain/audit"
	"kpi/internal/domain/auth"
	"kpi/internal/domain/evaluation"
	"kpi/internal/domain/notifications"
	"kpi/internal/platform/metrics"
	"kpi/internal/transport/http/api"
	"kpi/internal/transport/http/middleware"
	"kpi/internal/transport/http/shared"
)

type Handler struct {
	Service     *evaluation.Service
	Notify      *notifications.Service
	Audit       *audit.Service
	Idempotency *middleware.IdempotencyStore
	Metrics     *metrics.Collector
	Now         func() time.Time
}

func NewHandler(service *evaluation.Service, notify *notifications.Service, auditSvc *audit.Service, idem *middleware.IdempotencyStore, collector *metrics.Collector) *Handler {
	return &Handler{
		Service:     service,
		Notify:      notify,
		Audit:       auditSvc,
		Idempotency: idem,
		Metrics:     collector,
		Now:         time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/evaluations", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireCapability(middleware.CanSelfEvaluate))
			r.Post("/", h.handleSave)
			r.Post("/submit", h.handleSubmit)
		})
		r.Post("/validate", h.handleValidate)
		r.Get("/{evaluationID}/pdf", h.handlePDF)
	})
	r.Route("/approvals", func(r chi.Router) {
		r.Use(middleware.RequireCapability(middleware.CanReviewSubordinates))
		r.Get("/", h.handleListApprovals)
		r.Post("/", h.handleReview)
		r.Get("/{evaluationID}", h.handleApprovalDetail)
	})
	r.Route("/admin/evaluations", func(r chi.Router) {
		r.Use(middleware.RequireCapability(middleware.CanViewAll))
		r.Get("/", h.handleAdminList)
		r.Get("/summary", h.handleAdminSummary)
	})
}

func actorFrom(user auth.UserContext) evaluation.Actor {
	return evaluation.Actor{ID: user.UserID, Role: user.RoleName}
}

// writeError maps workflow errors onto the envelope. Anything unrecognised is
// logged and reported as a 500 with the given code.
func writeError(w http.ResponseWriter, err error, requestID, failCode, failMessage string) {
	var weightErr *evaluation.WeightError
	switch {
	case errors.As(err, &weightErr):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{
			Field:  "tasks",
			Reason: fmt.Sprintf("weights must total %d (got %.2f)", evaluation.WeightTarget, weightErr.Total),
		}})
	case errors.Is(err, evaluation.ErrInvalidWeights):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "tasks", Reason: "weights must total 100"}})
	case errors.Is(err, evaluation.ErrUnauthorized):
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
	case errors.Is(err, evaluation.ErrLocked):
		api.Fail(w, http.StatusForbidden, "evaluation_locked", "evaluation is locked", requestID)
	case errors.Is(err, evaluation.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
	case errors.Is(err, evaluation.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "evaluation not found", requestID)
	case errors.Is(err, evaluation.ErrInvalidState), errors.Is(err, evaluation.ErrInvalidDecision):
		api.Fail(w, http.StatusBadRequest, "invalid_state", err.Error(), requestID)
	case errors.Is(err, evaluation.ErrConflict):
		api.Fail(w, http.StatusConflict, "conflict", "evaluation was modified, reload and retry", requestID)
	case errors.Is(err, evaluation.ErrInvalidPeriod):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{
			{Field: "month", Reason: "must be between 1 and 12"},
			{Field: "year", Reason: "must be between 2000 and 2100"},
		})
	case errors.Is(err, evaluation.ErrUnknownTask):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "scores", Reason: "references a task outside this evaluation"}})
	case errors.Is(err, evaluation.ErrInvalidScore):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "scores", Reason: "must be between 0 and 100"}})
	default:
		slog.Error(failMessage, "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, failCode, failMessage, requestID)
	}
}

func (h *Handler) record(r *http.Request, actorID, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), actorID, action, "evaluation", entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}

func (h *Handler) notify(r *http.Request, userID, ntype, title, body string) {
	if h.Notify == nil || userID == "" {
		return
	}
	if err := h.Notify.Create(r.Context(), userID, ntype, title, body); err != nil {
		slog.Warn("notification "+ntype+" failed", "userId", userID, "err", err)
	}
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}
