package evaluationhandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"kpi/internal/domain/audit"
	"kpi/internal/domain/evaluation"
	"kpi/internal/domain/notifications"
	"kpi/internal/platform/metrics"
	"kpi/internal/transport/http/api"
	"kpi/internal/transport/http/middleware"
	"kpi/internal/transport/http/shared"
)

const reviewEndpoint = "approvals.review"

func (h *Handler) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	items, err := h.Service.ListSubordinates(r.Context(), actorFrom(user))
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "approval_list_failed", "failed to list approvals")
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprovalDetail(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	evaluationID := chi.URLParam(r, "evaluationID")
	validator := shared.NewValidator()
	validator.UUID("evaluationId", evaluationID)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	ev, err := h.Service.Detail(r.Context(), actorFrom(user), evaluationID)
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "evaluation_load_failed", "failed to load evaluation")
		return
	}
	api.Success(w, ev, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	var payload reviewPayload
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.Decision = strings.ToUpper(strings.TrimSpace(payload.Decision))
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	idempotencyKey := middleware.NormalizeIdempotencyKey(r.Header.Get(middleware.IdempotencyKeyHeader))
	requestHash := middleware.RequestHash(raw)
	if idempotencyKey != "" {
		stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, reviewEndpoint, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", middleware.GetRequestID(r.Context()))
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "err", err)
		}
		if found {
			api.Success(w, json.RawMessage(stored), middleware.GetRequestID(r.Context()))
			return
		}
	}

	result, err := h.Service.Review(r.Context(), actorFrom(user), evaluation.ReviewInput{
		EvaluationID: payload.EvaluationID,
		Decision:     payload.Decision,
		Scores:       payload.Scores,
		Comment:      payload.Comment,
	})
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "review_failed", "failed to record review")
		return
	}

	h.Metrics.Inc(metrics.EventEvaluationReviewed)
	h.record(r, user.UserID, audit.ActionEvaluationReview, result.EvaluationID, nil, map[string]any{
		"decision": payload.Decision,
		"status":   result.Status,
		"score":    result.Score,
		"reviewId": result.ReviewID,
	})
	ntype, title := decisionNotification(payload.Decision)
	h.notify(r, result.OwnerID, ntype, title, decisionBody(payload.Decision, result, payload.Comment))

	if idempotencyKey != "" {
		encoded, err := json.Marshal(result)
		if err != nil {
			slog.Warn("idempotency response marshal failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), user.UserID, reviewEndpoint, idempotencyKey, requestHash, encoded); err != nil {
			slog.Warn("idempotency save failed", "err", err)
		}
	}

	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func decisionNotification(decision string) (string, string) {
	switch decision {
	case evaluation.DecisionApprove:
		return notifications.TypeEvaluationApproved, "KPI evaluation approved"
	case evaluation.DecisionReject:
		return notifications.TypeEvaluationRejected, "KPI evaluation rejected"
	case evaluation.DecisionRevise:
		return notifications.TypeEvaluationReturned, "KPI evaluation returned for revision"
	default:
		return notifications.TypeEvaluationReviewed, "KPI evaluation reviewed"
	}
}

func decisionBody(decision string, result evaluation.ReviewResult, comment string) string {
	body := fmt.Sprintf("Your KPI evaluation for %02d/%d is now %s (manager score %.2f).", result.Month, result.Year, result.Status, result.Score)
	if decision == evaluation.DecisionRevise {
		body = fmt.Sprintf("Your KPI evaluation for %02d/%d was returned to draft.", result.Month, result.Year)
	}
	if comment = strings.TrimSpace(comment); comment != "" {
		body += "\n\n" + comment
	}
	return body
}
