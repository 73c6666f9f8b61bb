package evaluationhandler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kpi/internal/domain/audit"
	"kpi/internal/domain/evaluation"
	"kpi/internal/domain/notifications"
	"kpi/internal/platform/metrics"
	"kpi/internal/transport/http/api"
	"kpi/internal/transport/http/middleware"
	"kpi/internal/transport/http/shared"
)

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	month, year, err := shared.ParsePeriod(r, h.now())
	if err != nil {
		writeError(w, evaluation.ErrInvalidPeriod, middleware.GetRequestID(r.Context()), "", "")
		return
	}

	ev, err := h.Service.Get(r.Context(), actorFrom(user), month, year)
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "evaluation_load_failed", "failed to load evaluation")
		return
	}
	if ev == nil {
		api.Success(w, nil, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, ev, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload savePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	validateTasks(validator, payload.Tasks)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.Save(r.Context(), actorFrom(user), evaluation.SaveInput{
		Month:   payload.Month,
		Year:    payload.Year,
		Tasks:   toTasks(payload.Tasks),
		Status:  payload.Status,
		Version: payload.Version,
	})
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "evaluation_save_failed", "failed to save evaluation")
		return
	}

	h.Metrics.Inc(metrics.EventEvaluationSaved)
	h.record(r, user.UserID, audit.ActionEvaluationSave, result.ID,
		map[string]any{"status": result.PreviousStatus},
		map[string]any{"status": result.Status, "totalScore": result.TotalScore, "rank": result.Rank, "version": result.Version},
	)
	if result.Submitted() {
		h.afterSubmit(r, user.UserID, result, payload.Month, payload.Year)
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.Submit(r.Context(), actorFrom(user), payload.Month, payload.Year, payload.Version)
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "evaluation_submit_failed", "failed to submit evaluation")
		return
	}
	if result.Submitted() {
		h.afterSubmit(r, user.UserID, result, payload.Month, payload.Year)
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

// afterSubmit runs the side effects of a move into SUBMITTED. A resubmission
// of an already submitted evaluation does not repeat them.
func (h *Handler) afterSubmit(r *http.Request, actorID string, result evaluation.SaveResult, month, year int) {
	h.Metrics.Inc(metrics.EventEvaluationSubmitted)
	h.record(r, actorID, audit.ActionEvaluationSubmit, result.ID,
		map[string]any{"status": result.PreviousStatus},
		map[string]any{"status": result.Status, "totalScore": result.TotalScore, "rank": result.Rank},
	)
	h.notify(r, result.ManagerID, notifications.TypeEvaluationSubmitted,
		"KPI evaluation submitted",
		fmt.Sprintf("A KPI evaluation for %02d/%d is waiting for your review.", month, year),
	)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUser(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload validatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	api.Success(w, evaluation.CheckWeights(toTasks(payload.Tasks)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	evaluationID := chi.URLParam(r, "evaluationID")
	validator := shared.NewValidator()
	validator.Required("evaluationId", evaluationID, "is required")
	validator.UUID("evaluationId", evaluationID)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	ev, err := h.Service.Detail(r.Context(), actorFrom(user), evaluationID)
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "evaluation_load_failed", "failed to load evaluation")
		return
	}

	var buf bytes.Buffer
	if err := evaluation.WritePDF(&buf, ev); err != nil {
		slog.Error("evaluation pdf render failed", "err", err, "evaluationId", ev.ID)
		api.Fail(w, http.StatusInternalServerError, "pdf_failed", "failed to render pdf", middleware.GetRequestID(r.Context()))
		return
	}
	filename := fmt.Sprintf("kpi-%d-%02d.pdf", ev.Year, ev.Month)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("evaluation pdf write failed", "err", err)
	}
}
