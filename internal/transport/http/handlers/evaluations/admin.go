package evaluationhandler

import (
	"net/http"
	"strconv"
	"strings"

	"kpi/internal/domain/evaluation"
	"kpi/internal/transport/http/api"
	"kpi/internal/transport/http/middleware"
	"kpi/internal/transport/http/shared"
)

func (h *Handler) handleAdminList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	filter, ok := parseListFilter(w, r)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultPageSize, shared.MaxPageSize)
	filter.Limit = page.Limit
	filter.Offset = page.Offset

	items, err := h.Service.ListAll(r.Context(), actorFrom(user), filter)
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "evaluation_list_failed", "failed to list evaluations")
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdminSummary(w http.ResponseWriter, r *http.Request) {
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

	summary, err := h.Service.Summary(r.Context(), actorFrom(user), month, year)
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()), "summary_failed", "failed to build summary")
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

// parseListFilter leaves month and year at zero when they are not given, so an
// unfiltered admin list spans every period.
func parseListFilter(w http.ResponseWriter, r *http.Request) (evaluation.ListFilter, bool) {
	query := r.URL.Query()
	validator := shared.NewValidator()
	var filter evaluation.ListFilter
	if raw := strings.TrimSpace(query.Get("month")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			validator.Add("month", "must be between 1 and 12")
		}
		filter.Month = v
	}
	if raw := strings.TrimSpace(query.Get("year")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 2000 || v > 2100 {
			validator.Add("year", "must be between 2000 and 2100")
		}
		filter.Year = v
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		filter.Status = strings.ToUpper(raw)
		validator.Enum("status", filter.Status, evaluation.Statuses, "must be one of "+strings.Join(evaluation.Statuses, ", "))
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return evaluation.ListFilter{}, false
	}
	return filter, true
}
