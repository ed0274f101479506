package api

import (
	"net/http"

	"github.com/kilianp07/drplan/core/model"
)

const defaultSummaryDays = 30

func (h *Handler) historySummary(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(w, r, "days")
	if !ok {
		return
	}
	if days == 0 {
		days = defaultSummaryDays
	}
	writeJSON(w, http.StatusOK, h.history.Summary(r.Context(), days, h.clock.Now()))
}

func (h *Handler) listExecutions(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	status := model.ExecutionStatus(r.URL.Query().Get("status"))
	writeJSON(w, http.StatusOK, h.history.List(r.Context(), limit, status))
}
