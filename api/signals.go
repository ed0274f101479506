package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/drplan/core/model"
	"github.com/kilianp07/drplan/core/planstore"
)

func (h *Handler) listSignals(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	q := r.URL.Query()
	signals, err := h.coord.Signals(r.Context(), planstore.SignalQuery{
		PlanID: q.Get("plan_id"),
		Status: model.SignalStatus(q.Get("status")),
		Limit:  limit,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

func (h *Handler) getSignal(w http.ResponseWriter, r *http.Request) {
	sig, err := h.coord.Signal(r.Context(), chi.URLParam(r, "signalID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sig)
}

func (h *Handler) simulateResponse(w http.ResponseWriter, r *http.Request) {
	resp, err := h.coord.SimulateResponse(r.Context(), chi.URLParam(r, "signalID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
