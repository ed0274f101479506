package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/drplan/core/model"
	"github.com/kilianp07/drplan/core/planner"
)

type proposalRequest struct {
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
	Strategy        string    `json:"strategy"`
	TargetMW        *float64  `json:"target_mw"`
	CohortIDs       []string  `json:"cohort_ids"`
	SelectedCohorts []string  `json:"selected_cohorts"`
}

type decisionRequest struct {
	OperatorID string `json:"operator_id"`
	Notes      string `json:"notes"`
	Reason     string `json:"reason"`
}

func (h *Handler) proposePlan(w http.ResponseWriter, r *http.Request) {
	var body proposalRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	strategy, err := model.ParseStrategy(body.Strategy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ids := body.CohortIDs
	if len(ids) == 0 {
		ids = body.SelectedCohorts
	}
	plan, err := h.coord.Propose(r.Context(), planner.Request{
		WindowStart: body.WindowStart,
		WindowEnd:   body.WindowEnd,
		Strategy:    strategy,
		TargetMW:    body.TargetMW,
		CohortIDs:   ids,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	plans, err := h.coord.List(r.Context(), model.PlanStatus(r.URL.Query().Get("status")), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.coord.Get(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) planStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.coord.Status(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// decision reads operator fields from the JSON body, falling back to query
// parameters.
func decision(w http.ResponseWriter, r *http.Request) (decisionRequest, bool) {
	var d decisionRequest
	if err := decodeBody(r, &d); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return d, false
	}
	q := r.URL.Query()
	if d.OperatorID == "" {
		d.OperatorID = q.Get("operator_id")
	}
	if d.Notes == "" {
		d.Notes = q.Get("notes")
	}
	if d.Reason == "" {
		d.Reason = q.Get("reason")
	}
	if strings.TrimSpace(d.OperatorID) == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "operator_id is required")
		return d, false
	}
	return d, true
}

func (h *Handler) approvePlan(w http.ResponseWriter, r *http.Request) {
	d, ok := decision(w, r)
	if !ok {
		return
	}
	res, err := h.coord.Approve(r.Context(), chi.URLParam(r, "planID"), d.OperatorID, d.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan_id":      res.Plan.ID,
		"status":       res.Plan.Status,
		"message":      "Plan approved and signals dispatched",
		"signals":      res.Signals,
		"execution_id": res.Execution,
	})
}

func (h *Handler) rejectPlan(w http.ResponseWriter, r *http.Request) {
	d, ok := decision(w, r)
	if !ok {
		return
	}
	plan, err := h.coord.Reject(r.Context(), chi.URLParam(r, "planID"), d.OperatorID, d.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan_id": plan.ID,
		"status":  plan.Status,
		"message": "Plan rejected",
	})
}

// queryInt parses an optional integer query parameter, answering 400 on
// malformed input.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
