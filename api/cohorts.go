package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/drplan/core/cohort"
)

func (h *Handler) listCohorts(w http.ResponseWriter, r *http.Request) {
	cohorts, err := h.cohorts.Cohorts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cohorts)
}

func (h *Handler) cohortSummary(w http.ResponseWriter, r *http.Request) {
	cohorts, err := h.cohorts.Cohorts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cohort.Summary(cohorts))
}

func (h *Handler) getCohort(w http.ResponseWriter, r *http.Request) {
	c, err := cohort.Find(r.Context(), h.cohorts, chi.URLParam(r, "cohortID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) cohortFlexibility(w http.ResponseWriter, r *http.Request) {
	c, err := cohort.Find(r.Context(), h.cohorts, chi.URLParam(r, "cohortID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cohort.Flexibility(c, h.clock.Now()))
}
