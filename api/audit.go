package api

import (
	"net/http"
	"time"

	"github.com/kilianp07/drplan/core/planstore"
)

// listAudit serves GET /api/audit. start and end are RFC3339 bounds;
// malformed values are ignored.
func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	q := planstore.AuditQuery{
		PlanID: r.URL.Query().Get("plan_id"),
		Action: r.URL.Query().Get("action"),
	}
	if s := r.URL.Query().Get("start"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.Start = t
		}
	}
	if s := r.URL.Query().Get("end"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.End = t
		}
	}
	records, err := h.audit.Query(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if records == nil {
		records = []planstore.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
