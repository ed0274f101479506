// Package api exposes plans, signals, cohorts and execution history over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/drplan/core/cohort"
	"github.com/kilianp07/drplan/core/coordinator"
	"github.com/kilianp07/drplan/core/history"
	"github.com/kilianp07/drplan/core/logger"
	"github.com/kilianp07/drplan/core/planner"
	"github.com/kilianp07/drplan/core/planstore"
)

// Handler serves the HTTP API.
type Handler struct {
	coord   *coordinator.Coordinator
	cohorts cohort.Source
	history *history.Tracker
	audit   planstore.AuditLog
	clock   planner.Clock
	log     logger.Logger
}

// Option customizes a Handler.
type Option func(*Handler)

// WithClock overrides the clock used for flexibility and history summaries.
func WithClock(c planner.Clock) Option { return func(h *Handler) { h.clock = c } }

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option { return func(h *Handler) { h.log = logger.OrNop(l) } }

// WithAudit exposes the audit trail on /api/audit.
func WithAudit(a planstore.AuditLog) Option { return func(h *Handler) { h.audit = a } }

// NewHandler creates a Handler.
func NewHandler(coord *coordinator.Coordinator, cohorts cohort.Source, hist *history.Tracker, opts ...Option) (*Handler, error) {
	if coord == nil || cohorts == nil || hist == nil {
		return nil, errors.New("api: coordinator, cohorts and history are required")
	}
	h := &Handler{
		coord:   coord,
		cohorts: cohorts,
		history: hist,
		audit:   planstore.NopAudit{},
		clock:   planner.SystemClock{},
		log:     logger.Nop{},
	}
	for _, o := range opts {
		o(h)
	}
	return h, nil
}

// NewRouter mounts every route. metrics, when non-nil, is served on /metrics.
func NewRouter(h *Handler, cfg Config, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware(h.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(bearerAuth(cfg.AuthToken))
		r.Route("/plans", func(r chi.Router) {
			r.Post("/propose", h.proposePlan)
			r.Get("/", h.listPlans)
			r.Get("/{planID}", h.getPlan)
			r.Get("/{planID}/status", h.planStatus)
			r.Post("/{planID}/approve", h.approvePlan)
			r.Post("/{planID}/reject", h.rejectPlan)
		})
		r.Route("/signals", func(r chi.Router) {
			r.Get("/", h.listSignals)
			r.Get("/{signalID}", h.getSignal)
			r.Post("/{signalID}/simulate-response", h.simulateResponse)
		})
		r.Route("/cohorts", func(r chi.Router) {
			r.Get("/", h.listCohorts)
			r.Get("/summary", h.cohortSummary)
			r.Get("/{cohortID}", h.getCohort)
			r.Get("/{cohortID}/flexibility", h.cohortFlexibility)
		})
		r.Route("/history", func(r chi.Router) {
			r.Get("/summary", h.historySummary)
			r.Get("/executions", h.listExecutions)
		})
		r.Get("/audit", h.listAudit)
	})
	return r
}

// NewServer builds the http.Server for cfg.
func NewServer(cfg Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		ReadTimeout:       time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
	}
}
