package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drplan/core/cohort"
	"github.com/kilianp07/drplan/core/coordinator"
	"github.com/kilianp07/drplan/core/history"
	"github.com/kilianp07/drplan/core/model"
	"github.com/kilianp07/drplan/core/planner"
	"github.com/kilianp07/drplan/core/planstore"
	infmqtt "github.com/kilianp07/drplan/infra/mqtt"
)

var now = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

// validatingPlanner returns a fixed plan for any valid request.
type validatingPlanner struct{}

func (validatingPlanner) CreatePlan(_ context.Context, req planner.Request) (model.DRPlan, error) {
	if err := req.Validate(); err != nil {
		return model.DRPlan{}, err
	}
	return model.DRPlan{
		ID:               "DR_api",
		CreatedAt:        now,
		WindowStart:      req.WindowStart,
		WindowEnd:        req.WindowEnd,
		Strategy:         req.Strategy,
		TargetMWTotal:    6,
		PredictedMWTotal: 4,
		CohortAllocations: []model.CohortAllocation{
			{CohortID: "ev", CohortName: "EV", TargetMW: 4, NumAccounts: 2000},
			{CohortID: "hvac", CohortName: "HVAC", TargetMW: 2, NumAccounts: 40},
		},
	}, nil
}

type testServer struct {
	router http.Handler
	hist   *history.Tracker
}

func newTestServer(t *testing.T, cfg Config) testServer {
	t.Helper()
	cat, err := cohort.NewCatalog([]model.Cohort{
		{ID: "ev", Name: "EV", Segment: model.SegmentResidentialEV, NumAccounts: 2000, FlexKWPerAccount: 2, BaselineAcceptanceRate: 0.5, PeakHours: []int{18}},
		{ID: "hvac", Name: "HVAC", Segment: model.SegmentCommercialHVAC, NumAccounts: 40, FlexKWPerAccount: 50, BaselineAcceptanceRate: 1},
	})
	require.NoError(t, err)
	hist, err := history.NewTracker("", history.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	audit, err := planstore.NewRotatingAuditLog(filepath.Join(t.TempDir(), "audit.log"), 1, 1, 1)
	require.NoError(t, err)
	t.Cleanup(func() { audit.Close() })

	coord, err := coordinator.New(validatingPlanner{}, planstore.NewMemoryStore(), infmqtt.NewMockPublisher(), cat, hist,
		coordinator.WithAudit(audit),
		coordinator.WithClock(planner.FixedClock{T: now}),
	)
	require.NoError(t, err)
	h, err := NewHandler(coord, cat, hist, WithAudit(audit), WithClock(planner.FixedClock{T: now}))
	require.NoError(t, err)
	return testServer{router: NewRouter(h, cfg, nil), hist: hist}
}

func (s testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func proposal() map[string]any {
	return map[string]any{
		"window_start": now.Add(5 * time.Hour),
		"window_end":   now.Add(7 * time.Hour),
		"strategy":     "balanced",
	}
}

func TestPlanLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, Config{})

	rr := s.do(t, http.MethodPost, "/api/plans/propose", proposal())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	plan := decode[model.DRPlan](t, rr)
	assert.Equal(t, model.PlanProposed, plan.Status)

	rr = s.do(t, http.MethodGet, "/api/plans?status=proposed", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.DRPlan](t, rr), 1)

	rr = s.do(t, http.MethodPost, "/api/plans/DR_api/approve", map[string]string{"operator_id": "op1", "notes": "go"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	approval := decode[map[string]any](t, rr)
	assert.Equal(t, "in_progress", approval["status"])
	assert.Len(t, approval["signals"], 2)

	rr = s.do(t, http.MethodGet, "/api/signals?plan_id=DR_api", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.DRSignal](t, rr), 2)

	for _, id := range []string{"SIG_DR_api_ev", "SIG_DR_api_hvac"} {
		rr = s.do(t, http.MethodPost, "/api/signals/"+id+"/simulate-response", nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr = s.do(t, http.MethodGet, "/api/plans/DR_api/status", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	st := decode[coordinator.StatusReport](t, rr)
	assert.Equal(t, model.PlanCompleted, st.Status)
	assert.Equal(t, 2, st.Responses)

	rr = s.do(t, http.MethodGet, "/api/history/executions?status=completed", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	execs := decode[[]model.PlanExecution](t, rr)
	require.Len(t, execs, 1)
	assert.Equal(t, "DR_api", execs[0].PlanID)

	rr = s.do(t, http.MethodGet, "/api/history/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decode[model.HistoricalSummary](t, rr).TotalPlans)

	rr = s.do(t, http.MethodGet, "/api/audit?plan_id=DR_api&action="+planstore.ActionApproved, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	records := decode[[]planstore.AuditRecord](t, rr)
	require.Len(t, records, 1)
	assert.Equal(t, "op1", records[0].Actor)
}

func TestRejectPlanOverHTTP(t *testing.T) {
	s := newTestServer(t, Config{})
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/plans/propose", proposal()).Code)

	rr := s.do(t, http.MethodPost, "/api/plans/DR_api/reject?operator_id=op2&reason=too+expensive", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "rejected", decode[map[string]any](t, rr)["status"])

	rr = s.do(t, http.MethodPost, "/api/plans/DR_api/approve", map[string]string{"operator_id": "op1"})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t, Config{})

	bad := proposal()
	bad["strategy"] = "cheapest"
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/plans/propose", bad).Code)

	noWindow := map[string]any{"strategy": "balanced"}
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/plans/propose", noWindow).Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/plans/missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/signals/missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/cohorts/missing", nil).Code)

	rr := s.do(t, http.MethodPost, "/api/plans/missing/approve", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_REQUEST", decode[apiError](t, rr).Code)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/plans?limit=abc", nil).Code)
}

func TestCohortRoutes(t *testing.T) {
	s := newTestServer(t, Config{})

	rr := s.do(t, http.MethodGet, "/api/cohorts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Cohort](t, rr), 2)

	rr = s.do(t, http.MethodGet, "/api/cohorts/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	sum := decode[cohort.CatalogSummary](t, rr)
	assert.Equal(t, 2, sum.TotalCohorts)

	rr = s.do(t, http.MethodGet, "/api/cohorts/ev", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "EV", decode[model.Cohort](t, rr).Name)

	rr = s.do(t, http.MethodGet, "/api/cohorts/ev/flexibility", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestBearerAuth(t *testing.T) {
	s := newTestServer(t, Config{AuthToken: "secret"})

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/cohorts", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/cohorts", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestRecoverMiddleware(t *testing.T) {
	h := recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, 10, c.ReadTimeoutSeconds)
	assert.NoError(t, c.Validate())
	srv := NewServer(c, http.NotFoundHandler())
	assert.Equal(t, 10*time.Second, srv.ReadTimeout)
}
