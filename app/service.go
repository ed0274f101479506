package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/drplan/api"
	"github.com/kilianp07/drplan/config"
	gridfactory "github.com/kilianp07/drplan/connectors/factory"
	"github.com/kilianp07/drplan/core/cohort"
	"github.com/kilianp07/drplan/core/coordinator"
	"github.com/kilianp07/drplan/core/history"
	coremetrics "github.com/kilianp07/drplan/core/metrics"
	coremon "github.com/kilianp07/drplan/core/monitoring"
	coremqtt "github.com/kilianp07/drplan/core/mqtt"
	"github.com/kilianp07/drplan/core/planner"
	"github.com/kilianp07/drplan/core/planstore"
	"github.com/kilianp07/drplan/infra/logger"
	"github.com/kilianp07/drplan/infra/metrics"
	"github.com/kilianp07/drplan/infra/monitoring"
	"github.com/kilianp07/drplan/infra/mqtt"
	"github.com/kilianp07/drplan/internal/eventbus"
)

const shutdownTimeout = 5 * time.Second

// Service wires the planner, the coordinator and the HTTP API.
type Service struct {
	Planner     *planner.Planner
	Coordinator *coordinator.Coordinator
	Cohorts     cohort.Source
	History     *history.Tracker

	server   *http.Server
	bus      eventbus.EventBus
	sink     coremetrics.MetricsSink
	store    planstore.Store
	audit    planstore.AuditLog
	client   *mqtt.PahoClient
	log      logger.Logger
	promAddr string
}

// NewPlanner builds the planner and its data sources from the configuration.
// The CLI uses it on its own for one-shot proposals.
func NewPlanner(cfg *config.Config) (*planner.Planner, cohort.Source, error) {
	grid, err := gridfactory.NewGridConnector(cfg.Grid)
	if err != nil {
		return nil, nil, fmt.Errorf("grid connector: %w", err)
	}
	cohorts := cohort.NewFileSource(cfg.Cohorts.Path)
	p, err := planner.New(cfg.Planner, grid, cohorts, planner.WithLogger(logger.New("planner")))
	if err != nil {
		return nil, nil, fmt.Errorf("planner: %w", err)
	}
	return p, cohorts, nil
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	cfg.Logging.Apply()
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	p, cohorts, err := NewPlanner(cfg)
	if err != nil {
		return nil, err
	}
	store, err := planstore.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("plan store: %w", err)
	}
	audit, err := planstore.NewAuditLog(cfg.Audit)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("audit log: %w", err)
	}
	hist, err := history.NewTracker(cfg.History.Path)
	if err != nil {
		_ = store.Close()
		_ = audit.Close()
		return nil, fmt.Errorf("history: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = store.Close()
		_ = audit.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	svc := &Service{
		Planner:  p,
		Cohorts:  cohorts,
		History:  hist,
		bus:      eventbus.New(),
		sink:     sink,
		store:    store,
		audit:    audit,
		log:      logg,
		promAddr: cfg.Metrics.PrometheusAddr,
	}

	var publisher coremqtt.SignalPublisher = mqtt.NewMockPublisher()
	opts := []coordinator.Option{
		coordinator.WithAudit(audit),
		coordinator.WithEventBus(svc.bus),
		coordinator.WithLogger(logger.New("coordinator")),
	}
	if cfg.MQTT.Enabled() {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.client = client
		publisher = client
		opts = append(opts, coordinator.WithAckTimeout(cfg.MQTT.AckTimeout()))
	} else {
		logg.Warnf("no mqtt broker configured, signals are delivered in memory")
	}

	coord, err := coordinator.New(p, store, publisher, cohorts, hist, opts...)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("coordinator: %w", err)
	}
	svc.Coordinator = coord

	h, err := api.NewHandler(coord, cohorts, hist,
		api.WithAudit(audit),
		api.WithLogger(logger.New("api")),
	)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("api: %w", err)
	}
	svc.server = api.NewServer(cfg.API, api.NewRouter(h, cfg.API, metrics.Handler(nil)))
	return svc, nil
}

// Run serves the API and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	collected := metrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.promAddr != "" {
		coremon.Go(func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		})
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("api listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		runErr = fmt.Errorf("api server: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log.Warnf("api shutdown: %v", err)
	}
	s.bus.Close()
	<-collected
	return runErr
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.client != nil {
		s.client.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(s.audit.Close(), s.store.Close())
}
