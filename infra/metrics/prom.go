package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/drplan/core/metrics"
)

// PromSink records plan lifecycle metrics in Prometheus collectors.
type PromSink struct {
	plans       *prometheus.CounterVec
	confidence  prometheus.Gauge
	predicted   *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	signals     *prometheus.CounterVec
	ackLatency  prometheus.Histogram
	committed   *prometheus.CounterVec
}

// NewPromSink registers metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dr_plans_total",
			Help: "Number of proposed demand-response plans",
		}, []string{"strategy", "stress"}),
		confidence: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dr_plan_confidence",
			Help: "Confidence score of the latest proposed plan",
		}),
		predicted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dr_plan_predicted_mw",
			Help: "Predicted reduction of the latest plan per strategy",
		}, []string{"strategy"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dr_plan_transitions_total",
			Help: "Plan status changes",
		}, []string{"to"}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dr_signals_total",
			Help: "Signals dispatched to cohorts by resulting status",
		}, []string{"status"}),
		ackLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dr_signal_ack_latency_seconds",
			Help:    "Time between signal publish and acknowledgment",
			Buckets: prometheus.DefBuckets,
		}),
		committed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dr_committed_kw_total",
			Help: "Committed reduction reported by cohort responses",
		}, []string{"cohort"}),
	}
	var err error
	if s.plans, err = register(reg, s.plans); err != nil {
		return nil, err
	}
	if s.confidence, err = register(reg, s.confidence); err != nil {
		return nil, err
	}
	if s.predicted, err = register(reg, s.predicted); err != nil {
		return nil, err
	}
	if s.transitions, err = register(reg, s.transitions); err != nil {
		return nil, err
	}
	if s.signals, err = register(reg, s.signals); err != nil {
		return nil, err
	}
	if s.ackLatency, err = register(reg, s.ackLatency); err != nil {
		return nil, err
	}
	if s.committed, err = register(reg, s.committed); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPlan counts the plan and updates the latest-plan gauges.
func (s *PromSink) RecordPlan(rec coremetrics.PlanRecord) error {
	s.plans.WithLabelValues(rec.Strategy, rec.Stress).Inc()
	s.confidence.Set(rec.Confidence)
	s.predicted.WithLabelValues(rec.Strategy).Set(rec.PredictedMW)
	return nil
}

func (s *PromSink) RecordTransition(rec coremetrics.TransitionRecord) error {
	s.transitions.WithLabelValues(rec.To).Inc()
	return nil
}

func (s *PromSink) RecordSignal(rec coremetrics.SignalRecord) error {
	s.signals.WithLabelValues(rec.Status).Inc()
	if rec.Acknowledged {
		s.ackLatency.Observe(rec.Latency.Seconds())
	}
	return nil
}

func (s *PromSink) RecordResponse(rec coremetrics.ResponseRecord) error {
	if rec.CommittedKW > 0 {
		s.committed.WithLabelValues(rec.CohortID).Add(rec.CommittedKW)
	}
	return nil
}
