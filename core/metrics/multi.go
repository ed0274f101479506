package metrics

import "errors"

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards to every sink. All sinks are tried; their errors are
// joined.
func (m *MultiSink) RecordPlan(rec PlanRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordPlan(rec))
	}
	return errors.Join(errs...)
}

// RecordTransition forwards to sinks implementing TransitionRecorder.
func (m *MultiSink) RecordTransition(rec TransitionRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(TransitionRecorder); ok {
			errs = append(errs, r.RecordTransition(rec))
		}
	}
	return errors.Join(errs...)
}

// RecordSignal forwards to sinks implementing SignalRecorder.
func (m *MultiSink) RecordSignal(rec SignalRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(SignalRecorder); ok {
			errs = append(errs, r.RecordSignal(rec))
		}
	}
	return errors.Join(errs...)
}

// RecordResponse forwards to sinks implementing ResponseRecorder.
func (m *MultiSink) RecordResponse(rec ResponseRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(ResponseRecorder); ok {
			errs = append(errs, r.RecordResponse(rec))
		}
	}
	return errors.Join(errs...)
}
