package metrics

import "time"

// PlanRecord describes a freshly proposed plan.
type PlanRecord struct {
	PlanID      string
	Strategy    string
	Stress      string
	TargetMW    float64
	PredictedMW float64
	Confidence  float64
	Allocations int
	Degraded    bool
	Time        time.Time
}

// MetricsSink is implemented by every sink.
type MetricsSink interface {
	RecordPlan(rec PlanRecord) error
}

// TransitionRecord captures a plan status change.
type TransitionRecord struct {
	PlanID string
	From   string
	To     string
	Actor  string
	Time   time.Time
}

// TransitionRecorder records plan status changes.
type TransitionRecorder interface {
	RecordTransition(rec TransitionRecord) error
}

// SignalRecord captures a dispatched signal and its delivery outcome.
type SignalRecord struct {
	SignalID     string
	PlanID       string
	CohortID     string
	Type         string
	Status       string
	TargetKW     float64
	Acknowledged bool
	Latency      time.Duration
	Error        string
	Time         time.Time
}

// SignalRecorder records signal dispatch.
type SignalRecorder interface {
	RecordSignal(rec SignalRecord) error
}

// ResponseRecord captures a cohort response to a signal.
type ResponseRecord struct {
	SignalID              string
	PlanID                string
	CohortID              string
	Accepted              bool
	CommittedKW           float64
	ParticipatingAccounts int
	Time                  time.Time
}

// ResponseRecorder records cohort responses.
type ResponseRecorder interface {
	RecordResponse(rec ResponseRecord) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlan(PlanRecord) error             { return nil }
func (NopSink) RecordTransition(TransitionRecord) error { return nil }
func (NopSink) RecordSignal(SignalRecord) error         { return nil }
func (NopSink) RecordResponse(ResponseRecord) error     { return nil }
