package events

import (
	"time"

	"github.com/kilianp07/drplan/core/model"
)

// SignalEvent is published for each signal dispatch attempt.
type SignalEvent struct {
	Signal       model.DRSignal
	Acknowledged bool
	Err          error
	Latency      time.Duration
	Time         time.Time
}

// ResponseEvent is published when a cohort response is recorded.
type ResponseEvent struct {
	Signal   model.DRSignal
	Response model.SignalResponse
	Time     time.Time
}
