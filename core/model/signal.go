package model

import "time"

// SignalType follows the OpenADR-style event categories.
type SignalType string

const (
	SignalDREvent   SignalType = "dr_event"
	SignalPrice     SignalType = "price_signal"
	SignalEmergency SignalType = "emergency"
	SignalTest      SignalType = "test"
)

// SignalStatus tracks delivery and response of a signal.
type SignalStatus string

const (
	SignalPending      SignalStatus = "pending"
	SignalSent         SignalStatus = "sent"
	SignalAcknowledged SignalStatus = "acknowledged"
	SignalAccepted     SignalStatus = "accepted"
	SignalDeclined     SignalStatus = "declined"
	SignalCompleted    SignalStatus = "completed"
)

// DRSignal is the event notification sent to one cohort for an approved plan.
type DRSignal struct {
	ID                string            `json:"id"`
	PlanID            string            `json:"plan_id"`
	CohortID          string            `json:"cohort_id"`
	SignalType        SignalType        `json:"signal_type"`
	CreatedAt         time.Time         `json:"created_at"`
	SentAt            *time.Time        `json:"sent_at,omitempty"`
	EventStart        time.Time         `json:"event_start"`
	EventEnd          time.Time         `json:"event_end"`
	TargetReductionKW float64           `json:"target_reduction_kw"`
	Message           string            `json:"message"`
	Status            SignalStatus      `json:"status"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	Response          *SignalResponse   `json:"response,omitempty"`
}

// SignalResponse is the (simulated) reply of a cohort endpoint.
type SignalResponse struct {
	SignalID              string    `json:"signal_id"`
	CohortID              string    `json:"cohort_id"`
	RespondedAt           time.Time `json:"responded_at"`
	Accepted              bool      `json:"accepted"`
	ParticipatingAccounts int       `json:"participating_accounts"`
	CommittedKW           float64   `json:"committed_kw"`
	Reason                string    `json:"reason,omitempty"`
}
