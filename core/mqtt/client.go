package mqtt

import (
	"context"
	"time"

	"github.com/kilianp07/drplan/core/model"
)

// SignalPublisher delivers demand-response signals to cohort endpoints and
// tracks their acknowledgments.
type SignalPublisher interface {
	// SendSignal publishes the signal and returns the message identifier used
	// to track the acknowledgment.
	SendSignal(ctx context.Context, sig model.DRSignal) (messageID string, err error)

	// WaitForAck waits for an acknowledgment of the message, the timeout or
	// the end of the context, whichever comes first.
	WaitForAck(ctx context.Context, messageID string, timeout time.Duration) (bool, error)
}

// ResponseHandler receives cohort responses reported by endpoints.
type ResponseHandler func(model.SignalResponse)

// ResponseSource is implemented by publishers that also listen for cohort
// responses.
type ResponseSource interface {
	OnResponse(h ResponseHandler)
}
