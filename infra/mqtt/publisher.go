package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/drplan/core/model"
	coremqtt "github.com/kilianp07/drplan/core/mqtt"
)

// SignalPublisher mirrors the core mqtt.SignalPublisher interface.
type SignalPublisher = coremqtt.SignalPublisher

// ErrPublishFailed is returned by MockPublisher for cohorts configured to fail.
var ErrPublishFailed = errors.New("publish failed")

// MockPublisher records signals in memory. It is used in tests and as the
// loopback publisher when no broker is configured.
type MockPublisher struct {
	Signals    map[string]model.DRSignal
	FailIDs    map[string]bool
	NoAckIDs   map[string]bool
	ackResults map[string]bool
	mu         sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Signals:    make(map[string]model.DRSignal),
		FailIDs:    make(map[string]bool),
		NoAckIDs:   make(map[string]bool),
		ackResults: make(map[string]bool),
	}
}

// SendSignal records the signal or fails when its cohort is in FailIDs.
func (m *MockPublisher) SendSignal(_ context.Context, sig model.DRSignal) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[sig.CohortID] {
		return "", fmt.Errorf("%w: cohort %s", ErrPublishFailed, sig.CohortID)
	}
	m.Signals[sig.ID] = sig
	msgID := "msg-" + sig.ID
	m.ackResults[msgID] = !m.NoAckIDs[sig.CohortID]
	return msgID, nil
}

// WaitForAck answers immediately: cohorts in NoAckIDs time out.
func (m *MockPublisher) WaitForAck(_ context.Context, messageID string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	ok, exists := m.ackResults[messageID]
	m.mu.Unlock()
	if !exists {
		return false, fmt.Errorf("%w: %s", coremqtt.ErrUnknownMessage, messageID)
	}
	if !ok {
		return false, coremqtt.ErrAckTimeout
	}
	return true, nil
}

// Sent returns a copy of the recorded signal.
func (m *MockPublisher) Sent(signalID string) (model.DRSignal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Signals[signalID]
	return s, ok
}
