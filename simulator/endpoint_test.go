package simulator

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drplan/core/model"
)

type doneToken struct{ err error }

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *doneToken) Error() error { return t.err }

type published struct {
	topic   string
	payload []byte
}

type recordingPub struct {
	mu  sync.Mutex
	out []published
}

func (r *recordingPub) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, _ := payload.([]byte)
	r.out = append(r.out, published{topic, b})
	return &doneToken{}
}

func testEndpoint(t *testing.T, cfg Config) *Endpoint {
	t.Helper()
	e, err := NewEndpoint(cfg, []model.Cohort{
		{ID: "ev", NumAccounts: 1000, BaselineAcceptanceRate: 0.7},
	}, nil)
	require.NoError(t, err)
	return e
}

func TestRespondAccepts(t *testing.T) {
	e := testEndpoint(t, Config{})
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

	resp := e.Respond(model.DRSignal{ID: "SIG_1_ev", CohortID: "ev", TargetReductionKW: 3500}, now)
	assert.True(t, resp.Accepted)
	assert.Equal(t, 700, resp.ParticipatingAccounts)
	assert.Equal(t, 2450.0, resp.CommittedKW)
	assert.Equal(t, now, resp.RespondedAt)

	unknown := e.Respond(model.DRSignal{ID: "SIG_1_x", CohortID: "x"}, now)
	assert.False(t, unknown.Accepted)
	assert.Equal(t, "unknown cohort", unknown.Reason)
}

func TestRespondDeclines(t *testing.T) {
	e := testEndpoint(t, Config{DeclineRate: 1})
	resp := e.Respond(model.DRSignal{ID: "SIG_1_ev", CohortID: "ev", TargetReductionKW: 100}, time.Now())
	assert.False(t, resp.Accepted)
	assert.Zero(t, resp.CommittedKW)
}

func TestHandlePublishesAckThenResponse(t *testing.T) {
	e := testEndpoint(t, Config{})
	pub := &recordingPub{}

	e.handle(context.Background(), pub, incoming{
		MessageID: "m1",
		Signal:    model.DRSignal{ID: "SIG_1_ev", CohortID: "ev", TargetReductionKW: 1000},
	})

	require.Len(t, pub.out, 2)
	assert.Equal(t, "dr/ack", pub.out[0].topic)
	assert.JSONEq(t, `{"message_id":"m1"}`, string(pub.out[0].payload))

	assert.Equal(t, "dr/response", pub.out[1].topic)
	var resp model.SignalResponse
	require.NoError(t, json.Unmarshal(pub.out[1].payload, &resp))
	assert.Equal(t, "SIG_1_ev", resp.SignalID)
	assert.Equal(t, 700.0, resp.CommittedKW)
}

func TestHandleDroppedAck(t *testing.T) {
	e := testEndpoint(t, Config{DropRate: 1})
	pub := &recordingPub{}
	e.handle(context.Background(), pub, incoming{MessageID: "m1", Signal: model.DRSignal{CohortID: "ev"}})
	assert.Empty(t, pub.out)
}

func TestAutoAckCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub := &recordingPub{}
	assert.False(t, AutoAck{Delay: time.Second}.Ack(ctx, pub, "dr/ack", "m1"))
	assert.Empty(t, pub.out)
}

func TestConfigValidate(t *testing.T) {
	_, err := NewEndpoint(Config{DropRate: 2}, nil, nil)
	assert.Error(t, err)
	_, err = NewEndpoint(Config{AckLatency: -time.Second}, nil, nil)
	assert.Error(t, err)
}
