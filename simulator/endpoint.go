package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/drplan/core/logger"
	"github.com/kilianp07/drplan/core/model"
	coremqtt "github.com/kilianp07/drplan/core/mqtt"
)

// Client is the paho surface the endpoint needs.
type Client interface {
	publisher
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(cfg Config) Client {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	return paho.NewClient(opts)
}

// incoming mirrors the payload published by the signal client.
type incoming struct {
	MessageID string         `json:"message_id"`
	Signal    model.DRSignal `json:"signal"`
}

// Endpoint answers signals for every cohort of the catalog.
type Endpoint struct {
	cfg      Config
	cohorts  map[string]model.Cohort
	strategy AckStrategy
	log      logger.Logger

	mu   sync.Mutex
	rng  *rand.Rand
	work chan incoming
	cli  Client
}

// NewEndpoint builds an endpoint for the given cohorts.
func NewEndpoint(cfg Config, cohorts []model.Cohort, log logger.Logger) (*Endpoint, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Endpoint{
		cfg:     cfg,
		cohorts: make(map[string]model.Cohort, len(cohorts)),
		log:     logger.OrNop(log),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		work:    make(chan incoming, 50),
	}
	for _, c := range cohorts {
		e.cohorts[c.ID] = c
	}
	e.strategy = RandomAck{Delay: cfg.AckLatency, DropRate: cfg.DropRate, Rand: e.float, Log: e.log}
	return e, nil
}

func (e *Endpoint) float() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

// Run connects to the broker and answers signals until ctx is done.
func (e *Endpoint) Run(ctx context.Context) error {
	cli := newMQTTClient(e.cfg)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect %s: %w", e.cfg.Broker, token.Error())
	}
	e.cli = cli

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx)
		}()
	}
	topic := coremqtt.SignalTopic(e.cfg.SignalTopic, "+")
	if token := cli.Subscribe(topic, 1, e.onSignal); token.Wait() && token.Error() != nil {
		cli.Disconnect(250)
		return token.Error()
	}
	e.log.Infof("simulating %d cohorts on %s", len(e.cohorts), topic)
	<-ctx.Done()
	wg.Wait()
	cli.Disconnect(250)
	return nil
}

func (e *Endpoint) onSignal(_ paho.Client, msg paho.Message) {
	var in incoming
	if err := json.Unmarshal(msg.Payload(), &in); err != nil {
		e.log.Warnf("decode signal on %s: %v", msg.Topic(), err)
		return
	}
	select {
	case e.work <- in:
	default:
		e.log.Warnf("queue full, dropping signal %s", in.Signal.ID)
	}
}

func (e *Endpoint) worker(ctx context.Context) {
	for {
		select {
		case in := <-e.work:
			e.handle(ctx, e.cli, in)
		case <-ctx.Done():
			return
		}
	}
}

func (e *Endpoint) handle(ctx context.Context, pub publisher, in incoming) {
	if !e.strategy.Ack(ctx, pub, e.cfg.AckTopic, in.MessageID) {
		return
	}
	if !sleep(ctx, e.cfg.ResponseDelay) {
		return
	}
	resp := e.Respond(in.Signal, time.Now().UTC())
	publishJSON(pub, e.cfg.ResponseTopic, resp, e.log)
}

// Respond decides how the cohort of sig reacts. Accepting cohorts commit the
// target scaled by their baseline acceptance rate; unknown cohorts decline.
func (e *Endpoint) Respond(sig model.DRSignal, now time.Time) model.SignalResponse {
	resp := model.SignalResponse{
		SignalID:    sig.ID,
		CohortID:    sig.CohortID,
		RespondedAt: now,
	}
	c, ok := e.cohorts[sig.CohortID]
	if !ok {
		resp.Reason = "unknown cohort"
		return resp
	}
	if e.cfg.DeclineRate > 0 && e.float() < e.cfg.DeclineRate {
		resp.Reason = "declined by cohort"
		return resp
	}
	rate := c.BaselineAcceptanceRate
	resp.Accepted = true
	resp.ParticipatingAccounts = int(math.Floor(float64(c.NumAccounts) * rate))
	resp.CommittedKW = math.Round(sig.TargetReductionKW*rate*100) / 100
	return resp
}
