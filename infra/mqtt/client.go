package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/drplan/core/model"
	coremon "github.com/kilianp07/drplan/core/monitoring"
	coremqtt "github.com/kilianp07/drplan/core/mqtt"
	"github.com/kilianp07/drplan/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker        string          `json:"broker"`
	ClientID      string          `json:"client_id"`
	Username      string          `json:"username"`
	Password      string          `json:"password"`
	SignalTopic   string          `json:"signal_topic"`
	AckTopic      string          `json:"ack_topic"`
	ResponseTopic string          `json:"response_topic"`
	AckTimeoutMS  int             `json:"ack_timeout_ms"`
	UseTLS        bool            `json:"use_tls"`
	ClientCert    string          `json:"client_cert"`
	ClientKey     string          `json:"client_key"`
	CABundle      string          `json:"ca_bundle"`
	AuthMethod    string          `json:"auth_method"`
	QoS           map[string]byte `json:"qos"`
	LWTTopic      string          `json:"lwt_topic"`
	LWTPayload    string          `json:"lwt_payload"`
	LWTQoS        byte            `json:"lwt_qos"`
	LWTRetain     bool            `json:"lwt_retain"`
	MaxRetries    int             `json:"max_retries"`
	BackoffMS     int             `json:"backoff_ms"`
	TLSConfig     *tls.Config     `json:"-"`
}

// Enabled reports whether a broker is configured. Without one the service
// falls back to the in-memory publisher.
func (c Config) Enabled() bool { return c.Broker != "" }

// SetDefaults fills the topic layout and retry policy.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "drplan-" + uuid.NewString()[:8]
	}
	if c.SignalTopic == "" {
		c.SignalTopic = coremqtt.DefaultSignalTopic
	}
	if c.AckTopic == "" {
		c.AckTopic = coremqtt.DefaultAckTopic
	}
	if c.ResponseTopic == "" {
		c.ResponseTopic = coremqtt.DefaultResponseTopic
	}
	if c.AckTimeoutMS <= 0 {
		c.AckTimeoutMS = 5000
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the settings of an enabled client.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	switch c.AuthMethod {
	case "", "username_password", "certificate", "both":
	default:
		return fmt.Errorf("mqtt: unknown auth_method %q", c.AuthMethod)
	}
	for name, q := range c.QoS {
		if q > 2 {
			return fmt.Errorf("mqtt: qos %s must be 0, 1 or 2", name)
		}
	}
	if c.UseTLS && c.TLSConfig == nil && (c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "") {
		return fmt.Errorf("mqtt: use_tls requires client_cert, client_key and ca_bundle")
	}
	return nil
}

// AckTimeout returns the configured acknowledgment timeout.
func (c Config) AckTimeout() time.Duration {
	return time.Duration(c.AckTimeoutMS) * time.Millisecond
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements the SignalPublisher interface using Eclipse Paho.
type PahoClient struct {
	cli         pahoClient
	signalTopic string
	ackTopic    string
	respTopic   string
	qos         map[string]byte

	mu         sync.Mutex
	ackChans   map[string]chan struct{}
	onResponse coremqtt.ResponseHandler
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// signalMessage is the payload published to the cohort signal topic.
type signalMessage struct {
	MessageID string         `json:"message_id"`
	Signal    model.DRSignal `json:"signal"`
	Timestamp int64          `json:"timestamp"`
}

// NewPahoClient connects to the MQTT broker and subscribes to the ack and
// response topics.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		signalTopic: cfg.SignalTopic,
		ackTopic:    cfg.AckTopic,
		respTopic:   cfg.ResponseTopic,
		ackChans:    make(map[string]chan struct{}),
		logger:      log,
		qos:         cfg.QoS,
		maxRetries:  cfg.MaxRetries,
		backoff:     time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(pc.ackTopic, pc.qosFor("ack"), pc.onAck); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe %s: %v", pc.ackTopic, token.Error())
		}
		if token := c.Subscribe(pc.respTopic, pc.qosFor("response"), pc.handleResponse); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe %s: %v", pc.respTopic, token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (p *PahoClient) qosFor(kind string) byte {
	if q, ok := p.qos[kind]; ok {
		return q
	}
	return 0
}

func (p *PahoClient) onAck(_ paho.Client, msg paho.Message) {
	var m struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Errorf("failed to decode ack: %v", err)
		return
	}
	p.mu.Lock()
	ch, ok := p.ackChans[m.MessageID]
	if ok {
		select {
		case ch <- struct{}{}:
		default:
		}
		p.logger.Debugf("received ack %s", m.MessageID)
	}
	p.mu.Unlock()
}

func (p *PahoClient) handleResponse(_ paho.Client, msg paho.Message) {
	var r model.SignalResponse
	if err := json.Unmarshal(msg.Payload(), &r); err != nil {
		p.logger.Errorf("failed to decode response: %v", err)
		return
	}
	if r.SignalID == "" {
		p.logger.Warnf("response without signal_id on %s", msg.Topic())
		return
	}
	p.mu.Lock()
	h := p.onResponse
	p.mu.Unlock()
	if h != nil {
		h(r)
	}
}

// OnResponse registers the handler invoked for each cohort response.
func (p *PahoClient) OnResponse(h coremqtt.ResponseHandler) {
	p.mu.Lock()
	p.onResponse = h
	p.mu.Unlock()
}

// SendSignal publishes the signal on the cohort topic and returns the message
// identifier used for acknowledgment tracking. Failed publishes are retried
// with exponential backoff.
func (p *PahoClient) SendSignal(ctx context.Context, sig model.DRSignal) (string, error) {
	msgID := uuid.NewString()
	payload, err := json.Marshal(signalMessage{
		MessageID: msgID,
		Signal:    sig,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return "", err
	}

	// Register before publishing so a fast ack is not lost.
	p.mu.Lock()
	p.ackChans[msgID] = make(chan struct{}, 1)
	p.mu.Unlock()

	topic := coremqtt.SignalTopic(p.signalTopic, sig.CohortID)
	var publishErr error
retry:
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qosFor("signal"), false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Infof("sent signal %s to %s", sig.ID, topic)
			return msgID, nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == p.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			publishErr = ctx.Err()
			break retry
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	p.forget(msgID)
	coremon.CaptureException(publishErr, map[string]string{
		"module":    "mqtt",
		"signal_id": sig.ID,
		"cohort_id": sig.CohortID,
	})
	return "", fmt.Errorf("publish signal %s: %w", sig.ID, publishErr)
}

// WaitForAck blocks until an ack for the message is received, the timeout
// expires or the context ends.
func (p *PahoClient) WaitForAck(ctx context.Context, messageID string, timeout time.Duration) (bool, error) {
	p.mu.Lock()
	ch := p.ackChans[messageID]
	p.mu.Unlock()
	if ch == nil {
		return false, fmt.Errorf("%w: %s", coremqtt.ErrUnknownMessage, messageID)
	}
	defer p.forget(messageID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true, nil
	case <-timer.C:
		return false, coremqtt.ErrAckTimeout
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (p *PahoClient) forget(messageID string) {
	p.mu.Lock()
	delete(p.ackChans, messageID)
	p.mu.Unlock()
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
