// Package simulator plays the cohort endpoints on the other side of the MQTT
// broker: it acknowledges signals and answers them with a response.
package simulator

import (
	"errors"
	"time"

	coremqtt "github.com/kilianp07/drplan/core/mqtt"
)

// Config holds parameters for the simulator.
type Config struct {
	Broker        string        `json:"broker"`
	ClientID      string        `json:"client_id"`
	SignalTopic   string        `json:"signal_topic"`
	AckTopic      string        `json:"ack_topic"`
	ResponseTopic string        `json:"response_topic"`
	AckLatency    time.Duration `json:"ack_latency"`
	ResponseDelay time.Duration `json:"response_delay"`
	// DropRate is the probability that an acknowledgment is never sent.
	DropRate float64 `json:"drop_rate"`
	// DeclineRate is the probability that a cohort declines the event.
	DeclineRate float64 `json:"decline_rate"`
	Workers     int     `json:"workers"`
}

func (c *Config) SetDefaults() {
	if c.Broker == "" {
		c.Broker = "tcp://localhost:1883"
	}
	if c.ClientID == "" {
		c.ClientID = "drplan-sim"
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
	if c.Workers <= 0 {
		c.Workers = 5
	}
}

func (c Config) Validate() error {
	if c.DropRate < 0 || c.DropRate > 1 {
		return errors.New("simulator: drop_rate must be within [0,1]")
	}
	if c.DeclineRate < 0 || c.DeclineRate > 1 {
		return errors.New("simulator: decline_rate must be within [0,1]")
	}
	if c.AckLatency < 0 || c.ResponseDelay < 0 {
		return errors.New("simulator: delays must not be negative")
	}
	return nil
}
