package simulator

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/drplan/core/logger"
)

// publisher is the part of a paho client used to answer signals.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// AckStrategy defines how an endpoint acknowledges signals.
type AckStrategy interface {
	Ack(ctx context.Context, pub publisher, topic, messageID string) bool
}

// AutoAck sends an ACK after an optional fixed delay.
type AutoAck struct {
	Delay time.Duration
	Log   logger.Logger
}

// Ack implements AckStrategy.
func (a AutoAck) Ack(ctx context.Context, pub publisher, topic, messageID string) bool {
	if !sleep(ctx, a.Delay) {
		return false
	}
	return publishJSON(pub, topic, ackMessage{MessageID: messageID}, logger.OrNop(a.Log))
}

// RandomAck drops acknowledgments with the configured probability and
// waits for the specified delay before sending.
type RandomAck struct {
	Delay    time.Duration
	DropRate float64
	Rand     func() float64
	Log      logger.Logger
}

// Ack implements AckStrategy.
func (r RandomAck) Ack(ctx context.Context, pub publisher, topic, messageID string) bool {
	if r.DropRate > 0 && r.Rand() < r.DropRate {
		logger.OrNop(r.Log).Debugf("dropping ack for %s", messageID)
		return false
	}
	return AutoAck{Delay: r.Delay, Log: r.Log}.Ack(ctx, pub, topic, messageID)
}

type ackMessage struct {
	MessageID string `json:"message_id"`
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func publishJSON(pub publisher, topic string, v any, log logger.Logger) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal %s payload: %v", topic, err)
		return false
	}
	token := pub.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		log.Warnf("publish timeout on %s", topic)
		return false
	}
	if err := token.Error(); err != nil {
		log.Errorf("publish on %s: %v", topic, err)
		return false
	}
	return true
}
