package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/config"
)

type payload struct {
	Error  int    `json:"error"`
	Ignore string `json:"ignore,omitempty"`
	Count  *int   `json:"count,omitempty"`
}

// EncodePayload builds the compact status payload, e.g. {"error":5,"ignore":"x"}.
// Empty ignore and nil count are omitted.
func EncodePayload(code int, ignore string, count *int) []byte {
	data, err := json.Marshal(payload{Error: code, Ignore: ignore, Count: count})
	if err != nil {
		// A struct of ints and strings always marshals.
		panic(err)
	}
	return data
}

// Publisher sends payloads to the configured topic.
type Publisher struct {
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
}

// Dial connects a publisher with its own client ID so it never collides with
// a running daemon.
func Dial(ctx context.Context, cfg *config.Config) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID("blinkcode-pub-" + uuid.NewString()[:8]).
		SetCleanSession(true).
		SetConnectTimeout(cfg.ConnectTimeout())
	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	client := mqtt.NewClient(opts)
	if err := wait(ctx, client.Connect(), cfg.ConnectTimeout()); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.MQTT.Broker, err)
	}
	return &Publisher{
		client:  client,
		topic:   cfg.MQTT.Topic,
		qos:     byte(cfg.MQTT.QoS),
		timeout: cfg.ConnectTimeout(),
	}, nil
}

// Publish sends data and waits for the broker acknowledgement required by the QoS.
func (p *Publisher) Publish(ctx context.Context, data []byte) error {
	if err := wait(ctx, p.client.Publish(p.topic, p.qos, false, data), p.timeout); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Topic returns the destination topic.
func (p *Publisher) Topic() string { return p.topic }

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(quiesce)
}

func wait(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.New("timed out waiting for broker")
	case <-token.Done():
		return token.Error()
	}
}
