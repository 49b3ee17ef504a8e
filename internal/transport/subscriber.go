package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/config"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/logging"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/mailbox"
)

// quiesce is how long Disconnect waits for in-flight work, in milliseconds.
const quiesce = 250

// Sink receives raw payloads. Publish stores at most its capacity and
// returns the stored length.
type Sink interface {
	Publish(data []byte, n int) int
}

// Stats counts subscriber deliveries.
type Stats struct {
	Received  uint64
	Truncated uint64
}

// Subscriber delivers broker messages into a Sink.
type Subscriber struct {
	cfg    config.MQTT
	sink   Sink
	logger *slog.Logger

	newClient      func(*mqtt.ClientOptions) mqtt.Client
	connectTimeout time.Duration

	mu     sync.Mutex
	client mqtt.Client

	connected atomic.Bool
	received  atomic.Uint64
	truncated atomic.Uint64
}

// NewSubscriber prepares a subscriber for cfg.MQTT. No connection is made
// until Start.
func NewSubscriber(cfg *config.Config, sink Sink, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		cfg:            cfg.MQTT,
		sink:           sink,
		logger:         logging.NewComponentLogger(logger, "transport"),
		newClient:      mqtt.NewClient,
		connectTimeout: cfg.ConnectTimeout(),
	}
}

func (s *Subscriber) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(s.cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(s.connectTimeout).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(s.onConnectionLost)
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}
	return opts
}

// Start connects to the broker. If the broker does not answer within the
// connect timeout, Start logs a warning and returns nil while the client keeps
// retrying in the background.
func (s *Subscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.client != nil {
		s.mu.Unlock()
		return errors.New("subscriber already started")
	}
	client := s.newClient(s.clientOptions())
	s.client = client
	s.mu.Unlock()

	token := client.Connect()
	timer := time.NewTimer(s.connectTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		s.abandon(client)
		return ctx.Err()
	case <-timer.C:
		logging.WarnWithContext(s.logger, "broker not reachable yet", "mqtt_connect_pending",
			logging.String("broker", s.cfg.Broker),
			logging.Duration("timeout", s.connectTimeout),
			logging.String(logging.FieldErrorHint, "check mqtt.broker and network access"),
			logging.String(logging.FieldImpact, "no payloads until the broker connects; retrying in background"),
		)
		return nil
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		s.abandon(client)
		return fmt.Errorf("connect %s: %w", s.cfg.Broker, err)
	}
	return nil
}

// abandon drops a client whose connect attempt failed so Start can run again.
func (s *Subscriber) abandon(client mqtt.Client) {
	client.Disconnect(0)
	s.mu.Lock()
	if s.client == client {
		s.client = nil
	}
	s.mu.Unlock()
}

func (s *Subscriber) onConnect(client mqtt.Client) {
	s.connected.Store(true)
	s.logger.Info("broker connected",
		logging.String(logging.FieldEventType, "mqtt_connected"),
		logging.String("broker", s.cfg.Broker),
		logging.String("topic", s.cfg.Topic),
		logging.Int("qos", s.cfg.QoS),
	)
	// Clean sessions drop subscriptions, so subscribe on every connect.
	token := client.Subscribe(s.cfg.Topic, byte(s.cfg.QoS), s.handleMessage)
	go func() {
		if !token.WaitTimeout(s.connectTimeout) {
			logging.WarnWithContext(s.logger, "subscribe not acknowledged", "mqtt_subscribe_pending",
				logging.String("topic", s.cfg.Topic),
				logging.String(logging.FieldErrorHint, "broker is slow or rejecting the subscription"),
			)
			return
		}
		if err := token.Error(); err != nil {
			logging.ErrorWithContext(s.logger, "subscribe failed", "mqtt_subscribe_failed",
				logging.Error(err),
				logging.String("topic", s.cfg.Topic),
				logging.String(logging.FieldErrorHint, "check topic permissions on the broker"),
			)
		}
	}()
}

func (s *Subscriber) onConnectionLost(_ mqtt.Client, err error) {
	s.connected.Store(false)
	logging.WarnWithContext(s.logger, "broker connection lost", "mqtt_connection_lost",
		logging.Error(err),
		logging.String("broker", s.cfg.Broker),
		logging.String(logging.FieldImpact, "no payloads until reconnect"),
		logging.String(logging.FieldErrorHint, "client reconnects automatically"),
	)
}

func (s *Subscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	s.Deliver(msg.Payload())
}

// Deliver hands one payload to the sink exactly as a broker delivery would.
func (s *Subscriber) Deliver(payload []byte) int {
	s.received.Add(1)
	stored := s.sink.Publish(payload, len(payload))
	if stored < len(payload) {
		s.truncated.Add(1)
		logging.WarnWithContext(s.logger, "payload truncated", "payload_truncated",
			logging.Int("received_len", len(payload)),
			logging.Int(logging.FieldPayloadLen, stored),
			logging.Int("capacity", mailbox.Capacity),
			logging.String(logging.FieldErrorHint, "keep payloads under 1024 bytes"),
			logging.String(logging.FieldImpact, "payload will likely fail to parse"),
		)
	}
	return stored
}

// Connected reports whether the broker session is currently up.
func (s *Subscriber) Connected() bool {
	return s.connected.Load()
}

// Stats returns delivery counters.
func (s *Subscriber) Stats() Stats {
	return Stats{Received: s.received.Load(), Truncated: s.truncated.Load()}
}

// Broker returns the configured broker URL.
func (s *Subscriber) Broker() string { return s.cfg.Broker }

// Topic returns the subscribed topic.
func (s *Subscriber) Topic() string { return s.cfg.Topic }

// Close disconnects from the broker.
func (s *Subscriber) Close() {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()
	if client == nil {
		return
	}
	client.Disconnect(quiesce)
	s.connected.Store(false)
}
