// Package telemetry publishes controller snapshots to an MQTT broker.
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/funktionpi/pacs/pkg/config"
	"github.com/funktionpi/pacs/pkg/state"
)

// DefaultTimeout bounds a single publish when none is configured.
const DefaultTimeout = 2 * time.Second

// disconnectQuiesce is how long Close lets in-flight messages finish, in ms.
const disconnectQuiesce = 250

// Client is the subset of mqtt.Client the publisher uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Message is the published payload. Session changes on every start so
// consumers can tell a restart from a gap; Seq counts publish attempts.
type Message struct {
	Session string `json:"session"`
	Seq     uint64 `json:"seq"`
	state.Snapshot
}

// Publisher sends JSON-encoded snapshots to a topic.
type Publisher struct {
	client  Client
	topic   string
	timeout time.Duration
	session string
	seq     uint64
}

// New creates a Publisher over an already connected client.
func New(client Client, topic string, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Publisher{
		client:  client,
		topic:   topic,
		timeout: timeout,
		session: uuid.NewString(),
	}
}

// Dial connects to the broker in cfg and returns a Publisher.
func Dial(cfg config.TelemetryConfig) (*Publisher, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true)

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("failed to connect to %s: timed out after %s", cfg.Broker, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Broker, err)
	}

	return New(c, cfg.Topic, timeout), nil
}

// Publish sends one snapshot. It waits at most the publisher timeout for
// the broker to acknowledge.
func (p *Publisher) Publish(s state.Snapshot) error {
	p.seq++
	payload, err := json.Marshal(Message{Session: p.session, Seq: p.seq, Snapshot: s})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish to %s timed out after %s", p.topic, p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}
	return nil
}

// Session returns the identifier sent with every message.
func (p *Publisher) Session() string {
	return p.session
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(disconnectQuiesce)
}
