// Package mqtt publishes the effect state to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"dev.acmcsuf.com/ledfx"
)

const connectTimeout = 5 * time.Second

// Config configures the publisher.
type Config struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string
	// ClientID is the MQTT client ID.
	ClientID string
	// TopicPrefix is prepended to every topic.
	TopicPrefix string
}

// Publisher publishes state changes as retained JSON messages.
type Publisher struct {
	client paho.Client
	topic  string
	logger *slog.Logger
}

// New connects to the broker.
func New(cfg Config, logger *slog.Logger) (*Publisher, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)

	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Warn(
			"mqtt connection lost, will reconnect",
			"broker", cfg.Broker,
			"error", err)
	}

	client := paho.NewClient(opts)

	t := client.Connect()
	if !t.WaitTimeout(connectTimeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("timed out connecting to mqtt broker %s", cfg.Broker)
	}
	if err := t.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", cfg.Broker, err)
	}

	logger.Info(
		"connected to mqtt broker",
		"broker", cfg.Broker,
		"client_id", cfg.ClientID)

	return newPublisher(client, cfg.TopicPrefix, logger), nil
}

func newPublisher(client paho.Client, prefix string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		topic:  prefix + "/STATE",
		logger: logger,
	}
}

// Publish publishes state without waiting for the broker.
func (p *Publisher) Publish(state ledfx.State) {
	b, err := json.Marshal(state)
	if err != nil {
		p.logger.Error(
			"failed to marshal state",
			"error", err)
		return
	}

	t := p.client.Publish(p.topic, 1, true, b)

	go func() {
		<-t.Done()
		if err := t.Error(); err != nil {
			p.logger.Warn(
				"failed to publish state",
				"topic", p.topic,
				"error", err)
		}
	}()
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
