// Package mqttpub publishes messages on an MQTT broker.
package mqttpub

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/mazen160/go-random"
)

const defaultPort = "1883"

type Options struct {
	// host, host:port or scheme://host:port
	Broker   string
	Username string
	Password string
	// a random ecocito-bridge-<8 chars> id is used when empty
	ClientId string
	// bounds connecting and each publish, defaults to 10s
	Timeout time.Duration
}

// BrokerURL normalizes a broker address, a bare host gets the tcp scheme
// and the default port.
func BrokerURL(broker string) (string, error) {
	broker = strings.TrimSpace(broker)
	if broker == "" {
		return "", fmt.Errorf("mqtt: broker address is empty")
	}
	if strings.Contains(broker, "://") {
		return broker, nil
	}
	host := broker
	if !strings.Contains(host, ":") || strings.HasSuffix(host, "]") {
		host = host + ":" + defaultPort
	}
	return "tcp://" + host, nil
}

const clientIdPrefix = "ecocito-bridge-"

func clientIdOf(opts Options) (string, error) {
	if opts.ClientId != "" {
		return opts.ClientId, nil
	}
	suffix, err := random.String(8)
	if err != nil {
		return "", fmt.Errorf("mqtt: generate client id: %w", err)
	}
	return clientIdPrefix + suffix, nil
}

type PublishError struct {
	Topic string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("mqtt: publish to %s: %s", e.Topic, e.Err.Error())
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

type Publisher struct {
	client  mqtt.Client
	timeout time.Duration
}

// Connect dials the broker. The returned publisher reconnects on its own
// when the connection drops.
func Connect(ctx context.Context, opts Options) (*Publisher, error) {
	broker, err := BrokerURL(opts.Broker)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 10
	}
	clientId, err := clientIdOf(opts)
	if err != nil {
		return nil, err
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientId).
		SetConnectTimeout(timeout).
		SetWriteTimeout(timeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			slog.Warn("mqtt connection lost", "broker", broker, "err", err)
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			slog.Info("mqtt connected", "broker", broker)
		})
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}

	client := mqtt.NewClient(clientOpts)
	err = wait(ctx, client.Connect(), timeout)
	if err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", broker, err)
	}

	return &Publisher{
		client:  client,
		timeout: timeout,
	}, nil
}

func wait(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish sends payload with QoS 0 and the retained flag set, so a client
// subscribing later still receives the last message of the topic.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	err := wait(ctx, p.client.Publish(topic, 0, true, payload), p.timeout)
	if err != nil {
		return &PublishError{Topic: topic, Err: err}
	}
	slog.DebugContext(ctx, "published", "topic", topic, "payload", string(payload))
	return nil
}

func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
