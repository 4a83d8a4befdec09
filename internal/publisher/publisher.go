// Package publisher sends telemetry payloads from the NAS to the broker.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/model"
	"github.com/darshan-rambhia/naspanel/internal/telemetry"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var (
	// ErrNotConfigured is returned by New when the connection settings
	// cannot be used to reach a broker.
	ErrNotConfigured = errors.New("mqtt not configured")
	// ErrNotConnected is returned by Publish while the broker is unreachable.
	ErrNotConnected = errors.New("mqtt not connected")
)

const (
	defaultRetryInterval  = 5 * time.Second
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second
	disconnectQuiesceMs   = 250
)

// Options tunes connection behaviour. Zero values select the defaults.
type Options struct {
	RetryInterval  time.Duration
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// Publisher owns one broker connection and publishes to the configured topic.
type Publisher struct {
	conn     model.ConnectionConfig
	opts     Options
	clientID string

	newClient func(*mqtt.ClientOptions) mqtt.Client

	mu     sync.Mutex
	client mqtt.Client
}

// New validates the connection settings and prepares a publisher.
func New(conn model.ConnectionConfig, opts Options) (*Publisher, error) {
	if err := conn.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	return &Publisher{
		conn:      conn,
		opts:      opts,
		clientID:  NewClientID(),
		newClient: mqtt.NewClient,
	}, nil
}

// NewClientID returns a client identifier of the form NASPanel-Pub-<hex>.
func NewClientID() string {
	return fmt.Sprintf("NASPanel-Pub-%X", rand.IntN(0xffff))
}

// ClientOptions builds the paho options for this publisher.
func (p *Publisher) ClientOptions() *mqtt.ClientOptions {
	o := mqtt.NewClientOptions().
		AddBroker(p.conn.BrokerURL()).
		SetClientID(p.clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(p.opts.ConnectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			slog.Warn("mqtt connection lost", "error", err)
		}).
		SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
			slog.Info("mqtt reconnecting", "broker", p.conn.BrokerURL())
		})
	if p.conn.Username != "" {
		o.SetUsername(p.conn.Username)
		o.SetPassword(p.conn.Password)
	}
	return o
}

// Connect retries with a fixed delay until the broker accepts the
// connection or ctx is cancelled. Later drops are handled by paho.
func (p *Publisher) Connect(ctx context.Context) error {
	client := p.newClient(p.ClientOptions())
	broker := p.conn.BrokerURL()

	for {
		err := waitToken(ctx, client.Connect(), p.opts.ConnectTimeout)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			client.Disconnect(disconnectQuiesceMs)
			return ctx.Err()
		}
		slog.Warn("mqtt connect failed, retrying", "broker", broker, "retry_in", p.opts.RetryInterval, "error", err)
		select {
		case <-ctx.Done():
			client.Disconnect(disconnectQuiesceMs)
			return ctx.Err()
		case <-time.After(p.opts.RetryInterval):
		}
	}

	p.mu.Lock()
	p.client = client
	p.mu.Unlock()
	slog.Info("publisher connected", "broker", broker, "client_id", p.clientID, "topic", p.conn.Topic)
	return nil
}

// Publish sends one payload at QoS 0 without the retain flag.
func (p *Publisher) Publish(ctx context.Context, payload telemetry.Payload) error {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()
	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	if err := waitToken(ctx, client.Publish(p.conn.Topic, 0, false, body), p.opts.PublishTimeout); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.conn.Topic, err)
	}
	slog.Debug("telemetry published", "topic", p.conn.Topic, "bytes", len(body))
	return nil
}

// Close disconnects from the broker. It is safe to call more than once.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Disconnect(disconnectQuiesceMs)
		p.client = nil
		slog.Info("publisher disconnected")
	}
}

func waitToken(ctx context.Context, tok mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", timeout)
	case <-tok.Done():
		return tok.Error()
	}
}
