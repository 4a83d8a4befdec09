// Package subscriber maintains the MQTT subscription that feeds telemetry
// into the panel.
package subscriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/model"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrNotConfigured is returned by New when the connection settings cannot be
// used to reach a broker.
var ErrNotConfigured = errors.New("mqtt not configured")

const (
	defaultRetryInterval  = 5 * time.Second
	defaultConnectTimeout = 10 * time.Second
	subscribeTimeout      = 10 * time.Second
	disconnectQuiesceMs   = 250
)

// Handler receives every message on the subscribed topic, in arrival order.
type Handler func(topic string, payload []byte)

// Options tunes connection behaviour. Zero values select the defaults.
type Options struct {
	RetryInterval  time.Duration
	ConnectTimeout time.Duration
	// Status, when set, is updated as the connection comes and goes.
	Status *Status
}

// Status is a connection state shared with readers outside the subscriber.
// It outlives individual subscribers so it can be created once per process.
type Status struct {
	connected atomic.Bool
	topic     atomic.Value // string
}

// Connected reports whether the broker connection is up.
func (s *Status) Connected() bool {
	return s != nil && s.connected.Load()
}

// Topic returns the topic of the most recent subscription.
func (s *Status) Topic() string {
	if s == nil {
		return ""
	}
	v, _ := s.topic.Load().(string)
	return v
}

func (s *Status) set(connected bool) {
	if s != nil {
		s.connected.Store(connected)
	}
}

// Subscriber connects to the broker and delivers messages to a Handler.
type Subscriber struct {
	conn     model.ConnectionConfig
	handler  Handler
	opts     Options
	clientID string

	newClient func(*mqtt.ClientOptions) mqtt.Client

	// closed is set once Run has returned. A connect that completes later
	// is torn down instead of subscribing.
	closed atomic.Bool
}

// New validates the connection settings and prepares a subscriber.
func New(conn model.ConnectionConfig, handler Handler, opts Options) (*Subscriber, error) {
	if err := conn.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	return &Subscriber{
		conn:      conn,
		handler:   handler,
		opts:      opts,
		clientID:  NewClientID(),
		newClient: mqtt.NewClient,
	}, nil
}

// NewClientID returns a client identifier of the form NASPanel-<hex>.
func NewClientID() string {
	return fmt.Sprintf("NASPanel-%X", rand.IntN(0xffff))
}

// ClientOptions builds the paho options for this subscriber.
func (s *Subscriber) ClientOptions() *mqtt.ClientOptions {
	o := mqtt.NewClientOptions().
		AddBroker(s.conn.BrokerURL()).
		SetClientID(s.clientID).
		SetCleanSession(true).
		SetOrderMatters(true).
		SetAutoReconnect(true).
		SetConnectTimeout(s.opts.ConnectTimeout).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(s.onConnectionLost)
	if s.conn.Username != "" {
		o.SetUsername(s.conn.Username)
		o.SetPassword(s.conn.Password)
	}
	return o
}

// Run connects, retrying with a fixed delay until the first connection
// succeeds, then keeps the subscription alive until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	client := s.newClient(s.ClientOptions())
	broker := s.conn.BrokerURL()

	for {
		err := waitToken(ctx, client.Connect())
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			s.stop(client)
			return ctx.Err()
		}
		slog.Warn("mqtt connect failed, retrying", "broker", broker, "retry_in", s.opts.RetryInterval, "error", err)
		select {
		case <-ctx.Done():
			s.stop(client)
			return ctx.Err()
		case <-time.After(s.opts.RetryInterval):
		}
	}

	slog.Info("subscriber started", "broker", broker, "client_id", s.clientID, "topic", s.conn.Topic)

	<-ctx.Done()
	s.stop(client)
	slog.Info("subscriber stopped")
	return ctx.Err()
}

// stop disconnects the client, including one whose connect is still in
// flight.
func (s *Subscriber) stop(client mqtt.Client) {
	s.closed.Store(true)
	client.Disconnect(disconnectQuiesceMs)
	s.opts.Status.set(false)
}

// onConnect runs after every successful connect, including automatic
// reconnects, so the subscription is restored each time.
func (s *Subscriber) onConnect(c mqtt.Client) {
	if s.closed.Load() {
		slog.Info("dropping late mqtt connection", "topic", s.conn.Topic)
		c.Disconnect(disconnectQuiesceMs)
		return
	}
	s.opts.Status.set(true)
	if s.opts.Status != nil {
		s.opts.Status.topic.Store(s.conn.Topic)
	}

	tok := c.Subscribe(s.conn.Topic, 0, s.onMessage)
	if !tok.WaitTimeout(subscribeTimeout) {
		slog.Error("mqtt subscribe timed out", "topic", s.conn.Topic)
		return
	}
	if err := tok.Error(); err != nil {
		slog.Error("mqtt subscribe failed", "topic", s.conn.Topic, "error", err)
		return
	}
	slog.Info("mqtt subscribed", "topic", s.conn.Topic)
}

func (s *Subscriber) onConnectionLost(_ mqtt.Client, err error) {
	s.opts.Status.set(false)
	slog.Warn("mqtt connection lost", "error", err)
}

func (s *Subscriber) onMessage(_ mqtt.Client, msg mqtt.Message) {
	s.handler(msg.Topic(), msg.Payload())
}

func waitToken(ctx context.Context, tok mqtt.Token) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tok.Done():
		return tok.Error()
	}
}
