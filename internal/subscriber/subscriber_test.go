package subscriber

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/model"
	"github.com/darshan-rambhia/naspanel/internal/mqtttest"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConn() model.ConnectionConfig {
	return model.ConnectionConfig{
		BrokerHost: "broker.lan",
		BrokerPort: 1883,
		Username:   "panel",
		Password:   "secret",
		Topic:      "nas/panel/data",
	}
}

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) handle(topic string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, topic+":"+string(payload))
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

// withFake swaps the client constructor and returns a channel yielding the
// fake once Run creates it.
func withFake(s *Subscriber, connectErrs ...error) <-chan *mqtttest.Client {
	ch := make(chan *mqtttest.Client, 1)
	s.newClient = func(o *mqtt.ClientOptions) mqtt.Client {
		c := mqtttest.NewClient(o)
		c.ConnectErrs = connectErrs
		ch <- c
		return c
	}
	return ch
}

func TestNew_NotConfigured(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *model.ConnectionConfig)
	}{
		{"empty host", func(c *model.ConnectionConfig) { c.BrokerHost = "" }},
		{"blank host", func(c *model.ConnectionConfig) { c.BrokerHost = "   " }},
		{"port zero", func(c *model.ConnectionConfig) { c.BrokerPort = 0 }},
		{"port too large", func(c *model.ConnectionConfig) { c.BrokerPort = 65536 }},
		{"empty topic", func(c *model.ConnectionConfig) { c.Topic = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := testConn()
			tt.mutate(&conn)
			_, err := New(conn, func(string, []byte) {}, Options{})
			assert.ErrorIs(t, err, ErrNotConfigured)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(testConn(), func(string, []byte) {}, Options{})
	require.NoError(t, err)
	assert.Equal(t, defaultRetryInterval, s.opts.RetryInterval)
	assert.Equal(t, defaultConnectTimeout, s.opts.ConnectTimeout)
}

func TestNewClientID(t *testing.T) {
	re := regexp.MustCompile(`^NASPanel-[0-9A-F]{1,4}$`)
	for range 50 {
		assert.Regexp(t, re, NewClientID())
	}
}

func TestClientOptions(t *testing.T) {
	s, err := New(testConn(), func(string, []byte) {}, Options{ConnectTimeout: 3 * time.Second})
	require.NoError(t, err)

	o := s.ClientOptions()
	require.Len(t, o.Servers, 1)
	assert.Equal(t, "tcp://broker.lan:1883", o.Servers[0].String())
	assert.Equal(t, s.clientID, o.ClientID)
	assert.Equal(t, "panel", o.Username)
	assert.Equal(t, "secret", o.Password)
	assert.True(t, o.AutoReconnect)
	assert.True(t, o.Order)
	assert.True(t, o.CleanSession)
	assert.Equal(t, 3*time.Second, o.ConnectTimeout)
	assert.NotNil(t, o.OnConnect)
	assert.NotNil(t, o.OnConnectionLost)
}

func TestClientOptions_Anonymous(t *testing.T) {
	conn := testConn()
	conn.Username = ""
	conn.Password = "ignored"
	s, err := New(conn, func(string, []byte) {}, Options{})
	require.NoError(t, err)

	o := s.ClientOptions()
	assert.Empty(t, o.Username)
	assert.Empty(t, o.Password)
}

func TestRun_SubscribesAndDelivers(t *testing.T) {
	rec := &recorder{}
	status := &Status{}
	s, err := New(testConn(), rec.handle, Options{Status: status})
	require.NoError(t, err)
	fakes := withFake(s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	fake := <-fakes
	require.Eventually(t, func() bool { return fake.Subscribed("nas/panel/data") }, time.Second, 5*time.Millisecond)
	assert.True(t, status.Connected())
	assert.Equal(t, "nas/panel/data", status.Topic())

	require.True(t, fake.Deliver("nas/panel/data", []byte(`{"a":1}`)))
	require.True(t, fake.Deliver("nas/panel/data", []byte(`{"a":2}`)))
	assert.Equal(t, []string{`nas/panel/data:{"a":1}`, `nas/panel/data:{"a":2}`}, rec.got())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, fake.Disconnected())
	assert.False(t, status.Connected())
}

func TestRun_RetriesUntilConnected(t *testing.T) {
	s, err := New(testConn(), func(string, []byte) {}, Options{RetryInterval: 5 * time.Millisecond})
	require.NoError(t, err)
	refused := errors.New("connection refused")
	fakes := withFake(s, refused, refused)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	fake := <-fakes
	require.Eventually(t, func() bool { return fake.Subscribed("nas/panel/data") }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, fake.ConnectCalls())
}

func TestRun_CancelWhileRetrying(t *testing.T) {
	s, err := New(testConn(), func(string, []byte) {}, Options{RetryInterval: time.Hour})
	require.NoError(t, err)
	fakes := withFake(s, errors.New("connection refused"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	fake := <-fakes
	require.Eventually(t, func() bool { return fake.ConnectCalls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, fake.Subscribed("nas/panel/data"))
}

func TestRun_CancelDuringConnectDropsLateConnection(t *testing.T) {
	rec := &recorder{}
	status := &Status{}
	s, err := New(testConn(), rec.handle, Options{Status: status})
	require.NoError(t, err)

	gate := make(chan struct{})
	fakes := make(chan *mqtttest.Client, 1)
	s.newClient = func(o *mqtt.ClientOptions) mqtt.Client {
		c := mqtttest.NewClient(o)
		c.ConnectGate = gate
		fakes <- c
		return c
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	fake := <-fakes
	require.Eventually(t, func() bool { return fake.ConnectCalls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, fake.DisconnectCalls())

	// The broker accepts the old handshake after Run has returned.
	close(gate)
	require.Eventually(t, func() bool { return fake.DisconnectCalls() == 2 }, time.Second, 5*time.Millisecond)

	assert.False(t, fake.IsConnected())
	assert.False(t, fake.Subscribed("nas/panel/data"))
	assert.False(t, fake.Deliver("nas/panel/data", []byte(`{"a":1}`)))
	assert.Empty(t, rec.got())
	assert.False(t, status.Connected())
}

func TestOnConnectionLost(t *testing.T) {
	status := &Status{}
	s, err := New(testConn(), func(string, []byte) {}, Options{Status: status})
	require.NoError(t, err)

	status.set(true)
	s.onConnectionLost(nil, errors.New("EOF"))
	assert.False(t, status.Connected())
}

func TestStatus_Nil(t *testing.T) {
	var s *Status
	assert.False(t, s.Connected())
	assert.Empty(t, s.Topic())
	s.set(true) // must not panic
}
