// Package mqtttest provides an in-memory paho client for tests.
package mqtttest

import (
	"errors"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Token is a completed paho token carrying a fixed error.
type Token struct {
	Err  error
	done chan struct{}
}

// NewToken returns a token that is already complete.
func NewToken(err error) *Token {
	t := &Token{Err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

// NewPendingToken returns a token that never completes.
func NewPendingToken() *Token {
	return &Token{done: make(chan struct{})}
}

func (t *Token) Wait() bool {
	<-t.done
	return true
}

func (t *Token) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *Token) Done() <-chan struct{} { return t.done }
func (t *Token) Error() error          { return t.Err }

// Message is a received message.
type Message struct {
	TopicName string
	Body      []byte
}

func (m Message) Duplicate() bool   { return false }
func (m Message) Qos() byte         { return 0 }
func (m Message) Retained() bool    { return false }
func (m Message) Topic() string     { return m.TopicName }
func (m Message) MessageID() uint16 { return 0 }
func (m Message) Payload() []byte   { return m.Body }
func (m Message) Ack()              {}

// Published records one Publish call.
type Published struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// Client is a fake mqtt.Client. ConnectErrs are returned by successive
// Connect calls; once exhausted, Connect succeeds and runs the OnConnect
// handler from the options.
type Client struct {
	Opts        *mqtt.ClientOptions
	ConnectErrs []error
	PublishErr  error
	// ConnectGate, when set, holds a successful Connect until the channel
	// is closed, as with a slow broker handshake. The token completes after
	// the OnConnect handler has run.
	ConnectGate chan struct{}
	// PublishPending makes Publish return tokens that never complete, as
	// with a stalled broker.
	PublishPending bool

	mu            sync.Mutex
	connectCalls  int
	connected     bool
	disconnected  bool
	disconnects   int
	subscriptions map[string]mqtt.MessageHandler
	published     []Published
}

// NewClient matches the signature of mqtt.NewClient.
func NewClient(opts *mqtt.ClientOptions) *Client {
	return &Client{Opts: opts, subscriptions: make(map[string]mqtt.MessageHandler)}
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) IsConnectionOpen() bool { return c.IsConnected() }

func (c *Client) Connect() mqtt.Token {
	c.mu.Lock()
	n := c.connectCalls
	c.connectCalls++
	gate := c.ConnectGate
	if n < len(c.ConnectErrs) && c.ConnectErrs[n] != nil {
		c.mu.Unlock()
		return NewToken(c.ConnectErrs[n])
	}
	c.mu.Unlock()

	if gate == nil {
		c.finishConnect()
		return NewToken(nil)
	}
	tok := NewPendingToken()
	go func() {
		<-gate
		c.finishConnect()
		close(tok.done)
	}()
	return tok
}

func (c *Client) finishConnect() {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	if c.Opts != nil && c.Opts.OnConnect != nil {
		c.Opts.OnConnect(c)
	}
}

func (c *Client) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.disconnected = true
	c.disconnects++
}

func (c *Client) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.PublishErr != nil {
		return NewToken(c.PublishErr)
	}
	if c.PublishPending {
		return NewPendingToken()
	}
	var body []byte
	switch p := payload.(type) {
	case []byte:
		body = p
	case string:
		body = []byte(p)
	default:
		return NewToken(errors.New("unsupported payload type"))
	}
	c.published = append(c.published, Published{Topic: topic, QoS: qos, Retained: retained, Payload: body})
	return NewToken(nil)
}

func (c *Client) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[topic] = callback
	return NewToken(nil)
}

func (c *Client) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for topic := range filters {
		c.subscriptions[topic] = callback
	}
	return NewToken(nil)
}

func (c *Client) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range topics {
		delete(c.subscriptions, topic)
	}
	return NewToken(nil)
}

func (c *Client) AddRoute(topic string, callback mqtt.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[topic] = callback
}

func (c *Client) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

// Deliver hands a message to the handler subscribed on topic. It reports
// whether a subscription existed.
func (c *Client) Deliver(topic string, payload []byte) bool {
	c.mu.Lock()
	h, ok := c.subscriptions[topic]
	c.mu.Unlock()
	if !ok {
		return false
	}
	h(c, Message{TopicName: topic, Body: payload})
	return true
}

// ConnectCalls returns how many times Connect was called.
func (c *Client) ConnectCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectCalls
}

// Disconnected reports whether Disconnect was called.
func (c *Client) Disconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

// DisconnectCalls returns how many times Disconnect was called.
func (c *Client) DisconnectCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}

// Subscribed reports whether topic has a handler.
func (c *Client) Subscribed(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subscriptions[topic]
	return ok
}

// Published returns a copy of every successful Publish call.
func (c *Client) Published() []Published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Published(nil), c.published...)
}
