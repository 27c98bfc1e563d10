package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/mqtt-topics-translator/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang for the topics translator.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Handlers run on a single dispatch goroutine, one event at a time.
type Client struct {
	tls         bool
	statusTopic string
	newPaho     func(*pahomqtt.ClientOptions) pahomqtt.Client

	mu       sync.Mutex
	paho     pahomqtt.Client
	clientID string
	closed   bool

	regMu  sync.Mutex
	regs   []*Registration
	nextID uint64

	queue *eventQueue
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once

	logger Logger
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Handlers receive the client's notifications. Nil fields are skipped.
type Handlers struct {
	OnConnected    func()
	OnDisconnected func(err error)
	OnMessage      func(topic string, payload []byte)
}

// Registration is the handle returned by Register.
type Registration struct {
	client   *Client
	id       uint64
	handlers Handlers
}

// Revoke detaches the handlers. It is idempotent and must not be called
// from inside a handler that expects to keep running afterwards.
func (r *Registration) Revoke() {
	if r == nil || r.client == nil {
		return
	}
	c := r.client
	c.regMu.Lock()
	defer c.regMu.Unlock()
	for i, reg := range c.regs {
		if reg.id == r.id {
			c.regs = append(c.regs[:i], c.regs[i+1:]...)
			return
		}
	}
}

// New creates a Client from configuration and starts its dispatch goroutine.
// No network activity happens until Connect.
func New(cfg config.MQTTConfig, logger Logger) *Client {
	return newClient(cfg, logger, pahomqtt.NewClient)
}

func newClient(cfg config.MQTTConfig, logger Logger, factory func(*pahomqtt.ClientOptions) pahomqtt.Client) *Client {
	if logger == nil {
		logger = noopLogger{}
	}

	c := &Client{
		tls:         cfg.Broker.TLS,
		statusTopic: cfg.StatusTopic,
		newPaho:     factory,
		done:        make(chan struct{}),
		logger:      logger,
	}
	c.queue = newEventQueue(cfg.DispatchBuffer, func(backlog int) {
		logger.Warn("MQTT dispatch backlog growing", "events", backlog)
	})

	c.wg.Add(1)
	go c.dispatchLoop()

	return c
}

// Register attaches handlers and returns the handle that detaches them.
func (c *Client) Register(h Handlers) *Registration {
	c.regMu.Lock()
	defer c.regMu.Unlock()

	c.nextID++
	reg := &Registration{client: c, id: c.nextID, handlers: h}
	c.regs = append(c.regs, reg)
	return reg
}

// Connect opens the broker connection.
//
// The paho client is created on the first call; later calls reconnect it
// with the same options. Connect returns when the broker acknowledges the
// connection, the attempt fails, ctx is cancelled, or the connect timeout
// passes. On success an OnConnected notification follows.
func (c *Client) Connect(ctx context.Context, opts ConnectOptions) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.paho == nil {
		c.paho = c.newPaho(c.buildClientOptions(opts))
		c.clientID = opts.ClientID
	}
	client := c.paho
	c.mu.Unlock()

	token := client.Connect()

	timer := time.NewTimer(defaultConnectTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return nil
}

// Disconnect closes the connection gracefully.
// A configured status topic receives a retained graceful offline message first.
func (c *Client) Disconnect() {
	client := c.pahoClient()
	if client == nil {
		return
	}

	if c.statusTopic != "" && client.IsConnected() {
		token := client.Publish(c.statusTopic, statusQoS, true, statusPayload("offline", c.clientIDValue(), "graceful_shutdown"))
		if !token.WaitTimeout(defaultOperationTimeout) {
			c.logger.Warn("offline status publish timed out", "topic", c.statusTopic)
		}
	}

	client.Disconnect(defaultDisconnectQuiesce)
}

// Close disconnects and stops the dispatch goroutine. Events still queued
// are discarded. Close is idempotent.
func (c *Client) Close() error {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		if client := c.pahoClient(); client != nil && client.IsConnectionOpen() {
			c.Disconnect()
		}

		close(c.done)
		c.wg.Wait()
	})
	return nil
}

// HealthCheck reports whether the broker connection is up.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// IsConnected returns true if the broker connection is up.
func (c *Client) IsConnected() bool {
	client := c.pahoClient()
	return client != nil && client.IsConnected()
}

// Backlog returns the number of events waiting for dispatch.
func (c *Client) Backlog() int {
	return c.queue.len()
}

func (c *Client) pahoClient() pahomqtt.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paho
}

func (c *Client) clientIDValue() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}

// handleMessage is the paho callback for every inbound message.
func (c *Client) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	c.queue.push(event{kind: eventMessage, topic: msg.Topic(), payload: msg.Payload()})
}

// dispatchLoop delivers queued events until Close.
func (c *Client) dispatchLoop() {
	defer c.wg.Done()

	for {
		for {
			e, ok := c.queue.pop()
			if !ok {
				break
			}
			select {
			case <-c.done:
				return
			default:
			}
			c.dispatch(e)
		}

		select {
		case <-c.done:
			return
		case <-c.queue.notify:
		}
	}
}

// dispatch delivers one event to every current registration.
func (c *Client) dispatch(e event) {
	if e.kind == eventConnected {
		c.publishOnlineStatus()
	}

	c.regMu.Lock()
	regs := append([]*Registration(nil), c.regs...)
	c.regMu.Unlock()

	for _, reg := range regs {
		if !c.registered(reg.id) {
			continue
		}
		c.deliver(reg.handlers, e)
	}
}

func (c *Client) registered(id uint64) bool {
	c.regMu.Lock()
	defer c.regMu.Unlock()
	for _, reg := range c.regs {
		if reg.id == id {
			return true
		}
	}
	return false
}

// deliver calls the handler matching e with panic recovery.
func (c *Client) deliver(h Handlers, e event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("MQTT handler panic recovered",
				"topic", e.topic,
				"panic", r,
			)
		}
	}()

	switch e.kind {
	case eventConnected:
		if h.OnConnected != nil {
			h.OnConnected()
		}
	case eventDisconnected:
		if h.OnDisconnected != nil {
			h.OnDisconnected(e.err)
		}
	case eventMessage:
		if h.OnMessage != nil {
			h.OnMessage(e.topic, e.payload)
		}
	}
}

// publishOnlineStatus publishes the retained online message, if configured.
func (c *Client) publishOnlineStatus() {
	if c.statusTopic == "" {
		return
	}
	if err := c.Publish(c.statusTopic, statusPayload("online", c.clientIDValue(), ""), statusQoS, true); err != nil {
		c.logger.Warn("online status publish failed", "topic", c.statusTopic, "error", err)
	}
}
