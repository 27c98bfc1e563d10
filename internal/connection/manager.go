package connection

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/mqtt-topics-translator/internal/mapping"
)

// Logger defines the logging interface used by the connection manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Manager.
type Options struct {
	Client       BrokerClient
	Router       MessageRouter
	Table        *mapping.Table
	Connect      ConnectOptions
	SubscribeQoS byte
	Reconnect    ReconnectPolicy
	Logger       Logger
	Observers    []Observer
}

// Manager owns the broker connection lifecycle.
//
// Thread Safety: all methods are safe for concurrent use. Broker
// notifications may arrive on any goroutine.
type Manager struct {
	client    BrokerClient
	router    MessageRouter
	table     *mapping.Table
	connect   ConnectOptions
	qos       byte
	policy    ReconnectPolicy
	logger    Logger
	observers []Observer

	mu        sync.Mutex
	state     State
	since     time.Time
	lastErr   error
	reg       Registration
	runCtx    context.Context
	runCancel context.CancelFunc

	reconnects atomic.Uint64

	// wg tracks reconnect goroutines so Stop can wait for them.
	wg sync.WaitGroup

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New creates a Manager in the Disconnected state.
// Credentials and the mapping table are checked by Start.
func New(opts Options) (*Manager, error) {
	if opts.Client == nil {
		return nil, ErrNilClient
	}
	if opts.Router == nil {
		return nil, ErrNilRouter
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	policy := opts.Reconnect
	if policy.MaxAttempts == 0 {
		policy = DefaultReconnectPolicy()
	}

	return &Manager{
		client:    opts.Client,
		router:    opts.Router,
		table:     opts.Table,
		connect:   opts.Connect,
		qos:       opts.SubscribeQoS,
		policy:    policy,
		logger:    logger,
		observers: append([]Observer(nil), opts.Observers...),
		state:     Disconnected,
		since:     time.Now(),
		now:       time.Now,
		after:     time.After,
	}, nil
}

// Start registers the event handlers and performs the initial connect.
//
// Start fails without contacting the broker when credentials or the mapping
// table are missing. Start may be called again once reconnect attempts are
// exhausted; the handlers of the earlier run are revoked first. A failed initial connect is fatal: the handlers are
// revoked, the manager returns to Disconnected and ErrInitialConnect is
// returned wrapping the broker error.
func (m *Manager) Start(ctx context.Context) error {
	if m.connect.Username == "" {
		return ErrMissingCredentials
	}
	if m.table == nil {
		return ErrMissingMappingTable
	}

	m.mu.Lock()
	if m.state != Disconnected {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	from := m.setStateLocked(Connecting, nil)
	staleReg, staleCancel := m.reg, m.runCancel
	m.reg = nil
	m.runCtx, m.runCancel = context.WithCancel(context.Background())
	m.mu.Unlock()
	m.emitTransition(from, Connecting, nil)

	// A manager that gave up reconnecting still holds the handlers of the
	// previous run. They go before new ones are attached.
	if staleCancel != nil {
		staleCancel()
	}
	if staleReg != nil {
		staleReg.Revoke()
	}
	m.wg.Wait()

	m.mu.Lock()
	if m.state == Stopped {
		m.mu.Unlock()
		return ErrStopped
	}
	m.reg = m.client.Register(EventHandlers{
		OnConnected:    m.OnConnected,
		OnDisconnected: m.OnDisconnected,
		OnMessage:      m.OnMessage,
	})
	m.mu.Unlock()

	m.logger.Info("connecting to broker",
		"host", m.connect.Host,
		"port", m.connect.Port,
		"client_id", m.connect.ClientID,
		"topics", m.table.Len())

	err := m.client.Connect(ctx, m.connect)

	m.mu.Lock()
	if m.state == Stopped {
		m.mu.Unlock()
		if err == nil {
			m.client.Disconnect()
		}
		return ErrStopped
	}
	if err != nil {
		from := m.setStateLocked(Disconnected, err)
		reg := m.reg
		m.reg = nil
		m.runCancel()
		m.runCtx, m.runCancel = nil, nil
		m.mu.Unlock()

		if reg != nil {
			reg.Revoke()
		}
		m.emitTransition(from, Disconnected, err)
		return fmt.Errorf("%w: %w", ErrInitialConnect, err)
	}
	m.mu.Unlock()

	return nil
}

// Stop shuts the connection down permanently.
//
// The Stopped state is set first so no notification can start a reconnect.
// Handlers are revoked before the disconnect is issued, any in-flight
// reconnect is cancelled and awaited, and mapped topics are unsubscribed when
// the connection was up. Stop is idempotent.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.state == Stopped {
		m.mu.Unlock()
		return
	}
	from := m.setStateLocked(Stopped, nil)
	reg := m.reg
	m.reg = nil
	cancel := m.runCancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if reg != nil {
		reg.Revoke()
	}

	m.wg.Wait()

	if from == Connected {
		for _, topic := range m.table.SubscriptionTopics() {
			if err := m.client.Unsubscribe(topic); err != nil {
				m.logger.Debug("unsubscribe failed during shutdown", "topic", topic, "error", err)
			}
		}
	}
	if from != Disconnected {
		m.client.Disconnect()
	}

	m.emitTransition(from, Stopped, nil)
	m.logger.Info("connection manager stopped", "previous_state", from.String())
}

// OnConnected handles the broker's connected notification: it marks the
// connection up and subscribes every mapped source topic.
func (m *Manager) OnConnected() {
	m.mu.Lock()
	if m.state == Stopped {
		m.mu.Unlock()
		return
	}
	from := m.setStateLocked(Connected, nil)
	m.mu.Unlock()

	m.emitTransition(from, Connected, nil)
	m.logger.Info("connected to broker", "previous_state", from.String())

	topics := m.table.SubscriptionTopics()
	failed := 0
	for _, topic := range topics {
		if err := m.client.Subscribe(topic, m.qos); err != nil {
			failed++
			m.logger.Error("subscribe failed", "topic", topic, "error", err)
			m.emit(Event{Kind: EventSubscribeFailed, From: Connected, To: Connected, Topic: topic, Err: err})
			continue
		}
		m.logger.Debug("subscribed", "topic", topic, "qos", m.qos)
	}

	if failed > 0 {
		m.logger.Warn("running with partial subscriptions",
			"subscribed", len(topics)-failed,
			"failed", failed)
		return
	}
	m.logger.Info("subscribed to mapped topics", "count", len(topics))
}

// OnDisconnected handles the broker's disconnected notification.
//
// Nothing happens once Stopped. While a connect or reconnect is already in
// progress the notification is ignored. Otherwise the manager moves to
// Reconnecting and a reconnect goroutine is started.
func (m *Manager) OnDisconnected(cause error) {
	m.mu.Lock()
	switch {
	case m.state == Stopped:
		m.mu.Unlock()
		return
	case m.runCtx == nil, m.state == Connecting, m.state == Reconnecting:
		state := m.state
		m.mu.Unlock()
		m.logger.Debug("ignoring disconnect notification", "state", state.String())
		return
	}
	from := m.setStateLocked(Reconnecting, cause)
	ctx := m.runCtx
	m.wg.Add(1)
	m.mu.Unlock()

	m.emitTransition(from, Reconnecting, cause)
	m.logger.Warn("broker connection lost", "error", cause)

	go m.reconnect(ctx)
}

// OnMessage hands an inbound message to the router.
func (m *Manager) OnMessage(topic string, payload []byte) {
	m.router.Route(topic, payload)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns a snapshot for health reporting.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		State:      m.state,
		Since:      m.since,
		Reconnects: m.reconnects.Load(),
	}
	if m.lastErr != nil {
		s.LastError = m.lastErr.Error()
	}
	return s
}

// reconnect makes up to policy.MaxAttempts connect attempts.
// It re-checks the state after every attempt so a concurrent Stop wins.
func (m *Manager) reconnect(ctx context.Context) {
	defer m.wg.Done()

	maxAttempts := m.policy.attempts()
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if delay := m.policy.Delay(attempt); delay > 0 {
			m.logger.Debug("waiting before reconnect", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return
			case <-m.after(delay):
			}
		}
		if ctx.Err() != nil {
			return
		}

		m.reconnects.Add(1)
		m.emit(Event{Kind: EventReconnectAttempt, From: Reconnecting, To: Reconnecting, Attempt: attempt})
		m.logger.Info("reconnecting to broker", "attempt", attempt, "max_attempts", maxAttempts)

		err := m.client.Connect(ctx, m.connect)

		m.mu.Lock()
		stopped := m.state == Stopped
		m.mu.Unlock()
		if stopped {
			if err == nil {
				m.client.Disconnect()
			}
			return
		}

		if err == nil {
			m.logger.Info("reconnect succeeded", "attempt", attempt)
			return
		}

		lastErr = err
		m.logger.Warn("reconnect attempt failed", "attempt", attempt, "error", err)
	}

	m.mu.Lock()
	if m.state != Reconnecting {
		m.mu.Unlock()
		return
	}
	from := m.setStateLocked(Disconnected, lastErr)
	m.mu.Unlock()

	m.emitTransition(from, Disconnected, lastErr)
	m.logger.Error("reconnect attempts exhausted, staying disconnected until the next disconnect notification",
		"attempts", maxAttempts,
		"error", lastErr)
}

// setStateLocked changes state and returns the previous one.
// Caller must hold m.mu.
func (m *Manager) setStateLocked(to State, err error) State {
	from := m.state
	m.state = to
	m.since = m.now()
	if err != nil {
		m.lastErr = err
	}
	return from
}

func (m *Manager) emitTransition(from, to State, err error) {
	m.emit(Event{Kind: EventTransition, From: from, To: to, Err: err})
}

func (m *Manager) emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = m.now()
	}
	for _, o := range m.observers {
		o.ObserveConnection(e)
	}
}
