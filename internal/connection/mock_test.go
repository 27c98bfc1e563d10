package connection

import (
	"context"
	"sync"

	"github.com/nerrad567/mqtt-topics-translator/internal/router"
)

// mockRegistration is the handle returned by mockClient.Register.
type mockRegistration struct {
	client   *mockClient
	handlers EventHandlers
	revoked  bool
}

func (r *mockRegistration) Revoke() {
	r.client.mu.Lock()
	defer r.client.mu.Unlock()
	if !r.revoked {
		r.revoked = true
		r.client.calls = append(r.client.calls, "revoke")
	}
}

// mockClient is a thread-safe BrokerClient that records every call.
type mockClient struct {
	mu sync.Mutex

	regs        []*mockRegistration
	calls       []string
	connects    int
	lastOpts    ConnectOptions
	connectErrs []error                     // consumed one per Connect
	connectHook func(context.Context) error // runs before the queued error
	autoConnect bool                        // fire OnConnected after a successful Connect

	subscribeErrs map[string]error
	subscribed    []string
	unsubscribed  []string
	published     []publishCall
	disconnects   int
}

// publishCall is one recorded Publish.
type publishCall struct {
	Topic    string
	Payload  string
	QoS      byte
	Retained bool
}

func newMockClient() *mockClient {
	return &mockClient{autoConnect: true, subscribeErrs: make(map[string]error)}
}

func (c *mockClient) Register(h EventHandlers) Registration {
	c.mu.Lock()
	defer c.mu.Unlock()
	reg := &mockRegistration{client: c, handlers: h}
	c.regs = append(c.regs, reg)
	c.calls = append(c.calls, "register")
	return reg
}

func (c *mockClient) Connect(ctx context.Context, opts ConnectOptions) error {
	c.mu.Lock()
	c.connects++
	c.lastOpts = opts
	c.calls = append(c.calls, "connect")
	var err error
	if len(c.connectErrs) > 0 {
		err = c.connectErrs[0]
		c.connectErrs = c.connectErrs[1:]
	}
	hook := c.connectHook
	auto := c.autoConnect
	c.mu.Unlock()

	if hook != nil {
		if herr := hook(ctx); herr != nil {
			return herr
		}
	}
	if err != nil {
		return err
	}
	if auto {
		c.fireConnected()
	}
	return nil
}

func (c *mockClient) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
	c.calls = append(c.calls, "disconnect")
}

func (c *mockClient) Subscribe(topic string, _ byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "subscribe:"+topic)
	if err, ok := c.subscribeErrs[topic]; ok {
		return err
	}
	c.subscribed = append(c.subscribed, topic)
	return nil
}

func (c *mockClient) Unsubscribe(topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "unsubscribe:"+topic)
	c.unsubscribed = append(c.unsubscribed, topic)
	return nil
}

func (c *mockClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "publish:"+topic)
	c.published = append(c.published, publishCall{
		Topic:    topic,
		Payload:  string(payload),
		QoS:      qos,
		Retained: retained,
	})
	return nil
}

func (c *mockClient) publishes() []publishCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]publishCall(nil), c.published...)
}

// active returns the handlers of every registration that is not revoked.
func (c *mockClient) active() []EventHandlers {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []EventHandlers
	for _, r := range c.regs {
		if !r.revoked {
			out = append(out, r.handlers)
		}
	}
	return out
}

func (c *mockClient) fireConnected() {
	for _, h := range c.active() {
		h.OnConnected()
	}
}

func (c *mockClient) fireDisconnected(err error) {
	for _, h := range c.active() {
		h.OnDisconnected(err)
	}
}

func (c *mockClient) fireMessage(topic string, payload []byte) {
	for _, h := range c.active() {
		h.OnMessage(topic, payload)
	}
}

func (c *mockClient) connectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

func (c *mockClient) callLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *mockClient) subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.subscribed...)
}

// mockRouter records routed messages.
type mockRouter struct {
	mu     sync.Mutex
	topics []string
}

func (r *mockRouter) Route(topic string, _ []byte) router.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return router.Result{Mapped: true}
}

// eventLog collects observer events.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) ObserveConnection(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) ofKind(kind EventKind) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
