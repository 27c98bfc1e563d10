package mqtt

import (
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/mqtt-topics-translator/internal/infrastructure/config"
)

// fakeToken is a paho token that completes immediately unless pending is set.
type fakeToken struct {
	err     error
	pending bool
}

func (t *fakeToken) Wait() bool { return !t.pending }

func (t *fakeToken) WaitTimeout(_ time.Duration) bool { return !t.pending }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.pending {
		close(ch)
	}
	return ch
}

func (t *fakeToken) Error() error { return t.err }

// fakeMessage implements pahomqtt.Message.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 2 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

// fakePublish records one Publish call.
type fakePublish struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakePaho implements pahomqtt.Client and keeps the options it was built with.
type fakePaho struct {
	mu   sync.Mutex
	opts *pahomqtt.ClientOptions

	connected    bool
	connectToken *fakeToken
	publishErr   error
	subscribeErr error

	connects    int
	disconnects []uint
	published   []fakePublish
	subscribed  map[string]byte
	unsubbed    []string
}

func (f *fakePaho) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakePaho) IsConnectionOpen() bool { return f.IsConnected() }

func (f *fakePaho) Connect() pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectToken != nil {
		return f.connectToken
	}
	f.connected = true
	return &fakeToken{}
}

func (f *fakePaho) Disconnect(quiesce uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnects = append(f.disconnects, quiesce)
}

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, _ := payload.([]byte)
	f.published = append(f.published, fakePublish{topic: topic, qos: qos, retained: retained, payload: b})
	return &fakeToken{err: f.publishErr}
}

func (f *fakePaho) Subscribe(topic string, qos byte, _ pahomqtt.MessageHandler) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribed == nil {
		f.subscribed = make(map[string]byte)
	}
	if f.subscribeErr == nil {
		f.subscribed[topic] = qos
	}
	return &fakeToken{err: f.subscribeErr}
}

func (f *fakePaho) SubscribeMultiple(_ map[string]byte, _ pahomqtt.MessageHandler) pahomqtt.Token {
	return &fakeToken{}
}

func (f *fakePaho) Unsubscribe(topics ...string) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubbed = append(f.unsubbed, topics...)
	return &fakeToken{}
}

func (f *fakePaho) AddRoute(_ string, _ pahomqtt.MessageHandler) {}

func (f *fakePaho) OptionsReader() pahomqtt.ClientOptionsReader {
	return pahomqtt.ClientOptionsReader{}
}

func (f *fakePaho) publishes() []fakePublish {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakePublish(nil), f.published...)
}

// fireConnect simulates paho's OnConnect callback.
func (f *fakePaho) fireConnect() {
	f.opts.OnConnect(f)
}

// fireConnectionLost simulates paho's ConnectionLost callback.
func (f *fakePaho) fireConnectionLost(err error) {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
	f.opts.OnConnectionLost(f, err)
}

// fireMessage simulates an inbound message.
func (f *fakePaho) fireMessage(topic, payload string) {
	f.opts.DefaultPublishHandler(f, &fakeMessage{topic: topic, payload: []byte(payload)})
}

// testConfig returns MQTT settings for unit tests.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "translator-test",
		},
		Auth: config.MQTTAuthConfig{
			Username: "bridge",
			Password: "secret",
		},
		SubscribeQoS:   2,
		DispatchBuffer: 16,
	}
}

func testConnectOptions() ConnectOptions {
	return ConnectOptions{
		Host:         "127.0.0.1",
		Port:         1883,
		ClientID:     "translator-test",
		Username:     "bridge",
		Password:     "secret",
		CleanSession: true,
	}
}

// newFakeClient returns a Client whose paho client is fake.
func newFakeClient(cfg config.MQTTConfig) (*Client, *fakePaho) {
	fake := &fakePaho{}
	c := newClient(cfg, nil, func(opts *pahomqtt.ClientOptions) pahomqtt.Client {
		fake.mu.Lock()
		fake.opts = opts
		fake.mu.Unlock()
		return fake
	})
	return c, fake
}
