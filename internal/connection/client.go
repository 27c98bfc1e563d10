package connection

import (
	"context"
	"time"

	"github.com/nerrad567/mqtt-topics-translator/internal/router"
)

// ConnectOptions are supplied once at startup and never change at runtime.
type ConnectOptions struct {
	ClientID     string
	Host         string
	Port         int
	Username     string
	Password     string
	CleanSession bool
}

// EventHandlers are the three asynchronous notifications a BrokerClient emits.
type EventHandlers struct {
	OnConnected    func()
	OnDisconnected func(err error)
	OnMessage      func(topic string, payload []byte)
}

// Registration is a handle to a set of attached EventHandlers.
type Registration interface {
	// Revoke detaches the handlers. After Revoke returns no further
	// notifications are delivered to them. Revoke is idempotent.
	Revoke()
}

// BrokerClient is the broker connection abstraction.
// It is satisfied by the paho-backed client in infrastructure/mqtt (via an
// adapter in main.go).
type BrokerClient interface {
	// Register attaches handlers and returns the handle that detaches them.
	Register(h EventHandlers) Registration

	// Connect opens the connection. A successful connect is followed by an
	// OnConnected notification.
	Connect(ctx context.Context, opts ConnectOptions) error

	// Disconnect closes the connection gracefully.
	Disconnect()

	// Subscribe requests delivery of messages on topic.
	Subscribe(topic string, qos byte) error

	// Unsubscribe cancels a subscription.
	Unsubscribe(topic string) error

	// Publish sends payload to topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MessageRouter handles inbound messages.
// It is satisfied by *router.Router.
type MessageRouter interface {
	Route(topic string, payload []byte) router.Result
}

// ReconnectPolicy bounds the retries made after an unexpected disconnect.
type ReconnectPolicy struct {
	// MaxAttempts is the number of connect attempts per disconnect (minimum 1).
	MaxAttempts int
	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
}

// DefaultReconnectPolicy makes one immediate attempt per disconnect.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts:  1,
		InitialDelay: time.Second,
		MaxDelay:     time.Minute,
	}
}

// Delay returns the wait before attempt n (1-based). The first attempt is
// immediate; attempt n waits InitialDelay * 2^(n-2), capped at MaxDelay.
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 || p.InitialDelay <= 0 {
		return 0
	}
	d := p.InitialDelay
	for i := 2; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func (p ReconnectPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}
