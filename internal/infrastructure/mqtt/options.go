package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for a connect attempt.
	defaultConnectTimeout = 10 * time.Second

	// defaultOperationTimeout bounds publish, subscribe and unsubscribe acknowledgements.
	defaultOperationTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// statusQoS is used for the Last Will and status messages.
	statusQoS = 1

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// ConnectOptions identify the client to the broker.
type ConnectOptions struct {
	Host         string
	Port         int
	ClientID     string
	Username     string
	Password     string
	CleanSession bool
}

// brokerURL returns tcp://host:port, or ssl:// when useTLS is set.
func (o ConnectOptions) brokerURL(useTLS bool) string {
	scheme := "tcp"
	if useTLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, o.Host, o.Port)
}

// buildClientOptions creates paho options for one broker connection.
//
// Auto-reconnect and connect-retry are off; the caller drives reconnection.
// Order-matters stays on so paho delivers messages sequentially. The
// callbacks only enqueue events, so they never block paho's router.
func (c *Client) buildClientOptions(o ConnectOptions) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(o.brokerURL(c.tls))
	opts.SetClientID(o.ClientID)

	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	opts.SetCleanSession(o.CleanSession)

	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetOrderMatters(true)

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if c.tls {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	if c.statusTopic != "" {
		opts.SetBinaryWill(c.statusTopic, statusPayload("offline", o.ClientID, "unexpected_disconnect"), statusQoS, true)
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.queue.push(event{kind: eventConnected})
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.queue.push(event{kind: eventDisconnected, err: err})
	})
	opts.SetDefaultPublishHandler(c.handleMessage)

	return opts
}

// statusMessage is the retained payload on the status topic.
type statusMessage struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// statusPayload encodes a status message stamped with the current time.
func statusPayload(status, clientID, reason string) []byte {
	payload, err := json.Marshal(statusMessage{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		// statusMessage contains only strings
		return []byte(`{"status":"` + status + `"}`)
	}
	return payload
}
