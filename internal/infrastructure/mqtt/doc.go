// Package mqtt is the broker client used by the topics translator.
//
// It wraps paho.mqtt.golang and exposes exactly what the connection manager
// needs: Connect, Disconnect, Subscribe, Unsubscribe, Publish and three event
// notifications (connected, disconnected, message received).
//
// # Event dispatch
//
// Paho invokes callbacks from its own goroutines. The Client never runs user
// handlers there. Every callback appends an event to an unbounded FIFO queue
// and returns at once, and a single dispatch goroutine delivers events to the
// registered handlers in arrival order. Handlers may therefore wait on
// publish and subscribe acknowledgements without stalling paho's network
// loop, and messages on a topic are handled in the order the broker sent them.
//
// # Reconnection
//
// Paho's auto-reconnect and connect-retry are disabled. Reconnection policy
// belongs to the caller, which is notified through OnDisconnected.
//
// # Handler registration
//
// Handlers are attached with Register, which returns a Registration.
// Revoke detaches them; events dispatched after Revoke returns are not
// delivered to those handlers.
//
// # Status topic
//
// When a status topic is configured the client sets a retained Last Will
// ("offline", reason unexpected_disconnect), publishes a retained "online"
// message on every connect and a retained graceful "offline" message on
// Disconnect.
//
// # Usage
//
//	client := mqtt.New(cfg.MQTT, logger)
//	defer client.Close()
//
//	reg := client.Register(mqtt.Handlers{
//	    OnConnected: func() { ... },
//	    OnMessage:   func(topic string, payload []byte) { ... },
//	})
//	defer reg.Revoke()
//
//	err := client.Connect(ctx, mqtt.ConnectOptions{Host: "localhost", Port: 1883, ...})
package mqtt
