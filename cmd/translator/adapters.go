package main

import (
	"context"
	"time"

	"github.com/nerrad567/mqtt-topics-translator/internal/connection"
	"github.com/nerrad567/mqtt-topics-translator/internal/infrastructure/config"
	"github.com/nerrad567/mqtt-topics-translator/internal/infrastructure/mqtt"
	"github.com/nerrad567/mqtt-topics-translator/internal/router"
)

// brokerAdapter exposes *mqtt.Client as a connection.BrokerClient.
type brokerAdapter struct {
	client *mqtt.Client
}

func (a brokerAdapter) Register(h connection.EventHandlers) connection.Registration {
	return a.client.Register(mqtt.Handlers{
		OnConnected:    h.OnConnected,
		OnDisconnected: h.OnDisconnected,
		OnMessage:      h.OnMessage,
	})
}

func (a brokerAdapter) Connect(ctx context.Context, o connection.ConnectOptions) error {
	return a.client.Connect(ctx, mqtt.ConnectOptions{
		Host:         o.Host,
		Port:         o.Port,
		ClientID:     o.ClientID,
		Username:     o.Username,
		Password:     o.Password,
		CleanSession: o.CleanSession,
	})
}

func (a brokerAdapter) Disconnect() { a.client.Disconnect() }

func (a brokerAdapter) Subscribe(topic string, qos byte) error {
	return a.client.Subscribe(topic, qos)
}

func (a brokerAdapter) Unsubscribe(topic string) error {
	return a.client.Unsubscribe(topic)
}

func (a brokerAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// metricsWriter is the part of *influxdb.Client used for telemetry.
type metricsWriter interface {
	WriteForward(source, destination, status string, size int, at time.Time)
	WriteConnectionEvent(kind, from, to string, attempt int, errMsg string, at time.Time)
}

// influxMetrics records routing outcomes and connection events as points.
type influxMetrics struct {
	writer metricsWriter
}

func (m influxMetrics) RecordOutcome(o router.Outcome) {
	m.writer.WriteForward(o.SourceTopic, o.Destination, string(o.Status), o.Size, o.Timestamp)
}

func (m influxMetrics) ObserveConnection(e connection.Event) {
	var from, to, errMsg string
	if e.Kind == connection.EventTransition {
		from, to = e.From.String(), e.To.String()
	}
	if e.Err != nil {
		errMsg = e.Err.Error()
	}
	m.writer.WriteConnectionEvent(string(e.Kind), from, to, e.Attempt, errMsg, e.Timestamp)
}

// connectOptions builds the broker identity. Sessions are always clean:
// subscriptions are re-established on every connect.
func connectOptions(cfg config.MQTTConfig) connection.ConnectOptions {
	return connection.ConnectOptions{
		ClientID:     cfg.Broker.ClientID,
		Host:         cfg.Broker.Host,
		Port:         cfg.Broker.Port,
		Username:     cfg.Auth.Username,
		Password:     cfg.Auth.Password,
		CleanSession: true,
	}
}

func reconnectPolicy(cfg config.MQTTReconnectConfig) connection.ReconnectPolicy {
	return connection.ReconnectPolicy{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: time.Duration(cfg.InitialDelay) * time.Second,
		MaxDelay:     time.Duration(cfg.MaxDelay) * time.Second,
	}
}
