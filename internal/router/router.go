package router

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/mqtt-topics-translator/internal/mapping"
)

// Delivery settings applied to every forwarded message.
const (
	// QoSExactlyOnce is MQTT QoS level 2.
	QoSExactlyOnce byte = 2

	// Retained asks the broker to keep the last forwarded value per destination.
	Retained = true

	// maxLoggedPayload bounds the payload text included in log lines.
	maxLoggedPayload = 256
)

// Publisher sends a message to the broker.
// This interface is satisfied by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger defines the logging interface used by the router.
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

// Options configures a Router.
type Options struct {
	Table     *mapping.Table
	Publisher Publisher
	Logger    Logger
	Recorders []Recorder
}

// Router applies a mapping table to inbound messages.
//
// Thread Safety: Route may be called concurrently. The table is immutable and
// the counters are atomic.
type Router struct {
	table     *mapping.Table
	publisher Publisher
	logger    Logger
	recorders []Recorder

	received  atomic.Uint64
	unmapped  atomic.Uint64
	filtered  atomic.Uint64
	forwarded atomic.Uint64
	failed    atomic.Uint64

	now func() time.Time
}

// New creates a Router.
func New(opts Options) (*Router, error) {
	if opts.Table == nil {
		return nil, ErrNilTable
	}
	if opts.Publisher == nil {
		return nil, ErrNilPublisher
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Router{
		table:     opts.Table,
		publisher: opts.Publisher,
		logger:    logger,
		recorders: append([]Recorder(nil), opts.Recorders...),
		now:       time.Now,
	}, nil
}

// Table returns the mapping table the router was built with.
func (r *Router) Table() *mapping.Table {
	return r.table
}

// Route forwards one inbound message.
//
// The payload is never modified. Publish errors are collected in the Result
// and do not stop the remaining destinations.
func (r *Router) Route(topic string, payload []byte) Result {
	r.received.Add(1)

	rule, ok := r.table.Lookup(topic)
	if !ok {
		r.unmapped.Add(1)
		r.logger.Debug("ignoring unmapped topic", "topic", topic)
		return Result{}
	}

	r.logger.Info("message received",
		"topic", topic,
		"payload", preview(payload),
		"destinations", len(rule.DestinationTopics))

	result := Result{Mapped: true}
	now := r.now()

	// The filter depends only on the rule and payload, so one evaluation
	// holds for every destination of the rule.
	if !rule.Accepts(payload) {
		r.filtered.Add(1)
		result.Filtered = true
		r.logger.Debug("payload rejected by value filter",
			"topic", topic,
			"filter", rule.ValueFilter)
		for _, dest := range rule.DestinationTopics {
			r.record(Outcome{
				SourceTopic: topic,
				Destination: dest,
				Status:      StatusFiltered,
				Size:        len(payload),
				Timestamp:   now,
			})
		}
		return result
	}

	for _, dest := range rule.DestinationTopics {
		o := Outcome{
			SourceTopic: topic,
			Destination: dest,
			Size:        len(payload),
			Timestamp:   now,
		}

		if err := r.publisher.Publish(dest, payload, QoSExactlyOnce, Retained); err != nil {
			r.failed.Add(1)
			err = fmt.Errorf("publishing %s to %s: %w", topic, dest, err)
			result.Failed++
			result.Errors = append(result.Errors, err)
			o.Status = StatusFailed
			o.Err = err
			r.logger.Error("forward failed",
				"topic", topic,
				"destination", dest,
				"error", err)
		} else {
			r.forwarded.Add(1)
			result.Forwarded++
			o.Status = StatusForwarded
			r.logger.Info("message forwarded",
				"topic", topic,
				"destination", dest)
		}

		r.record(o)
	}

	return result
}

// Stats returns a snapshot of the routing counters.
func (r *Router) Stats() Stats {
	return Stats{
		Received:  r.received.Load(),
		Unmapped:  r.unmapped.Load(),
		Filtered:  r.filtered.Load(),
		Forwarded: r.forwarded.Load(),
		Failed:    r.failed.Load(),
	}
}

func (r *Router) record(o Outcome) {
	for _, rec := range r.recorders {
		rec.RecordOutcome(o)
	}
}

// preview renders a payload for logging, truncated to maxLoggedPayload bytes.
func preview(payload []byte) string {
	if len(payload) <= maxLoggedPayload {
		return string(payload)
	}
	return string(payload[:maxLoggedPayload]) + "..."
}
