package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementForwards   = "forwards"
	MeasurementConnection = "connection"
)

// WriteForward records one routing decision for a destination.
//
// status is the router outcome ("forwarded", "filtered" or "failed"); size
// is the payload length in bytes.
func (c *Client) WriteForward(source, destination, status string, size int, at time.Time) {
	c.WritePointWithTime(MeasurementForwards,
		map[string]string{
			"source":      source,
			"destination": destination,
			"status":      status,
		},
		map[string]any{
			"bytes": size,
		},
		at,
	)
}

// WriteConnectionEvent records a connection lifecycle event.
//
// from and to are state names and may be empty for non-transition kinds.
// attempt is written only when positive; errMsg only when non-empty.
func (c *Client) WriteConnectionEvent(kind, from, to string, attempt int, errMsg string, at time.Time) {
	tags := map[string]string{"kind": kind}
	if from != "" {
		tags["from"] = from
	}
	if to != "" {
		tags["to"] = to
	}

	// InfluxDB rejects points without fields.
	fields := map[string]any{"count": 1}
	if attempt > 0 {
		fields["attempt"] = attempt
	}
	if errMsg != "" {
		fields["error"] = errMsg
	}

	c.WritePointWithTime(MeasurementConnection, tags, fields, at)
}

// WritePoint writes a custom point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point with an explicit timestamp.
// A zero timestamp is replaced with the current time.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	c.writer.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
