package router

import "time"

// Status is the result of routing one message to one destination.
type Status string

// Outcome statuses.
const (
	StatusForwarded Status = "forwarded"
	StatusFiltered  Status = "filtered"
	StatusFailed    Status = "failed"
)

// Outcome describes what happened to a message for a single destination.
type Outcome struct {
	SourceTopic string
	Destination string
	Status      Status
	Size        int
	Err         error
	Timestamp   time.Time
}

// Recorder receives routing outcomes.
//
// RecordOutcome is called synchronously on the message dispatch path and
// must not block.
type Recorder interface {
	RecordOutcome(o Outcome)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(o Outcome)

// RecordOutcome calls f(o).
func (f RecorderFunc) RecordOutcome(o Outcome) {
	f(o)
}

// Result summarises a single Route call.
type Result struct {
	// Mapped is false when the topic has no rule.
	Mapped bool
	// Filtered is true when the rule's value filter rejected the payload.
	Filtered  bool
	Forwarded int
	Failed    int
	// Errors holds one entry per failed destination.
	Errors []error
}

// Stats are cumulative counters since the Router was created.
type Stats struct {
	Received  uint64 `json:"received"`
	Unmapped  uint64 `json:"unmapped"`
	Filtered  uint64 `json:"filtered"`
	Forwarded uint64 `json:"forwarded"`
	Failed    uint64 `json:"failed"`
}
