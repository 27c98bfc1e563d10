package mapping

import (
	"slices"
	"strings"
)

// Rule is one translation directive: messages on SourceTopic are republished,
// byte for byte, to every entry of DestinationTopics.
type Rule struct {
	// SourceTopic is the exact subscription key.
	SourceTopic string `json:"sourceTopic" yaml:"sourceTopic"`

	// ValueFilter, when non-empty, restricts forwarding to payloads equal to
	// it under case-insensitive comparison.
	ValueFilter string `json:"ifMessageValue,omitempty" yaml:"ifMessageValue,omitempty"`

	// DestinationTopics are independent publish targets, in document order.
	DestinationTopics []string `json:"destinationTopics" yaml:"destinationTopics"`
}

// HasFilter reports whether the rule only forwards matching payloads.
func (r Rule) HasFilter() bool {
	return r.ValueFilter != ""
}

// Accepts reports whether payload passes the rule's value filter.
// A rule without a filter accepts every payload.
func (r Rule) Accepts(payload []byte) bool {
	if !r.HasFilter() {
		return true
	}
	return strings.EqualFold(string(payload), r.ValueFilter)
}

// clone returns a deep copy so callers cannot mutate a built Table.
func (r Rule) clone() Rule {
	r.DestinationTopics = slices.Clone(r.DestinationTopics)
	return r
}
