// Package mapping holds the topic translation rules of the translator.
//
// A mapping document lists translations, each routing one source topic to
// one or more destination topics, optionally only when the payload equals a
// given value (case-insensitive):
//
//	{
//	  "description": "Pool pump relays",
//	  "translations": [
//	    { "sourceTopic": "pool/pump", "ifMessageValue": "ON",
//	      "destinationTopics": ["relay/1/set", "relay/2/set"] }
//	  ]
//	}
//
// The document is loaded once at startup with Load (JSON, or YAML for
// .yaml/.yml files) and turned into an immutable Table by Build. A Table is
// never mutated after Build returns, so lookups from concurrent message
// handlers need no locking.
//
// Source topics are exact-match keys: MQTT wildcards (+, #) are rejected.
// Duplicate source topics are rejected rather than silently overwritten.
package mapping
