// Package router forwards inbound broker messages to their mapped destinations.
//
// For every message the Router looks the topic up in a mapping.Table. Unmapped
// topics are ignored. A mapped message passes the rule's optional value filter
// and is then republished, byte for byte, to each destination topic with QoS 2
// and the retained flag set. A publish failure on one destination is logged and
// reported but never prevents the remaining destinations from being attempted.
//
// Each destination produces an Outcome which is handed to the configured
// Recorders (audit journal, InfluxDB, WebSocket hub). Aggregate counters are
// available from Router.Stats.
package router
