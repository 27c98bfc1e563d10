// Package audit keeps a durable journal of the translator's connection
// lifecycle and delivery failures in the audit_logs table.
//
// The Journal implements router.Recorder and connection.Observer. Entries
// are queued in memory and written by a background goroutine so the broker
// dispatch path never waits on SQLite. When the queue is full, entries are
// dropped and counted.
//
// Successful forwards and filtered messages are not journaled; they are
// visible in the router statistics and InfluxDB.
package audit
