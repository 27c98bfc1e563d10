// Package connection owns the single broker connection and its lifecycle.
//
// The Manager drives a small state machine:
//
//	Disconnected -> Connecting     Start
//	Connecting   -> Connected      connected notification
//	Connected    -> Reconnecting   unexpected disconnect notification
//	Reconnecting -> Connected      connected notification after a retry
//	Reconnecting -> Disconnected   retry attempts exhausted
//	any          -> Stopped        Stop (terminal)
//
// State and the intentional-shutdown condition are one value guarded by one
// mutex: Stopped is the shutdown flag. Every check-then-act on it happens under
// the lock, so a disconnect notification racing with Stop can never trigger a
// reconnect.
//
// Event handlers are attached to the BrokerClient through an explicit
// Registration that Stop revokes before disconnecting.
//
// On every connected notification the Manager subscribes to all mapped source
// topics. A failed subscription is logged and reported, and the remaining
// topics are still subscribed.
//
// Reconnect policy: each unexpected disconnect starts up to MaxAttempts connect
// attempts. The default of one attempt, made immediately, is a single-shot
// retry. Larger values space attempts with exponential backoff between
// InitialDelay and MaxDelay. Once attempts are exhausted the Manager stays
// Disconnected until the next disconnect notification or a new Start, which
// revokes the previous run's handlers before registering fresh ones.
package connection
