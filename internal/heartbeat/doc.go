// Package heartbeat writes a periodic liveness line to the log while the
// translator runs, so an otherwise quiet service still shows signs of life.
//
// Each beat logs uptime, connection state, reconnect count and the routing
// counters, plus the number of messages received since the previous beat.
// The default interval is one hour; the translator disables the reporter
// when heartbeat.interval is 0.
//
//	reporter, err := heartbeat.New(heartbeat.Options{
//	    Interval: time.Hour,
//	    Logger:   log.Component("heartbeat"),
//	    Stats:    rt,
//	    Status:   mgr,
//	})
//	reporter.Start(ctx)
//	defer reporter.Stop()
package heartbeat
