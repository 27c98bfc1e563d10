package heartbeat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/mqtt-topics-translator/internal/connection"
	"github.com/nerrad567/mqtt-topics-translator/internal/router"
)

// DefaultInterval is one beat per hour.
const DefaultInterval = time.Hour

// ErrNonPositiveInterval is returned by New for an interval <= 0.
var ErrNonPositiveInterval = errors.New("heartbeat: interval must be positive")

// Logger defines the logging interface used by the reporter.
type Logger interface {
	Info(msg string, args ...any)
}

// StatsSource supplies routing counters.
type StatsSource interface {
	Stats() router.Stats
}

// StatusSource supplies the connection status.
type StatusSource interface {
	Status() connection.Status
}

// Options configures a Reporter. Stats and Status are optional.
type Options struct {
	Interval time.Duration
	Logger   Logger
	Stats    StatsSource
	Status   StatusSource
}

// Reporter logs a heartbeat line every interval.
type Reporter struct {
	interval time.Duration
	logger   Logger
	stats    StatsSource
	status   StatusSource

	started time.Time
	last    router.Stats
	beats   uint64

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a Reporter.
func New(opts Options) (*Reporter, error) {
	if opts.Interval <= 0 {
		return nil, ErrNonPositiveInterval
	}
	if opts.Logger == nil {
		return nil, errors.New("heartbeat: logger is required")
	}
	return &Reporter{
		interval: opts.Interval,
		logger:   opts.Logger,
		stats:    opts.Stats,
		status:   opts.Status,
		done:     make(chan struct{}),
	}, nil
}

// Start begins periodic reporting. The loop ends when ctx is cancelled or
// Stop is called.
func (r *Reporter) Start(ctx context.Context) {
	r.started = time.Now()
	r.wg.Add(1)
	go r.reportLoop(ctx)
}

// Stop ends reporting and waits for the loop to exit. Safe to call more
// than once.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}

func (r *Reporter) reportLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case now := <-ticker.C:
			r.beat(now)
		}
	}
}

// beat logs one heartbeat line. Only the reporter goroutine calls it.
func (r *Reporter) beat(now time.Time) {
	r.beats++
	args := []any{
		"beat", r.beats,
		"uptime", now.Sub(r.started).Round(time.Second).String(),
	}

	if r.status != nil {
		st := r.status.Status()
		args = append(args, "state", st.State.String(), "reconnects", st.Reconnects)
	}

	if r.stats != nil {
		s := r.stats.Stats()
		args = append(args,
			"received", s.Received,
			"forwarded", s.Forwarded,
			"failed", s.Failed,
			"received_since_last", s.Received-r.last.Received,
		)
		r.last = s
	}

	r.logger.Info("heartbeat", args...)
}
