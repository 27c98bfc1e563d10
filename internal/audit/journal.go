package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/mqtt-topics-translator/internal/connection"
	"github.com/nerrad567/mqtt-topics-translator/internal/router"
)

const (
	// defaultQueueSize is the number of entries buffered before dropping.
	defaultQueueSize = 256

	// writeTimeout bounds a single insert.
	writeTimeout = 5 * time.Second
)

// Logger defines the logging interface used by the journal.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Journal writes lifecycle events and delivery failures to a Repository.
type Journal struct {
	repo   Repository
	logger Logger
	queue  chan Entry

	// queueMu guards closed and the close of queue. Senders hold the read
	// lock, so a send never races the close.
	queueMu sync.RWMutex
	closed  bool
	dropped atomic.Uint64

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewJournal creates a Journal. queueSize <= 0 selects the default.
// Call Start before recording and Stop to flush.
func NewJournal(repo Repository, logger Logger, queueSize int) *Journal {
	if logger == nil {
		logger = noopLogger{}
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Journal{
		repo:   repo,
		logger: logger,
		queue:  make(chan Entry, queueSize),
	}
}

// Start launches the writer goroutine.
func (j *Journal) Start() {
	j.wg.Add(1)
	go j.writeLoop()
}

// Stop drains queued entries and waits for the writer to finish.
func (j *Journal) Stop() {
	j.stopOnce.Do(func() {
		j.queueMu.Lock()
		j.closed = true
		close(j.queue)
		j.queueMu.Unlock()

		j.wg.Wait()
	})
}

// Dropped returns the number of entries discarded because the queue was full.
func (j *Journal) Dropped() uint64 {
	return j.dropped.Load()
}

// RecordOutcome journals failed forwards.
func (j *Journal) RecordOutcome(o router.Outcome) {
	if o.Status != router.StatusFailed {
		return
	}
	e := Entry{
		Action:      ActionPublishFailed,
		Subject:     SubjectTopic,
		Topic:       o.SourceTopic,
		Destination: o.Destination,
		Details:     map[string]any{"size": o.Size},
		CreatedAt:   o.Timestamp.UTC(),
	}
	if o.Err != nil {
		e.Details["error"] = o.Err.Error()
	}
	j.enqueue(e)
}

// ObserveConnection journals every connection event.
func (j *Journal) ObserveConnection(ev connection.Event) {
	e := Entry{
		Subject:   SubjectConnection,
		CreatedAt: ev.Timestamp.UTC(),
		Details:   map[string]any{},
	}

	switch ev.Kind {
	case connection.EventTransition:
		e.Action = ActionTransition
		e.Details["from"] = ev.From.String()
		e.Details["to"] = ev.To.String()
	case connection.EventReconnectAttempt:
		e.Action = ActionReconnectAttempt
		e.Details["attempt"] = ev.Attempt
	case connection.EventSubscribeFailed:
		e.Action = ActionSubscribeFailed
		e.Subject = SubjectTopic
		e.Topic = ev.Topic
	default:
		return
	}
	if ev.Err != nil {
		e.Details["error"] = ev.Err.Error()
	}

	j.enqueue(e)
}

func (j *Journal) enqueue(e Entry) {
	j.queueMu.RLock()
	defer j.queueMu.RUnlock()

	if j.closed {
		j.dropped.Add(1)
		return
	}

	select {
	case j.queue <- e:
	default:
		if j.dropped.Add(1) == 1 {
			j.logger.Warn("audit queue full, dropping entries")
		}
	}
}

func (j *Journal) writeLoop() {
	defer j.wg.Done()

	for e := range j.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := j.repo.Create(ctx, &e); err != nil {
			j.logger.Error("writing audit entry failed", "action", e.Action, "error", err)
		}
		cancel()
	}
}
