package mqtt

import "sync"

type eventKind int

const (
	eventConnected eventKind = iota
	eventDisconnected
	eventMessage
)

// event is one paho callback waiting for dispatch.
type event struct {
	kind    eventKind
	topic   string
	payload []byte
	err     error
}

// eventQueue is an unbounded FIFO. push never blocks.
type eventQueue struct {
	mu     sync.Mutex
	items  []event
	notify chan struct{}

	// warnAt is the backlog size that triggers a warning; it doubles after
	// each warning so a sustained backlog does not flood the log.
	warnAt int
	onWarn func(backlog int)
}

func newEventQueue(capacity int, onWarn func(int)) *eventQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &eventQueue{
		items:  make([]event, 0, capacity),
		notify: make(chan struct{}, 1),
		warnAt: capacity,
		onWarn: onWarn,
	}
}

func (q *eventQueue) push(e event) {
	q.mu.Lock()
	q.items = append(q.items, e)
	backlog := len(q.items)
	warn := backlog > q.warnAt
	if warn {
		q.warnAt *= 2
	}
	q.mu.Unlock()

	if warn && q.onWarn != nil {
		q.onWarn(backlog)
	}

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// pop removes the oldest event. ok is false when the queue is empty.
func (q *eventQueue) pop() (event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return event{}, false
	}
	e := q.items[0]
	q.items[0] = event{}
	q.items = q.items[1:]
	return e, true
}

// len returns the current backlog.
func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
