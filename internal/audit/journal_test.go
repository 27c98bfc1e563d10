package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/mqtt-topics-translator/internal/connection"
	"github.com/nerrad567/mqtt-topics-translator/internal/router"
)

// memoryRepo collects entries in memory. block, when set, stalls Create
// until closed.
type memoryRepo struct {
	mu      sync.Mutex
	entries []Entry
	block   chan struct{}
	err     error
}

func (r *memoryRepo) Create(_ context.Context, e *Entry) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, *e)
	return nil
}

func (r *memoryRepo) List(context.Context, Filter) (*ListResult, error) {
	return nil, errors.New("not implemented")
}

func (r *memoryRepo) snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

func TestJournal_RecordOutcome_OnlyFailures(t *testing.T) {
	repo := &memoryRepo{}
	j := NewJournal(repo, nil, 0)
	j.Start()

	now := time.Now()
	j.RecordOutcome(router.Outcome{SourceTopic: "a", Destination: "b", Status: router.StatusForwarded, Timestamp: now})
	j.RecordOutcome(router.Outcome{SourceTopic: "a", Destination: "c", Status: router.StatusFiltered, Timestamp: now})
	j.RecordOutcome(router.Outcome{
		SourceTopic: "a",
		Destination: "d",
		Status:      router.StatusFailed,
		Size:        2,
		Err:         errors.New("broker gone"),
		Timestamp:   now,
	})
	j.Stop()

	got := repo.snapshot()
	if len(got) != 1 {
		t.Fatalf("journaled %d entries, want 1", len(got))
	}
	e := got[0]
	if e.Action != ActionPublishFailed || e.Subject != SubjectTopic {
		t.Errorf("action/subject = %q/%q", e.Action, e.Subject)
	}
	if e.Topic != "a" || e.Destination != "d" {
		t.Errorf("topic/destination = %q/%q, want a/d", e.Topic, e.Destination)
	}
	if e.Details["error"] != "broker gone" {
		t.Errorf("Details[error] = %v", e.Details["error"])
	}
}

func TestJournal_ObserveConnection(t *testing.T) {
	repo := &memoryRepo{}
	j := NewJournal(repo, nil, 0)
	j.Start()

	now := time.Now()
	j.ObserveConnection(connection.Event{
		Kind: connection.EventTransition, From: connection.Connected, To: connection.Reconnecting, Timestamp: now,
	})
	j.ObserveConnection(connection.Event{
		Kind: connection.EventReconnectAttempt, Attempt: 2, Timestamp: now,
	})
	j.ObserveConnection(connection.Event{
		Kind: connection.EventSubscribeFailed, Topic: "sensor/a", Err: errors.New("denied"), Timestamp: now,
	})
	j.ObserveConnection(connection.Event{Kind: "unknown", Timestamp: now})
	j.Stop()

	got := repo.snapshot()
	if len(got) != 3 {
		t.Fatalf("journaled %d entries, want 3", len(got))
	}

	if got[0].Action != ActionTransition || got[0].Details["from"] != "connected" || got[0].Details["to"] != "reconnecting" {
		t.Errorf("transition entry = %+v", got[0])
	}
	if got[1].Action != ActionReconnectAttempt || got[1].Details["attempt"] != 2 {
		t.Errorf("reconnect entry = %+v", got[1])
	}
	if got[2].Action != ActionSubscribeFailed || got[2].Topic != "sensor/a" || got[2].Details["error"] != "denied" {
		t.Errorf("subscribe entry = %+v", got[2])
	}
}

func TestJournal_DropsWhenFull(t *testing.T) {
	repo := &memoryRepo{block: make(chan struct{})}
	j := NewJournal(repo, nil, 1)
	j.Start()

	ev := connection.Event{Kind: connection.EventTransition, Timestamp: time.Now()}

	// The writer takes the first entry and blocks; the second fills the
	// queue; everything after is dropped.
	j.ObserveConnection(ev)
	deadline := time.Now().Add(time.Second)
	for len(j.queue) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	for range 5 {
		j.ObserveConnection(ev)
	}

	if got := j.Dropped(); got != 4 {
		t.Errorf("Dropped() = %d, want 4", got)
	}

	close(repo.block)
	j.Stop()

	if got := len(repo.snapshot()); got != 2 {
		t.Errorf("journaled %d entries, want 2", got)
	}
}

func TestJournal_AfterStop(t *testing.T) {
	repo := &memoryRepo{}
	j := NewJournal(repo, nil, 0)
	j.Start()
	j.Stop()
	j.Stop()

	j.ObserveConnection(connection.Event{Kind: connection.EventTransition})

	if got := j.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
	if got := len(repo.snapshot()); got != 0 {
		t.Errorf("journaled %d entries after Stop, want 0", got)
	}
}

func TestJournal_StopRacingRecorders(t *testing.T) {
	const (
		senders   = 8
		perSender = 100
	)
	repo := &memoryRepo{}
	j := NewJournal(repo, nil, senders*perSender)
	j.Start()

	var wg sync.WaitGroup
	start := make(chan struct{})
	for range senders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for range perSender {
				j.ObserveConnection(connection.Event{Kind: connection.EventTransition})
			}
		}()
	}

	close(start)
	j.Stop()
	wg.Wait()

	written := uint64(len(repo.snapshot()))
	if total := written + j.Dropped(); total != senders*perSender {
		t.Errorf("written %d + dropped %d = %d, want %d", written, j.Dropped(), total, senders*perSender)
	}
}

func TestJournal_WriteErrorsDoNotStopWriter(t *testing.T) {
	repo := &memoryRepo{err: errors.New("disk full")}
	j := NewJournal(repo, nil, 0)
	j.Start()

	j.ObserveConnection(connection.Event{Kind: connection.EventTransition})
	j.ObserveConnection(connection.Event{Kind: connection.EventTransition})
	j.Stop()

	if got := j.Dropped(); got != 0 {
		t.Errorf("Dropped() = %d, want 0", got)
	}
}

func TestJournal_SQLite(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	j := NewJournal(repo, nil, 0)
	j.Start()

	j.ObserveConnection(connection.Event{
		Kind: connection.EventTransition, From: connection.Connecting, To: connection.Connected, Timestamp: time.Now(),
	})
	j.RecordOutcome(router.Outcome{
		SourceTopic: "sensor/a", Destination: "sensor/b", Status: router.StatusFailed, Timestamp: time.Now(),
	})
	j.Stop()

	res, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 2 {
		t.Errorf("Total = %d, want 2", res.Total)
	}
}
