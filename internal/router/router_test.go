package router

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/mqtt-topics-translator/internal/mapping"
)

// publishCall records one Publish invocation.
type publishCall struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// mockPublisher records publishes and fails for configured topics.
type mockPublisher struct {
	mu     sync.Mutex
	calls  []publishCall
	failOn map[string]error
}

func (m *mockPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, publishCall{topic: topic, payload: payload, qos: qos, retained: retained})
	if err, ok := m.failOn[topic]; ok {
		return err
	}
	return nil
}

func (m *mockPublisher) published() []publishCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishCall(nil), m.calls...)
}

// collectingRecorder stores every outcome.
type collectingRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (c *collectingRecorder) RecordOutcome(o Outcome) {
	c.mu.Lock()
	c.outcomes = append(c.outcomes, o)
	c.mu.Unlock()
}

func mustTable(t *testing.T, rules ...mapping.Rule) *mapping.Table {
	t.Helper()
	table, err := mapping.Build(rules)
	if err != nil {
		t.Fatalf("mapping.Build() error = %v", err)
	}
	return table
}

func newTestRouter(t *testing.T, pub Publisher, recorders ...Recorder) *Router {
	t.Helper()
	table := mustTable(t,
		mapping.Rule{SourceTopic: "sensor/a", DestinationTopics: []string{"sensor/b", "sensor/c"}},
		mapping.Rule{SourceTopic: "pool/pump", ValueFilter: "ON", DestinationTopics: []string{"relay/1", "relay/2"}},
	)
	r, err := New(Options{Table: table, Publisher: pub, Recorders: recorders})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestNew_RequiresCollaborators(t *testing.T) {
	table := mustTable(t, mapping.Rule{SourceTopic: "a", DestinationTopics: []string{"b"}})

	if _, err := New(Options{Publisher: &mockPublisher{}}); !errors.Is(err, ErrNilTable) {
		t.Errorf("New() without table error = %v, want ErrNilTable", err)
	}
	if _, err := New(Options{Table: table}); !errors.Is(err, ErrNilPublisher) {
		t.Errorf("New() without publisher error = %v, want ErrNilPublisher", err)
	}
}

// End-to-end: sensor/a -> sensor/b, sensor/c with payload "42".
func TestRoute_ForwardsToEveryDestination(t *testing.T) {
	pub := &mockPublisher{}
	r := newTestRouter(t, pub)

	result := r.Route("sensor/a", []byte("42"))

	if !result.Mapped || result.Forwarded != 2 || result.Failed != 0 {
		t.Errorf("Route() = %+v, want mapped with 2 forwarded", result)
	}

	calls := pub.published()
	if len(calls) != 2 {
		t.Fatalf("publish calls = %d, want 2", len(calls))
	}
	wantTopics := []string{"sensor/b", "sensor/c"}
	for i, call := range calls {
		if call.topic != wantTopics[i] {
			t.Errorf("call[%d].topic = %q, want %q", i, call.topic, wantTopics[i])
		}
		if !bytes.Equal(call.payload, []byte("42")) {
			t.Errorf("call[%d].payload = %q, want %q", i, call.payload, "42")
		}
		if call.qos != 2 {
			t.Errorf("call[%d].qos = %d, want 2", i, call.qos)
		}
		if !call.retained {
			t.Errorf("call[%d].retained = false, want true", i)
		}
	}
}

func TestRoute_PayloadIsByteForByte(t *testing.T) {
	pub := &mockPublisher{}
	r := newTestRouter(t, pub)

	payload := []byte{0x00, 0xff, 0x10, 'x', 0x80}
	r.Route("sensor/a", payload)

	for _, call := range pub.published() {
		if !bytes.Equal(call.payload, payload) {
			t.Errorf("payload to %s = %v, want %v", call.topic, call.payload, payload)
		}
	}
}

func TestRoute_Unmapped(t *testing.T) {
	pub := &mockPublisher{}
	r := newTestRouter(t, pub)

	result := r.Route("sensor/unknown", []byte("42"))

	if result.Mapped {
		t.Error("Route() Mapped = true for unmapped topic")
	}
	if n := len(pub.published()); n != 0 {
		t.Errorf("publish calls = %d, want 0", n)
	}
	if got := r.Stats().Unmapped; got != 1 {
		t.Errorf("Stats().Unmapped = %d, want 1", got)
	}
}

func TestRoute_ValueFilter(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantCalls int
	}{
		{"exact", "ON", 2},
		{"lower case", "on", 2},
		{"mixed case", "On", 2},
		{"off", "OFF", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &mockPublisher{}
			r := newTestRouter(t, pub)

			result := r.Route("pool/pump", []byte(tt.payload))

			if n := len(pub.published()); n != tt.wantCalls {
				t.Errorf("publish calls = %d, want %d", n, tt.wantCalls)
			}
			if result.Filtered != (tt.wantCalls == 0) {
				t.Errorf("Result.Filtered = %v, want %v", result.Filtered, tt.wantCalls == 0)
			}
		})
	}
}

func TestRoute_FailureDoesNotStopOtherDestinations(t *testing.T) {
	pub := &mockPublisher{failOn: map[string]error{"sensor/b": errors.New("broker rejected")}}
	rec := &collectingRecorder{}
	r := newTestRouter(t, pub, rec)

	result := r.Route("sensor/a", []byte("42"))

	if result.Forwarded != 1 || result.Failed != 1 {
		t.Errorf("Route() = %+v, want 1 forwarded and 1 failed", result)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Result.Errors = %v, want 1 error", result.Errors)
	}

	calls := pub.published()
	if len(calls) != 2 || calls[1].topic != "sensor/c" {
		t.Errorf("publish calls = %+v, want attempt on sensor/c after failure", calls)
	}

	if len(rec.outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(rec.outcomes))
	}
	if rec.outcomes[0].Status != StatusFailed || rec.outcomes[0].Err == nil {
		t.Errorf("outcome[0] = %+v, want failed with error", rec.outcomes[0])
	}
	if rec.outcomes[1].Status != StatusForwarded {
		t.Errorf("outcome[1].Status = %s, want forwarded", rec.outcomes[1].Status)
	}
}

func TestRoute_RecordsFilteredOutcomes(t *testing.T) {
	rec := &collectingRecorder{}
	r := newTestRouter(t, &mockPublisher{}, rec)

	r.Route("pool/pump", []byte("OFF"))

	if len(rec.outcomes) != 2 {
		t.Fatalf("outcomes = %d, want one per destination", len(rec.outcomes))
	}
	for _, o := range rec.outcomes {
		if o.Status != StatusFiltered {
			t.Errorf("outcome %s status = %s, want filtered", o.Destination, o.Status)
		}
	}
}

func TestRouter_Stats(t *testing.T) {
	pub := &mockPublisher{failOn: map[string]error{"relay/2": errors.New("timeout")}}
	r := newTestRouter(t, pub)

	r.Route("sensor/a", []byte("1"))    // 2 forwarded
	r.Route("pool/pump", []byte("on"))  // 1 forwarded, 1 failed
	r.Route("pool/pump", []byte("off")) // filtered
	r.Route("nothing", []byte("x"))     // unmapped

	want := Stats{Received: 4, Unmapped: 1, Filtered: 1, Forwarded: 3, Failed: 1}
	if got := r.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestRoute_Concurrent(t *testing.T) {
	pub := &mockPublisher{}
	r := newTestRouter(t, pub)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Route("sensor/a", []byte("v"))
		}()
	}
	wg.Wait()

	if got := r.Stats().Forwarded; got != 100 {
		t.Errorf("Stats().Forwarded = %d, want 100", got)
	}
	if n := len(pub.published()); n != 100 {
		t.Errorf("publish calls = %d, want 100", n)
	}
}

func TestRecorderFunc(t *testing.T) {
	var got Outcome
	var rec Recorder = RecorderFunc(func(o Outcome) { got = o })

	rec.RecordOutcome(Outcome{Destination: "x", Status: StatusForwarded})

	if got.Destination != "x" {
		t.Errorf("RecorderFunc did not receive outcome: %+v", got)
	}
}

func TestPreview(t *testing.T) {
	short := []byte("hello")
	if got := preview(short); got != "hello" {
		t.Errorf("preview(short) = %q", got)
	}

	long := bytes.Repeat([]byte("a"), maxLoggedPayload+10)
	got := preview(long)
	if len(got) != maxLoggedPayload+3 {
		t.Errorf("len(preview(long)) = %d, want %d", len(got), maxLoggedPayload+3)
	}
}
