package events

import (
	"sync"
	"testing"
	"time"
)

// collector is a test subscriber that records delivered events.
type collector struct {
	id    string
	types []EventType

	mu     sync.Mutex
	events []*Event
}

func (c *collector) ID() string              { return c.id }
func (c *collector) EventTypes() []EventType { return c.types }
func (c *collector) OnEvent(event *Event) error {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	return nil
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		et   EventType
		want string
	}{
		{EventTypeAnalysisStarted, "analysis_started"},
		{EventTypeAnalysisCompleted, "analysis_completed"},
		{EventTypeAnalysisError, "analysis_error"},
		{EventTypeContextChanged, "context_changed"},
		{EventTypeHistoryCleared, "history_cleared"},
		{EventTypeIndexStarted, "index_started"},
		{EventTypeIndexCompleted, "index_completed"},
		{EventType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.et.String(); got != tt.want {
			t.Errorf("EventType(%d).String() = %q, want %q", tt.et, got, tt.want)
		}
	}
}

func TestEventTypeIsValid(t *testing.T) {
	for _, et := range ValidEventTypes() {
		if !et.IsValid() {
			t.Errorf("expected %s to be valid", et)
		}
	}
	if EventType(99).IsValid() {
		t.Error("expected EventType(99) to be invalid")
	}
}

func TestNewEvent_PopulatesIDAndTimestamp(t *testing.T) {
	event := NewEvent(EventTypeAnalysisStarted)

	if event.ID == "" {
		t.Error("expected non-empty event ID")
	}
	if event.Timestamp.IsZero() {
		t.Error("expected non-zero timestamp")
	}
	if event.Type != EventTypeAnalysisStarted {
		t.Errorf("expected analysis_started, got %s", event.Type)
	}
}

func TestBus_DeliverToTypedSubscriber(t *testing.T) {
	bus := NewBus(16)
	defer bus.Close()

	sub := &collector{id: "typed", types: []EventType{EventTypeAnalysisCompleted}}
	bus.Subscribe(sub)

	bus.Publish(NewEvent(EventTypeAnalysisCompleted))
	bus.Publish(NewEvent(EventTypeAnalysisStarted)) // not subscribed

	waitFor(t, func() bool { return sub.count() == 1 })

	if sub.events[0].Type != EventTypeAnalysisCompleted {
		t.Errorf("unexpected event type %s", sub.events[0].Type)
	}
}

func TestBus_WildcardSubscriberReceivesAll(t *testing.T) {
	bus := NewBus(16)
	defer bus.Close()

	sub := &collector{id: "wild"}
	bus.Subscribe(sub)

	bus.Publish(NewEvent(EventTypeAnalysisStarted))
	bus.Publish(NewEvent(EventTypeHistoryCleared))

	waitFor(t, func() bool { return sub.count() == 2 })
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(16)
	defer bus.Close()

	sub := &collector{id: "gone"}
	bus.Subscribe(sub)
	bus.Unsubscribe("gone")

	bus.Publish(NewEvent(EventTypeAnalysisStarted))
	time.Sleep(50 * time.Millisecond)

	if sub.count() != 0 {
		t.Errorf("expected no deliveries after unsubscribe, got %d", sub.count())
	}
}

func TestBus_CloseDrainsBuffer(t *testing.T) {
	bus := NewBus(16)

	sub := &collector{id: "drain"}
	bus.Subscribe(sub)

	for i := 0; i < 5; i++ {
		bus.Publish(NewEvent(EventTypeAnalysisStarted))
	}
	bus.Close()

	if sub.count() != 5 {
		t.Errorf("expected 5 events delivered before close, got %d", sub.count())
	}

	// Publishing after close is a no-op.
	bus.Publish(NewEvent(EventTypeAnalysisStarted))
	if sub.count() != 5 {
		t.Error("expected no delivery after close")
	}
}

func TestBus_DebouncesContextChanged(t *testing.T) {
	bus := NewBus(16)
	defer bus.Close()

	sub := &collector{id: "debounce", types: []EventType{EventTypeContextChanged}}
	bus.Subscribe(sub)

	for i := 0; i < 10; i++ {
		event := NewEvent(EventTypeContextChanged)
		event.FilePath = "src/app.go"
		bus.Publish(event)
	}

	waitFor(t, func() bool { return sub.count() >= 1 })
	time.Sleep(50 * time.Millisecond)

	if sub.count() != 1 {
		t.Errorf("expected 1 debounced delivery, got %d", sub.count())
	}
}

func TestDebouncer_DistinctSignaturesPass(t *testing.T) {
	d := NewDebouncer(time.Minute)

	a := NewEvent(EventTypeContextChanged)
	a.FilePath = "a.go"
	b := NewEvent(EventTypeContextChanged)
	b.FilePath = "b.go"

	if d.ShouldSkip(a) {
		t.Error("first event should not be skipped")
	}
	if d.ShouldSkip(b) {
		t.Error("distinct path should not be skipped")
	}
	if !d.ShouldSkip(a) {
		t.Error("duplicate within window should be skipped")
	}
}

func TestDebouncer_Cleanup(t *testing.T) {
	d := NewDebouncer(time.Millisecond)

	event := NewEvent(EventTypeContextChanged)
	event.FilePath = "a.go"
	d.ShouldSkip(event)

	time.Sleep(5 * time.Millisecond)
	d.Cleanup()

	d.mu.Lock()
	remaining := len(d.seen)
	d.mu.Unlock()
	if remaining != 0 {
		t.Errorf("expected empty seen map after cleanup, got %d entries", remaining)
	}
}
