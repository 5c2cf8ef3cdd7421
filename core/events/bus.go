package events

import (
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// Subscriber Interface
// =============================================================================

// Subscriber represents a subscriber to lifecycle events.
type Subscriber interface {
	// ID returns the unique subscriber identifier.
	ID() string

	// EventTypes returns the event types this subscriber is interested in.
	// Empty slice means all events (wildcard subscription).
	EventTypes() []EventType

	// OnEvent is called when a subscribed event occurs.
	OnEvent(event *Event) error
}

// SubscriberFunc adapts a function into a wildcard Subscriber.
type SubscriberFunc struct {
	SubID string
	Types []EventType
	Fn    func(event *Event) error
}

func (s *SubscriberFunc) ID() string { return s.SubID }

func (s *SubscriberFunc) EventTypes() []EventType { return s.Types }
func (s *SubscriberFunc) OnEvent(event *Event) error {
	return s.Fn(event)
}

// =============================================================================
// Debouncer
// =============================================================================

// Debouncer suppresses duplicate events within a time window. Duplicates are
// identified by event type plus file path, which collapses fsnotify bursts
// for the same file into a single context_changed event.
type Debouncer struct {
	window time.Duration
	seen   map[string]time.Time
	mu     sync.Mutex
}

// NewDebouncer creates a Debouncer with the specified time window.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = 100 * time.Millisecond
	}
	return &Debouncer{
		window: window,
		seen:   make(map[string]time.Time),
	}
}

// ShouldSkip returns true if a duplicate was seen within the window.
func (d *Debouncer) ShouldSkip(event *Event) bool {
	signature := fmt.Sprintf("%s:%s", event.Type, event.FilePath)

	d.mu.Lock()
	defer d.mu.Unlock()

	lastSeen, exists := d.seen[signature]
	now := time.Now()
	if exists && now.Sub(lastSeen) <= d.window {
		return true
	}
	d.seen[signature] = now
	return false
}

// Cleanup removes expired entries from the seen map.
func (d *Debouncer) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := time.Now().Add(-d.window)
	for sig, lastSeen := range d.seen {
		if lastSeen.Before(cutoff) {
			delete(d.seen, sig)
		}
	}
}

// =============================================================================
// Bus
// =============================================================================

// DefaultBufferSize is the default event buffer capacity.
const DefaultBufferSize = 256

// Bus delivers lifecycle events to subscribers. Publishing never blocks:
// events are buffered and dispatched from a background goroutine, and are
// dropped when the buffer is full or the bus is closed.
type Bus struct {
	subscribers         map[EventType][]Subscriber
	wildcardSubscribers []Subscriber

	buffer    chan *Event
	debouncer *Debouncer

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewBus creates a Bus with the given buffer size and starts dispatching.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	b := &Bus{
		subscribers: make(map[EventType][]Subscriber),
		buffer:      make(chan *Event, bufferSize),
		debouncer:   NewDebouncer(100 * time.Millisecond),
		done:        make(chan struct{}),
	}

	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish publishes an event to the bus. Only context_changed events are
// debounced; analysis lifecycle events are always delivered.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed || event == nil {
		return
	}

	if event.Type == EventTypeContextChanged && b.debouncer.ShouldSkip(event) {
		return
	}

	select {
	case b.buffer <- event:
	default:
		// Buffer full; the side channel is best-effort.
	}
}

// Subscribe registers a subscriber.
func (b *Bus) Subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	eventTypes := sub.EventTypes()
	if len(eventTypes) == 0 {
		b.wildcardSubscribers = append(b.wildcardSubscribers, sub)
		return
	}

	for _, eventType := range eventTypes {
		b.subscribers[eventType] = append(b.subscribers[eventType], sub)
	}
}

// Unsubscribe removes a subscriber by ID from all subscriptions.
func (b *Bus) Unsubscribe(subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.wildcardSubscribers = filterSubs(b.wildcardSubscribers, subscriberID)
	for eventType, subs := range b.subscribers {
		b.subscribers[eventType] = filterSubs(subs, subscriberID)
	}
}

// Close stops dispatching and releases the bus. Pending buffered events are
// delivered before Close returns.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.done)
	b.wg.Wait()
}

// dispatch delivers buffered events until the bus is closed.
func (b *Bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.buffer:
			b.deliver(event)
		case <-b.done:
			// Drain remaining events before exit.
			for {
				select {
				case event := <-b.buffer:
					b.deliver(event)
				default:
					return
				}
			}
		}
	}
}

// deliver sends an event to matching and wildcard subscribers. A subscriber
// error affects only that subscriber.
func (b *Bus) deliver(event *Event) {
	b.mu.RLock()
	targets := make([]Subscriber, 0, len(b.wildcardSubscribers)+len(b.subscribers[event.Type]))
	targets = append(targets, b.subscribers[event.Type]...)
	targets = append(targets, b.wildcardSubscribers...)
	b.mu.RUnlock()

	for _, sub := range targets {
		_ = sub.OnEvent(event)
	}
}

func filterSubs(subs []Subscriber, id string) []Subscriber {
	filtered := subs[:0]
	for _, sub := range subs {
		if sub.ID() != id {
			filtered = append(filtered, sub)
		}
	}
	return filtered
}
