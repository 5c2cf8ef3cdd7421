// Package events provides the lifecycle event bus for the context engine.
// Events are an observable side channel: nothing in the retrieval pipeline
// depends on a subscriber consuming them.
package events

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// EventType
// =============================================================================

// EventType represents the type of lifecycle event in the system.
type EventType int

const (
	// Analysis lifecycle events
	EventTypeAnalysisStarted   EventType = 0
	EventTypeAnalysisCompleted EventType = 1
	EventTypeAnalysisError     EventType = 2

	// Upstream change events
	EventTypeContextChanged EventType = 3

	// History events
	EventTypeHistoryCleared EventType = 4

	// Indexing events
	EventTypeIndexStarted   EventType = 5
	EventTypeIndexCompleted EventType = 6
)

// ValidEventTypes returns all valid EventType values.
func ValidEventTypes() []EventType {
	return []EventType{
		EventTypeAnalysisStarted,
		EventTypeAnalysisCompleted,
		EventTypeAnalysisError,
		EventTypeContextChanged,
		EventTypeHistoryCleared,
		EventTypeIndexStarted,
		EventTypeIndexCompleted,
	}
}

// IsValid returns true if the event type is a recognized value.
func (et EventType) IsValid() bool {
	for _, valid := range ValidEventTypes() {
		if et == valid {
			return true
		}
	}
	return false
}

func (et EventType) String() string {
	switch et {
	case EventTypeAnalysisStarted:
		return "analysis_started"
	case EventTypeAnalysisCompleted:
		return "analysis_completed"
	case EventTypeAnalysisError:
		return "analysis_error"
	case EventTypeContextChanged:
		return "context_changed"
	case EventTypeHistoryCleared:
		return "history_cleared"
	case EventTypeIndexStarted:
		return "index_started"
	case EventTypeIndexCompleted:
		return "index_completed"
	default:
		return "unknown"
	}
}

// =============================================================================
// Event
// =============================================================================

// Event is a single lifecycle event.
type Event struct {
	// ID uniquely identifies this event emission.
	ID string `json:"id"`

	// Type is the event type.
	Type EventType `json:"type"`

	// Timestamp is when the event was created.
	Timestamp time.Time `json:"timestamp"`

	// Query is the query text for analysis events, empty otherwise.
	Query string `json:"query,omitempty"`

	// FilePath is the affected file for context_changed events.
	FilePath string `json:"file_path,omitempty"`

	// Error carries the error message for analysis_error events.
	Error string `json:"error,omitempty"`

	// Data holds event-specific payload such as the completed analysis.
	Data any `json:"data,omitempty"`
}

// NewEvent creates an event of the given type with a fresh ID and timestamp.
func NewEvent(eventType EventType) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
	}
}
