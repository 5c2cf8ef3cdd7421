// Package session maintains the bounded rolling history of a context engine
// instance: past query strings and previously surfaced items. History lives
// for the lifetime of the engine and is cleared only by an explicit reset.
package session

import (
	"sync"
)

// Default history bounds.
const (
	// DefaultQueryCap is the maximum number of retained queries.
	DefaultQueryCap = 100

	// DefaultItemCap is the maximum number of retained items.
	DefaultItemCap = 500
)

// History is a mutex-guarded, bounded, most-recent-first log of queries and
// surfaced items. When a list exceeds its cap the oldest entries are evicted.
// All methods are safe for concurrent use.
type History[T any] struct {
	mu       sync.RWMutex
	queries  []string
	items    []T
	queryCap int
	itemCap  int
}

// NewHistory creates a History with the given caps. Non-positive caps fall
// back to the defaults.
func NewHistory[T any](queryCap, itemCap int) *History[T] {
	if queryCap <= 0 {
		queryCap = DefaultQueryCap
	}
	if itemCap <= 0 {
		itemCap = DefaultItemCap
	}
	return &History[T]{
		queryCap: queryCap,
		itemCap:  itemCap,
	}
}

// NewDefaultHistory creates a History with the default caps.
func NewDefaultHistory[T any]() *History[T] {
	return NewHistory[T](DefaultQueryCap, DefaultItemCap)
}

// RecordQuery prepends a query, evicting the oldest when over cap.
func (h *History[T]) RecordQuery(query string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.queries = append([]string{query}, h.queries...)
	if len(h.queries) > h.queryCap {
		h.queries = h.queries[:h.queryCap]
	}
}

// RecordItems prepends items in order, evicting the oldest when over cap.
func (h *History[T]) RecordItems(items []T) {
	if len(items) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append(append([]T{}, items...), h.items...)
	if len(h.items) > h.itemCap {
		h.items = h.items[:h.itemCap]
	}
}

// Queries returns a copy of the retained queries, most recent first.
func (h *History[T]) Queries() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, len(h.queries))
	copy(out, h.queries)
	return out
}

// Items returns a copy of the retained items, most recent first.
func (h *History[T]) Items() []T {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]T, len(h.items))
	copy(out, h.items)
	return out
}

// LastQuery returns the most recent query, or "" when history is empty.
func (h *History[T]) LastQuery() (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.queries) == 0 {
		return "", false
	}
	return h.queries[0], true
}

// QueryCount returns the number of retained queries.
func (h *History[T]) QueryCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.queries)
}

// ItemCount returns the number of retained items.
func (h *History[T]) ItemCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

// Clear atomically empties both lists.
func (h *History[T]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.queries = nil
	h.items = nil
}
