package session

import (
	"fmt"
	"sync"
	"testing"
)

func TestNewHistory_InvalidCapsUseDefaults(t *testing.T) {
	h := NewHistory[string](0, -1)

	if h.queryCap != DefaultQueryCap {
		t.Errorf("expected query cap %d, got %d", DefaultQueryCap, h.queryCap)
	}
	if h.itemCap != DefaultItemCap {
		t.Errorf("expected item cap %d, got %d", DefaultItemCap, h.itemCap)
	}
}

func TestRecordQuery_MostRecentFirst(t *testing.T) {
	h := NewDefaultHistory[string]()

	h.RecordQuery("first")
	h.RecordQuery("second")

	queries := h.Queries()
	if len(queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(queries))
	}
	if queries[0] != "second" || queries[1] != "first" {
		t.Errorf("expected most-recent-first order, got %v", queries)
	}
}

func TestRecordQuery_EvictsOldestAtCap(t *testing.T) {
	h := NewHistory[string](100, 500)

	for i := 0; i < 150; i++ {
		h.RecordQuery(fmt.Sprintf("query-%d", i))
	}

	if h.QueryCount() != 100 {
		t.Fatalf("expected exactly 100 queries, got %d", h.QueryCount())
	}

	queries := h.Queries()
	if queries[0] != "query-149" {
		t.Errorf("expected newest query first, got %s", queries[0])
	}
	if queries[99] != "query-50" {
		t.Errorf("expected oldest retained query-50, got %s", queries[99])
	}
}

func TestRecordItems_PreservesOrderAndBound(t *testing.T) {
	h := NewHistory[int](10, 5)

	h.RecordItems([]int{1, 2, 3})
	h.RecordItems([]int{4, 5, 6})

	items := h.Items()
	if len(items) != 5 {
		t.Fatalf("expected 5 items at cap, got %d", len(items))
	}
	// Newest batch first, in its own order; oldest entries evicted.
	want := []int{4, 5, 6, 1, 2}
	for i, v := range want {
		if items[i] != v {
			t.Errorf("items[%d] = %d, want %d", i, items[i], v)
		}
	}
}

func TestRecordItems_EmptyIsNoOp(t *testing.T) {
	h := NewDefaultHistory[int]()
	h.RecordItems(nil)

	if h.ItemCount() != 0 {
		t.Error("expected no items after empty record")
	}
}

func TestLastQuery(t *testing.T) {
	h := NewDefaultHistory[string]()

	if _, ok := h.LastQuery(); ok {
		t.Error("expected no last query on empty history")
	}

	h.RecordQuery("parseConfig")
	last, ok := h.LastQuery()
	if !ok || last != "parseConfig" {
		t.Errorf("expected parseConfig, got %q (ok=%v)", last, ok)
	}
}

func TestClear_EmptiesBothLists(t *testing.T) {
	h := NewDefaultHistory[string]()
	h.RecordQuery("q")
	h.RecordItems([]string{"a", "b"})

	h.Clear()

	if h.QueryCount() != 0 || h.ItemCount() != 0 {
		t.Errorf("expected empty history, got %d queries %d items", h.QueryCount(), h.ItemCount())
	}
}

func TestHistory_ConcurrentAccess(t *testing.T) {
	h := NewHistory[int](100, 500)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.RecordQuery(fmt.Sprintf("q-%d-%d", n, j))
				h.RecordItems([]int{n, j})
				h.Queries()
				h.Items()
				h.LastQuery()
			}
		}(i)
	}
	wg.Wait()

	if h.QueryCount() != 100 {
		t.Errorf("expected query count pinned at cap, got %d", h.QueryCount())
	}
	if h.ItemCount() != 500 {
		t.Errorf("expected item count pinned at cap, got %d", h.ItemCount())
	}
}
