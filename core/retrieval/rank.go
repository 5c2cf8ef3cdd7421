package retrieval

import "sort"

// rankAndBound sorts candidates by relevance descending with a stable sort,
// truncates to maxItems, and sums the bounded list's scores. The sum is
// computed after truncation so excess low-relevance candidates do not
// inflate it.
func rankAndBound(candidates []ContextItem, maxItems int) ([]ContextItem, float64) {
	items := make([]ContextItem, len(candidates))
	copy(items, candidates)

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RelevanceScore > items[j].RelevanceScore
	})

	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	total := 0.0
	for _, item := range items {
		total += item.RelevanceScore
	}
	return items, total
}
