package retrieval

import (
	"fmt"
	"strings"
)

// summarize renders the per-kind item counts into a one-line synopsis.
func summarize(query string, items []ContextItem) string {
	if len(items) == 0 {
		return fmt.Sprintf("Found 0 relevant context items for %q", query)
	}

	counts := make(map[ItemKind]int)
	for _, item := range items {
		counts[item.Kind]++
	}

	parts := make([]string, 0, len(counts))
	for _, kind := range AllKinds() {
		if count := counts[kind]; count > 0 {
			parts = append(parts, fmt.Sprintf("%d %s items", count, kind))
		}
	}

	return fmt.Sprintf("Found %d relevant context items for %q: %s",
		len(items), query, strings.Join(parts, ", "))
}

// suggest applies the fixed follow-up heuristics to the bounded item list.
func suggest(items []ContextItem) []string {
	hasKind := make(map[ItemKind]bool)
	for _, item := range items {
		hasKind[item.Kind] = true
	}

	var suggestions []string
	if hasKind[KindError] {
		suggestions = append(suggestions, "Review the diagnostics in the current file")
	}
	if hasKind[KindSymbol] {
		suggestions = append(suggestions, "Explore the definitions of the matched symbols")
	}
	if len(items) > 10 {
		suggestions = append(suggestions, "Narrow the query to reduce the amount of context")
	}
	if len(items) < 3 {
		suggestions = append(suggestions,
			"Broaden the query",
			"Check that the workspace is fully indexed",
		)
	}
	return suggestions
}

// keywordAssociations maps query keywords to static related queries.
// Ordered so derived queries come out deterministically.
var keywordAssociations = []struct {
	keyword      string
	associations []string
}{
	{"function", []string{"class", "interface", "type"}},
	{"error", []string{"exception", "try catch", "debugging"}},
}

// relatedQueries derives candidate next queries: distinct symbol names from
// the items (excluding the literal query), plus static keyword associations.
// The result is deduplicated and capped at MaxRelatedQueries.
func relatedQueries(query string, items []ContextItem) []string {
	seen := make(map[string]bool)
	var related []string

	add := func(candidate string) {
		if candidate == "" || candidate == query || seen[candidate] {
			return
		}
		if len(related) >= MaxRelatedQueries {
			return
		}
		seen[candidate] = true
		related = append(related, candidate)
	}

	for _, item := range items {
		add(item.Metadata.SymbolName)
	}

	lowered := strings.ToLower(query)
	for _, entry := range keywordAssociations {
		if strings.Contains(lowered, entry.keyword) {
			for _, association := range entry.associations {
				add(association)
			}
		}
	}

	return related
}
