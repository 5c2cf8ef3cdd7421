package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	items := []ContextItem{
		{Kind: KindFile},
		{Kind: KindSymbol},
		{Kind: KindSymbol},
		{Kind: KindError},
	}

	summary := summarize("parseConfig", items)
	assert.Equal(t,
		`Found 4 relevant context items for "parseConfig": 1 file items, 2 symbol items, 1 error items`,
		summary,
	)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, `Found 0 relevant context items for "nothing"`, summarize("nothing", nil))
}

func TestSuggest(t *testing.T) {
	t.Run("errors and symbols", func(t *testing.T) {
		items := make([]ContextItem, 0, 12)
		items = append(items, ContextItem{Kind: KindError}, ContextItem{Kind: KindSymbol})
		for i := 0; i < 10; i++ {
			items = append(items, ContextItem{Kind: KindFile})
		}

		suggestions := suggest(items)
		assert.Equal(t, []string{
			"Review the diagnostics in the current file",
			"Explore the definitions of the matched symbols",
			"Narrow the query to reduce the amount of context",
		}, suggestions)
	})

	t.Run("sparse results", func(t *testing.T) {
		suggestions := suggest([]ContextItem{{Kind: KindFile}})
		assert.Contains(t, suggestions, "Broaden the query")
		assert.Contains(t, suggestions, "Check that the workspace is fully indexed")
	})
}

func TestRelatedQueries(t *testing.T) {
	items := []ContextItem{
		{Metadata: Metadata{SymbolName: "parseConfig"}},
		{Metadata: Metadata{SymbolName: "loadConfig"}},
		{Metadata: Metadata{SymbolName: "parseConfig"}}, // duplicate
		{Metadata: Metadata{SymbolName: "query"}},       // literal query, excluded
	}

	related := relatedQueries("query", items)
	assert.Equal(t, []string{"parseConfig", "loadConfig"}, related)
}

func TestRelatedQueries_KeywordAssociations(t *testing.T) {
	related := relatedQueries("function signature", nil)
	assert.Equal(t, []string{"class", "interface", "type"}, related)

	related = relatedQueries("error handling", nil)
	assert.Equal(t, []string{"exception", "try catch", "debugging"}, related)
}

func TestRelatedQueries_Cap(t *testing.T) {
	items := []ContextItem{
		{Metadata: Metadata{SymbolName: "one"}},
		{Metadata: Metadata{SymbolName: "two"}},
		{Metadata: Metadata{SymbolName: "three"}},
	}

	related := relatedQueries("function error", items)
	assert.Len(t, related, MaxRelatedQueries)
}
