package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/adalundhe/scout/core/detect"
	"github.com/adalundhe/scout/core/lsp"
	"github.com/adalundhe/scout/core/search"
	"github.com/adalundhe/scout/core/storage"
)

// ContentLoader is the file content capability the sources consume.
// *storage.Loader satisfies it.
type ContentLoader interface {
	Load(path string) (string, error)
	Window(path string, line, radius int) (string, error)
}

// =============================================================================
// File & selection source
// =============================================================================

// fileSource emits the whole-file item, the selection item, and up to ten
// symbol items from the current file's symbol table.
func (c *Collector) fileSource(ctx context.Context, req *ContextRequest) ([]ContextItem, error) {
	if req.CurrentFile == "" || !req.includes(KindFile) {
		return nil, nil
	}

	content, err := c.loader.Load(req.CurrentFile)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", req.CurrentFile, err)
	}
	language := detect.Language(req.CurrentFile)

	fileScore := ScoreFile
	if req.CurrentSelection != nil {
		fileScore = ScoreFileWithSel
	}

	items := []ContextItem{{
		ID:             itemID(KindFile, req.CurrentFile, 0),
		Kind:           KindFile,
		SourcePath:     req.CurrentFile,
		Text:           storage.Truncate(content, MaxFileChars),
		Language:       language,
		RelevanceScore: fileScore,
	}}

	if sel := req.CurrentSelection; sel != nil {
		span := sel.Span
		items = append(items, ContextItem{
			ID:             itemID(KindSelection, req.CurrentFile, span.Line),
			Kind:           KindSelection,
			SourcePath:     req.CurrentFile,
			Text:           sel.Text,
			Language:       language,
			Position:       &span,
			RelevanceScore: ScoreSelection,
		})
	}

	symbols, err := c.lsp.DocumentSymbols(ctx, req.CurrentFile)
	if err != nil {
		return nil, fmt.Errorf("document symbols %s: %w", req.CurrentFile, err)
	}

	for i, symbol := range symbols {
		if i >= MaxFileSymbols {
			break
		}
		line := symbol.Range.Start.Line
		snippet := storage.LineWindow(content, line, SnippetRadius)

		items = append(items, ContextItem{
			ID:         itemID(KindSymbol, req.CurrentFile, line),
			Kind:       KindSymbol,
			SourcePath: req.CurrentFile,
			Text:       snippet,
			Language:   language,
			Position: &Span{
				Line:      line,
				Column:    symbol.Range.Start.Column,
				EndLine:   symbol.Range.End.Line,
				EndColumn: symbol.Range.End.Column,
			},
			RelevanceScore: ScoreFileSymbol,
			Metadata: Metadata{
				SymbolName: symbol.Name,
				SymbolKind: symbol.Kind,
			},
		})
	}

	return items, nil
}

// =============================================================================
// Search sources
// =============================================================================

// symbolSearchSource queries the search provider scoped to symbols. The
// provider's score is an inverse distance, so closer matches rank higher.
func (c *Collector) symbolSearchSource(ctx context.Context, req *ContextRequest) ([]ContextItem, error) {
	if !req.includes(KindSymbol) {
		return nil, nil
	}

	matches, err := c.search.Search(ctx, &search.SearchRequest{
		Query:      req.Query,
		Type:       search.SearchTypeSymbol,
		MaxResults: MaxSymbolResults,
	})
	if err != nil {
		return nil, fmt.Errorf("symbol search %q: %w", req.Query, err)
	}

	return c.searchItems(matches, MaxSymbolResults, func(score float64) float64 {
		return ScoreSymbolBase + (1-score)*ScoreSymbolSpread
	}, KindSymbol), nil
}

// workspaceSource queries the search provider unscoped, up to the request's
// item budget.
func (c *Collector) workspaceSource(ctx context.Context, req *ContextRequest) ([]ContextItem, error) {
	if !req.WorkspaceScope {
		return nil, nil
	}

	matches, err := c.search.Search(ctx, &search.SearchRequest{
		Query:      req.Query,
		Type:       search.SearchTypeAll,
		MaxResults: req.MaxItems,
	})
	if err != nil {
		return nil, fmt.Errorf("workspace search %q: %w", req.Query, err)
	}

	return c.searchItems(matches, req.MaxItems, func(score float64) float64 {
		return ScoreWorkspaceBase + (1-score)*ScoreWorkspaceSpread
	}, KindFile), nil
}

// searchItems flattens provider matches into items, one per match, capped.
func (c *Collector) searchItems(matches []search.FileMatch, limit int, score func(float64) float64, kind ItemKind) []ContextItem {
	var items []ContextItem
	for _, fileMatch := range matches {
		for _, match := range fileMatch.Matches {
			if len(items) >= limit {
				return items
			}

			item := ContextItem{
				ID:         itemID(kind, fileMatch.File.Path, match.Line),
				Kind:       kind,
				SourcePath: fileMatch.File.Path,
				Text:       match.Snippet,
				Language:   fileMatch.File.Language,
				Position: &Span{
					Line:    match.Line,
					Column:  match.Column,
					EndLine: match.Line,
				},
				RelevanceScore: score(match.Score),
			}
			if match.Type == search.MatchTypeSymbol {
				item.Kind = KindSymbol
				item.ID = itemID(KindSymbol, fileMatch.File.Path, match.Line)
			}
			items = append(items, item)
		}
	}
	return items
}

// =============================================================================
// Diagnostics source
// =============================================================================

// diagnosticsSource emits up to five error items for the current file, each
// with a small line window around the diagnostic as its snippet.
func (c *Collector) diagnosticsSource(ctx context.Context, req *ContextRequest) ([]ContextItem, error) {
	if req.CurrentFile == "" || !req.includes(KindError) {
		return nil, nil
	}

	diagnostics, err := c.lsp.Diagnostics(ctx, req.CurrentFile)
	if err != nil {
		return nil, fmt.Errorf("diagnostics %s: %w", req.CurrentFile, err)
	}

	language := detect.Language(req.CurrentFile)

	var items []ContextItem
	for i, diagnostic := range diagnostics {
		if i >= MaxDiagnostics {
			break
		}
		line := diagnostic.Range.Start.Line

		snippet, err := c.loader.Window(req.CurrentFile, line, SnippetRadius)
		if err != nil {
			snippet = diagnostic.Message
		}

		items = append(items, ContextItem{
			ID:         itemID(KindError, req.CurrentFile, line),
			Kind:       KindError,
			SourcePath: req.CurrentFile,
			Text:       snippet,
			Language:   language,
			Position: &Span{
				Line:      line,
				Column:    diagnostic.Range.Start.Column,
				EndLine:   diagnostic.Range.End.Line,
				EndColumn: diagnostic.Range.End.Column,
			},
			RelevanceScore: ScoreDiagnostic,
			Metadata: Metadata{
				ErrorType: diagnostic.Severity.String(),
			},
		})
	}

	return items, nil
}

// =============================================================================
// Documentation source
// =============================================================================

// documentationSource performs a single hover lookup at the top of the
// current file. The fixed position is a known simplification carried over
// from the original behavior.
func (c *Collector) documentationSource(ctx context.Context, req *ContextRequest) ([]ContextItem, error) {
	if req.CurrentFile == "" || !req.includes(KindDocumentation) {
		return nil, nil
	}

	hover, err := c.lsp.Hover(ctx, req.CurrentFile, lsp.Position{Line: 0, Column: 0})
	if err != nil {
		return nil, fmt.Errorf("hover %s: %w", req.CurrentFile, err)
	}
	if hover == nil || hover.Contents == "" {
		return nil, nil
	}

	return []ContextItem{{
		ID:             itemID(KindDocumentation, req.CurrentFile, 0),
		Kind:           KindDocumentation,
		SourcePath:     req.CurrentFile,
		Text:           storage.Truncate(hover.Contents, MaxFileChars),
		Language:       detect.Language(req.CurrentFile),
		RelevanceScore: ScoreDocumentation,
		Metadata: Metadata{
			Documentation: hover.Contents,
		},
	}}, nil
}

// =============================================================================
// Historical source
// =============================================================================

// historicalSource resurfaces items recorded for past queries similar to the
// current one. Each resurfaced item decays to half its original score and is
// re-tagged with a historical id prefix.
func (c *Collector) historicalSource(_ context.Context, req *ContextRequest) ([]ContextItem, error) {
	similar := similarQueries(c.history.Queries(), req.Query, MaxSimilarQueries)
	if len(similar) == 0 {
		return nil, nil
	}

	pastItems := c.history.Items()
	seen := make(map[string]bool)

	var items []ContextItem
	for _, query := range similar {
		count := 0
		for _, past := range pastItems {
			if count >= MaxItemsPerQuery {
				break
			}
			if !matchesQuery(past, query) || seen[past.ID] {
				continue
			}
			seen[past.ID] = true

			resurfaced := past
			resurfaced.ID = HistoricalIDPrefix + past.ID
			resurfaced.RelevanceScore = past.RelevanceScore * HistoricalDecay
			items = append(items, resurfaced)
			count++
		}
	}

	return items, nil
}

// similarQueries returns up to max past queries whose similarity to query
// exceeds the threshold, most recent first.
func similarQueries(past []string, query string, max int) []string {
	var similar []string
	for _, candidate := range past {
		if len(similar) >= max {
			break
		}
		if Similarity(candidate, query) > SimilarityThreshold {
			similar = append(similar, candidate)
		}
	}
	return similar
}

// matchesQuery reports whether an item's text or symbol name contains the
// query, case-insensitively.
func matchesQuery(item ContextItem, query string) bool {
	query = strings.ToLower(query)
	if strings.Contains(strings.ToLower(item.Text), query) {
		return true
	}
	return item.Metadata.SymbolName != "" &&
		strings.Contains(strings.ToLower(item.Metadata.SymbolName), query)
}

var _ ContentLoader = (*storage.Loader)(nil)
