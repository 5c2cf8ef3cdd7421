package retrieval

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/scout/core/lsp"
	"github.com/adalundhe/scout/core/search"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeLanguageClient struct {
	symbols     []lsp.Symbol
	diagnostics []lsp.Diagnostic
	hover       *lsp.Hover
	symbolsErr  error
}

func (f *fakeLanguageClient) DocumentSymbols(_ context.Context, _ string) ([]lsp.Symbol, error) {
	return f.symbols, f.symbolsErr
}

func (f *fakeLanguageClient) Diagnostics(_ context.Context, _ string) ([]lsp.Diagnostic, error) {
	return f.diagnostics, nil
}

func (f *fakeLanguageClient) Hover(_ context.Context, _ string, _ lsp.Position) (*lsp.Hover, error) {
	return f.hover, nil
}

func (f *fakeLanguageClient) Completions(_ context.Context, _ string, _ lsp.Position) ([]lsp.CompletionItem, error) {
	return nil, nil
}

type fakeSearchProvider struct {
	matches []search.FileMatch
	panics  bool

	// When blockQuery matches, Search signals entered and waits on release.
	blockQuery string
	entered    chan struct{}
	release    chan struct{}
}

func (f *fakeSearchProvider) Search(_ context.Context, req *search.SearchRequest) ([]search.FileMatch, error) {
	if f.panics {
		panic("provider exploded")
	}
	if f.blockQuery != "" && req.Query == f.blockQuery {
		f.entered <- struct{}{}
		<-f.release
	}
	return f.matches, nil
}

type fakeLoader struct {
	files map[string]string
}

func (f *fakeLoader) Load(path string) (string, error) {
	content, ok := f.files[path]
	if !ok {
		return "", fmt.Errorf("no such file: %s", path)
	}
	return content, nil
}

func (f *fakeLoader) Window(path string, line, radius int) (string, error) {
	content, err := f.Load(path)
	if err != nil {
		return "", err
	}
	lines := strings.Split(content, "\n")
	start := line - radius
	if start < 0 {
		start = 0
	}
	end := line + radius + 1
	if end > len(lines) {
		end = len(lines)
	}
	if start >= len(lines) {
		return "", nil
	}
	return strings.Join(lines[start:end], "\n"), nil
}

func newTestEngine(client *fakeLanguageClient, provider *fakeSearchProvider, loader *fakeLoader) *Engine {
	if client == nil {
		client = &fakeLanguageClient{}
	}
	if provider == nil {
		provider = &fakeSearchProvider{}
	}
	if loader == nil {
		loader = &fakeLoader{files: map[string]string{}}
	}
	return NewEngine(EngineConfig{}, client, provider, loader, nil, nil)
}

// =============================================================================
// Pipeline behavior
// =============================================================================

func TestGetContext_ParseConfigScenario(t *testing.T) {
	client := &fakeLanguageClient{
		symbols: []lsp.Symbol{{
			Name: "parseConfig",
			Kind: lsp.SymbolKindFunction,
			Range: lsp.Range{
				Start: lsp.Position{Line: 10},
				End:   lsp.Position{Line: 14},
			},
		}},
	}
	loader := &fakeLoader{files: map[string]string{
		"src/config.ts": strings.Repeat("// header\n", 10) + "function parseConfig() {}\n",
	}}

	engine := newTestEngine(client, &fakeSearchProvider{}, loader)

	analysis := engine.GetContext(context.Background(), &ContextRequest{
		Query:       "parseConfig",
		CurrentFile: "src/config.ts",
		MaxItems:    5,
	})

	require.NotNil(t, analysis)
	assert.LessOrEqual(t, len(analysis.Items), 5)

	var symbolItem, fileItem *ContextItem
	for i := range analysis.Items {
		item := &analysis.Items[i]
		switch item.Kind {
		case KindSymbol:
			symbolItem = item
		case KindFile:
			fileItem = item
		}
	}

	require.NotNil(t, symbolItem)
	assert.Equal(t, "parseConfig", symbolItem.Metadata.SymbolName)
	assert.Equal(t, 0.8, symbolItem.RelevanceScore)
	assert.Equal(t, "typescript", symbolItem.Language)

	require.NotNil(t, fileItem)
	assert.Equal(t, 0.7, fileItem.RelevanceScore)
}

func TestGetContext_BoundAndOrder(t *testing.T) {
	var matches []search.FileMatch
	for i := 0; i < 30; i++ {
		matches = append(matches, search.FileMatch{
			File: search.FileRef{Path: fmt.Sprintf("f%d.go", i), Language: "go"},
			Matches: []search.Match{{
				Type:    search.MatchTypeText,
				Line:    i,
				Score:   float64(i) / 30.0,
				Snippet: "snippet",
			}},
		})
	}

	engine := newTestEngine(nil, &fakeSearchProvider{matches: matches}, nil)

	analysis := engine.GetContext(context.Background(), &ContextRequest{
		Query:          "anything",
		MaxItems:       8,
		WorkspaceScope: true,
	})

	assert.LessOrEqual(t, len(analysis.Items), 8)

	sum := 0.0
	for i, item := range analysis.Items {
		if i > 0 {
			assert.GreaterOrEqual(t, analysis.Items[i-1].RelevanceScore, item.RelevanceScore)
		}
		sum += item.RelevanceScore
	}
	assert.InDelta(t, sum, analysis.TotalRelevance, 1e-9)
}

func TestGetContext_SelectionRanksFirst(t *testing.T) {
	loader := &fakeLoader{files: map[string]string{
		"main.go": "package main\n\nfunc main() {}\n",
	}}

	engine := newTestEngine(nil, nil, loader)

	analysis := engine.GetContext(context.Background(), &ContextRequest{
		Query:       "main",
		CurrentFile: "main.go",
		CurrentSelection: &Selection{
			Text: "func main() {}",
			Span: Span{Line: 2, EndLine: 2, EndColumn: 14},
		},
	})

	require.NotEmpty(t, analysis.Items)
	first := analysis.Items[0]
	assert.Equal(t, KindSelection, first.Kind)
	assert.Equal(t, 1.0, first.RelevanceScore)

	// Selection raises the whole-file score.
	for _, item := range analysis.Items {
		if item.Kind == KindFile {
			assert.Equal(t, 0.9, item.RelevanceScore)
		}
	}
}

func TestGetContext_DiagnosticsAndDocumentation(t *testing.T) {
	client := &fakeLanguageClient{
		diagnostics: []lsp.Diagnostic{{
			Range:    lsp.Range{Start: lsp.Position{Line: 3}, End: lsp.Position{Line: 3, Column: 10}},
			Severity: lsp.SeverityError,
			Message:  "undefined variable",
		}},
		hover: &lsp.Hover{Contents: "Package main is the entry point."},
	}
	loader := &fakeLoader{files: map[string]string{
		"main.go": "l0\nl1\nl2\nbroken line\nl4\nl5",
	}}

	engine := newTestEngine(client, nil, loader)

	analysis := engine.GetContext(context.Background(), &ContextRequest{
		Query:       "broken",
		CurrentFile: "main.go",
	})

	var errorItem, docItem *ContextItem
	for i := range analysis.Items {
		item := &analysis.Items[i]
		switch item.Kind {
		case KindError:
			errorItem = item
		case KindDocumentation:
			docItem = item
		}
	}

	require.NotNil(t, errorItem)
	assert.Equal(t, 0.8, errorItem.RelevanceScore)
	assert.Equal(t, "error", errorItem.Metadata.ErrorType)
	assert.Contains(t, errorItem.Text, "broken line")
	assert.Contains(t, errorItem.Text, "l1")
	assert.Contains(t, errorItem.Text, "l5")

	require.NotNil(t, docItem)
	assert.Equal(t, 0.7, docItem.RelevanceScore)
	assert.Equal(t, "Package main is the entry point.", docItem.Metadata.Documentation)
}

func TestGetContext_HistoricalResurfacing(t *testing.T) {
	loader := &fakeLoader{files: map[string]string{
		"user.go": "package user\n\nfunc fetchUser() {}\n",
	}}

	engine := newTestEngine(nil, nil, loader)
	ctx := context.Background()

	first := engine.GetContext(ctx, &ContextRequest{Query: "fetchUser", CurrentFile: "user.go"})
	require.NotEmpty(t, first.Items)

	second := engine.GetContext(ctx, &ContextRequest{Query: "fetchUsr", CurrentFile: "user.go"})

	var historical []ContextItem
	for _, item := range second.Items {
		if strings.HasPrefix(item.ID, HistoricalIDPrefix) {
			historical = append(historical, item)
		}
	}
	require.NotEmpty(t, historical, "expected resurfaced items from the prior query")

	for _, item := range historical {
		original := strings.TrimPrefix(item.ID, HistoricalIDPrefix)
		for _, prior := range first.Items {
			if prior.ID == original {
				assert.InDelta(t, prior.RelevanceScore*HistoricalDecay, item.RelevanceScore, 1e-9)
			}
		}
	}
}

func TestGetContext_ThrowingProviderStillResolves(t *testing.T) {
	loader := &fakeLoader{files: map[string]string{
		"main.go": "package main\n",
	}}

	engine := newTestEngine(nil, &fakeSearchProvider{panics: true}, loader)

	analysis := engine.GetContext(context.Background(), &ContextRequest{
		Query:          "main",
		CurrentFile:    "main.go",
		WorkspaceScope: true,
	})

	require.NotNil(t, analysis)
	assert.NotEmpty(t, analysis.Items, "other sources should still contribute")
	for _, item := range analysis.Items {
		assert.NotEmpty(t, item.ID)
	}
}

func TestGetContext_NilRequestDegrades(t *testing.T) {
	engine := newTestEngine(nil, nil, nil)

	analysis := engine.GetContext(context.Background(), nil)

	require.NotNil(t, analysis)
	assert.Empty(t, analysis.Items)
	assert.Zero(t, analysis.TotalRelevance)
	assert.Contains(t, analysis.Summary, "failed")
	assert.Equal(t, []string{
		"try a simpler query",
		"check if the workspace is properly indexed",
	}, analysis.Suggestions)
}

func TestGetContext_EmptyQueryDegrades(t *testing.T) {
	engine := newTestEngine(nil, nil, nil)

	analysis := engine.GetContext(context.Background(), &ContextRequest{})

	require.NotNil(t, analysis)
	assert.Empty(t, analysis.Items)
	assert.Zero(t, analysis.TotalRelevance)
	assert.Contains(t, analysis.Summary, "failed")
	assert.Equal(t, []string{
		"try a simpler query",
		"check if the workspace is properly indexed",
	}, analysis.Suggestions)
}

func TestGetContext_IdempotentModuloHistory(t *testing.T) {
	loader := &fakeLoader{files: map[string]string{
		"a.go": "package a\n\nfunc Run() {}\n",
	}}

	engine := newTestEngine(nil, nil, loader)
	ctx := context.Background()
	req := func() *ContextRequest {
		return &ContextRequest{Query: "Run", CurrentFile: "a.go"}
	}

	fresh := func(items []ContextItem) []string {
		var ids []string
		for _, item := range items {
			if !strings.HasPrefix(item.ID, HistoricalIDPrefix) {
				ids = append(ids, item.ID)
			}
		}
		return ids
	}

	first := engine.GetContext(ctx, req())
	second := engine.GetContext(ctx, req())
	assert.Equal(t, fresh(first.Items), fresh(second.Items))
}

// =============================================================================
// History and status
// =============================================================================

func TestEngine_HistoryBound(t *testing.T) {
	engine := newTestEngine(nil, nil, nil)
	ctx := context.Background()

	for i := 0; i < 120; i++ {
		engine.GetContext(ctx, &ContextRequest{Query: fmt.Sprintf("query-%d", i)})
	}

	assert.Equal(t, 100, engine.Status().HistorySize)
	assert.Equal(t, "query-119", engine.Status().LastQuery)
}

func TestEngine_ClearHistory(t *testing.T) {
	loader := &fakeLoader{files: map[string]string{
		"a.go": "package a\n\nfunc Run() {}\n",
	}}

	engine := newTestEngine(nil, nil, loader)
	ctx := context.Background()

	engine.GetContext(ctx, &ContextRequest{Query: "Run", CurrentFile: "a.go"})
	require.Equal(t, 1, engine.Status().HistorySize)

	engine.ClearHistory()
	assert.Equal(t, 0, engine.Status().HistorySize)
	assert.Empty(t, engine.Status().LastQuery)

	// No historical contributions after a reset.
	analysis := engine.GetContext(ctx, &ContextRequest{Query: "Run", CurrentFile: "a.go"})
	for _, item := range analysis.Items {
		assert.False(t, strings.HasPrefix(item.ID, HistoricalIDPrefix))
	}
}

func TestEngine_StatusDefaults(t *testing.T) {
	engine := newTestEngine(nil, nil, nil)

	status := engine.Status()
	assert.False(t, status.IsAnalyzing)
	assert.Zero(t, status.HistorySize)
	assert.Empty(t, status.LastQuery)
}

func TestEngine_StatusAnalyzingSurvivesOverlap(t *testing.T) {
	provider := &fakeSearchProvider{
		blockQuery: "slow",
		entered:    make(chan struct{}, 1),
		release:    make(chan struct{}),
	}
	engine := newTestEngine(nil, provider, nil)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.GetContext(ctx, &ContextRequest{Query: "slow"})
	}()
	<-provider.entered

	// A second request that starts and finishes while the first is still in
	// flight must not clear the analyzing status.
	engine.GetContext(ctx, &ContextRequest{Query: "fast"})
	assert.True(t, engine.Status().IsAnalyzing)

	close(provider.release)
	<-done
	assert.False(t, engine.Status().IsAnalyzing)
}
