package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/adalundhe/scout/core/lsp"
	"github.com/adalundhe/scout/core/search"
	"github.com/adalundhe/scout/core/session"
)

// Collector runs every enabled candidate source for a request and gathers
// their items. Sources are independent: each runs in its own goroutine, and
// a failing or panicking source contributes zero items without affecting
// the others.
type Collector struct {
	lsp     lsp.LanguageClient
	search  search.Provider
	loader  ContentLoader
	history *session.History[ContextItem]
	logger  *slog.Logger
}

// NewCollector creates a Collector over the given providers.
func NewCollector(
	languageClient lsp.LanguageClient,
	searchProvider search.Provider,
	loader ContentLoader,
	history *session.History[ContextItem],
	logger *slog.Logger,
) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		lsp:     languageClient,
		search:  searchProvider,
		loader:  loader,
		history: history,
		logger:  logger,
	}
}

// sourceFunc is one candidate source.
type sourceFunc func(ctx context.Context, req *ContextRequest) ([]ContextItem, error)

// Collect fans out across all sources and returns the concatenated
// candidates in canonical source order, so position ties resolve
// deterministically under the ranker's stable sort.
func (c *Collector) Collect(ctx context.Context, req *ContextRequest) []ContextItem {
	sources := []struct {
		name string
		run  sourceFunc
	}{
		{"file", c.fileSource},
		{"symbol_search", c.symbolSearchSource},
		{"workspace_search", c.workspaceSource},
		{"diagnostics", c.diagnosticsSource},
		{"documentation", c.documentationSource},
		{"historical", c.historicalSource},
	}

	results := make([][]ContextItem, len(sources))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, source := range sources {
		group.Go(func() error {
			items, err := c.runSource(groupCtx, source.name, source.run, req)
			if err != nil {
				c.logger.Warn("context source failed",
					"source", source.name,
					"query", req.Query,
					"error", err,
				)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	// Sources never return errors to the group, so Wait is a pure join.
	_ = group.Wait()

	var items []ContextItem
	for _, result := range results {
		items = append(items, result...)
	}
	return items
}

// runSource invokes one source with panic recovery.
func (c *Collector) runSource(ctx context.Context, name string, run sourceFunc, req *ContextRequest) (items []ContextItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("source %s panicked: %v", name, r)
		}
	}()
	return run(ctx, req)
}
