package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/adalundhe/scout/core/events"
	"github.com/adalundhe/scout/core/lsp"
	"github.com/adalundhe/scout/core/search"
	"github.com/adalundhe/scout/core/session"
)

// Status is the engine's observable state.
type Status struct {
	// IsAnalyzing reports whether a request is in flight. Observational
	// only; concurrent requests are permitted and history mutation is
	// independently synchronized.
	IsAnalyzing bool `json:"isAnalyzing"`

	// HistorySize is the number of retained queries.
	HistorySize int `json:"historySize"`

	// LastQuery is the most recent query, when any.
	LastQuery string `json:"lastQuery,omitempty"`
}

// Engine is the context retrieval pipeline: collection, ranking, history,
// and summarization behind a single entry point. GetContext never returns
// an error; failures degrade the analysis instead.
type Engine struct {
	collector *Collector
	history   *session.History[ContextItem]
	bus       *events.Bus
	logger    *slog.Logger

	// analyzing counts in-flight requests; Status reports the count as a
	// boolean so overlapping requests do not clear each other's flag.
	analyzing atomic.Int64
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	// QueryHistoryCap bounds retained queries; zero applies the default.
	QueryHistoryCap int

	// ItemHistoryCap bounds retained items; zero applies the default.
	ItemHistoryCap int
}

// NewEngine creates an Engine over the given providers. The bus is
// optional; a nil bus disables event emission.
func NewEngine(
	config EngineConfig,
	languageClient lsp.LanguageClient,
	searchProvider search.Provider,
	loader ContentLoader,
	bus *events.Bus,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	history := session.NewHistory[ContextItem](config.QueryHistoryCap, config.ItemHistoryCap)

	return &Engine{
		collector: NewCollector(languageClient, searchProvider, loader, history, logger),
		history:   history,
		bus:       bus,
		logger:    logger,
	}
}

// GetContext runs the full pipeline for one request and always returns a
// well-formed analysis. Source failures contribute zero items; pipeline
// failures produce a degraded analysis with the error in its summary.
func (e *Engine) GetContext(ctx context.Context, req *ContextRequest) (analysis *ContextAnalysis) {
	if req == nil {
		return e.degraded(&ContextRequest{}, errors.New("nil context request"))
	}

	e.analyzing.Add(1)
	defer e.analyzing.Add(-1)

	// Failures outside any single source degrade the result rather than
	// propagate; callers always receive a well-formed analysis.
	defer func() {
		if r := recover(); r != nil {
			analysis = e.degraded(req, fmt.Errorf("internal error: %v", r))
		}
	}()

	req.applyDefaults()
	if err := req.Validate(); err != nil {
		return e.degraded(req, err)
	}

	started := events.NewEvent(events.EventTypeAnalysisStarted)
	started.Query = req.Query
	e.emit(started)
	e.logger.Debug("context analysis started", "query", req.Query, "max_items", req.MaxItems)

	candidates := e.collector.Collect(ctx, req)
	items, total := rankAndBound(candidates, req.MaxItems)

	analysis = &ContextAnalysis{
		Items:          items,
		TotalRelevance: total,
		Summary:        summarize(req.Query, items),
		Suggestions:    suggest(items),
		RelatedQueries: relatedQueries(req.Query, items),
	}

	e.recordHistory(req.Query, items)

	completed := events.NewEvent(events.EventTypeAnalysisCompleted)
	completed.Query = req.Query
	completed.Data = analysis
	e.emit(completed)

	e.logger.Debug("context analysis completed",
		"query", req.Query,
		"items", len(items),
		"total_relevance", total,
	)
	return analysis
}

// degraded builds the well-formed failure analysis and emits the error
// event.
func (e *Engine) degraded(req *ContextRequest, err error) *ContextAnalysis {
	e.logger.Error("context analysis failed", "query", req.Query, "error", err)

	event := events.NewEvent(events.EventTypeAnalysisError)
	event.Query = req.Query
	event.Error = err.Error()
	e.emit(event)

	return &ContextAnalysis{
		Items:          []ContextItem{},
		TotalRelevance: 0,
		Summary:        fmt.Sprintf("Context analysis failed: %v", err),
		Suggestions: []string{
			"try a simpler query",
			"check if the workspace is properly indexed",
		},
		RelatedQueries: []string{},
	}
}

// recordHistory folds the query and the top result items into session
// history.
func (e *Engine) recordHistory(query string, items []ContextItem) {
	e.history.RecordQuery(query)

	top := items
	if len(top) > HistoryTopItems {
		top = top[:HistoryTopItems]
	}
	e.history.RecordItems(top)
}

// Status reports the engine's observable state.
func (e *Engine) Status() Status {
	last, _ := e.history.LastQuery()
	return Status{
		IsAnalyzing: e.analyzing.Load() > 0,
		HistorySize: e.history.QueryCount(),
		LastQuery:   last,
	}
}

// ClearHistory atomically empties the session history.
func (e *Engine) ClearHistory() {
	e.history.Clear()
	e.emit(events.NewEvent(events.EventTypeHistoryCleared))
	e.logger.Info("context history cleared")
}

// emit publishes to the bus when one is attached.
func (e *Engine) emit(event *events.Event) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(event)
}
