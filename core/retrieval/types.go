// Package retrieval implements the context retrieval and ranking pipeline:
// candidate collection across independent sources, relevance ranking and
// bounding, session history resurfacing, and analysis summarization.
package retrieval

import (
	"errors"
	"fmt"

	"github.com/adalundhe/scout/core/lsp"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// DefaultMaxItems bounds the result when a request does not set a cap.
	DefaultMaxItems = 20

	// MaxFileChars caps whole-file item text.
	MaxFileChars = 5000

	// SnippetRadius is the line window around diagnostics and matches.
	SnippetRadius = 2

	// HistoryTopItems is how many result items fold into session history.
	HistoryTopItems = 5

	// HistoricalIDPrefix tags items resurfaced from history.
	HistoricalIDPrefix = "historical-"
)

// Source scores. Selection items sit at the ceiling; everything else ranks
// below them.
const (
	ScoreSelection        = 1.0
	ScoreFile             = 0.7
	ScoreFileWithSel      = 0.9
	ScoreFileSymbol       = 0.8
	ScoreSymbolBase       = 0.8
	ScoreSymbolSpread     = 0.2
	ScoreWorkspaceBase    = 0.6
	ScoreWorkspaceSpread  = 0.3
	ScoreDiagnostic       = 0.8
	ScoreDocumentation    = 0.7
	HistoricalDecay       = 0.5
	SimilarityThreshold   = 0.3
	MaxFileSymbols        = 10
	MaxSymbolResults      = 10
	MaxDiagnostics        = 5
	MaxSimilarQueries     = 3
	MaxItemsPerQuery      = 2
	MaxRelatedQueries     = 5
)

// ErrEmptyQuery indicates a request with no query text.
var ErrEmptyQuery = errors.New("context request requires a query")

// =============================================================================
// Items
// =============================================================================

// ItemKind is the closed set of context item categories.
type ItemKind string

const (
	KindFile          ItemKind = "file"
	KindSymbol        ItemKind = "symbol"
	KindSelection     ItemKind = "selection"
	KindError         ItemKind = "error"
	KindDocumentation ItemKind = "documentation"
)

// AllKinds returns every item kind, in canonical order.
func AllKinds() []ItemKind {
	return []ItemKind{KindFile, KindSymbol, KindSelection, KindError, KindDocumentation}
}

// Span is an optional source region. Present for selection, symbol, and
// error items; absent for whole-file items.
type Span struct {
	Line      int `json:"line"`
	Column    int `json:"column"`
	EndLine   int `json:"endLine"`
	EndColumn int `json:"endColumn"`
}

// Metadata carries the kind-specific fields of an item. Only the fields
// relevant to the item's kind are populated.
type Metadata struct {
	// SymbolName is set for symbol items.
	SymbolName string `json:"symbolName,omitempty"`

	// SymbolKind is set for symbol items.
	SymbolKind lsp.SymbolKind `json:"symbolKind,omitempty"`

	// ErrorType is the diagnostic severity label for error items.
	ErrorType string `json:"errorType,omitempty"`

	// Documentation is the hover text for documentation items.
	Documentation string `json:"documentation,omitempty"`

	// References counts known references for symbol items, when available.
	References int `json:"references,omitempty"`
}

// ContextItem is one retrieved snippet with its provisional relevance.
type ContextItem struct {
	// ID disambiguates origin (source kind, path, line). Unique within one
	// emission, not across re-queries.
	ID string `json:"id"`

	// Kind categorizes the item.
	Kind ItemKind `json:"kind"`

	// SourcePath is the path the snippet came from.
	SourcePath string `json:"sourcePath"`

	// Text is the bounded snippet.
	Text string `json:"text"`

	// Language is the snippet's language identifier.
	Language string `json:"language"`

	// Position is the source region, when the item is positioned.
	Position *Span `json:"position,omitempty"`

	// RelevanceScore ranks the item; higher is more relevant. Selection
	// items are fixed at 1.0.
	RelevanceScore float64 `json:"relevanceScore"`

	// Metadata holds kind-specific fields.
	Metadata Metadata `json:"metadata"`
}

// itemID builds the origin-disambiguating identifier.
func itemID(kind ItemKind, path string, line int) string {
	return fmt.Sprintf("%s-%s-%d", kind, path, line)
}

// =============================================================================
// Request
// =============================================================================

// Selection is the caller's current editor selection.
type Selection struct {
	// Text is the selected text.
	Text string `json:"text"`

	// Span is the selected region.
	Span Span `json:"span"`
}

// ContextRequest describes one retrieval call. Requests are stateless; one
// is created per user interaction.
type ContextRequest struct {
	// Query is the retrieval text (required).
	Query string `json:"query"`

	// CurrentFile is the file the caller is editing, when known.
	CurrentFile string `json:"currentFile,omitempty"`

	// CurrentSelection is the caller's selection, when present.
	CurrentSelection *Selection `json:"currentSelection,omitempty"`

	// MaxItems caps the result; defaults to DefaultMaxItems.
	MaxItems int `json:"maxItems,omitempty"`

	// IncludeTypes enables a subset of item kinds; empty enables all.
	IncludeTypes []ItemKind `json:"includeTypes,omitempty"`

	// WorkspaceScope enables the workspace-wide search source.
	WorkspaceScope bool `json:"workspaceScope,omitempty"`
}

// applyDefaults fills zero-valued fields.
func (r *ContextRequest) applyDefaults() {
	if r.MaxItems <= 0 {
		r.MaxItems = DefaultMaxItems
	}
	if len(r.IncludeTypes) == 0 {
		r.IncludeTypes = AllKinds()
	}
}

// Validate checks that the request is well-formed.
func (r *ContextRequest) Validate() error {
	if r.Query == "" {
		return ErrEmptyQuery
	}
	return nil
}

// includes reports whether kind is enabled for this request.
func (r *ContextRequest) includes(kind ItemKind) bool {
	for _, k := range r.IncludeTypes {
		if k == kind {
			return true
		}
	}
	return false
}

// =============================================================================
// Analysis
// =============================================================================

// ContextAnalysis is the pipeline output. It is always well-formed; pipeline
// failures produce a degraded analysis rather than an error.
type ContextAnalysis struct {
	// Items is the bounded, relevance-ordered item list.
	Items []ContextItem `json:"items"`

	// TotalRelevance sums the bounded list's scores. A rough confidence
	// signal, not a probability.
	TotalRelevance float64 `json:"totalRelevance"`

	// Summary is a human-readable synopsis of the item set.
	Summary string `json:"summary"`

	// Suggestions are heuristic follow-up actions, in order.
	Suggestions []string `json:"suggestions"`

	// RelatedQueries are candidate next queries, deduplicated, at most 5.
	RelatedQueries []string `json:"relatedQueries"`
}
