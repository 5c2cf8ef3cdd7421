// Package search provides the workspace indexing service: a bleve-backed
// full-text and symbol index over workspace files, with incremental reindex
// driven by a sqlite manifest and a file system watcher. The retrieval
// pipeline consumes it through the Provider interface.
package search

import (
	"context"
	"errors"
	"time"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// DefaultMaxResults is the result cap when a request does not set one.
	DefaultMaxResults = 20

	// MaxResults is the hard cap on results per request.
	MaxResults = 100
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrEmptyQuery indicates a search with no query text.
	ErrEmptyQuery = errors.New("search query cannot be empty")

	// ErrIndexClosed indicates an operation on a closed index.
	ErrIndexClosed = errors.New("index is closed")
)

// =============================================================================
// Search types
// =============================================================================

// SearchType scopes a search to a match category.
type SearchType string

const (
	// SearchTypeAll matches against file content and symbols.
	SearchTypeAll SearchType = "all"

	// SearchTypeSymbol matches against extracted symbol names only.
	SearchTypeSymbol SearchType = "symbol"

	// SearchTypeText matches against file content only.
	SearchTypeText SearchType = "text"
)

// SearchRequest describes one search against the index.
type SearchRequest struct {
	// Query is the search text (required).
	Query string

	// Type scopes the search; defaults to SearchTypeAll.
	Type SearchType

	// MaxResults caps the number of file matches returned.
	MaxResults int
}

// applyDefaults sets default values for zero-valued fields.
func (r *SearchRequest) applyDefaults() {
	if r.Type == "" {
		r.Type = SearchTypeAll
	}
	if r.MaxResults <= 0 {
		r.MaxResults = DefaultMaxResults
	}
	if r.MaxResults > MaxResults {
		r.MaxResults = MaxResults
	}
}

// Validate checks that the request is well-formed.
func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return ErrEmptyQuery
	}
	return nil
}

// MatchType classifies a single match within a file.
type MatchType string

const (
	MatchTypeSymbol MatchType = "symbol"
	MatchTypeText   MatchType = "text"
)

// FileRef identifies the file a match came from.
type FileRef struct {
	// Path is the indexed file path.
	Path string `json:"path"`

	// Language is the file's language identifier.
	Language string `json:"language"`
}

// Match is one hit inside a file.
type Match struct {
	// Type classifies the match.
	Type MatchType `json:"type"`

	// Line is the zero-based line of the match.
	Line int `json:"line"`

	// Column is the zero-based column of the match.
	Column int `json:"column"`

	// Score is the match distance in [0, 1]: 0 is a perfect match, 1 the
	// weakest returned. Consumers invert it when ranking.
	Score float64 `json:"score"`

	// Snippet is the text surrounding the match.
	Snippet string `json:"snippet"`
}

// FileMatch is all matches for a single file.
type FileMatch struct {
	File    FileRef `json:"file"`
	Matches []Match `json:"matches"`
}

// Provider is the search capability the retrieval pipeline consumes.
type Provider interface {
	Search(ctx context.Context, req *SearchRequest) ([]FileMatch, error)
}

// =============================================================================
// Document
// =============================================================================

// Document is one indexed file.
type Document struct {
	// ID is the document identifier, derived from the path.
	ID string `json:"id"`

	// Path is the file path relative to the workspace root.
	Path string `json:"path"`

	// Language is the detected language identifier.
	Language string `json:"language"`

	// Content is the file text.
	Content string `json:"content"`

	// Symbols are the declaration names extracted from the file.
	Symbols []string `json:"symbols"`

	// IndexedAt is when the document was last indexed.
	IndexedAt time.Time `json:"indexed_at"`
}

// =============================================================================
// IndexingResult
// =============================================================================

// IndexingResult summarizes one indexing run.
type IndexingResult struct {
	// Indexed is the number of files written to the index.
	Indexed int `json:"indexed"`

	// Skipped is the number of unchanged files left alone.
	Skipped int `json:"skipped"`

	// Failed is the number of files that could not be indexed.
	Failed int `json:"failed"`

	// Failures maps failed paths to error messages.
	Failures map[string]string `json:"failures,omitempty"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`
}

// AddFailure records a failed path.
func (r *IndexingResult) AddFailure(path string, err error) {
	if r.Failures == nil {
		r.Failures = make(map[string]string)
	}
	r.Failures[path] = err.Error()
	r.Failed++
}
