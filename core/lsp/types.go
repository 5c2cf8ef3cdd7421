// Package lsp provides typed access to language-intelligence capabilities:
// document symbols, diagnostics, hover text, and completions. The retrieval
// pipeline consumes these through the LanguageClient interface; a live
// language-server connection and the regex-based StaticClient both satisfy it.
package lsp

import (
	"context"
)

// Position is a zero-based line/column location in a document.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range is a span between two positions, inclusive of start and end lines.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// SymbolKind classifies a document symbol.
type SymbolKind string

const (
	SymbolKindFunction  SymbolKind = "function"
	SymbolKindMethod    SymbolKind = "method"
	SymbolKindClass     SymbolKind = "class"
	SymbolKindInterface SymbolKind = "interface"
	SymbolKindStruct    SymbolKind = "struct"
	SymbolKindType      SymbolKind = "type"
	SymbolKindConstant  SymbolKind = "constant"
	SymbolKindVariable  SymbolKind = "variable"
	SymbolKindUnknown   SymbolKind = "unknown"
)

// Symbol is a named declaration in a document.
type Symbol struct {
	// Name is the declared identifier.
	Name string `json:"name"`

	// Kind classifies the declaration.
	Kind SymbolKind `json:"kind"`

	// Range spans the declaration in the source document.
	Range Range `json:"range"`

	// Detail is optional extra information such as a signature.
	Detail string `json:"detail,omitempty"`
}

// DiagnosticSeverity indicates how severe a diagnostic is.
type DiagnosticSeverity int

const (
	SeverityError       DiagnosticSeverity = 1
	SeverityWarning     DiagnosticSeverity = 2
	SeverityInformation DiagnosticSeverity = 3
	SeverityHint        DiagnosticSeverity = 4
)

// String returns the string representation of the severity.
func (s DiagnosticSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Diagnostic is a single problem reported for a document.
type Diagnostic struct {
	// Range indicates the text range this diagnostic applies to.
	Range Range `json:"range"`

	// Severity indicates the severity level of the diagnostic.
	Severity DiagnosticSeverity `json:"severity"`

	// Source identifies the tool that produced this diagnostic.
	Source string `json:"source,omitempty"`

	// Message is the human-readable diagnostic message.
	Message string `json:"message"`
}

// Hover is the documentation text available at a position.
type Hover struct {
	// Contents is the hover text, typically markdown.
	Contents string `json:"contents"`

	// Range optionally spans the hovered element.
	Range *Range `json:"range,omitempty"`
}

// CompletionItem is a single completion suggestion.
type CompletionItem struct {
	Label  string     `json:"label"`
	Kind   SymbolKind `json:"kind"`
	Detail string     `json:"detail,omitempty"`
}

// LanguageClient is the capability surface the retrieval pipeline consumes.
// Implementations may back onto a running language server or onto static
// analysis. Any call may return an error; callers treat a failed call as
// "zero candidates" and continue.
type LanguageClient interface {
	// DocumentSymbols returns the symbols declared in the document at path.
	DocumentSymbols(ctx context.Context, path string) ([]Symbol, error)

	// Diagnostics returns the current diagnostics for the document at path.
	Diagnostics(ctx context.Context, path string) ([]Diagnostic, error)

	// Hover returns documentation for the element at pos, or nil when none
	// is available.
	Hover(ctx context.Context, path string, pos Position) (*Hover, error)

	// Completions returns completion suggestions at pos.
	Completions(ctx context.Context, path string, pos Position) ([]CompletionItem, error)
}
