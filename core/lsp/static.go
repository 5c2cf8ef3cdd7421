package lsp

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/adalundhe/scout/core/detect"
)

// DefaultSymbolCacheSize is the number of per-file symbol tables kept in the
// static client's LRU cache.
const DefaultSymbolCacheSize = 256

// symbolPattern pairs a compiled declaration regex with the kind it produces.
// The first capture group must be the symbol name.
type symbolPattern struct {
	re   *regexp.Regexp
	kind SymbolKind
}

// languagePatterns holds per-language declaration patterns. Static analysis
// is intentionally shallow: it recognizes top-level declaration forms, not
// full grammar. Languages without an entry get the generic pattern set.
var languagePatterns = map[string][]symbolPattern{
	"go": {
		{regexp.MustCompile(`^func\s+(?:\([^)]+\)\s+)?([A-Za-z_]\w*)\s*\(`), SymbolKindFunction},
		{regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+struct\b`), SymbolKindStruct},
		{regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+interface\b`), SymbolKindInterface},
		{regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\b`), SymbolKindType},
		{regexp.MustCompile(`^const\s+([A-Za-z_]\w*)\b`), SymbolKindConstant},
		{regexp.MustCompile(`^var\s+([A-Za-z_]\w*)\b`), SymbolKindVariable},
	},
	"typescript": {
		{regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$][\w$]*)`), SymbolKindFunction},
		{regexp.MustCompile(`^\s*(?:export\s+)?class\s+([A-Za-z_$][\w$]*)`), SymbolKindClass},
		{regexp.MustCompile(`^\s*(?:export\s+)?interface\s+([A-Za-z_$][\w$]*)`), SymbolKindInterface},
		{regexp.MustCompile(`^\s*(?:export\s+)?type\s+([A-Za-z_$][\w$]*)`), SymbolKindType},
		{regexp.MustCompile(`^\s*(?:export\s+)?const\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?\(`), SymbolKindFunction},
	},
	"python": {
		{regexp.MustCompile(`^\s*def\s+([A-Za-z_]\w*)\s*\(`), SymbolKindFunction},
		{regexp.MustCompile(`^\s*class\s+([A-Za-z_]\w*)\b`), SymbolKindClass},
	},
	"rust": {
		{regexp.MustCompile(`^\s*(?:pub\s+)?fn\s+([A-Za-z_]\w*)`), SymbolKindFunction},
		{regexp.MustCompile(`^\s*(?:pub\s+)?struct\s+([A-Za-z_]\w*)`), SymbolKindStruct},
		{regexp.MustCompile(`^\s*(?:pub\s+)?trait\s+([A-Za-z_]\w*)`), SymbolKindInterface},
		{regexp.MustCompile(`^\s*(?:pub\s+)?enum\s+([A-Za-z_]\w*)`), SymbolKindType},
	},
	"java": {
		{regexp.MustCompile(`^\s*(?:public|private|protected)?\s*(?:static\s+)?(?:final\s+)?class\s+([A-Za-z_]\w*)`), SymbolKindClass},
		{regexp.MustCompile(`^\s*(?:public|private|protected)?\s*interface\s+([A-Za-z_]\w*)`), SymbolKindInterface},
	},
}

// genericPatterns are applied when a language has no dedicated pattern set.
var genericPatterns = []symbolPattern{
	{regexp.MustCompile(`^\s*(?:function|func|def|fn)\s+([A-Za-z_]\w*)`), SymbolKindFunction},
	{regexp.MustCompile(`^\s*(?:class|struct|interface|trait)\s+([A-Za-z_]\w*)`), SymbolKindClass},
}

// aliasedLanguages maps language IDs that share a pattern set.
var aliasedLanguages = map[string]string{
	"typescriptreact": "typescript",
	"javascript":      "typescript",
	"javascriptreact": "typescript",
}

// cachedSymbols is an LRU entry: the symbol table for one file version.
type cachedSymbols struct {
	modTime int64
	symbols []Symbol
}

// StaticClient is a LanguageClient backed by regex analysis of file contents
// rather than a running language server. It produces document symbols and
// hover text from adjacent comments, and never reports diagnostics. Per-file
// symbol tables are cached in an LRU keyed by path, invalidated on mtime.
type StaticClient struct {
	cache *lru.Cache[string, cachedSymbols]
}

// NewStaticClient creates a StaticClient with the default cache size.
func NewStaticClient() (*StaticClient, error) {
	return NewStaticClientWithSize(DefaultSymbolCacheSize)
}

// NewStaticClientWithSize creates a StaticClient with a custom cache size.
func NewStaticClientWithSize(size int) (*StaticClient, error) {
	cache, err := lru.New[string, cachedSymbols](size)
	if err != nil {
		return nil, fmt.Errorf("static client cache: %w", err)
	}
	return &StaticClient{cache: cache}, nil
}

// DocumentSymbols extracts declarations from the file at path.
func (c *StaticClient) DocumentSymbols(ctx context.Context, path string) ([]Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if entry, ok := c.cache.Get(path); ok && entry.modTime == info.ModTime().UnixNano() {
		return entry.symbols, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	symbols := ExtractSymbols(string(data), detect.Language(path))
	c.cache.Add(path, cachedSymbols{modTime: info.ModTime().UnixNano(), symbols: symbols})
	return symbols, nil
}

// Diagnostics always returns nil: static analysis performs no checking.
func (c *StaticClient) Diagnostics(ctx context.Context, path string) ([]Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

// Hover returns the comment block adjacent to the declaration at pos, if the
// position lands on or immediately below a recognized declaration.
func (c *StaticClient) Hover(ctx context.Context, path string, pos Position) (*Hover, error) {
	symbols, err := c.DocumentSymbols(ctx, path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	lines := strings.Split(string(data), "\n")

	for i := range symbols {
		sym := &symbols[i]
		if pos.Line < sym.Range.Start.Line || pos.Line > sym.Range.End.Line {
			continue
		}
		doc := commentAbove(lines, sym.Range.Start.Line)
		contents := fmt.Sprintf("%s %s", sym.Kind, sym.Name)
		if doc != "" {
			contents += "\n\n" + doc
		}
		return &Hover{Contents: contents, Range: &sym.Range}, nil
	}

	return nil, nil
}

// Completions suggests symbol names from the document. When the context of
// the request carries no prefix information, all symbols are offered.
func (c *StaticClient) Completions(ctx context.Context, path string, pos Position) ([]CompletionItem, error) {
	symbols, err := c.DocumentSymbols(ctx, path)
	if err != nil {
		return nil, err
	}

	items := make([]CompletionItem, 0, len(symbols))
	for _, sym := range symbols {
		items = append(items, CompletionItem{
			Label:  sym.Name,
			Kind:   sym.Kind,
			Detail: sym.Detail,
		})
	}
	return items, nil
}

// ExtractSymbols scans source text for declarations using the pattern set
// registered for language.
func ExtractSymbols(source, language string) []Symbol {
	if alias, ok := aliasedLanguages[language]; ok {
		language = alias
	}
	patterns, ok := languagePatterns[language]
	if !ok {
		patterns = genericPatterns
	}

	var symbols []Symbol
	lines := strings.Split(source, "\n")
	for lineNo, line := range lines {
		for _, p := range patterns {
			m := p.re.FindStringSubmatchIndex(line)
			if m == nil {
				continue
			}
			name := line[m[2]:m[3]]
			symbols = append(symbols, Symbol{
				Name: name,
				Kind: p.kind,
				Range: Range{
					Start: Position{Line: lineNo, Column: m[2]},
					End:   Position{Line: lineNo, Column: m[3]},
				},
				Detail: strings.TrimSpace(line),
			})
			break
		}
	}
	return symbols
}

// commentAbove collects the contiguous comment block ending on the line
// directly above declLine, stripped of comment markers.
func commentAbove(lines []string, declLine int) string {
	var block []string
	for i := declLine - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(trimmed, "//"):
			block = append([]string{strings.TrimSpace(strings.TrimPrefix(trimmed, "//"))}, block...)
		case strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "#!"):
			block = append([]string{strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))}, block...)
		default:
			return strings.Join(block, "\n")
		}
	}
	return strings.Join(block, "\n")
}
