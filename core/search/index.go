package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SnippetRadius is the number of lines kept on each side of a match.
const SnippetRadius = 2

// Index is a bleve-backed workspace index implementing Provider.
type Index struct {
	mu     sync.RWMutex
	idx    bleve.Index
	closed bool
}

// OpenIndex opens or creates a bleve index at path. An empty path creates an
// in-memory index, used by tests and one-shot queries.
func OpenIndex(path string) (*Index, error) {
	var (
		idx bleve.Index
		err error
	)

	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping())
	} else {
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	return &Index{idx: idx}, nil
}

// indexMapping builds the document schema: content and symbols are analyzed
// text, path is a keyword, language is stored verbatim.
func indexMapping() *mapping.IndexMappingImpl {
	content := bleve.NewTextFieldMapping()
	content.Store = true

	symbols := bleve.NewTextFieldMapping()
	symbols.Store = true

	path := bleve.NewTextFieldMapping()
	path.Store = true
	path.Analyzer = keyword.Name

	language := bleve.NewTextFieldMapping()
	language.Store = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("content", content)
	doc.AddFieldMappingsAt("symbols", symbols)
	doc.AddFieldMappingsAt("path", path)
	doc.AddFieldMappingsAt("language", language)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}

// Close releases the underlying bleve index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	return i.idx.Close()
}

// IndexDocument writes a single document.
func (i *Index) IndexDocument(ctx context.Context, doc *Document) error {
	return i.IndexBatch(ctx, []*Document{doc})
}

// IndexBatch writes documents in one batch.
func (i *Index) IndexBatch(ctx context.Context, docs []*Document) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return ErrIndexClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := i.idx.NewBatch()
	for _, doc := range docs {
		fields := map[string]interface{}{
			"path":     doc.Path,
			"language": doc.Language,
			"content":  doc.Content,
			"symbols":  strings.Join(doc.Symbols, " "),
		}
		if err := batch.Index(doc.ID, fields); err != nil {
			return fmt.Errorf("batch index %s: %w", doc.Path, err)
		}
	}
	return i.idx.Batch(batch)
}

// Delete removes a document by ID.
func (i *Index) Delete(ctx context.Context, id string) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return ErrIndexClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return i.idx.Delete(id)
}

// DocumentCount returns the number of indexed documents.
func (i *Index) DocumentCount() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return 0, ErrIndexClosed
	}
	return i.idx.DocCount()
}

// Search implements Provider. Hits are grouped per file; hit scores are
// converted to the inverse-distance convention (0 = strongest hit in this
// result set).
func (i *Index) Search(ctx context.Context, req *SearchRequest) ([]FileMatch, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, ErrIndexClosed
	}

	req.applyDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sr := bleve.NewSearchRequestOptions(buildQuery(req), req.MaxResults, 0, false)
	sr.Fields = []string{"path", "language", "content", "symbols"}

	res, err := i.idx.SearchInContext(ctx, sr)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", req.Query, err)
	}

	matches := make([]FileMatch, 0, len(res.Hits))
	for _, hit := range res.Hits {
		path, _ := hit.Fields["path"].(string)
		language, _ := hit.Fields["language"].(string)
		content, _ := hit.Fields["content"].(string)
		symbols, _ := hit.Fields["symbols"].(string)

		distance := 0.0
		if res.MaxScore > 0 {
			distance = 1.0 - hit.Score/res.MaxScore
		}
		if distance < 0 {
			distance = 0
		}

		matches = append(matches, FileMatch{
			File:    FileRef{Path: path, Language: language},
			Matches: []Match{locateMatch(req.Query, content, symbols, distance)},
		})
	}
	return matches, nil
}

// buildQuery scopes the bleve query per the request type. Symbol hits are
// boosted so declaration matches outrank body text for SearchTypeAll.
func buildQuery(req *SearchRequest) query.Query {
	symbolQuery := bleve.NewMatchQuery(req.Query)
	symbolQuery.SetField("symbols")
	symbolQuery.SetBoost(2.0)

	contentQuery := bleve.NewMatchQuery(req.Query)
	contentQuery.SetField("content")

	switch req.Type {
	case SearchTypeSymbol:
		return symbolQuery
	case SearchTypeText:
		return contentQuery
	default:
		return bleve.NewDisjunctionQuery(symbolQuery, contentQuery)
	}
}

// locateMatch finds the first occurrence of the query in content and builds
// the positioned match with a line-window snippet. When the query does not
// literally occur (analyzed match), the match points at the file start.
func locateMatch(queryText, content, symbols string, distance float64) Match {
	matchType := MatchTypeText
	if containsToken(symbols, queryText) {
		matchType = MatchTypeSymbol
	}

	line, column := locateText(content, queryText)
	snippet := snippetAround(content, line)

	return Match{
		Type:    matchType,
		Line:    line,
		Column:  column,
		Score:   distance,
		Snippet: snippet,
	}
}

// containsToken reports whether any whitespace-separated token of haystack
// equals needle, case-insensitively.
func containsToken(haystack, needle string) bool {
	needle = strings.ToLower(needle)
	for _, token := range strings.Fields(strings.ToLower(haystack)) {
		if token == needle {
			return true
		}
	}
	return false
}

// locateText returns the zero-based line and column of the first
// case-insensitive occurrence of needle, or (0, 0) when absent.
func locateText(content, needle string) (int, int) {
	idx := strings.Index(strings.ToLower(content), strings.ToLower(needle))
	if idx < 0 {
		return 0, 0
	}

	prefix := content[:idx]
	line := strings.Count(prefix, "\n")
	column := idx
	if last := strings.LastIndexByte(prefix, '\n'); last >= 0 {
		column = idx - last - 1
	}
	return line, column
}

// snippetAround extracts the line window around a zero-based line.
func snippetAround(content string, line int) string {
	lines := strings.Split(content, "\n")

	start := line - SnippetRadius
	if start < 0 {
		start = 0
	}
	end := line + SnippetRadius + 1
	if end > len(lines) {
		end = len(lines)
	}
	if start >= len(lines) {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}

// NewDocument builds a Document for a file's content.
func NewDocument(path, language, content string, symbols []string) *Document {
	return &Document{
		ID:        path,
		Path:      path,
		Language:  language,
		Content:   content,
		Symbols:   symbols,
		IndexedAt: time.Now(),
	}
}
