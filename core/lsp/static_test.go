package lsp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goSample = `package sample

// Loader reads configuration files.
type Loader struct {
	path string
}

// NewLoader creates a Loader.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

func parseConfig(data []byte) error {
	return nil
}
`

func writeSample(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtractSymbols_Go(t *testing.T) {
	symbols := ExtractSymbols(goSample, "go")

	names := make(map[string]SymbolKind)
	for _, s := range symbols {
		names[s.Name] = s.Kind
	}

	assert.Equal(t, SymbolKindStruct, names["Loader"])
	assert.Equal(t, SymbolKindFunction, names["NewLoader"])
	assert.Equal(t, SymbolKindFunction, names["parseConfig"])
}

func TestExtractSymbols_TypeScript(t *testing.T) {
	src := `export function fetchUser(id: string) {}
export class UserStore {}
export interface User {}
const handler = async (req) => {}
`
	symbols := ExtractSymbols(src, "typescript")
	require.Len(t, symbols, 4)
	assert.Equal(t, "fetchUser", symbols[0].Name)
	assert.Equal(t, SymbolKindClass, symbols[1].Kind)
	assert.Equal(t, SymbolKindInterface, symbols[2].Kind)
	assert.Equal(t, SymbolKindFunction, symbols[3].Kind)
}

func TestExtractSymbols_UnknownLanguageUsesGeneric(t *testing.T) {
	src := "function greet()\nclass Greeter\n"
	symbols := ExtractSymbols(src, "plaintext")
	require.Len(t, symbols, 2)
	assert.Equal(t, "greet", symbols[0].Name)
	assert.Equal(t, "Greeter", symbols[1].Name)
}

func TestStaticClient_DocumentSymbols(t *testing.T) {
	path := writeSample(t, "sample.go", goSample)

	client, err := NewStaticClient()
	require.NoError(t, err)

	symbols, err := client.DocumentSymbols(context.Background(), path)
	require.NoError(t, err)
	require.NotEmpty(t, symbols)

	// Second call should hit the cache and return identical results.
	cached, err := client.DocumentSymbols(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, symbols, cached)
}

func TestStaticClient_DocumentSymbols_MissingFile(t *testing.T) {
	client, err := NewStaticClient()
	require.NoError(t, err)

	_, err = client.DocumentSymbols(context.Background(), filepath.Join(t.TempDir(), "absent.go"))
	assert.Error(t, err)
}

func TestStaticClient_Hover(t *testing.T) {
	path := writeSample(t, "sample.go", goSample)

	client, err := NewStaticClient()
	require.NoError(t, err)

	symbols, err := client.DocumentSymbols(context.Background(), path)
	require.NoError(t, err)

	var loaderLine int
	for _, s := range symbols {
		if s.Name == "NewLoader" {
			loaderLine = s.Range.Start.Line
		}
	}

	hover, err := client.Hover(context.Background(), path, Position{Line: loaderLine})
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents, "NewLoader")
	assert.Contains(t, hover.Contents, "creates a Loader")
}

func TestStaticClient_Hover_NoSymbolAtPosition(t *testing.T) {
	path := writeSample(t, "sample.go", goSample)

	client, err := NewStaticClient()
	require.NoError(t, err)

	hover, err := client.Hover(context.Background(), path, Position{Line: 9999})
	require.NoError(t, err)
	assert.Nil(t, hover)
}

func TestStaticClient_Diagnostics_AlwaysEmpty(t *testing.T) {
	client, err := NewStaticClient()
	require.NoError(t, err)

	diags, err := client.Diagnostics(context.Background(), "whatever.go")
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestStaticClient_Completions(t *testing.T) {
	path := writeSample(t, "sample.go", goSample)

	client, err := NewStaticClient()
	require.NoError(t, err)

	items, err := client.Completions(context.Background(), path, Position{})
	require.NoError(t, err)
	require.NotEmpty(t, items)

	var labels []string
	for _, item := range items {
		labels = append(labels, item.Label)
	}
	assert.Contains(t, labels, "parseConfig")
}
