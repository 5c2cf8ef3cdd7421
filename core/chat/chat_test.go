package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/scout/core/lsp"
	"github.com/adalundhe/scout/core/providers"
	"github.com/adalundhe/scout/core/retrieval"
	"github.com/adalundhe/scout/core/search"
)

type stubClient struct{}

func (stubClient) DocumentSymbols(context.Context, string) ([]lsp.Symbol, error) { return nil, nil }
func (stubClient) Diagnostics(context.Context, string) ([]lsp.Diagnostic, error) { return nil, nil }
func (stubClient) Hover(context.Context, string, lsp.Position) (*lsp.Hover, error) {
	return nil, nil
}
func (stubClient) Completions(context.Context, string, lsp.Position) ([]lsp.CompletionItem, error) {
	return nil, nil
}

type stubSearch struct {
	matches []search.FileMatch
}

func (s stubSearch) Search(context.Context, *search.SearchRequest) ([]search.FileMatch, error) {
	return s.matches, nil
}

type stubLoader struct{}

func (stubLoader) Load(string) (string, error)             { return "", errors.New("no files") }
func (stubLoader) Window(string, int, int) (string, error) { return "", errors.New("no files") }

type echoCompleter struct {
	lastRequest *providers.Request
	reply       string
	err         error
}

func (e *echoCompleter) Name() string { return "echo" }

func (e *echoCompleter) Complete(_ context.Context, req *providers.Request) (*providers.Response, error) {
	e.lastRequest = req
	if e.err != nil {
		return nil, e.err
	}
	return &providers.Response{Content: e.reply, StopReason: providers.StopReasonEndTurn}, nil
}

func (e *echoCompleter) StreamWithHandler(_ context.Context, req *providers.Request, handler providers.StreamHandler) error {
	e.lastRequest = req
	if e.err != nil {
		return e.err
	}
	if err := handler(&providers.StreamChunk{Type: providers.ChunkTypeStart}); err != nil {
		return err
	}
	if err := handler(&providers.StreamChunk{Type: providers.ChunkTypeText, Text: e.reply}); err != nil {
		return err
	}
	return handler(&providers.StreamChunk{
		Type:       providers.ChunkTypeEnd,
		StopReason: providers.StopReasonEndTurn,
		Usage:      &providers.Usage{},
	})
}

func newTestSession(provider search.Provider, completer providers.Completer) *Session {
	engine := retrieval.NewEngine(retrieval.EngineConfig{}, stubClient{}, provider, stubLoader{}, nil, nil)
	return NewSession(engine, completer, nil)
}

func TestSession_SendIncludesContext(t *testing.T) {
	matches := []search.FileMatch{{
		File: search.FileRef{Path: "core/loader.go", Language: "go"},
		Matches: []search.Match{{
			Type:    search.MatchTypeText,
			Line:    4,
			Snippet: "func NewLoader() *Loader {",
		}},
	}}
	completer := &echoCompleter{reply: "It builds a Loader."}
	session := newTestSession(stubSearch{matches: matches}, completer)

	response, err := session.Send(context.Background(), "what does NewLoader do")
	require.NoError(t, err)
	assert.Equal(t, "It builds a Loader.", response.Content)

	require.NotNil(t, completer.lastRequest)
	require.Len(t, completer.lastRequest.Messages, 1)
	prompt := completer.lastRequest.Messages[0].Content
	assert.Contains(t, prompt, "Workspace context:")
	assert.Contains(t, prompt, "core/loader.go")
	assert.Contains(t, prompt, "func NewLoader()")
	assert.True(t, strings.HasSuffix(prompt, "what does NewLoader do"))

	assert.Equal(t, 2, session.MessageCount())
}

func TestSession_SendWithoutContext(t *testing.T) {
	completer := &echoCompleter{reply: "ok"}
	session := newTestSession(stubSearch{}, completer)

	_, err := session.Send(context.Background(), "hello")
	require.NoError(t, err)

	prompt := completer.lastRequest.Messages[0].Content
	assert.Equal(t, "hello", prompt)
}

func TestSession_SendFailureDropsTurn(t *testing.T) {
	completer := &echoCompleter{err: errors.New("api down")}
	session := newTestSession(stubSearch{}, completer)

	_, err := session.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Zero(t, session.MessageCount())
}

func TestSession_Stream(t *testing.T) {
	completer := &echoCompleter{reply: "streamed reply"}
	session := newTestSession(stubSearch{}, completer)

	var deltas []string
	response, err := session.Stream(context.Background(), "hello", func(text string) {
		deltas = append(deltas, text)
	})
	require.NoError(t, err)
	assert.Equal(t, "streamed reply", response.Content)
	assert.Equal(t, []string{"streamed reply"}, deltas)
	assert.Equal(t, 2, session.MessageCount())
}

func TestSession_Reset(t *testing.T) {
	completer := &echoCompleter{reply: "ok"}
	session := newTestSession(stubSearch{}, completer)

	_, err := session.Send(context.Background(), "hello")
	require.NoError(t, err)
	require.NotZero(t, session.MessageCount())

	session.Reset()
	assert.Zero(t, session.MessageCount())
}
