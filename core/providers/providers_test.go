package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseConfig_Validate(t *testing.T) {
	valid := DefaultBaseConfig()
	valid.APIKey = "key"
	assert.NoError(t, valid.Validate())

	missing := DefaultBaseConfig()
	assert.Error(t, missing.Validate())

	badTemp := DefaultBaseConfig()
	badTemp.APIKey = "key"
	badTemp.Temperature = 3.0
	assert.Error(t, badTemp.Validate())
}

func TestOpenAIConfig_Validate(t *testing.T) {
	config := DefaultOpenAIConfig()
	config.APIKey = "key"
	assert.NoError(t, config.Validate())

	config.ReasoningEffort = "extreme"
	assert.Error(t, config.Validate())

	config.ReasoningEffort = "high"
	assert.NoError(t, config.Validate())
}

func TestNewAnthropicProvider_Defaults(t *testing.T) {
	provider, err := NewAnthropicProvider(AnthropicConfig{
		BaseConfig: BaseConfig{APIKey: "key", Temperature: 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", provider.Name())
	assert.Equal(t, DefaultAnthropicConfig().Model, provider.config.Model)
	assert.Equal(t, DefaultAnthropicConfig().MaxTokens, provider.config.MaxTokens)
}

func TestNewAnthropicProvider_MissingKey(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{})
	assert.Error(t, err)
}

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	provider, err := NewOpenAIProvider(OpenAIConfig{
		BaseConfig: BaseConfig{APIKey: "key", Temperature: 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", provider.Name())
	assert.Equal(t, DefaultOpenAIConfig().Model, provider.config.Model)
}

func TestStreamAccumulator(t *testing.T) {
	accumulator := NewStreamAccumulator()

	chunks := []*StreamChunk{
		{Type: ChunkTypeStart, Timestamp: time.Now()},
		{Type: ChunkTypeText, Text: "Hello, "},
		{Type: ChunkTypeText, Text: "world."},
		{
			Type:       ChunkTypeEnd,
			StopReason: StopReasonEndTurn,
			Usage:      &Usage{InputTokens: 12, OutputTokens: 4, TotalTokens: 16},
		},
	}
	for _, chunk := range chunks {
		accumulator.Add(chunk)
	}

	assert.Equal(t, 4, accumulator.ChunkCount())
	assert.Equal(t, "Hello, world.", accumulator.Text())

	response := accumulator.Response()
	assert.Equal(t, "Hello, world.", response.Content)
	assert.Equal(t, StopReasonEndTurn, response.StopReason)
	assert.Equal(t, 16, response.Usage.TotalTokens)
}

// scriptedCompleter replays a fixed chunk sequence.
type scriptedCompleter struct {
	chunks []*StreamChunk
	err    error
}

func (s *scriptedCompleter) Name() string { return "scripted" }

func (s *scriptedCompleter) Complete(_ context.Context, _ *Request) (*Response, error) {
	return nil, errors.New("not implemented")
}

func (s *scriptedCompleter) StreamWithHandler(_ context.Context, _ *Request, handler StreamHandler) error {
	for _, chunk := range s.chunks {
		if err := handler(chunk); err != nil {
			return err
		}
	}
	return s.err
}

func TestStreamWithCallback(t *testing.T) {
	completer := &scriptedCompleter{chunks: []*StreamChunk{
		{Type: ChunkTypeStart},
		{Type: ChunkTypeText, Text: "a"},
		{Type: ChunkTypeText, Text: "b"},
		{Type: ChunkTypeEnd, StopReason: StopReasonEndTurn, Usage: &Usage{TotalTokens: 2}},
	}}

	var deltas []string
	response, err := StreamWithCallback(context.Background(), completer, &Request{}, func(text string) {
		deltas = append(deltas, text)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, deltas)
	assert.Equal(t, "ab", response.Content)
	assert.Equal(t, 2, response.Usage.TotalTokens)
}

func TestStreamWithCallback_Error(t *testing.T) {
	completer := &scriptedCompleter{err: errors.New("stream broke")}

	_, err := StreamWithCallback(context.Background(), completer, &Request{}, nil)
	assert.Error(t, err)
}
