// Package providers adapts third-party LLM APIs behind a single completion
// interface consumed by the chat layer.
package providers

import (
	"context"
	"time"
)

// Role identifies a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request describes one completion call.
type Request struct {
	// Messages is the conversation so far.
	Messages []Message `json:"messages"`

	// Model overrides the provider's configured model.
	Model string `json:"model,omitempty"`

	// MaxTokens caps the generated output.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature overrides the configured sampling temperature.
	Temperature *float64 `json:"temperature,omitempty"`

	// StopSequences end generation early.
	StopSequences []string `json:"stop_sequences,omitempty"`

	// SystemPrompt prefixes the conversation.
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// StopReason explains why generation ended.
type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
	StopReasonError        StopReason = "error"
)

// Usage is the token accounting for one completion.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response is one completed generation.
type Response struct {
	Content    string     `json:"content"`
	Model      string     `json:"model"`
	StopReason StopReason `json:"stop_reason"`
	Usage      Usage      `json:"usage"`
}

// ChunkType identifies what a stream chunk carries.
type ChunkType string

const (
	ChunkTypeStart ChunkType = "start"
	ChunkTypeText  ChunkType = "text"
	ChunkTypeEnd   ChunkType = "end"
	ChunkTypeError ChunkType = "error"
)

// StreamChunk is one increment of a streaming response. Usage and StopReason
// are populated on the end chunk.
type StreamChunk struct {
	Index      int        `json:"index"`
	Type       ChunkType  `json:"type"`
	Text       string     `json:"text,omitempty"`
	StopReason StopReason `json:"stop_reason,omitempty"`
	Usage      *Usage     `json:"usage,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// StreamHandler receives chunks in order. Returning an error aborts the
// stream.
type StreamHandler func(chunk *StreamChunk) error

// Completer is the completion capability the chat layer consumes.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req *Request) (*Response, error)
	StreamWithHandler(ctx context.Context, req *Request, handler StreamHandler) error
}
