package providers

import (
	"context"
	"strings"
	"sync"
	"time"
)

// StreamAccumulator collects streaming chunks into a complete response.
type StreamAccumulator struct {
	mu sync.Mutex

	chunkCount int
	text       strings.Builder
	usage      Usage
	stopReason StopReason
	model      string

	startTime time.Time
	endTime   time.Time
}

// NewStreamAccumulator creates an empty accumulator.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{startTime: time.Now()}
}

// Add accumulates a chunk.
func (a *StreamAccumulator) Add(chunk *StreamChunk) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.chunkCount++

	switch chunk.Type {
	case ChunkTypeText:
		a.text.WriteString(chunk.Text)
	case ChunkTypeEnd:
		a.endTime = time.Now()
		if chunk.Usage != nil {
			a.usage = *chunk.Usage
		}
		if chunk.StopReason != "" {
			a.stopReason = chunk.StopReason
		}
	}
}

// Handler returns a StreamHandler that accumulates every chunk.
func (a *StreamAccumulator) Handler() StreamHandler {
	return func(chunk *StreamChunk) error {
		a.Add(chunk)
		return nil
	}
}

// Response builds the final response from the accumulated chunks.
func (a *StreamAccumulator) Response() *Response {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &Response{
		Content:    a.text.String(),
		Model:      a.model,
		StopReason: a.stopReason,
		Usage:      a.usage,
	}
}

// Text returns the accumulated text so far.
func (a *StreamAccumulator) Text() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.text.String()
}

// ChunkCount returns the number of chunks received.
func (a *StreamAccumulator) ChunkCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chunkCount
}

// StreamWithCallback streams a completion, invoking onText for each text
// delta, and returns the accumulated response.
func StreamWithCallback(
	ctx context.Context,
	completer Completer,
	req *Request,
	onText func(text string),
) (*Response, error) {
	accumulator := NewStreamAccumulator()

	err := completer.StreamWithHandler(ctx, req, func(chunk *StreamChunk) error {
		accumulator.Add(chunk)
		if chunk.Type == ChunkTypeText && onText != nil {
			onText(chunk.Text)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return accumulator.Response(), nil
}
