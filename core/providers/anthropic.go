package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Completer over Anthropic's messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	config AnthropicConfig
}

// NewAnthropicProvider creates an Anthropic-backed Completer.
func NewAnthropicProvider(config AnthropicConfig) (*AnthropicProvider, error) {
	if config.Model == "" {
		config.Model = DefaultAnthropicConfig().Model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultAnthropicConfig().MaxTokens
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := anthropic.NewClient(opts...)

	return &AnthropicProvider{
		client: &client,
		config: config,
	}, nil
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string {
	return string(ProviderTypeAnthropic)
}

// Complete performs a non-streaming completion request.
func (p *AnthropicProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	msg, err := p.client.Messages.New(ctx, p.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic complete: %w", err)
	}
	return p.convertResponse(msg), nil
}

// StreamWithHandler performs a streaming completion request, delivering
// chunks to the handler in order.
func (p *AnthropicProvider) StreamWithHandler(ctx context.Context, req *Request, handler StreamHandler) error {
	stream := p.client.Messages.NewStreaming(ctx, p.buildParams(req))

	if err := handler(&StreamChunk{Type: ChunkTypeStart, Timestamp: time.Now()}); err != nil {
		return err
	}

	var (
		chunkIndex   int
		inputTokens  int
		outputTokens int
		stopReason   StopReason
	)

	for stream.Next() {
		event := stream.Current()
		chunkIndex++

		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				if err := handler(&StreamChunk{
					Index:     chunkIndex,
					Type:      ChunkTypeText,
					Text:      delta.Text,
					Timestamp: time.Now(),
				}); err != nil {
					return err
				}
			}
		case anthropic.MessageStartEvent:
			if ev.Message.Usage.InputTokens > 0 {
				inputTokens = int(ev.Message.Usage.InputTokens)
			}
		case anthropic.MessageDeltaEvent:
			if ev.Usage.OutputTokens > 0 {
				outputTokens = int(ev.Usage.OutputTokens)
			}
			if ev.Delta.StopReason != "" {
				stopReason = p.convertStopReason(ev.Delta.StopReason)
			}
		}
	}

	if err := stream.Err(); err != nil {
		handler(&StreamChunk{
			Index:     chunkIndex + 1,
			Type:      ChunkTypeError,
			Text:      err.Error(),
			Timestamp: time.Now(),
		})
		return fmt.Errorf("anthropic stream: %w", err)
	}

	if stopReason == "" {
		stopReason = StopReasonEndTurn
	}

	return handler(&StreamChunk{
		Index:      chunkIndex + 1,
		Type:       ChunkTypeEnd,
		StopReason: stopReason,
		Usage: &Usage{
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			TotalTokens:  inputTokens + outputTokens,
		},
		Timestamp: time.Now(),
	})
}

// buildParams constructs Anthropic API parameters from a Request.
func (p *AnthropicProvider) buildParams(req *Request) anthropic.MessageNewParams {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = p.config.SystemPrompt
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  p.convertMessages(req.Messages),
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	} else if p.config.Temperature > 0 {
		params.Temperature = anthropic.Float(p.config.Temperature)
	}

	if len(req.StopSequences) > 0 {
		params.StopSequences = req.StopSequences
	}

	return params
}

// convertMessages converts generic messages to Anthropic format. System
// messages travel in the params' System field, not the message list.
func (p *AnthropicProvider) convertMessages(messages []Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return result
}

// convertResponse converts an Anthropic response to generic format.
func (p *AnthropicProvider) convertResponse(msg *anthropic.Message) *Response {
	var content string
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += text.Text
		}
	}

	return &Response{
		Content:    content,
		Model:      string(msg.Model),
		StopReason: p.convertStopReason(msg.StopReason),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}

// convertStopReason converts an Anthropic stop reason to generic format.
func (p *AnthropicProvider) convertStopReason(reason anthropic.StopReason) StopReason {
	switch reason {
	case anthropic.StopReasonEndTurn:
		return StopReasonEndTurn
	case anthropic.StopReasonMaxTokens:
		return StopReasonMaxTokens
	case anthropic.StopReasonStopSequence:
		return StopReasonStopSequence
	default:
		return StopReasonEndTurn
	}
}
