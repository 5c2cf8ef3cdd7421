package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// OpenAIProvider implements Completer over OpenAI's responses API.
type OpenAIProvider struct {
	client *openai.Client
	config OpenAIConfig
}

// NewOpenAIProvider creates an OpenAI-backed Completer.
func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	if config.Model == "" {
		config.Model = DefaultOpenAIConfig().Model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultOpenAIConfig().MaxTokens
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
	if config.Organization != "" {
		opts = append(opts, option.WithHeader("OpenAI-Organization", config.Organization))
	}

	client := openai.NewClient(opts...)

	return &OpenAIProvider{
		client: &client,
		config: config,
	}, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return string(ProviderTypeOpenAI)
}

// Complete performs a non-streaming completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	result, err := p.client.Responses.New(ctx, p.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("openai complete: %w", err)
	}
	return p.convertResponse(result), nil
}

// StreamWithHandler performs a streaming completion request, delivering
// chunks to the handler in order.
func (p *OpenAIProvider) StreamWithHandler(ctx context.Context, req *Request, handler StreamHandler) error {
	stream := p.client.Responses.NewStreaming(ctx, p.buildParams(req))

	if err := handler(&StreamChunk{Type: ChunkTypeStart, Timestamp: time.Now()}); err != nil {
		return err
	}

	var (
		chunkIndex int
		usage      *Usage
		stopReason StopReason
	)

	for stream.Next() {
		event := stream.Current()
		chunkIndex++

		switch ev := event.AsAny().(type) {
		case responses.ResponseTextDeltaEvent:
			if ev.Delta == "" {
				continue
			}
			if err := handler(&StreamChunk{
				Index:     chunkIndex,
				Type:      ChunkTypeText,
				Text:      ev.Delta,
				Timestamp: time.Now(),
			}); err != nil {
				return err
			}
		case responses.ResponseCompletedEvent:
			converted := p.convertUsage(ev.Response)
			usage = &converted
			stopReason = p.convertStopReason(ev.Response)
		case responses.ResponseIncompleteEvent:
			converted := p.convertUsage(ev.Response)
			usage = &converted
			stopReason = p.convertIncompleteReason(ev.Response.IncompleteDetails.Reason)
		case responses.ResponseErrorEvent:
			handler(&StreamChunk{
				Index:     chunkIndex,
				Type:      ChunkTypeError,
				Text:      ev.Message,
				Timestamp: time.Now(),
			})
			return fmt.Errorf("openai stream: %s", ev.Message)
		}
	}

	if err := stream.Err(); err != nil {
		handler(&StreamChunk{
			Index:     chunkIndex + 1,
			Type:      ChunkTypeError,
			Text:      err.Error(),
			Timestamp: time.Now(),
		})
		return fmt.Errorf("openai stream: %w", err)
	}

	if usage == nil {
		usage = &Usage{}
	}
	if stopReason == "" {
		stopReason = StopReasonEndTurn
	}

	return handler(&StreamChunk{
		Index:      chunkIndex + 1,
		Type:       ChunkTypeEnd,
		StopReason: stopReason,
		Usage:      usage,
		Timestamp:  time.Now(),
	})
}

// buildParams constructs OpenAI API parameters from a Request.
func (p *OpenAIProvider) buildParams(req *Request) responses.ResponseNewParams {
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

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: p.convertMessages(req.Messages, systemPrompt),
		},
		MaxOutputTokens: openai.Int(int64(maxTokens)),
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	} else if p.config.Temperature > 0 {
		params.Temperature = openai.Float(p.config.Temperature)
	}

	if p.config.ReasoningEffort != "" {
		params.Reasoning = shared.ReasoningParam{
			Effort: shared.ReasoningEffort(p.config.ReasoningEffort),
		}
	}

	return params
}

// convertMessages converts generic messages to the responses input format.
func (p *OpenAIProvider) convertMessages(messages []Message, systemPrompt string) responses.ResponseInputParam {
	result := make(responses.ResponseInputParam, 0, len(messages)+1)

	if systemPrompt != "" {
		result = append(result, responses.ResponseInputItemParamOfMessage(systemPrompt, responses.EasyInputMessageRoleSystem))
	}

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			result = append(result, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleSystem))
		case RoleUser:
			result = append(result, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleUser))
		case RoleAssistant:
			result = append(result, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleAssistant))
		}
	}

	return result
}

// convertResponse converts an OpenAI response to generic format.
func (p *OpenAIProvider) convertResponse(result *responses.Response) *Response {
	if result == nil {
		return &Response{StopReason: StopReasonError}
	}

	return &Response{
		Content:    result.OutputText(),
		Model:      string(result.Model),
		StopReason: p.convertStopReason(*result),
		Usage:      p.convertUsage(*result),
	}
}

func (p *OpenAIProvider) convertUsage(result responses.Response) Usage {
	return Usage{
		InputTokens:  int(result.Usage.InputTokens),
		OutputTokens: int(result.Usage.OutputTokens),
		TotalTokens:  int(result.Usage.TotalTokens),
	}
}

func (p *OpenAIProvider) convertStopReason(result responses.Response) StopReason {
	if result.IncompleteDetails.Reason != "" {
		return p.convertIncompleteReason(result.IncompleteDetails.Reason)
	}
	if result.Error.Message != "" {
		return StopReasonError
	}
	return StopReasonEndTurn
}

func (p *OpenAIProvider) convertIncompleteReason(reason string) StopReason {
	switch reason {
	case "max_output_tokens":
		return StopReasonMaxTokens
	case "content_filter":
		return StopReasonError
	default:
		return StopReasonEndTurn
	}
}
