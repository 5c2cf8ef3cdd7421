// Package chat orchestrates a conversation: each user turn is enriched with
// retrieved workspace context before being sent to the completion provider.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adalundhe/scout/core/providers"
	"github.com/adalundhe/scout/core/retrieval"
)

// MaxContextItems bounds how many retrieved items are folded into a prompt.
const MaxContextItems = 10

const systemPrompt = `You are a coding assistant with access to the user's workspace.
Relevant workspace context is included with each message. Ground your answers
in that context and say so when it is insufficient.`

// Session is one conversation with retrieval-augmented turns.
type Session struct {
	engine    *retrieval.Engine
	completer providers.Completer
	messages  []providers.Message
	logger    *slog.Logger

	// CurrentFile scopes retrieval to the file under discussion, when set.
	CurrentFile string
}

// NewSession creates a Session over the given engine and completer.
func NewSession(engine *retrieval.Engine, completer providers.Completer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		engine:    engine,
		completer: completer,
		logger:    logger,
	}
}

// Send runs one turn: retrieve context for the user's input, assemble the
// prompt, and complete. The assistant's reply joins the session transcript.
func (s *Session) Send(ctx context.Context, input string) (*providers.Response, error) {
	prompt := s.buildPrompt(ctx, input)
	s.messages = append(s.messages, providers.Message{Role: providers.RoleUser, Content: prompt})

	response, err := s.completer.Complete(ctx, &providers.Request{
		Messages:     s.messages,
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		// The failed turn stays out of the transcript.
		s.messages = s.messages[:len(s.messages)-1]
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	s.messages = append(s.messages, providers.Message{
		Role:    providers.RoleAssistant,
		Content: response.Content,
	})
	return response, nil
}

// Stream runs one turn with streaming output, invoking onText per delta.
func (s *Session) Stream(ctx context.Context, input string, onText func(string)) (*providers.Response, error) {
	prompt := s.buildPrompt(ctx, input)
	s.messages = append(s.messages, providers.Message{Role: providers.RoleUser, Content: prompt})

	response, err := providers.StreamWithCallback(ctx, s.completer, &providers.Request{
		Messages:     s.messages,
		SystemPrompt: systemPrompt,
	}, onText)
	if err != nil {
		s.messages = s.messages[:len(s.messages)-1]
		return nil, fmt.Errorf("chat stream: %w", err)
	}

	s.messages = append(s.messages, providers.Message{
		Role:    providers.RoleAssistant,
		Content: response.Content,
	})
	return response, nil
}

// MessageCount returns the transcript length.
func (s *Session) MessageCount() int {
	return len(s.messages)
}

// Reset clears the transcript without touching retrieval history.
func (s *Session) Reset() {
	s.messages = nil
}

// buildPrompt retrieves context for the input and renders the combined turn.
func (s *Session) buildPrompt(ctx context.Context, input string) string {
	analysis := s.engine.GetContext(ctx, &retrieval.ContextRequest{
		Query:          input,
		CurrentFile:    s.CurrentFile,
		WorkspaceScope: true,
	})

	s.logger.Debug("retrieved chat context",
		"query", input,
		"items", len(analysis.Items),
		"total_relevance", analysis.TotalRelevance,
	)

	if len(analysis.Items) == 0 {
		return input
	}

	var b strings.Builder
	b.WriteString("Workspace context:\n")
	for i, item := range analysis.Items {
		if i >= MaxContextItems {
			break
		}
		fmt.Fprintf(&b, "--- %s (%s", item.SourcePath, item.Kind)
		if item.Position != nil {
			fmt.Fprintf(&b, ", line %d", item.Position.Line+1)
		}
		b.WriteString(") ---\n")
		b.WriteString(item.Text)
		if !strings.HasSuffix(item.Text, "\n") {
			b.WriteByte('\n')
		}
	}
	b.WriteString("\n")
	b.WriteString(input)
	return b.String()
}
