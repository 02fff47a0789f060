package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/draana/whatsbot/internal/config"
	"github.com/draana/whatsbot/internal/model/conversation"
)

// Service generates assistant replies from the configured chat model.
type Service struct {
	chatModel    model.ChatModel
	systemPrompt string
}

// NewService builds the chat model from cfg and loads the persona prompt once.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	return &Service{
		chatModel:    chatModel,
		systemPrompt: LoadSystemPrompt(cfg.PromptPath),
	}, nil
}

// BuildMessages composes the completion window: persona prompt first, the
// stored history oldest first, then the current user message. The current
// message is appended here and must not already be part of history.
func BuildMessages(systemPrompt string, history []conversation.Turn, userMessage string) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(systemPrompt))

	for _, turn := range history {
		switch turn.Role {
		case conversation.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case conversation.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}

	return append(messages, schema.UserMessage(userMessage))
}

// Generate runs one completion for the session window. The model client
// enforces the request timeout; an empty completion is an error.
func (s *Service) Generate(ctx context.Context, history []conversation.Turn, userMessage string) (string, error) {
	messages := BuildMessages(s.systemPrompt, history, userMessage)

	response, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("run completion: %w", err)
	}
	if response == nil {
		return "", fmt.Errorf("completion returned no message")
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		return "", fmt.Errorf("completion returned empty content")
	}

	log.Printf("[ai] generated reply, history=%d, length=%d", len(history), len(content))
	return content, nil
}
