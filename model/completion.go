package model

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"docchat/types"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Completer generates a text completion from an ordered list of
// role-tagged messages.
type Completer interface {
	Complete(ctx context.Context, messages []types.Message) (string, error)
}

type chatCompleter struct {
	client llms.Model
	logger *slog.Logger
}

// NewCompleter builds a chat completion client for the OpenAI-compatible
// endpoint configured by LLM_BASE_URL / LLM_MODEL / LLM_API_KEY.
func NewCompleter() (Completer, error) {
	token := os.Getenv("LLM_API_KEY")
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(os.Getenv("LLM_BASE_URL")),
		openai.WithToken(token),
		openai.WithModel(os.Getenv("LLM_MODEL")),
	)
	if err != nil {
		return nil, fmt.Errorf("create completion client: %w", err)
	}

	return &chatCompleter{
		client: client,
		logger: slog.Default().With("component", "completer"),
	}, nil
}

func (c *chatCompleter) Complete(ctx context.Context, messages []types.Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case types.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case types.RoleAssistant:
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		})
	}

	response, err := c.client.GenerateContent(ctx, content)
	if err != nil {
		c.logger.Error("completion failed", "messages", len(messages), "err", err)
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return response.Choices[0].Content, nil
}
