package api

import (
	"context"
	"log/slog"

	"docchat/app/agent"
	"docchat/model"
	"docchat/store"
	"docchat/types"

	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	embedder  model.Embedder
	index     store.VectorIndex
	completer model.Completer
	topK      int
	logger    *slog.Logger
}

func NewChatHandler(embedder model.Embedder, index store.VectorIndex, completer model.Completer, topK int) *ChatHandler {
	if topK <= 0 {
		topK = 5
	}
	return &ChatHandler{
		embedder:  embedder,
		index:     index,
		completer: completer,
		topK:      topK,
		logger:    slog.Default().With("component", "chat-handler"),
	}
}

// HandleChat answers the transcript's final message from segments indexed
// under the session id. Conversation state belongs to the caller; a failed
// request invalidates nothing.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var params types.ChatParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	question := params.Messages[len(params.Messages)-1].Content
	h.logger.Info("chat question", "session", params.SessionID, "turns", len(params.Messages))

	vector, err := h.embedder.Embed(context.Background(), question)
	if err != nil {
		return err
	}

	matches, err := h.index.Search(context.Background(), vector, h.topK, params.SessionID)
	if err != nil {
		return err
	}

	answer, err := agent.Answer(context.Background(), h.completer, agent.BuildContext(matches), params.Messages)
	if err != nil {
		return err
	}

	sources := make([]types.Source, len(matches))
	for i, m := range matches {
		sources[i] = types.Source{
			ID:        m.ID,
			ChunkText: m.Content,
			Score:     m.Score,
		}
	}

	return c.JSON(types.ChatResponse{
		Answer:  answer,
		Sources: sources,
	})
}
