package model

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder converts text into a fixed-length vector.
// Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type openAIEmbedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

var (
	embedderOnce   sync.Once
	sharedEmbedder Embedder
	sharedErr      error
)

// SharedEmbedder returns the process-wide embedder, constructing it on
// first use. Concurrent first callers wait on a single initialization;
// a failed attempt is reported to every waiter and never retried.
func SharedEmbedder() (Embedder, error) {
	embedderOnce.Do(func() {
		sharedEmbedder, sharedErr = newOpenAIEmbedder(
			os.Getenv("EMBEDDING_BASE_URL"),
			os.Getenv("EMBEDDING_MODEL"),
			os.Getenv("EMBEDDING_API_KEY"),
		)
	})
	return sharedEmbedder, sharedErr
}

func newOpenAIEmbedder(baseURL, embedModel, token string) (Embedder, error) {
	if token == "" {
		// Local OpenAI-compatible services accept any token.
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(embedModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("wrap embedder: %w", err)
	}

	logger := slog.Default().With("component", "embedder")
	logger.Info("embedding client ready", "model", embedModel)
	return &openAIEmbedder{
		embedder: embedder,
		logger:   logger,
	}, nil
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("embedding failed", "length", len(text), "err", err)
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned empty result")
	}
	return vectors[0], nil
}
