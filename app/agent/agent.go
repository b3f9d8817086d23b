// Package agent composes the grounded prompt for a conversation and
// obtains the answer from the completion service.
package agent

import (
	"context"
	"log/slog"
	"strings"

	"docchat/model"
	"docchat/types"

	"github.com/pkoukk/tiktoken-go"
)

// ContextDelimiter separates matched segments inside the context block.
const ContextDelimiter = "\n\n---\n\n"

const instructionTemplate = `You are an assistant answering questions about a document the user uploaded.

Context retrieved from the document:
%CONTEXT%

Rules:
- Answer factual questions about the document strictly from the context above.
- For meta-tasks such as defining a term, rewriting or summarizing, you may use general knowledge while keeping the document in mind.
- Respond naturally to greetings and conversational remarks.
- Only state that information is missing when a factual question is genuinely not answered by the context.`

// BuildContext joins the matched segments, highest similarity first, into
// one context block.
func BuildContext(matches []types.Match) string {
	if len(matches) == 0 {
		return ""
	}
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = m.Content
	}
	return strings.Join(parts, ContextDelimiter)
}

// Answer submits the system instruction followed by the full transcript to
// the completion service. An empty context block is not an error: the
// instruction tells the model to say nothing relevant was found.
func Answer(ctx context.Context, completer model.Completer, contextBlock string, history []types.Message) (string, error) {
	if contextBlock == "" {
		contextBlock = "(no relevant content found)"
	}
	instruction := strings.Replace(instructionTemplate, "%CONTEXT%", contextBlock, 1)

	messages := make([]types.Message, 0, len(history)+1)
	messages = append(messages, types.Message{Role: types.RoleSystem, Content: instruction})
	messages = append(messages, history...)

	if count, err := countTokens(messages); err == nil {
		slog.Debug("submitting prompt", "messages", len(messages), "tokens", count)
	}

	return completer.Complete(ctx, messages)
}

func countTokens(messages []types.Message) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	total := 0
	for _, m := range messages {
		total += len(enc.Encode(m.Content, nil, nil))
	}
	return total, nil
}
