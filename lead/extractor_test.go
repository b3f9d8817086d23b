package lead

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"docchat/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCompleter returns a canned response and records the last prompt.
type stubCompleter struct {
	response string
	err      error
	prompt   string
}

func (c *stubCompleter) Complete(_ context.Context, messages []types.Message) (string, error) {
	c.prompt = messages[len(messages)-1].Content
	return c.response, c.err
}

func TestExtractParsesFencedJSON(t *testing.T) {
	completer := &stubCompleter{
		response: "```json\n{\"name\":\"A\",\"email\":\"a@b.com\",\"company\":\"C\",\"summary\":\"S\"}\n```",
	}
	e := NewExtractor(completer)

	result := e.Extract(context.Background(), "some document text")
	assert.False(t, result.Fallback)
	assert.Equal(t, types.Lead{Name: "A", Email: "a@b.com", Company: "C", Summary: "S"}, result.Lead)
}

func TestExtractFallbackOnGarbage(t *testing.T) {
	e := NewExtractor(&stubCompleter{response: "sorry, I can't help with that"})

	result := e.Extract(context.Background(), "text")
	assert.True(t, result.Fallback)
	assert.Equal(t, "Unknown", result.Lead.Name)
	assert.Equal(t, SentinelEmail, result.Lead.Email)
}

func TestExtractFallbackOnInvalidJSON(t *testing.T) {
	e := NewExtractor(&stubCompleter{response: `{"name": broken`})

	result := e.Extract(context.Background(), "text")
	assert.True(t, result.Fallback)
	assert.Equal(t, SentinelEmail, result.Lead.Email)
}

func TestExtractFallbackOnCompletionError(t *testing.T) {
	e := NewExtractor(&stubCompleter{err: fmt.Errorf("service down")})

	result := e.Extract(context.Background(), "text")
	assert.True(t, result.Fallback)
	assert.Equal(t, SentinelEmail, result.Lead.Email)
}

func TestExtractTruncatesDocument(t *testing.T) {
	completer := &stubCompleter{response: `{"name":"A","email":"a@b.com"}`}
	e := NewExtractor(completer)

	e.Extract(context.Background(), strings.Repeat("z", 10*maxPromptChars))
	require.NotEmpty(t, completer.prompt)
	assert.LessOrEqual(t, strings.Count(completer.prompt, "z"), maxPromptChars)
}
