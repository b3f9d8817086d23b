// Package lead derives structured contact fields from document text and
// forwards them to an external record service, skipping duplicates.
package lead

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"docchat/model"
	"docchat/types"
)

const (
	// SentinelEmail marks an extraction attempt that produced nothing
	// usable. Leads carrying it are never forwarded.
	SentinelEmail = "unknown@example.com"

	// maxPromptChars bounds extraction cost to the document's head.
	maxPromptChars = 3000
)

const extractionPrompt = `Extract the following details from the document text below.
Return ONLY a raw JSON object. Do not add markdown formatting.
Fields: "name", "email", "company" (current or last company), "summary" (3 sentences).

Document Text:
%s`

// Extraction is the tagged result of an extraction attempt. Fallback is
// true when the model output could not be parsed and the sentinel lead was
// substituted; extraction failure is never an error.
type Extraction struct {
	Lead     types.Lead
	Fallback bool
}

type Extractor struct {
	completer model.Completer
	logger    *slog.Logger
}

func NewExtractor(completer model.Completer) *Extractor {
	return &Extractor{
		completer: completer,
		logger:    slog.Default().With("component", "extractor"),
	}
}

// Extract asks the completion service for the lead fields of the document.
// Any failure, from the completion call to unparseable output, degrades to
// the sentinel fallback instead of escalating past this boundary.
func (e *Extractor) Extract(ctx context.Context, text string) Extraction {
	prompt := fmt.Sprintf(extractionPrompt, truncate(text, maxPromptChars))

	out, err := e.completer.Complete(ctx, []types.Message{{Role: types.RoleUser, Content: prompt}})
	if err != nil {
		e.logger.Warn("extraction completion failed, using defaults", "err", err)
		return fallbackExtraction()
	}

	raw := ExtractJSON(out)
	if raw == "" {
		e.logger.Warn("no JSON object in extraction output, using defaults")
		return fallbackExtraction()
	}

	var lead types.Lead
	if err := json.Unmarshal([]byte(raw), &lead); err != nil {
		e.logger.Warn("extraction output not parseable, using defaults", "err", err)
		return fallbackExtraction()
	}
	return Extraction{Lead: lead}
}

func fallbackExtraction() Extraction {
	return Extraction{
		Lead: types.Lead{
			Name:  "Unknown",
			Email: SentinelEmail,
		},
		Fallback: true,
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
