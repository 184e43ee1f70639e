package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"videoquiz/internal/chunker"
	"videoquiz/internal/models"
)

const (
	NoContentSummary = "No content to summarize."
	FailedSummary    = "Failed to generate summary due to an internal error."
)

var (
	ErrNoContent     = errors.New("no content to summarize")
	ErrSummaryFailed = errors.New("summary generation failed")
)

type Summarizer struct {
	llm   Completer
	model string
}

func NewSummarizer(llm Completer, model string) *Summarizer {
	return &Summarizer{llm: llm, model: model}
}

// Summarize joins the chunks with blank lines and asks the LLM for a bullet
// summary. Empty input returns ErrNoContent without contacting the LLM; any
// LLM failure is wrapped in ErrSummaryFailed.
func (s *Summarizer) Summarize(ctx context.Context, chunks []models.TranscriptChunk) (string, error) {
	content := chunker.Join(chunks, "\n\n")
	if strings.TrimSpace(content) == "" {
		return "", ErrNoContent
	}

	text, err := s.llm.Complete(ctx, s.model, buildSummaryPrompt(content))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSummaryFailed, err)
	}
	return text, nil
}

// SummaryText maps a Summarize outcome onto the legacy display strings.
func SummaryText(summary string, err error) string {
	switch {
	case err == nil:
		return summary
	case errors.Is(err, ErrNoContent):
		return NoContentSummary
	default:
		return FailedSummary
	}
}
