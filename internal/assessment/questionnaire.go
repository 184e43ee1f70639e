package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"videoquiz/internal/models"
)

// ErrGenerationFailed is returned when the LLM could not produce a questionnaire.
// Callers must surface it rather than fall back to an empty questionnaire.
var ErrGenerationFailed = errors.New("generation_failed")

// ErrEmptySummary is returned when there is nothing to build questions from.
var ErrEmptySummary = errors.New("summary is empty")

type Generator struct {
	llm   Completer
	model string
}

func NewGenerator(llm Completer, model string) *Generator {
	return &Generator{llm: llm, model: model}
}

// Generate requests a markdown quiz for the summary and parses it.
func (g *Generator) Generate(ctx context.Context, summary string) (*models.Questionnaire, error) {
	if strings.TrimSpace(summary) == "" {
		return nil, ErrEmptySummary
	}

	text, err := g.llm.Complete(ctx, g.model, buildQuestionnairePrompt(summary))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	q := ParseQuestionnaire(text)
	return &q, nil
}
