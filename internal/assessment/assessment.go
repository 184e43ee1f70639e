// Package assessment turns transcripts into summaries, summaries into
// questionnaires, and answered questionnaires into graded results, using an
// LLM for the heavy lifting.
package assessment

import "context"

// Completer is the single-shot text completion capability of an LLM.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}
