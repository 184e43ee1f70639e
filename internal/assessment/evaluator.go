package assessment

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"videoquiz/internal/logger"
	"videoquiz/internal/models"
)

const (
	minScore = 0
	maxScore = 10
)

type Evaluator struct {
	llm   Completer
	model string
	log   *logger.Logger
}

func NewEvaluator(llm Completer, model string, log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &Evaluator{llm: llm, model: model, log: log}
}

// Evaluate grades all answers in one LLM call. It never fails: an LLM error or
// unparseable output yields an empty slice, and entries that are not objects
// are skipped. Unreadable scores become 0.
func (e *Evaluator) Evaluate(ctx context.Context, q models.Questionnaire, answers []models.Answer) []models.EvaluationResult {
	results := []models.EvaluationResult{}
	if len(q.Questions) == 0 {
		return results
	}

	text, err := e.llm.Complete(ctx, e.model, BuildEvaluationPrompt(q.Questions, answers))
	if err != nil {
		e.log.Error("answer evaluation failed", "error", err)
		return results
	}

	return parseEvaluation(text, e.log)
}

func parseEvaluation(text string, log *logger.Logger) []models.EvaluationResult {
	results := []models.EvaluationResult{}

	raw, ok := ExtractJSONArray(text)
	if !ok {
		log.Warn("no JSON array in evaluation response")
		return results
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Warn("evaluation response is not an array", "error", err)
		return results
	}

	for i, item := range items {
		var entry evaluationEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			log.Warn("skipping malformed evaluation entry", "index", i, "error", err)
			continue
		}
		score, ok := parseScore(entry.Score)
		if !ok {
			log.Warn("unreadable evaluation score", "index", i, "score", string(entry.Score))
		}
		r := entry.EvaluationResult
		r.Score = clampScore(score)
		results = append(results, r)
	}
	return results
}

// evaluationEntry shadows Score so that models may answer "7" or "7/10"
// instead of a bare number.
type evaluationEntry struct {
	models.EvaluationResult
	Score json.RawMessage `json:"score"`
}

var leadingNumber = regexp.MustCompile(`^[-+]?\d+(\.\d+)?`)

// parseScore reads a JSON number or a string starting with one. A missing or
// unreadable score is 0.
func parseScore(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, true
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func clampScore(s float64) float64 {
	if s < minScore {
		return minScore
	}
	if s > maxScore {
		return maxScore
	}
	return s
}
