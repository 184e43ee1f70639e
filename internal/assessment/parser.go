package assessment

import (
	"fmt"
	"regexp"
	"strings"

	"videoquiz/internal/models"
)

const (
	headerMCQ   = "### Multiple Choice Questions"
	headerShort = "### Short Answer Questions"
	headerLong  = "### Long Answer Questions"

	QuestionnaireTitle       = "Auto-Generated Questionnaire"
	QuestionnaireDescription = "Answer the following questions based on the video summary."
)

var (
	questionMarker = regexp.MustCompile(`\*\*Q\d+:\*\*`)
	optionLine     = regexp.MustCompile(`^- \((.)\)\s*(.+)`)
)

// ParseQuestionnaire scans LLM markdown line by line. Section headers set the
// type of the questions that follow; a line starting with "**Q" opens a new
// question; "- (x) text" lines add options while inside the multiple choice
// section. Everything else is ignored. Question ids are q1, q2, ... in order of
// appearance regardless of section.
func ParseQuestionnaire(markdown string) models.Questionnaire {
	questions := []models.Question{}
	section := models.QuestionTypeUnknown
	var current *models.Question
	counter := 1

	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, headerMCQ):
			section = models.QuestionTypeMCQ
		case strings.HasPrefix(line, headerShort):
			section = models.QuestionTypeShort
		case strings.HasPrefix(line, headerLong):
			section = models.QuestionTypeLong
		case strings.HasPrefix(line, "**Q"):
			if current != nil {
				questions = append(questions, *current)
			}
			current = &models.Question{
				ID:       fmt.Sprintf("q%d", counter),
				Type:     section,
				Question: strings.TrimSpace(questionMarker.ReplaceAllString(line, "")),
				Required: true,
			}
			if section == models.QuestionTypeMCQ {
				current.Options = []models.Option{}
			}
			counter++
		case section == models.QuestionTypeMCQ:
			m := optionLine.FindStringSubmatch(line)
			// options before the first question have nowhere to go
			if m == nil || current == nil || current.Options == nil {
				continue
			}
			current.Options = append(current.Options, models.Option{
				ID:   current.ID + strings.ToLower(strings.TrimSpace(m[1])),
				Text: strings.TrimSpace(m[2]),
			})
		}
	}

	if current != nil {
		questions = append(questions, *current)
	}

	return models.Questionnaire{
		Title:       QuestionnaireTitle,
		Description: QuestionnaireDescription,
		Questions:   questions,
	}
}
