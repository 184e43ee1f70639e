package assessment

import (
	"fmt"
	"strings"

	"videoquiz/internal/models"
)

// SummaryPrompt is prepended to the transcript text sent for summarization
const SummaryPrompt = "You are an expert summarizer. Given the following YouTube transcript, summarize what the video is about " +
	"in 4-6 bullet points. Be concise, insightful, and avoid unnecessary fluff.\n\n"

// QuestionnairePrompt asks for markdown in the layout ParseQuestionnaire understands
const QuestionnairePrompt = `You are an academic instructor creating a questionnaire from a video summary.

Guidelines:
- Dynamically decide the number and type of questions based on the length and complexity of the summary.
- Randomly mix question types:
   • Multiple Choice (MCQ) (4 options, one correct)
   • Short Answer (1–2 sentence response)
   • Long Answer (explanatory/analytical)
- Return markdown with headers:
   ` + headerMCQ + `
   ` + headerShort + `
   ` + headerLong + `
- Format:
   **Q1:** What is ...?
   - (a) Option A
   - (b) Option B
   - (c) Option C
   - (d) Option D

Summary:
`

// EvaluationPrompt is the grading preamble; question blocks are appended to it
const EvaluationPrompt = `You are a grading assistant.

Evaluate the following questionnaire responses. For each question:
- If MCQ: mark if the answer is correct and mention the correct option.
- If Short/Long Answer: assess clarity, correctness, depth, and give constructive feedback.
- Provide a score out of 10 for each question and optionally a comment.

Return an array of JSON objects like:
[
  {
    "questionId": "...",
    "type": "mcq" | "short" | "long",
    "question": "...",
    "answer": "...",
    "correctOption": "a",
    "isCorrect": true,
    "score": 8,
    "feedback": "..."
  }
]

Questions and answers:
`

func buildSummaryPrompt(content string) string {
	return SummaryPrompt + content
}

func buildQuestionnairePrompt(summary string) string {
	return QuestionnairePrompt + summary
}

// BuildEvaluationPrompt renders every question with its options and the first
// matching answer. A question with no answer is graded against an empty string.
func BuildEvaluationPrompt(questions []models.Question, answers []models.Answer) string {
	var sb strings.Builder
	sb.WriteString(EvaluationPrompt)

	for _, q := range questions {
		ans := ""
		for _, a := range answers {
			if a.QuestionID == q.ID {
				ans = a.Answer
				break
			}
		}
		fmt.Fprintf(&sb, "\nQ: %s\n", q.Question)
		if q.Type == models.QuestionTypeMCQ {
			for _, o := range q.Options {
				fmt.Fprintf(&sb, "- (%s) %s\n", o.ID, o.Text)
			}
		}
		fmt.Fprintf(&sb, "A: %s\n", ans)
	}
	return sb.String()
}
