package models

// TranscriptChunk is a word-bounded slice of a transcript sized for LLM input
type TranscriptChunk struct {
	ChunkID int    `json:"chunk_id"`
	Content string `json:"content"`
}

// HistoryRecord associates a video with its transcript, summary and title.
// There is at most one record per VideoID.
type HistoryRecord struct {
	VideoID    string  `json:"videoId"`
	Timestamp  float64 `json:"timestamp"` // epoch seconds
	Transcript string  `json:"transcript"`
	Summary    string  `json:"summary"`
	Title      string  `json:"title"`
}

// QuestionType tags a question with the section it was generated under
type QuestionType string

const (
	QuestionTypeMCQ   QuestionType = "mcq"
	QuestionTypeShort QuestionType = "short"
	QuestionTypeLong  QuestionType = "long"
	// QuestionTypeUnknown is used for questions that appear before any section header.
	QuestionTypeUnknown QuestionType = "unknown"
)

// Question represents a question in a questionnaire.
// Options is non-nil only for multiple choice questions.
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Question string       `json:"question"`
	Options  []Option     `json:"options"`
	Required bool         `json:"required"`
}

// Option represents an answer option for a multiple choice question
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Questionnaire is a generated set of questions derived from a summary
type Questionnaire struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Answer is a user's response to a single question
type Answer struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

// EvaluationResult is the LLM's grading of one answered question
type EvaluationResult struct {
	QuestionID    string       `json:"questionId"`
	Type          QuestionType `json:"type"`
	Question      string       `json:"question"`
	Answer        string       `json:"answer"`
	CorrectOption *string      `json:"correctOption,omitempty"`
	IsCorrect     *bool        `json:"isCorrect,omitempty"`
	Score         float64      `json:"score"`
	Feedback      string       `json:"feedback"`
}
