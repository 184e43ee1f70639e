// Package pipeline orchestrates transcript fetching, chunking, summarizing,
// questionnaire generation and answer evaluation on top of the history and
// chunk stores.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"videoquiz/internal/apperr"
	"videoquiz/internal/assessment"
	"videoquiz/internal/chunker"
	"videoquiz/internal/chunkstore"
	"videoquiz/internal/logger"
	"videoquiz/internal/models"
	"videoquiz/internal/youtube"
)

// Summary outcomes.
const (
	StatusOK     = "ok"
	StatusEmpty  = "empty"
	StatusFailed = "failed"
)

type TranscriptProvider interface {
	FetchTranscript(ctx context.Context, videoID string) ([]youtube.Segment, error)
}

type HistoryStore interface {
	ReadAll() []models.HistoryRecord
	Get(videoID string) (models.HistoryRecord, bool)
	Upsert(ctx context.Context, rec models.HistoryRecord) error
}

type ChunkStore interface {
	Save(set *chunkstore.Set) error
	SaveAsync(set *chunkstore.Set)
	Load(ctx context.Context, sessionID string) (*chunkstore.Set, error)
	Remove(set *chunkstore.Set) error
	Sweep(cutoff time.Time) (int, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, chunks []models.TranscriptChunk) (string, error)
}

type QuestionGenerator interface {
	Generate(ctx context.Context, summary string) (*models.Questionnaire, error)
}

type AnswerEvaluator interface {
	Evaluate(ctx context.Context, q models.Questionnaire, answers []models.Answer) []models.EvaluationResult
}

// Deps wires the pipeline to its collaborators. Titles may be nil.
type Deps struct {
	Transcripts TranscriptProvider
	Titles      youtube.TitleFetcher
	History     HistoryStore
	Chunks      ChunkStore
	Summarizer  Summarizer
	Generator   QuestionGenerator
	Evaluator   AnswerEvaluator
	Log         *logger.Logger

	MaxWords  int
	AsyncSave bool
	Now       func() time.Time

	// ChunkTTL bounds how long unsummarized chunk sets are kept. Zero keeps
	// them until summarized.
	ChunkTTL time.Duration
}

type Pipeline struct {
	d Deps
}

func New(d Deps) *Pipeline {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.MaxWords <= 0 {
		d.MaxWords = chunker.DefaultMaxWords
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Pipeline{d: d}
}

type FetchResult struct {
	SessionID  string                   `json:"sessionId"`
	VideoID    string                   `json:"videoId"`
	Transcript string                   `json:"transcript"`
	Timestamp  float64                  `json:"timestamp"`
	Chunks     []models.TranscriptChunk `json:"chunks"`
}

type SummaryResult struct {
	VideoID string `json:"videoId,omitempty"`
	Summary string `json:"summary"`
	Title   string `json:"title,omitempty"`
	Status  string `json:"status"`
}

// FetchTranscript downloads and chunks a transcript, records it in history
// with an empty summary, and stores the chunks under a fresh session id.
func (p *Pipeline) FetchTranscript(ctx context.Context, input string) (*FetchResult, error) {
	if strings.TrimSpace(input) == "" {
		return nil, apperr.Validation("videoId is required")
	}
	videoID, err := youtube.ParseVideoID(input)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	segments, err := p.d.Transcripts.FetchTranscript(ctx, videoID)
	if err != nil {
		p.d.Log.Error("transcript fetch failed", "videoId", videoID, "error", err)
		return nil, apperr.Provider(err)
	}
	transcript := youtube.JoinSegments(segments)

	chunks, err := chunker.Split(transcript, p.d.MaxWords)
	if err != nil {
		return nil, err
	}

	ts := epochSeconds(p.d.Now())
	if err := p.d.History.Upsert(ctx, models.HistoryRecord{
		VideoID:    videoID,
		Timestamp:  ts,
		Transcript: transcript,
	}); err != nil {
		return nil, fmt.Errorf("recording history for %s: %w", videoID, err)
	}

	set := &chunkstore.Set{
		SessionID: uuid.NewString(),
		VideoID:   videoID,
		Timestamp: ts,
		Chunks:    chunks,
	}
	if p.d.AsyncSave {
		p.d.Chunks.SaveAsync(set)
	} else if err := p.d.Chunks.Save(set); err != nil {
		return nil, err
	}

	p.d.Log.Info("transcript fetched", "videoId", videoID, "sessionId", set.SessionID, "chunks", len(chunks))
	return &FetchResult{
		SessionID:  set.SessionID,
		VideoID:    videoID,
		Transcript: transcript,
		Timestamp:  ts,
		Chunks:     chunks,
	}, nil
}

// SummarizePending summarizes the chunk set of sessionID (or the newest one
// when sessionID is empty), looks up the video title, and completes the
// history record. A failed summary is reported through Status, not an error.
func (p *Pipeline) SummarizePending(ctx context.Context, sessionID string) (*SummaryResult, error) {
	set, err := p.d.Chunks.Load(ctx, sessionID)
	switch {
	case errors.Is(err, chunkstore.ErrNoPending):
		return nil, apperr.NotFound(errors.New("no pending transcript to summarize; fetch a transcript first"))
	case errors.Is(err, chunkstore.ErrInvalidSession):
		return nil, apperr.Validation(err.Error())
	case err != nil:
		return nil, err
	}

	var (
		summary string
		sumErr  error
		title   string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, sumErr = p.d.Summarizer.Summarize(gctx, set.Chunks)
		if sumErr != nil && !errors.Is(sumErr, assessment.ErrNoContent) {
			return sumErr
		}
		return nil
	})
	g.Go(func() error {
		title = p.lookupTitle(gctx, set.VideoID)
		return nil
	})
	if err := g.Wait(); err != nil {
		p.d.Log.Debug("title lookup cut short by failed summary", "videoId", set.VideoID)
	}

	text, status := summaryOutcome(summary, sumErr)
	if sumErr != nil {
		p.d.Log.Warn("summary not generated", "videoId", set.VideoID, "status", status, "error", sumErr)
	}

	transcript := chunker.Join(set.Chunks, " ")
	if rec, ok := p.d.History.Get(set.VideoID); ok && rec.Transcript != "" {
		transcript = rec.Transcript
	}
	stored := ""
	if status == StatusOK {
		stored = text
	}
	if err := p.d.History.Upsert(ctx, models.HistoryRecord{
		VideoID:    set.VideoID,
		Timestamp:  set.Timestamp,
		Transcript: transcript,
		Summary:    stored,
		Title:      title,
	}); err != nil {
		return nil, fmt.Errorf("recording history for %s: %w", set.VideoID, err)
	}

	if status != StatusFailed {
		if err := p.d.Chunks.Remove(set); err != nil {
			p.d.Log.Warn("could not remove consumed chunks", "sessionId", set.SessionID, "error", err)
		}
		if p.d.ChunkTTL > 0 {
			if _, err := p.d.Chunks.Sweep(p.d.Now().Add(-p.d.ChunkTTL)); err != nil {
				p.d.Log.Warn("could not sweep stale chunks", "error", err)
			}
		}
	}

	p.d.Log.Info("transcript summarized", "videoId", set.VideoID, "sessionId", set.SessionID, "status", status)
	return &SummaryResult{VideoID: set.VideoID, Summary: text, Title: title, Status: status}, nil
}

// SummarizeTranscript summarizes caller-supplied text without touching history.
func (p *Pipeline) SummarizeTranscript(ctx context.Context, transcript string) (*SummaryResult, error) {
	chunks, err := chunker.Split(transcript, p.d.MaxWords)
	if err != nil {
		return nil, err
	}
	summary, err := p.d.Summarizer.Summarize(ctx, chunks)
	text, status := summaryOutcome(summary, err)
	if err != nil {
		p.d.Log.Warn("summary not generated", "status", status, "error", err)
	}
	return &SummaryResult{Summary: text, Status: status}, nil
}

// GenerateQuestionnaire builds a questionnaire from summary, or from the
// stored summary of videoID when summary is empty.
func (p *Pipeline) GenerateQuestionnaire(ctx context.Context, summary, videoID string) (*models.Questionnaire, error) {
	if strings.TrimSpace(summary) == "" && videoID != "" {
		id, err := youtube.ParseVideoID(videoID)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		rec, ok := p.d.History.Get(id)
		if !ok {
			return nil, apperr.NotFound(fmt.Errorf("no history for video %s", id))
		}
		if strings.TrimSpace(rec.Summary) == "" {
			return nil, apperr.Validation(fmt.Sprintf("video %s has no summary yet", id))
		}
		summary = rec.Summary
	}
	if strings.TrimSpace(summary) == "" {
		return nil, apperr.Validation("summary is required")
	}

	q, err := p.d.Generator.Generate(ctx, summary)
	if err != nil {
		if errors.Is(err, assessment.ErrEmptySummary) {
			return nil, apperr.Validation("summary is required")
		}
		p.d.Log.Error("questionnaire generation failed", "error", err)
		return nil, apperr.Provider(err)
	}

	p.d.Log.Info("questionnaire generated", "questions", len(q.Questions))
	return q, nil
}

// Evaluate grades answers against q. It always returns a slice.
func (p *Pipeline) Evaluate(ctx context.Context, q models.Questionnaire, answers []models.Answer) []models.EvaluationResult {
	results := p.d.Evaluator.Evaluate(ctx, q, answers)
	p.d.Log.Info("answers evaluated", "questions", len(q.Questions), "answers", len(answers), "results", len(results))
	return results
}

func (p *Pipeline) History() []models.HistoryRecord {
	return p.d.History.ReadAll()
}

func (p *Pipeline) lookupTitle(ctx context.Context, videoID string) string {
	if p.d.Titles != nil {
		title, err := p.d.Titles.FetchTitle(ctx, videoID)
		if err == nil && strings.TrimSpace(title) != "" {
			return title
		}
		p.d.Log.Warn("title lookup failed, using fallback", "videoId", videoID, "error", err)
	}
	return "Video " + videoID
}

func summaryOutcome(summary string, err error) (string, string) {
	text := assessment.SummaryText(summary, err)
	switch {
	case err == nil:
		return text, StatusOK
	case errors.Is(err, assessment.ErrNoContent):
		return text, StatusEmpty
	default:
		return text, StatusFailed
	}
}

func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}
