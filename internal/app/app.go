// Package app wires configuration into a ready-to-use pipeline for the
// server and the CLI.
package app

import (
	"context"
	"fmt"

	"videoquiz/internal/assessment"
	"videoquiz/internal/chunkstore"
	"videoquiz/internal/config"
	"videoquiz/internal/gemini"
	"videoquiz/internal/history"
	"videoquiz/internal/logger"
	"videoquiz/internal/notify"
	"videoquiz/internal/pipeline"
	"videoquiz/internal/r2"
	"videoquiz/internal/youtube"
)

type App struct {
	Pipeline *pipeline.Pipeline
	Chunks   *chunkstore.Store
	History  *history.Store
	Notifier *notify.Discord

	gemini *gemini.Client
}

// Build creates every collaborator described by cfg.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if err := cfg.ValidateLLM(); err != nil {
		return nil, err
	}

	llm, err := gemini.NewClient(ctx, cfg.Gemini.APIKey,
		gemini.WithTimeout(cfg.Gemini.Timeout),
		gemini.WithTemperature(cfg.Gemini.Temperature),
		gemini.WithLogger(log.With("component", "gemini")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	historyOpts := []history.Option{history.WithLogger(log)}
	mirror, err := r2.NewClient(ctx, cfg.R2, r2.WithLogger(log.With("component", "r2")))
	if err != nil {
		llm.Close()
		return nil, err
	}
	if mirror != nil {
		historyOpts = append(historyOpts, history.WithMirror(mirror))
	}
	hist := history.New(cfg.Storage.HistoryPath, historyOpts...)

	yt := youtube.New(youtube.WithLanguage(cfg.YouTube.Lang), youtube.WithLogger(log.With("component", "youtube")))
	titles := youtube.TitleChain{}
	if cfg.YouTube.APIKey != "" {
		dataAPI, err := youtube.NewDataAPI(ctx, cfg.YouTube.APIKey)
		if err != nil {
			log.Warn("YouTube Data API unavailable, using watch page titles", "error", err)
		} else {
			titles = append(titles, dataAPI)
		}
	}
	titles = append(titles, yt)

	chunks := chunkstore.New(cfg.Storage.ChunksDir, log.With("component", "chunkstore"))

	p := pipeline.New(pipeline.Deps{
		Transcripts: yt,
		Titles:      titles,
		History:     hist,
		Chunks:      chunks,
		Summarizer:  assessment.NewSummarizer(llm, cfg.Gemini.SummaryModel),
		Generator:   assessment.NewGenerator(llm, cfg.Gemini.QuestionnaireModel),
		Evaluator:   assessment.NewEvaluator(llm, cfg.Gemini.EvaluationModel, log),
		Log:         log,
		MaxWords:    cfg.Storage.ChunkMaxWords,
		AsyncSave:   cfg.Storage.AsyncChunkSave,
		ChunkTTL:    cfg.Storage.ChunkTTL,
	})

	return &App{
		Pipeline: p,
		Chunks:   chunks,
		History:  hist,
		Notifier: notify.NewDiscord(cfg.DiscordWebhookURL, log.With("component", "discord")),
		gemini:   llm,
	}, nil
}

// Close waits for background work and releases the LLM client.
func (a *App) Close() {
	a.Chunks.Wait()
	a.Notifier.Wait()
	a.gemini.Close()
}
