package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"videoquiz/internal/app"
	"videoquiz/internal/history"
	"videoquiz/internal/models"
)

func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := app.Build(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// --- transcript ---

var transcriptCmd = &cobra.Command{
	Use:   "transcript <video id or url>",
	Short: "Fetch and chunk a transcript, printing the session id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			res, err := a.Pipeline.FetchTranscript(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

// --- summarize ---

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a fetched transcript",
	Long: `Summarize a fetched transcript.

Without --session the most recently fetched transcript is used.

Examples:
  vqctl summarize
  vqctl summarize --session 3f1c0a5e-9d0b-4f5e-8a61-2f0b7c1d9e44`,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")
		return withApp(cmd, func(a *app.App) error {
			res, err := a.Pipeline.SummarizePending(cmd.Context(), session)
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

// --- quiz ---

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate a questionnaire from a summary",
	Long: `Generate a questionnaire from a summary.

Examples:
  vqctl quiz --summary "- Goroutines are cheap"
  vqctl quiz --video dQw4w9WgXcQ`,
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, _ := cmd.Flags().GetString("summary")
		video, _ := cmd.Flags().GetString("video")
		if summary == "" && video == "" {
			return fmt.Errorf("one of --summary or --video is required")
		}
		return withApp(cmd, func(a *app.App) error {
			q, err := a.Pipeline.GenerateQuestionnaire(cmd.Context(), summary, video)
			if err != nil {
				return err
			}
			return printJSON(q)
		})
	},
}

// --- evaluate ---

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <questionnaire.json> <answers.json>",
	Short: "Grade answers against a questionnaire",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var q models.Questionnaire
		if err := readJSONFile(args[0], &q); err != nil {
			return err
		}
		var answers []models.Answer
		if err := readJSONFile(args[1], &answers); err != nil {
			return err
		}
		return withApp(cmd, func(a *app.App) error {
			return printJSON(a.Pipeline.Evaluate(cmd.Context(), q, answers))
		})
	},
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print stored history records",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(history.New(cfg.Storage.HistoryPath, history.WithLogger(log)).ReadAll())
	},
}

func init() {
	summarizeCmd.Flags().String("session", "", "session id returned by transcript")
	quizCmd.Flags().String("summary", "", "summary text")
	quizCmd.Flags().String("video", "", "use the stored summary of this video")
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
