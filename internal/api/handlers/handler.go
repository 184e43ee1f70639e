package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"videoquiz/internal/apperr"
	"videoquiz/internal/logger"
	"videoquiz/internal/models"
	"videoquiz/internal/notify"
	"videoquiz/internal/pipeline"
)

// Pipeline is the subset of the orchestrator the HTTP layer drives.
type Pipeline interface {
	FetchTranscript(ctx context.Context, input string) (*pipeline.FetchResult, error)
	SummarizePending(ctx context.Context, sessionID string) (*pipeline.SummaryResult, error)
	SummarizeTranscript(ctx context.Context, transcript string) (*pipeline.SummaryResult, error)
	GenerateQuestionnaire(ctx context.Context, summary, videoID string) (*models.Questionnaire, error)
	Evaluate(ctx context.Context, q models.Questionnaire, answers []models.Answer) []models.EvaluationResult
	History() []models.HistoryRecord
}

// Handler contains the API handlers dependencies
type Handler struct {
	Pipeline Pipeline
	Notifier *notify.Discord
	Log      *logger.Logger
}

// NewHandler creates a new Handler. notifier may be nil.
func NewHandler(p Pipeline, notifier *notify.Discord, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{Pipeline: p, Notifier: notifier, Log: log}
}

// HandleRoot reports liveness together with the stored history.
func (h *Handler) HandleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Video transcript API is running",
		"history": h.Pipeline.History(),
	})
}

// handleError converts err into the failure envelope. Server-side failures
// are also sent to the Discord webhook.
func (h *Handler) handleError(c *gin.Context, operation string, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error(operation+" failed", "status", status, "path", c.Request.URL.Path, "error", err)
		h.Notifier.Notify(notify.ErrorEmbed(operation, c.Request.URL.Path, status, err))
	} else {
		h.Log.Warn(operation+" rejected", "status", status, "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": err.Error()})
}

func (h *Handler) badRequest(c *gin.Context, operation, msg string) {
	h.handleError(c, operation, apperr.Validation(msg))
}
