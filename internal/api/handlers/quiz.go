package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type questionnaireRequest struct {
	Summary string `json:"summary"`
	VideoID string `json:"videoId"`
}

// HandleGenerateQuestionnaire builds a questionnaire from a summary in the
// body, or from the stored summary of videoId.
func (h *Handler) HandleGenerateQuestionnaire(c *gin.Context) {
	var req questionnaireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "questionnaire", "summary is required")
		return
	}
	if strings.TrimSpace(req.Summary) == "" && strings.TrimSpace(req.VideoID) == "" {
		h.badRequest(c, "questionnaire", "summary is required")
		return
	}

	q, err := h.Pipeline.GenerateQuestionnaire(c.Request.Context(), req.Summary, strings.TrimSpace(req.VideoID))
	if err != nil {
		h.handleError(c, "questionnaire", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "questionnaire": q})
}
