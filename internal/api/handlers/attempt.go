package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"videoquiz/internal/models"
)

type evaluateRequest struct {
	Questionnaire *models.Questionnaire `json:"questionnaire"`
	Answers       *[]models.Answer      `json:"answers"`
}

// HandleEvaluate grades a submitted attempt. Grading problems degrade to an
// empty evaluation rather than an error.
func (h *Handler) HandleEvaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Questionnaire == nil || req.Answers == nil {
		h.badRequest(c, "evaluate", "questionnaire and answers are required")
		return
	}

	results := h.Pipeline.Evaluate(c.Request.Context(), *req.Questionnaire, *req.Answers)
	c.JSON(http.StatusOK, gin.H{"success": true, "evaluation": results})
}
