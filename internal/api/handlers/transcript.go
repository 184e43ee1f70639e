package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"videoquiz/internal/pipeline"
)

type transcriptRequest struct {
	VideoID string `json:"videoId"`
}

type summarizeRequest struct {
	SessionID string `json:"sessionId"`
}

type summarizeTranscriptRequest struct {
	Transcript *string `json:"transcript"`
}

// HandleTranscript fetches and chunks a transcript and remembers the session
// id in the client's cookie so a bare POST /summarize picks it up.
func (h *Handler) HandleTranscript(c *gin.Context) {
	var req transcriptRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.VideoID) == "" {
		h.badRequest(c, "transcript", "videoId is required")
		return
	}

	res, err := h.Pipeline.FetchTranscript(c.Request.Context(), req.VideoID)
	if err != nil {
		h.handleError(c, "transcript", err)
		return
	}
	if err := rememberPending(c, res.SessionID); err != nil {
		h.Log.Warn("could not store pending session", "sessionId", res.SessionID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"transcript": res.Transcript,
		"sessionId":  res.SessionID,
		"videoId":    res.VideoID,
		"chunks":     res.Chunks,
	})
}

// HandleSummarize summarizes a pending chunk set chosen by body sessionId,
// then the cookie session, then the newest chunk file.
func (h *Handler) HandleSummarize(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, "summarize", "invalid request body")
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = pendingFromSession(c)
	}

	res, err := h.Pipeline.SummarizePending(c.Request.Context(), sessionID)
	if err != nil {
		h.handleError(c, "summarize", err)
		return
	}
	if sessionID != "" && res.Status != pipeline.StatusFailed {
		if err := forgetPending(c, sessionID); err != nil {
			h.Log.Warn("could not clear pending session", "sessionId", sessionID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"summary": res.Summary,
		"title":   res.Title,
		"videoId": res.VideoID,
		"status":  res.Status,
	})
}

// HandleSummarizeTranscript summarizes text given in the body. A blank
// transcript is rejected.
func (h *Handler) HandleSummarizeTranscript(c *gin.Context) {
	var req summarizeTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Transcript == nil || strings.TrimSpace(*req.Transcript) == "" {
		h.badRequest(c, "summarize", "transcript is required")
		return
	}

	res, err := h.Pipeline.SummarizeTranscript(c.Request.Context(), *req.Transcript)
	if err != nil {
		h.handleError(c, "summarize", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"summary": res.Summary,
		"status":  res.Status,
	})
}
