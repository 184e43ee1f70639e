package api

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"videoquiz/internal/api/handlers"
	"videoquiz/internal/logger"
)

// SessionName is the cookie carrying the client's pending session.
const SessionName = "videoquiz_session"

type RouteConfig struct {
	APIToken     string
	CORSOrigins  []string
	SessionStore sessions.Store
	Log          *logger.Logger
}

// SetupRoutes sets up the API routes
func SetupRoutes(router *gin.Engine, handler *handlers.Handler, cfg RouteConfig) {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}

	router.Use(RequestLogger(log))
	router.Use(CORSMiddleware(cfg.CORSOrigins))
	router.Use(sessions.Sessions(SessionName, cfg.SessionStore))

	// Public
	router.GET("/", handler.HandleRoot)

	// Protected
	authorized := router.Group("/")
	authorized.Use(BearerAuth(cfg.APIToken, log))
	{
		authorized.POST("/transcript", handler.HandleTranscript)
		authorized.POST("/summarize", handler.HandleSummarize)
		authorized.POST("/summarize/transcript", handler.HandleSummarizeTranscript)
		authorized.POST("/questionnaire", handler.HandleGenerateQuestionnaire)
		authorized.POST("/evaluate", handler.HandleEvaluate)
	}
}
