package api

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"videoquiz/internal/apperr"
	"videoquiz/internal/logger"
)

// CORSMiddleware allows the configured origins. "*" allows any origin without
// credentials.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type", "Accept", "Origin", "X-Requested-With"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		trimmed := make([]string, 0, len(origins))
		for _, o := range origins {
			if o = strings.TrimSuffix(strings.TrimSpace(o), "/"); o != "" {
				trimmed = append(trimmed, o)
			}
		}
		cfg.AllowOrigins = trimmed
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// BearerAuth requires "Authorization: Bearer <token>". A missing or malformed
// header is 401; a wrong token is 403.
func BearerAuth(token string, log *logger.Logger) gin.HandlerFunc {
	const prefix = "Bearer "
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, prefix) {
			log.Warn("missing bearer token", "path", c.Request.URL.Path)
			abortWithError(c, apperr.Auth("Missing or invalid Authorization header"))
			return
		}
		given := strings.TrimSpace(auth[len(prefix):])
		if token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			log.Warn("bearer token mismatch", "path", c.Request.URL.Path)
			abortWithError(c, apperr.Forbidden("Invalid API token"))
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.StatusOf(err), gin.H{"success": false, "error": err.Error()})
}

// RequestLogger logs one line per request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request", kv...)
		case status >= http.StatusBadRequest:
			log.Warn("request", kv...)
		default:
			log.Info("request", kv...)
		}
	}
}
