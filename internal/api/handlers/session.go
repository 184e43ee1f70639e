package handlers

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// PendingSessionKey holds the session id of the last fetched transcript.
const PendingSessionKey = "pendingSession"

func rememberPending(c *gin.Context, sessionID string) error {
	session := sessions.Default(c)
	session.Set(PendingSessionKey, sessionID)
	return session.Save()
}

func pendingFromSession(c *gin.Context) string {
	v, _ := sessions.Default(c).Get(PendingSessionKey).(string)
	return v
}

// forgetPending clears the stored id if it still points at sessionID.
func forgetPending(c *gin.Context, sessionID string) error {
	session := sessions.Default(c)
	if v, _ := session.Get(PendingSessionKey).(string); v != sessionID {
		return nil
	}
	session.Delete(PendingSessionKey)
	return session.Save()
}
