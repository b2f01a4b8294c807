package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	userIDCtxKey    = "user_id"
	sessionIDCtxKey = "session_id"

	sessionCookie = "session_id"
)

// HandleSessionMiddleware guards the task routes with the session
// cookie. Re-evaluated on every request; a rejected request is sent
// back to the login page before any store operation runs.
func (h *handlerImpl) HandleSessionMiddleware(c *gin.Context) {
	sessionID, err := c.Cookie(sessionCookie)
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}

	session, err := h.sessions.Get(c, sessionID)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("rejected session cookie")
		clearSessionCookie(c)
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}

	c.Set(userIDCtxKey, session.UserID)
	c.Set(sessionIDCtxKey, session.ID)
	c.Next()
}

func getStringFromContext(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

func setSessionCookie(c *gin.Context, sessionID string, maxAge time.Duration) {
	const secure, httpOnly = false, true
	c.SetCookie(sessionCookie, sessionID, int(maxAge.Seconds()),
		"/", "", secure, httpOnly)
}

func clearSessionCookie(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1,
		"/", "", false, true)
}
