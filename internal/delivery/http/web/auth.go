package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akovalev/go-taskmanager/internal/services"
)

func (h *handlerImpl) HandleHome(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/tasks")
}

func (h *handlerImpl) HandleRegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{})
}

func (h *handlerImpl) HandleRegister(c *gin.Context) {
	name := c.PostForm("name")
	email := c.PostForm("email")
	password := c.PostForm("password")
	if name == "" || email == "" || password == "" {
		c.HTML(http.StatusBadRequest, "register.html", gin.H{
			"Error": "name, email and password are required",
		})
		return
	}

	_, err := h.users.Register(c, services.RegisterParams{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to register user")
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			c.HTML(http.StatusConflict, "register.html", gin.H{
				"Error": "email already exists",
			})
		default:
			c.HTML(http.StatusInternalServerError, "register.html", gin.H{
				"Error": "something went wrong, try again",
			})
		}
		return
	}

	// No auto-login: a fresh account goes through the login form.
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *handlerImpl) HandleLoginPage(c *gin.Context) {
	// An already authenticated visitor skips the form.
	if sessionID, err := c.Cookie(sessionCookie); err == nil {
		if _, err := h.sessions.Get(c, sessionID); err == nil {
			c.Redirect(http.StatusSeeOther, "/tasks")
			return
		}
		clearSessionCookie(c)
	}
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	if email == "" || password == "" {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{
			"Error": "email and password are required",
		})
		return
	}

	user, err := h.users.Authenticate(c, email, password)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to authenticate")
		switch {
		// One message for both failure kinds; the form must not
		// reveal whether the email is registered.
		case errors.Is(err, services.ErrUserNotFound),
			errors.Is(err, services.ErrUserPasswordMismatch):
			c.HTML(http.StatusUnauthorized, "login.html", gin.H{
				"Error": "invalid email or password",
			})
		default:
			c.HTML(http.StatusInternalServerError, "login.html", gin.H{
				"Error": "something went wrong, try again",
			})
		}
		return
	}

	session, err := h.sessions.Create(c, user.ID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create session")
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{
			"Error": "something went wrong, try again",
		})
		return
	}

	setSessionCookie(c, session.ID, time.Until(session.ExpiresAt))
	c.Redirect(http.StatusSeeOther, "/tasks")
}

func (h *handlerImpl) HandleLogout(c *gin.Context) {
	sessionID, ok := getStringFromContext(c, sessionIDCtxKey)
	if ok {
		// Destroy completes before the redirect is written; the
		// client never leaves with a half-dead session.
		err := h.sessions.Destroy(c, sessionID)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to destroy session")
			c.String(http.StatusInternalServerError, "something went wrong")
			return
		}
	}

	clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/login")
}
