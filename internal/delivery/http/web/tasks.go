package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akovalev/go-taskmanager/internal/services"
)

func (h *handlerImpl) HandleListTasks(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}

	tasks, err := h.tasks.FilterByStatus(c, userID, c.Query("status"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		c.String(http.StatusInternalServerError, "something went wrong")
		return
	}

	c.HTML(http.StatusOK, "home.html", gin.H{"Tasks": tasks})
}

func (h *handlerImpl) HandleNewTaskPage(c *gin.Context) {
	c.HTML(http.StatusOK, "add_task.html", gin.H{})
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}

	// Owner always comes from the session; a user_id form field,
	// forged or not, is never read.
	_, err := h.tasks.Create(c, services.CreateTaskParams{
		OwnerID:     userID,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		DueDate:     parseDueDate(c.PostForm("due_date")),
		Category:    c.PostForm("category"),
		Priority:    c.PostForm("priority"),
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		switch {
		case errors.Is(err, services.ErrEmptyTitle):
			c.HTML(http.StatusBadRequest, "add_task.html", gin.H{
				"Error": "title must not be empty",
			})
		default:
			c.String(http.StatusInternalServerError, "something went wrong")
		}
		return
	}

	c.Redirect(http.StatusSeeOther, "/tasks")
}

func (h *handlerImpl) HandleCompleteTask(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}

	// No-op when the (id, owner) pair matches nothing.
	_, err := h.tasks.CompleteOwned(c, c.Param("id"), userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to complete task")
		c.String(http.StatusInternalServerError, "something went wrong")
		return
	}

	c.Redirect(http.StatusSeeOther, "/tasks")
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}

	err := h.tasks.DeleteOwned(c, c.Param("id"), userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete task")
		c.String(http.StatusInternalServerError, "something went wrong")
		return
	}

	c.Redirect(http.StatusSeeOther, "/tasks")
}

func (h *handlerImpl) HandleEditTaskPage(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}

	task, err := h.tasks.FindOneOwned(c, c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.String(http.StatusNotFound, "task not found")
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to load task")
		c.String(http.StatusInternalServerError, "something went wrong")
		return
	}

	c.HTML(http.StatusOK, "edit_task.html", gin.H{"Task": task})
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}

	// Completed carries the raw checkbox value; the "on" rule lives
	// in the service.
	_, err := h.tasks.UpdateOwned(c, services.UpdateTaskParams{
		ID:          c.Param("id"),
		OwnerID:     userID,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Completed:   c.PostForm("completed"),
		DueDate:     parseDueDate(c.PostForm("due_date")),
		Category:    c.PostForm("category"),
		Priority:    c.PostForm("priority"),
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update task")
		switch {
		case errors.Is(err, services.ErrEmptyTitle):
			c.String(http.StatusBadRequest, "title must not be empty")
		default:
			c.String(http.StatusInternalServerError, "something went wrong")
		}
		return
	}

	c.Redirect(http.StatusSeeOther, "/tasks")
}

func (h *handlerImpl) HandleSearchTasks(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}

	tasks, err := h.tasks.Search(c, userID, c.Query("q"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to search tasks")
		c.String(http.StatusInternalServerError, "something went wrong")
		return
	}

	c.HTML(http.StatusOK, "home.html", gin.H{
		"Tasks": tasks,
		"Query": c.Query("q"),
	})
}

func parseDueDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}
