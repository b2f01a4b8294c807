package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akovalev/go-taskmanager/internal/models"
	"github.com/akovalev/go-taskmanager/internal/services"
)

type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		DueDate:     task.DueDate,
		Category:    task.Category,
		Priority:    task.Priority,
		CreatedAt:   task.CreatedAt,
	}
}

func (h *handlerImpl) HandleListTasks(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var (
		tasks []*models.Task
		err   error
	)
	if q := c.Query("q"); q != "" {
		tasks, err = h.tasks.Search(c, userID, q)
	} else {
		tasks, err = h.tasks.FilterByStatus(c, userID, c.Query("status"))
	}
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]taskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newTaskResponse(task)
	}
	c.JSON(http.StatusOK, response)
}

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	// Owner comes from the token, never from the request body.
	task, err := h.tasks.Create(c, services.CreateTaskParams{
		OwnerID:     userID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		switch err {
		case services.ErrEmptyTitle:
			abort(c, newBadRequestError(services.ErrEmptyTitle.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task))
}
