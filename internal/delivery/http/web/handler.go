package web

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/akovalev/go-taskmanager/internal/services"
)

type Handler interface {
	HandleHome(c *gin.Context)
	HandleRegisterPage(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLoginPage(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleSessionMiddleware(c *gin.Context)

	HandleListTasks(c *gin.Context)
	HandleNewTaskPage(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleCompleteTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandleEditTaskPage(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleSearchTasks(c *gin.Context)
}

type handlerImpl struct {
	logger   zerolog.Logger
	users    services.UserService
	sessions services.SessionService
	tasks    services.TaskService
}

func New(
	logger zerolog.Logger,
	userService services.UserService,
	sessionService services.SessionService,
	taskService services.TaskService,
) Handler {
	return &handlerImpl{
		logger:   logger,
		users:    userService,
		sessions: sessionService,
		tasks:    taskService,
	}
}
