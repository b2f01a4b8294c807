package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/akovalev/go-taskmanager/internal/services"
)

type Handler interface {
	HandleRegister(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleListTasks(c *gin.Context)
	HandleCreateTask(c *gin.Context)
}

type handlerImpl struct {
	logger zerolog.Logger
	users  services.UserService
	tokens services.TokenService
	tasks  services.TaskService
}

func New(
	logger zerolog.Logger,
	userService services.UserService,
	tokenService services.TokenService,
	taskService services.TaskService,
) Handler {
	return &handlerImpl{
		logger: logger,
		users:  userService,
		tokens: tokenService,
		tasks:  taskService,
	}
}
