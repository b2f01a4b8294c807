package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/akovalev/go-taskmanager/internal/config"
	"github.com/akovalev/go-taskmanager/internal/delivery/http/v1"
	"github.com/akovalev/go-taskmanager/internal/delivery/http/web"
	"github.com/akovalev/go-taskmanager/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.LoadHTMLGlob("web/templates/*.html")
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	cfg := config.Global()

	userService := services.NewUserService(globalLogger, globalPostgresPool)
	sessionService := services.NewSessionService(globalLogger, globalRedisClient, cfg.Session.TTL)
	tokenService := services.NewTokenService(cfg.JWT.Issuer, []byte(cfg.JWT.SigningKey), cfg.JWT.TokenTTL)
	taskService := services.NewTaskService(globalLogger, globalPostgresPool)

	webHandler := web.New(globalLogger, userService, sessionService, taskService)

	router.GET("/", webHandler.HandleHome)
	router.GET("/register", webHandler.HandleRegisterPage)
	router.POST("/register", webHandler.HandleRegister)
	router.GET("/login", webHandler.HandleLoginPage)
	router.POST("/login", webHandler.HandleLogin)
	router.GET("/logout", webHandler.HandleSessionMiddleware, webHandler.HandleLogout)

	taskRouter := router.Group("/tasks", webHandler.HandleSessionMiddleware)
	taskRouter.GET("", webHandler.HandleListTasks)
	taskRouter.GET("/new", webHandler.HandleNewTaskPage)
	taskRouter.POST("/create", webHandler.HandleCreateTask)
	taskRouter.GET("/search", webHandler.HandleSearchTasks)
	taskRouter.POST("/:id/complete", webHandler.HandleCompleteTask)
	taskRouter.POST("/:id/delete", webHandler.HandleDeleteTask)
	taskRouter.GET("/:id/edit", webHandler.HandleEditTaskPage)
	taskRouter.POST("/:id/update", webHandler.HandleUpdateTask)

	v1Handler := v1.New(globalLogger, userService, tokenService, taskService)

	authRouter := router.Group("/auth")
	authRouter.POST("/register", v1Handler.HandleRegister)
	authRouter.POST("/login", v1Handler.HandleLogin)

	apiRouter := router.Group("/api", v1Handler.HandleAuthMiddleware)
	apiRouter.GET("/tasks", v1Handler.HandleListTasks)
	apiRouter.POST("/tasks", v1Handler.HandleCreateTask)
}
