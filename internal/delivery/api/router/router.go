// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"golang.org/x/time/rate"

	"taskmgr/config"
	"taskmgr/internal/delivery/api/middleware"
	"taskmgr/internal/delivery/api/router/handler"
)

type RouterParams struct {
	fx.In

	UserHandler    *handler.UserHandler
	TaskHandler    *handler.TaskHandler
	AuthMiddleware *middleware.AuthMiddleware
	Config         *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler    *handler.UserHandler
	taskHandler    *handler.TaskHandler
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
}

// NewRouter is the constructor for the Router.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:    params.UserHandler,
		taskHandler:    params.TaskHandler,
		authMiddleware: params.AuthMiddleware,
		config:         params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	usersGroup := e.Group("/users")
	{
		credentialRoutes := usersGroup.Group("", r.credentialRateLimit()...)
		credentialRoutes.POST("/register", r.userHandler.Register)
		credentialRoutes.POST("/login", r.userHandler.Login)

		authed := usersGroup.Group("", r.authMiddleware.Authenticate)
		authed.POST("/is-user-authorized", r.userHandler.IsUserAuthorized)
		authed.GET("/me", r.userHandler.GetProfile)
		authed.PUT("/me", r.userHandler.UpdateProfile)
		authed.PUT("/me/password", r.userHandler.ChangePassword)
	}

	tasksGroup := e.Group("/tasks", r.authMiddleware.Authenticate)
	{
		tasksGroup.POST("", r.taskHandler.CreateTask)
		tasksGroup.GET("", r.taskHandler.ListTasks)
		tasksGroup.GET("/:id", r.taskHandler.GetTask)
		tasksGroup.PUT("/:id", r.taskHandler.UpdateTask)
		tasksGroup.DELETE("/:id", r.taskHandler.DeleteTask)
	}
}

// credentialRateLimit throttles unauthenticated credential endpoints per client IP.
// A zero rate disables it.
func (r *router) credentialRateLimit() []echo.MiddlewareFunc {
	limit := r.config.HTTP.CredentialRateLimit
	if limit.RequestsPerSecond <= 0 {
		return nil
	}

	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(limit.RequestsPerSecond),
		Burst:     limit.Burst,
		ExpiresIn: limit.ExpiresIn,
	})

	return []echo.MiddlewareFunc{echomiddleware.RateLimiter(store)}
}
