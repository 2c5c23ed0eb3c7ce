package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lochan861/mt/internal/auth"
	apierrors "github.com/lochan861/mt/internal/errors"
	"github.com/lochan861/mt/internal/middleware"
	"github.com/lochan861/mt/internal/runner"
	"github.com/lochan861/mt/internal/store"
	"github.com/lochan861/mt/internal/util"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers serves the JSON API
type Handlers struct {
	auth   auth.AuthServiceInterface
	tasks  *runner.Service
	health func(ctx context.Context) error
}

// NewHandlers creates handlers. health may be nil when there is no backing database.
func NewHandlers(authService auth.AuthServiceInterface, tasks *runner.Service, health func(ctx context.Context) error) *Handlers {
	return &Handlers{auth: authService, tasks: tasks, health: health}
}

// RouterConfig tunes the middleware stack
type RouterConfig struct {
	RateLimitPerMinute int
	AllowOrigins       []string
}

// NewRouter wires middleware and routes
func NewRouter(h *Handlers, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	if len(cfg.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	perMinute := cfg.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 100
	}

	api := r.Group("/api/v1")
	api.Use(middleware.NewRateLimiter(middleware.DefaultRateLimitConfig(perMinute)))
	{
		authGroup := api.Group("/auth")
		{
			limited := authGroup.Group("", middleware.NewRateLimiter(middleware.AuthRateLimitConfig()))
			limited.POST("/register", h.Register)
			limited.POST("/login", h.Login)

			authGroup.GET("/me", middleware.AuthMiddleware(h.auth), h.Me)
		}

		tasks := api.Group("/tasks")
		{
			tasks.Use(middleware.AuthMiddleware(h.auth))
			tasks.GET("", h.ListTasks)
			tasks.POST("", h.CreateTask)
			tasks.GET("/:id", h.GetTask)
			tasks.DELETE("/:id", h.DeleteTask)
			tasks.POST("/:id/start", h.StartTask)
			tasks.POST("/:id/stop", h.StopTask)
			tasks.GET("/:id/logs", h.GetTaskLogs)
		}
	}

	return r
}

// Health reports liveness and database reachability
func (h *Handlers) Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"service":   "taskrunner",
	}
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = err.Error()
		}
	}
	c.JSON(status, body)
}

// respondTaskError maps service errors onto API errors
func respondTaskError(c *gin.Context, err error) {
	var verr *runner.ValidationError
	switch {
	case errors.As(err, &verr):
		util.RespondValidationError(c, verr.Field, verr.Message)
	case errors.Is(err, store.ErrTaskNotFound):
		util.RespondNotFound(c, "task")
	case errors.Is(err, runner.ErrAlreadyRunning), errors.Is(err, runner.ErrNotRunning):
		util.RespondConflict(c, err.Error())
	case errors.Is(err, runner.ErrNoTargets):
		util.RespondValidationError(c, "targets", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("request timed out"))
	default:
		util.RespondInternalError(c)
	}
}
