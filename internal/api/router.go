package api

import (
	"context"
	"net/http"
	"time"

	"github.com/comment-server/internal/config"
	"github.com/comment-server/internal/service"
	"github.com/comment-server/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck is a named dependency probe reported by /health.
// A failing critical check turns the response into 503.
type HealthCheck struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger, checks ...HealthCheck) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	validator := validation.NewValidator(cfg.Comment.MaxPageSize, cfg.Comment.CountBatchLimit)
	commentHandler := NewCommentHandler(services, validator, cfg, log)
	countHandler := NewCountHandler(services, validator, log)

	// Health check
	router.GET("/health", healthHandler(checks))

	// API v1
	v1 := router.Group("/v1")
	{
		comments := v1.Group("/comments")
		{
			comments.POST("", commentHandler.CreateComment)
			comments.GET("/:comment_id", commentHandler.GetComment)
			comments.PATCH("/:comment_id", commentHandler.UpdateComment)
			comments.DELETE("/:comment_id", commentHandler.DeleteComment)
			comments.PUT("/:comment_id/status", commentHandler.ChangeStatus)
			comments.POST("/:comment_id/replies", commentHandler.CreateReply)
			comments.GET("/:comment_id/replies", commentHandler.ListReplies)
		}

		v1.GET("/threads/:root_id", commentHandler.GetThread)

		articles := v1.Group("/articles/:article_id")
		{
			articles.GET("/comments", commentHandler.ListArticleComments)
			articles.GET("/comment-count", countHandler.GetCount)
			articles.PUT("/comment-count", countHandler.SetCount)
			articles.POST("/comment-count/repair", countHandler.RepairCount)
		}

		v1.POST("/comment-counts", countHandler.GetCounts)
	}

	return router
}

// healthHandler reports the status of every registered dependency
func healthHandler(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := contextWithTimeout(c, healthCheckTimeout)
		defer cancel()

		status := "healthy"
		code := http.StatusOK
		deps := make(gin.H, len(checks))

		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				deps[check.Name] = err.Error()
				if check.Critical {
					status = "unhealthy"
					code = http.StatusServiceUnavailable
				} else if status == "healthy" {
					status = "degraded"
				}
				continue
			}
			deps[check.Name] = "ok"
		}

		c.JSON(code, gin.H{
			"status":       status,
			"timestamp":    time.Now().Format(time.RFC3339),
			"service":      "comment-server",
			"dependencies": deps,
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("path", c.Request.URL.Path).
					Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    codeInternal,
					"message": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("route", c.FullPath()).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
