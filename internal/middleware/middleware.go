package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"cinebook/internal/logger"
	"cinebook/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Ctx key and helpers for the acting party.
// Using unexported type to avoid collisions

type ctxKey string

const actorKey ctxKey = "actor"

func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(actorKey)
	if v == nil {
		return "", false
	}
	actor, ok := v.(string)
	return actor, ok
}

// CORS handles cross-origin requests
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Actor-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}

		c.Next()
	}
}

// Logger emits one structured line per request
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		actor, exists := c.Get("actor")

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		if exists {
			logFields = append(logFields, "actor", actor)
		}

		if c.Writer.Status() >= 400 {
			if len(c.Errors) > 0 {
				logFields = append(logFields, "error", c.Errors.String())
			}
			logger.Get().Error("request completed with error", logFields...)
		} else {
			logger.Get().Debug("request completed", logFields...)
		}
	}
}

// Recovery turns panics into 500s with full context in the log
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Get().Error("PANIC recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"client_ip", c.ClientIP(),
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
	})
}

// Actor identifies the acting party from the X-Actor-ID header. Holds
// and bookings are owned by this identity; requests without it are
// rejected on the mutating routes that use this middleware.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader("X-Actor-ID")
		if actor == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-Actor-ID header is required"})
			return
		}

		c.Set("actor", actor)
		c.Request = c.Request.WithContext(ContextWithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// Metrics records the request latency histogram. The templated route
// path keeps the label cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
