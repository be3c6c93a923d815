package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"membership-platform/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler returns a middleware that catches and formats application errors.
// In production the details field is never sent.
func ErrorHandler(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := FromError(c.Errors.Last().Err)

		log := logger.FromGin(c)
		args := []any{
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"status_code", appErr.StatusCode,
			"error_code", appErr.Code,
		}
		if appErr.StatusCode >= http.StatusInternalServerError {
			log.LogError(appErr, "request failed", args...)
		} else {
			log.Warn("request rejected", append(args, "message", appErr.Message)...)
		}

		c.AbortWithStatusJSON(appErr.StatusCode, appErr.Body(production))
	}
}

// RecoveryWithLogger returns a middleware that recovers from any panics
// and logs the error with the request ID and user ID if available
func RecoveryWithLogger(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())

				logger.FromGin(c).Error("Panic recovered",
					"error", r,
					"stack", stack,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				appErr := NewInternalServerError("SERVER_ERROR", "Internal server error").
					WithDetails(fmt.Sprintf("panic: %v", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, appErr.Body(production))
			}
		}()

		c.Next()
	}
}
