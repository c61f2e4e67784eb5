package middleware

import (
	"civicserve-backend/internal/errors"
	"civicserve-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler catches errors pushed by handlers and returns standardized
// responses. User-facing messages never include upstream details; those go
// to the log.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			appErr := errors.MapError(err)

			logger.GlobalLogger.Errorf("Request failed: path=%s, method=%s, request_id=%s, error=%s",
				c.Request.URL.Path,
				c.Request.Method,
				RequestID(c),
				appErr.TechnicalMessage)

			c.JSON(appErr.HTTPStatus, gin.H{
				"error": gin.H{
					"message": appErr.UserMessage,
					"code":    appErr.Code,
				},
			})
			return
		}
	}
}
