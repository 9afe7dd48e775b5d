package middleware

import (
	"net/http"

	"blogapi/apperr"

	"github.com/gin-gonic/gin"
)

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders the last error attached to the context as
// {"error": kind, "message": msg}. Causes of store errors are logged, never
// sent to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status := StatusOf(err)

		entry := requestLogger(c).WithError(err)
		if status >= http.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Debug("request rejected")
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(status, gin.H{
			"error":   apperr.KindOf(err).String(),
			"message": apperr.MessageOf(err),
		})
	}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
