package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/wiredpart/parts_backend/utils"
)

// ErrorLogger writes one entry per failed request. Handlers attach the cause
// with c.Error.
func ErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest && len(c.Errors) == 0 {
			return
		}
		correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		entry := logger.WithFields(logrus.Fields{
			"method":        c.Request.Method,
			"path":          c.FullPath(),
			"status":        status,
			"latency":       time.Since(start).String(),
			"correlationId": correlationId,
		})
		if userId, ok := utils.GetUserIdFromContext(c.Request.Context()); ok {
			entry = entry.WithField("userId", userId)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		if status >= http.StatusInternalServerError {
			entry.Error("request failed")
			return
		}
		entry.Warn("request rejected")
	}
}
