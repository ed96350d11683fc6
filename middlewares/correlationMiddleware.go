package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wiredpart/parts_backend/utils"
)

const CorrelationIdHeader = "X-Correlation-Id"

// CorrelationId reuses the caller's id when given, otherwise mints one, and
// echoes it on the response.
func CorrelationId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Request.Header.Get(CorrelationIdHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), id))
		c.Header(CorrelationIdHeader, id)
		c.Next()
	}
}
