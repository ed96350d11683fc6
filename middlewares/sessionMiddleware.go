package middlewares

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wiredpart/parts_backend/models"
	"github.com/wiredpart/parts_backend/utils"
)

const UserIdHeader = "X-User-Id"

type UserLookup interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
}

// ActingUser puts the caller named by X-User-Id into the request context.
// Requests without the header run anonymously.
func ActingUser(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.Request.Header.Get(UserIdHeader))
		if raw == "" {
			c.Next()
			return
		}
		userId, err := strconv.Atoi(raw)
		if err != nil || userId <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "invalid " + UserIdHeader + " header",
				"kind":  utils.KindValidation,
			})
			return
		}
		user, err := users.GetUser(c.Request.Context(), userId)
		if err != nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := utils.SetUserIdInContext(c.Request.Context(), user.ID)
		ctx = utils.SetUserNameInContext(ctx, user.DisplayName)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
