package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wiredpart/parts_backend/utils"
)

func (h *Handler) actingUser(c *gin.Context) (int, bool) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok || userId <= 0 {
		h.fail(c, utils.ValidationError("X-User-Id header is required"))
		return 0, false
	}
	return userId, true
}

func (h *Handler) listNotifications(c *gin.Context) {
	userId, ok := h.actingUser(c)
	if !ok {
		return
	}
	rows, err := h.store.UserNotifications(c.Request.Context(), userId, boolQuery(c, "unread"))
	h.respond(c, http.StatusOK, rows, err)
}

func (h *Handler) unreadCount(c *gin.Context) {
	userId, ok := h.actingUser(c)
	if !ok {
		return
	}
	count, err := h.store.UnreadNotificationCount(c.Request.Context(), userId)
	h.respond(c, http.StatusOK, gin.H{"unread": count}, err)
}

func (h *Handler) markRead(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.store.MarkNotificationRead(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) markAllRead(c *gin.Context) {
	userId, ok := h.actingUser(c)
	if !ok {
		return
	}
	count, err := h.store.MarkAllNotificationsRead(c.Request.Context(), userId)
	h.respond(c, http.StatusOK, gin.H{"marked": count}, err)
}
