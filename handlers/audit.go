package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wiredpart/parts_backend/models"
	"github.com/wiredpart/parts_backend/utils"
)

func auditScope(c *gin.Context) (models.AuditType, *int, error) {
	auditType, err := models.ParseAuditType(c.Param("type"))
	if err != nil {
		return "", nil, err
	}
	targetId, err := optionalIntQuery(c, "target_id")
	if err != nil {
		return "", nil, err
	}
	return auditType, targetId, nil
}

func (h *Handler) auditItems(c *gin.Context) {
	auditType, targetId, err := auditScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			h.fail(c, utils.ValidationError("limit must be an integer"))
			return
		}
	}
	items, err := h.store.GetAuditItems(c.Request.Context(), auditType, targetId, limit)
	h.respond(c, http.StatusOK, items, err)
}

func (h *Handler) auditSummary(c *gin.Context) {
	auditType, targetId, err := auditScope(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	summary, err := h.store.AuditSummary(c.Request.Context(), auditType, targetId)
	h.respond(c, http.StatusOK, summary, err)
}

func (h *Handler) recordAudit(c *gin.Context) {
	var input models.NewAuditRecord
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	record, err := h.store.RecordAuditResult(c.Request.Context(), &input)
	h.respond(c, http.StatusCreated, record, err)
}
