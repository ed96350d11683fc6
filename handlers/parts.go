package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wiredpart/parts_backend/models"
)

func (h *Handler) listParts(c *gin.Context) {
	ctx := c.Request.Context()
	if q := c.Query("q"); q != "" {
		parts, err := h.store.SearchParts(ctx, q)
		h.respond(c, http.StatusOK, parts, err)
		return
	}
	parts, err := h.store.ListParts(ctx, boolQuery(c, "include_archived"))
	h.respond(c, http.StatusOK, parts, err)
}

func (h *Handler) createPart(c *gin.Context) {
	var input models.NewPart
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	part, err := h.store.CreatePart(c.Request.Context(), &input)
	h.respond(c, http.StatusCreated, part, err)
}

func (h *Handler) getPart(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	part, err := h.store.GetPart(c.Request.Context(), id)
	h.respond(c, http.StatusOK, part, err)
}

func (h *Handler) updatePart(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var input models.UpdatePart
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	part, err := h.store.UpdatePart(c.Request.Context(), id, &input)
	h.respond(c, http.StatusOK, part, err)
}

func (h *Handler) canDeletePart(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	check, err := h.store.CanDeletePart(c.Request.Context(), id)
	h.respond(c, http.StatusOK, check, err)
}

func (h *Handler) deletePart(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	part, err := h.store.DeletePart(c.Request.Context(), id)
	h.respond(c, http.StatusOK, part, err)
}

func (h *Handler) lowStockParts(c *gin.Context) {
	parts, err := h.store.LowStockParts(c.Request.Context())
	h.respond(c, http.StatusOK, parts, err)
}

func (h *Handler) deprecatedParts(c *gin.Context) {
	parts, err := h.store.DeprecatedParts(c.Request.Context())
	h.respond(c, http.StatusOK, parts, err)
}

func (h *Handler) deprecationProgress(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	progress, err := h.store.DeprecationProgress(c.Request.Context(), id)
	h.respond(c, http.StatusOK, progress, err)
}

func (h *Handler) startDeprecation(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	part, err := h.store.StartPartDeprecation(c.Request.Context(), id)
	h.respond(c, http.StatusOK, part, err)
}

func (h *Handler) advanceDeprecation(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	status, err := h.store.AdvanceDeprecation(c.Request.Context(), id)
	h.respond(c, http.StatusOK, gin.H{"deprecation_status": status}, err)
}

func (h *Handler) cancelDeprecation(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	part, err := h.store.CancelDeprecation(c.Request.Context(), id)
	h.respond(c, http.StatusOK, part, err)
}

func (h *Handler) inventorySummary(c *gin.Context) {
	summary, err := h.store.InventorySummary(c.Request.Context())
	h.respond(c, http.StatusOK, summary, err)
}

func (h *Handler) history(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := h.store.GetHistory(c.Request.Context(), c.Param("type"), id)
	h.respond(c, http.StatusOK, rows, err)
}
