package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wiredpart/parts_backend/models"
)

type returnStatusRequest struct {
	Status       models.ReturnStatus `json:"status"`
	CreditAmount *decimal.Decimal    `json:"credit_amount"`
}

func (h *Handler) listReturns(c *gin.Context) {
	var status *models.ReturnStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseReturnStatus(raw)
		if err != nil {
			h.fail(c, err)
			return
		}
		status = &parsed
	}
	rows, err := h.store.ListReturnAuthorizations(c.Request.Context(), status)
	h.respond(c, http.StatusOK, rows, err)
}

func (h *Handler) createReturn(c *gin.Context) {
	var input models.NewReturnAuthorization
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	ra, err := h.store.CreateReturnAuthorization(c.Request.Context(), &input)
	h.respond(c, http.StatusCreated, ra, err)
}

func (h *Handler) getReturn(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	ra, err := h.store.GetReturnAuthorization(c.Request.Context(), id)
	h.respond(c, http.StatusOK, ra, err)
}

func (h *Handler) updateReturnStatus(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req returnStatusRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	ra, err := h.store.UpdateReturnStatus(c.Request.Context(), id, req.Status, req.CreditAmount)
	h.respond(c, http.StatusOK, ra, err)
}

func (h *Handler) deleteReturn(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	ra, err := h.store.DeleteReturnAuthorization(c.Request.Context(), id)
	h.respond(c, http.StatusOK, ra, err)
}
