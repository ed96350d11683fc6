package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wiredpart/parts_backend/models"
)

type receiveRequest struct {
	Receipts []models.ReceiptLine `json:"receipts"`
}

func (h *Handler) listOrders(c *gin.Context) {
	var status *models.PurchaseOrderStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParsePurchaseOrderStatus(raw)
		if err != nil {
			h.fail(c, err)
			return
		}
		status = &parsed
	}
	orders, err := h.store.ListPurchaseOrders(c.Request.Context(), status)
	h.respond(c, http.StatusOK, orders, err)
}

func (h *Handler) createOrder(c *gin.Context) {
	var input models.NewPurchaseOrder
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	order, err := h.store.CreatePurchaseOrder(c.Request.Context(), &input)
	h.respond(c, http.StatusCreated, order, err)
}

func (h *Handler) getOrder(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	order, err := h.store.GetPurchaseOrder(c.Request.Context(), id)
	h.respond(c, http.StatusOK, order, err)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	order, err := h.store.DeletePurchaseOrder(c.Request.Context(), id)
	h.respond(c, http.StatusOK, order, err)
}

func (h *Handler) addOrderItem(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var input models.NewOrderItem
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	item, err := h.store.AddOrderItem(c.Request.Context(), id, &input)
	h.respond(c, http.StatusCreated, item, err)
}

func (h *Handler) updateOrderItem(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var input models.UpdateOrderItem
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	item, err := h.store.UpdateOrderItem(c.Request.Context(), id, &input)
	h.respond(c, http.StatusOK, item, err)
}

func (h *Handler) removeOrderItem(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.store.RemoveOrderItem(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) submitOrder(c *gin.Context) {
	h.orderAction(c, h.store.SubmitPurchaseOrder)
}

func (h *Handler) cancelOrder(c *gin.Context) {
	h.orderAction(c, h.store.CancelPurchaseOrder)
}

func (h *Handler) closeOrder(c *gin.Context) {
	h.orderAction(c, h.store.ClosePurchaseOrder)
}

func (h *Handler) orderAction(c *gin.Context, action func(ctx context.Context, id int) (*models.PurchaseOrder, error)) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	order, err := action(c.Request.Context(), id)
	h.respond(c, http.StatusOK, order, err)
}

func (h *Handler) receiveOrder(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req receiveRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	order, err := h.store.ReceiveOrderItems(c.Request.Context(), id, req.Receipts, nil)
	h.respond(c, http.StatusOK, order, err)
}

func (h *Handler) receiveLog(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := h.store.ReceiveLogForOrder(c.Request.Context(), id)
	h.respond(c, http.StatusOK, rows, err)
}

func (h *Handler) receiveSummary(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	summary, err := h.store.OrderReceiveSummary(c.Request.Context(), id)
	h.respond(c, http.StatusOK, summary, err)
}

func (h *Handler) ordersSummary(c *gin.Context) {
	counts, err := h.store.OrdersSummary(c.Request.Context())
	h.respond(c, http.StatusOK, counts, err)
}

func (h *Handler) suggestReorder(c *gin.Context) {
	suggestions, err := h.store.SuggestReorder(c.Request.Context())
	h.respond(c, http.StatusOK, suggestions, err)
}
