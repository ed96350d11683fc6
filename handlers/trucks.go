package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wiredpart/parts_backend/models"
)

type assignTruckRequest struct {
	UserId *int `json:"user_id"`
}

type returnRequest struct {
	PartId   int    `json:"part_id"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

func (h *Handler) listTrucks(c *gin.Context) {
	trucks, err := h.store.ListTrucks(c.Request.Context())
	h.respond(c, http.StatusOK, trucks, err)
}

func (h *Handler) createTruck(c *gin.Context) {
	var input models.NewTruck
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	truck, err := h.store.CreateTruck(c.Request.Context(), &input)
	h.respond(c, http.StatusCreated, truck, err)
}

func (h *Handler) getTruck(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	truck, err := h.store.GetTruck(c.Request.Context(), id)
	h.respond(c, http.StatusOK, truck, err)
}

func (h *Handler) assignTruck(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req assignTruckRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	truck, err := h.store.AssignTruck(c.Request.Context(), id, req.UserId)
	h.respond(c, http.StatusOK, truck, err)
}

func (h *Handler) truckInventory(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := h.store.GetTruckInventory(c.Request.Context(), id)
	h.respond(c, http.StatusOK, rows, err)
}

func (h *Handler) returnToWarehouse(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req returnRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	transfer, err := h.store.ReturnToWarehouse(c.Request.Context(), &models.NewReturnToWarehouse{
		TruckId:  id,
		PartId:   req.PartId,
		Quantity: req.Quantity,
		Notes:    req.Notes,
	})
	h.respond(c, http.StatusCreated, transfer, err)
}

func (h *Handler) listTransfers(c *gin.Context) {
	var filter models.TransferFilter
	var err error
	if filter.TruckId, err = optionalIntQuery(c, "truck_id"); err != nil {
		h.fail(c, err)
		return
	}
	if filter.PartId, err = optionalIntQuery(c, "part_id"); err != nil {
		h.fail(c, err)
		return
	}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseTransferStatus(raw)
		if err != nil {
			h.fail(c, err)
			return
		}
		filter.Status = &status
	}
	transfers, err := h.store.ListTransfers(c.Request.Context(), filter)
	h.respond(c, http.StatusOK, transfers, err)
}

func (h *Handler) createTransfer(c *gin.Context) {
	var input models.NewTransfer
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	transfer, err := h.store.CreateTransfer(c.Request.Context(), &input)
	h.respond(c, http.StatusCreated, transfer, err)
}

func (h *Handler) getTransfer(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	transfer, err := h.store.GetTransfer(c.Request.Context(), id)
	h.respond(c, http.StatusOK, transfer, err)
}

func (h *Handler) receiveTransfer(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	transfer, err := h.store.ReceiveTransfer(c.Request.Context(), id, nil)
	h.respond(c, http.StatusOK, transfer, err)
}

func (h *Handler) cancelTransfer(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	transfer, err := h.store.CancelTransfer(c.Request.Context(), id)
	h.respond(c, http.StatusOK, transfer, err)
}
