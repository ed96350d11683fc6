package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wiredpart/parts_backend/models"
)

type jobStatusRequest struct {
	Status models.JobStatus `json:"status"`
}

type consumeRequest struct {
	TruckId  int    `json:"truck_id"`
	PartId   int    `json:"part_id"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

type assignPartRequest struct {
	PartId   int    `json:"part_id"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

func (h *Handler) listJobs(c *gin.Context) {
	var status *models.JobStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseJobStatus(raw)
		if err != nil {
			h.fail(c, err)
			return
		}
		status = &parsed
	}
	jobs, err := h.store.ListJobs(c.Request.Context(), status)
	h.respond(c, http.StatusOK, jobs, err)
}

func (h *Handler) createJob(c *gin.Context) {
	var input models.NewJob
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	job, err := h.store.CreateJob(c.Request.Context(), &input)
	h.respond(c, http.StatusCreated, job, err)
}

func (h *Handler) getJob(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	job, err := h.store.GetJob(c.Request.Context(), id)
	h.respond(c, http.StatusOK, job, err)
}

func (h *Handler) updateJob(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var input models.UpdateJob
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	job, err := h.store.UpdateJob(c.Request.Context(), id, &input)
	h.respond(c, http.StatusOK, job, err)
}

func (h *Handler) deleteJob(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	job, err := h.store.DeleteJob(c.Request.Context(), id)
	h.respond(c, http.StatusOK, job, err)
}

func (h *Handler) updateJobStatus(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req jobStatusRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	job, err := h.store.UpdateJobStatus(c.Request.Context(), id, req.Status)
	h.respond(c, http.StatusOK, job, err)
}

func (h *Handler) jobParts(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := h.store.JobParts(c.Request.Context(), id)
	h.respond(c, http.StatusOK, rows, err)
}

func (h *Handler) assignPartToJob(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req assignPartRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	row, err := h.store.AssignPartToJob(c.Request.Context(), &models.NewJobAssignment{
		JobId:    id,
		PartId:   req.PartId,
		Quantity: req.Quantity,
		Notes:    req.Notes,
	})
	h.respond(c, http.StatusCreated, row, err)
}

func (h *Handler) removePartFromJob(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	row, err := h.store.RemovePartFromJob(c.Request.Context(), id)
	h.respond(c, http.StatusOK, row, err)
}

func (h *Handler) consumeFromTruck(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req consumeRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	entry, err := h.store.ConsumeFromTruck(c.Request.Context(), &models.NewConsumption{
		JobId:    id,
		TruckId:  req.TruckId,
		PartId:   req.PartId,
		Quantity: req.Quantity,
		Notes:    req.Notes,
	})
	h.respond(c, http.StatusCreated, entry, err)
}

func (h *Handler) consumptionLog(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := h.store.ConsumptionLogForJob(c.Request.Context(), id)
	h.respond(c, http.StatusOK, rows, err)
}

func (h *Handler) jobSummary(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	summary, err := h.store.JobSummary(c.Request.Context(), id)
	h.respond(c, http.StatusOK, summary, err)
}
