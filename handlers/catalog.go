package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wiredpart/parts_backend/models"
)

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	h.respond(c, http.StatusOK, users, err)
}

func (h *Handler) createUser(c *gin.Context) {
	var input models.NewUser
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	user, err := h.store.CreateUser(c.Request.Context(), &input)
	h.respond(c, http.StatusCreated, user, err)
}

func (h *Handler) listSuppliers(c *gin.Context) {
	suppliers, err := h.store.ListSuppliers(c.Request.Context())
	h.respond(c, http.StatusOK, suppliers, err)
}

func (h *Handler) createSupplier(c *gin.Context) {
	var input models.NewSupplier
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	supplier, err := h.store.CreateSupplier(c.Request.Context(), &input)
	h.respond(c, http.StatusCreated, supplier, err)
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context())
	h.respond(c, http.StatusOK, categories, err)
}

func (h *Handler) createCategory(c *gin.Context) {
	var input models.NewCategory
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	category, err := h.store.CreateCategory(c.Request.Context(), &input)
	h.respond(c, http.StatusCreated, category, err)
}

func (h *Handler) categoryParts(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	parts, err := h.store.PartsByCategory(c.Request.Context(), id)
	h.respond(c, http.StatusOK, parts, err)
}
