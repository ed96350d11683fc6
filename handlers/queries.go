package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wiredpart/parts_backend/queries"
	"github.com/wiredpart/parts_backend/utils"
)

func (h *Handler) queryNames(c *gin.Context) {
	c.JSON(http.StatusOK, queries.Names())
}

// runQuery takes the tool arguments as the raw request body.
func (h *Handler) runQuery(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.fail(c, utils.ValidationError("could not read request body"))
		return
	}
	q, err := queries.Parse(c.Param("name"), body)
	if err != nil {
		h.fail(c, err)
		return
	}
	result, err := h.dispatcher.Run(c.Request.Context(), q)
	h.respond(c, http.StatusOK, result, err)
}
