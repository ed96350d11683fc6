package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/wiredpart/parts_backend/middlewares"
)

// NewRouter builds the engine. extra runs after the correlation id is set and
// before the acting user is resolved (cors, rate limiting).
func NewRouter(h *Handler, logger *logrus.Logger, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationId())
	r.Use(extra...)
	r.Use(middlewares.ErrorLogger(logger))
	r.Use(gin.Recovery())
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.Use(middlewares.ActingUser(h.store))
	h.Register(api)

	r.NoRoute(h.NotFound)
	return r
}
