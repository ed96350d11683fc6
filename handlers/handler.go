package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/wiredpart/parts_backend/config"
	"github.com/wiredpart/parts_backend/models"
	"github.com/wiredpart/parts_backend/queries"
	"github.com/wiredpart/parts_backend/utils"
)

const kindInternal = "Internal"

// Handler maps HTTP requests onto store operations.
type Handler struct {
	store      *models.Store
	dispatcher *queries.Dispatcher
	logger     *logrus.Logger
}

func New(store *models.Store, dispatcher *queries.Dispatcher, logger *logrus.Logger) *Handler {
	return &Handler{store: store, dispatcher: dispatcher, logger: logger}
}

// StatusFor is the HTTP status a ledger error kind is reported with.
func StatusFor(kind utils.ErrorKind) int {
	switch kind {
	case utils.KindValidation:
		return http.StatusBadRequest
	case utils.KindInsufficientStock, utils.KindInvalidTransition:
		return http.StatusConflict
	case utils.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// fail writes {"error", "kind"}. Ledger messages go out verbatim; anything
// else is logged and hidden behind a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	kind, ok := utils.KindOf(err)
	if !ok {
		correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(h.logger, "handlers", c.HandlerName(), c.FullPath(), correlationId, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
			"kind":  kindInternal,
		})
		return
	}
	c.AbortWithStatusJSON(StatusFor(kind), gin.H{
		"error": err.Error(),
		"kind":  kind,
	})
}

func (h *Handler) respond(c *gin.Context, status int, body any, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, body)
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		var ledgerErr *utils.LedgerError
		if errors.As(err, &ledgerErr) {
			return ledgerErr
		}
		return utils.ValidationError("invalid request body: %v", err)
	}
	return nil
}

func idParam(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, utils.ValidationError("%s must be a positive integer", name)
	}
	return id, nil
}

func optionalIntQuery(c *gin.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, utils.ValidationError("%s must be an integer", name)
	}
	return &n, nil
}

func boolQuery(c *gin.Context, name string) bool {
	b, _ := strconv.ParseBool(c.Query(name))
	return b
}

func (h *Handler) Healthz(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *Handler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "kind": utils.KindNotFound})
}

// Register mounts every ledger route under r.
func (h *Handler) Register(r *gin.RouterGroup) {
	parts := r.Group("/parts")
	parts.GET("", h.listParts)
	parts.POST("", h.createPart)
	parts.GET("/low-stock", h.lowStockParts)
	parts.GET("/deprecated", h.deprecatedParts)
	parts.GET("/:id", h.getPart)
	parts.PUT("/:id", h.updatePart)
	parts.DELETE("/:id", h.deletePart)
	parts.GET("/:id/can-delete", h.canDeletePart)
	parts.GET("/:id/deprecation", h.deprecationProgress)
	parts.POST("/:id/deprecation/start", h.startDeprecation)
	parts.POST("/:id/deprecation/advance", h.advanceDeprecation)
	parts.POST("/:id/deprecation/cancel", h.cancelDeprecation)

	r.GET("/users", h.listUsers)
	r.POST("/users", h.createUser)
	r.GET("/suppliers", h.listSuppliers)
	r.POST("/suppliers", h.createSupplier)
	r.GET("/categories", h.listCategories)
	r.POST("/categories", h.createCategory)
	r.GET("/categories/:id/parts", h.categoryParts)

	trucks := r.Group("/trucks")
	trucks.GET("", h.listTrucks)
	trucks.POST("", h.createTruck)
	trucks.GET("/:id", h.getTruck)
	trucks.PUT("/:id/assign", h.assignTruck)
	trucks.GET("/:id/inventory", h.truckInventory)
	trucks.POST("/:id/return", h.returnToWarehouse)

	transfers := r.Group("/transfers")
	transfers.GET("", h.listTransfers)
	transfers.POST("", h.createTransfer)
	transfers.GET("/:id", h.getTransfer)
	transfers.POST("/:id/receive", h.receiveTransfer)
	transfers.POST("/:id/cancel", h.cancelTransfer)

	jobs := r.Group("/jobs")
	jobs.GET("", h.listJobs)
	jobs.POST("", h.createJob)
	jobs.GET("/:id", h.getJob)
	jobs.PUT("/:id", h.updateJob)
	jobs.DELETE("/:id", h.deleteJob)
	jobs.PUT("/:id/status", h.updateJobStatus)
	jobs.GET("/:id/parts", h.jobParts)
	jobs.POST("/:id/parts", h.assignPartToJob)
	jobs.POST("/:id/consume", h.consumeFromTruck)
	jobs.GET("/:id/consumption", h.consumptionLog)
	jobs.GET("/:id/summary", h.jobSummary)
	r.DELETE("/job-parts/:id", h.removePartFromJob)

	orders := r.Group("/orders")
	orders.GET("", h.listOrders)
	orders.POST("", h.createOrder)
	orders.GET("/summary", h.ordersSummary)
	orders.GET("/reorder-suggestions", h.suggestReorder)
	orders.GET("/:id", h.getOrder)
	orders.DELETE("/:id", h.deleteOrder)
	orders.POST("/:id/items", h.addOrderItem)
	orders.POST("/:id/submit", h.submitOrder)
	orders.POST("/:id/cancel", h.cancelOrder)
	orders.POST("/:id/close", h.closeOrder)
	orders.POST("/:id/receive", h.receiveOrder)
	orders.GET("/:id/receive-log", h.receiveLog)
	orders.GET("/:id/receive-summary", h.receiveSummary)
	r.PUT("/order-items/:id", h.updateOrderItem)
	r.DELETE("/order-items/:id", h.removeOrderItem)

	returns := r.Group("/returns")
	returns.GET("", h.listReturns)
	returns.POST("", h.createReturn)
	returns.GET("/:id", h.getReturn)
	returns.PUT("/:id/status", h.updateReturnStatus)
	returns.DELETE("/:id", h.deleteReturn)

	audit := r.Group("/audit")
	audit.GET("/:type/items", h.auditItems)
	audit.GET("/:type/summary", h.auditSummary)
	audit.POST("/records", h.recordAudit)

	notifications := r.Group("/notifications")
	notifications.GET("", h.listNotifications)
	notifications.GET("/unread-count", h.unreadCount)
	notifications.POST("/read-all", h.markAllRead)
	notifications.POST("/:id/read", h.markRead)

	r.GET("/inventory/summary", h.inventorySummary)
	r.GET("/history/:type/:id", h.history)

	r.GET("/queries", h.queryNames)
	r.POST("/queries/:name", h.runQuery)
}
