package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiredpart/parts_backend/config"
	"github.com/wiredpart/parts_backend/handlers"
	"github.com/wiredpart/parts_backend/middlewares"
	"github.com/wiredpart/parts_backend/models"
	"github.com/wiredpart/parts_backend/queries"
	"github.com/wiredpart/parts_backend/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type api struct {
	t      *testing.T
	router *gin.Engine
	store  *models.Store
	user   *models.User
}

type errorBody struct {
	Error string          `json:"error"`
	Kind  utils.ErrorKind `json:"kind"`
}

func newAPI(t *testing.T) *api {
	t.Helper()
	settings := &config.Settings{
		DBDriver:          config.DriverSqlite,
		DBPath:            filepath.Join(t.TempDir(), "api.db"),
		OrderNumberPrefix: "PO",
		RaNumberPrefix:    "RA",
	}
	logger := config.NewLogger("error")
	db, err := config.ConnectDatabase(settings, logger, 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDatabase(db) })
	require.NoError(t, models.MigrateTable(db))

	store := models.NewStore(db, settings, nil, logger)
	user, err := store.CreateUser(context.Background(), &models.NewUser{Username: "kim", DisplayName: "Kim Lee"})
	require.NoError(t, err)

	h := handlers.New(store, queries.NewDispatcher(store, logger), logger)
	return &api{t: t, router: handlers.NewRouter(h, logger), store: store, user: user}
}

func (a *api) do(method string, path string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middlewares.UserIdHeader, fmt.Sprint(a.user.ID))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeInto[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *api) create(path string, body any) int {
	a.t.Helper()
	w := a.do(http.MethodPost, path, body)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decodeInto[struct {
		ID int `json:"id"`
	}](a.t, w).ID
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, handlers.StatusFor(utils.KindValidation))
	assert.Equal(t, http.StatusConflict, handlers.StatusFor(utils.KindInsufficientStock))
	assert.Equal(t, http.StatusConflict, handlers.StatusFor(utils.KindInvalidTransition))
	assert.Equal(t, http.StatusNotFound, handlers.StatusFor(utils.KindNotFound))
	assert.Equal(t, http.StatusInternalServerError, handlers.StatusFor("Other"))
}

func TestHealthzAndCorrelationId(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get(middlewares.CorrelationIdHeader))

	w = a.do(http.MethodGet, "/healthz", nil, middlewares.CorrelationIdHeader, "abc-123")
	assert.Equal(t, "abc-123", w.Header().Get(middlewares.CorrelationIdHeader))
}

func TestTransferAndConsumeOverHTTP(t *testing.T) {
	a := newAPI(t)
	partId := a.create("/api/parts", map[string]any{
		"part_number": "GFCI-15", "description": "15A GFCI", "quantity": 10, "unit_cost": "18.50",
	})
	truckId := a.create("/api/trucks", map[string]any{"truck_number": "T-3", "assigned_user_id": a.user.ID})
	jobId := a.create("/api/jobs", map[string]any{"job_number": "J-7", "name": "Kitchen"})
	transferId := a.create("/api/transfers", map[string]any{"truck_id": truckId, "part_id": partId, "quantity": 6})

	w := a.do(http.MethodPost, fmt.Sprintf("/api/transfers/%d/receive", transferId), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	transfer := decodeInto[models.TruckTransfer](t, w)
	assert.Equal(t, models.TransferStatusReceived, transfer.Status)

	w = a.do(http.MethodPost, fmt.Sprintf("/api/jobs/%d/consume", jobId), map[string]any{
		"truck_id": truckId, "part_id": partId, "quantity": 7,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	body := decodeInto[errorBody](t, w)
	assert.Equal(t, utils.KindInsufficientStock, body.Kind)
	assert.Contains(t, body.Error, "Insufficient truck stock")

	consumptionId := a.create(fmt.Sprintf("/api/jobs/%d/consume", jobId), map[string]any{
		"truck_id": truckId, "part_id": partId, "quantity": 2,
	})
	assert.Positive(t, consumptionId)

	w = a.do(http.MethodGet, fmt.Sprintf("/api/trucks/%d/inventory", truckId), nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decodeInto[[]models.TruckInventory](t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Quantity)

	w = a.do(http.MethodGet, "/api/inventory/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decodeInto[models.InventorySummary](t, w)
	assert.Equal(t, 4, summary.TotalWarehouseUnits)
	assert.Equal(t, 4, summary.TruckUnits)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	a := newAPI(t)
	partId := a.create("/api/parts", map[string]any{"part_number": "WN-1", "description": "wire nut", "quantity": 3})
	truckId := a.create("/api/trucks", map[string]any{"truck_number": "T-4"})
	transferId := a.create("/api/transfers", map[string]any{"truck_id": truckId, "part_id": partId, "quantity": 1})
	w := a.do(http.MethodPost, fmt.Sprintf("/api/transfers/%d/cancel", transferId), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		kind   utils.ErrorKind
	}{
		{"zero quantity", http.MethodPost, "/api/transfers", map[string]any{"truck_id": truckId, "part_id": partId, "quantity": 0}, http.StatusBadRequest, utils.KindValidation},
		{"over warehouse", http.MethodPost, "/api/transfers", map[string]any{"truck_id": truckId, "part_id": partId, "quantity": 4}, http.StatusConflict, utils.KindInsufficientStock},
		{"cancel twice", http.MethodPost, fmt.Sprintf("/api/transfers/%d/cancel", transferId), nil, http.StatusNotFound, utils.KindNotFound},
		{"missing part", http.MethodGet, "/api/parts/9999", nil, http.StatusNotFound, utils.KindNotFound},
		{"bad id", http.MethodGet, "/api/parts/abc", nil, http.StatusBadRequest, utils.KindValidation},
		{"bad enum", http.MethodGet, "/api/jobs?status=paused", nil, http.StatusBadRequest, utils.KindValidation},
		{"bad json", http.MethodPost, "/api/parts", "not an object", http.StatusBadRequest, utils.KindValidation},
		{"unknown route", http.MethodGet, "/api/nothing-here", nil, http.StatusNotFound, utils.KindNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := a.do(tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, tc.kind, decodeInto[errorBody](t, w).Kind)
		})
	}
}

func TestCategoryAndJobRoutes(t *testing.T) {
	a := newAPI(t)
	categoryId := a.create("/api/categories", map[string]any{"name": "Solar", "description": "Panels and inverters"})
	a.create("/api/parts", map[string]any{"part_number": "PV-400", "description": "400W panel", "category_id": categoryId})

	w := a.do(http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeInto[[]models.Category](t, w), 11)

	w = a.do(http.MethodGet, fmt.Sprintf("/api/categories/%d/parts", categoryId), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	parts := decodeInto[[]models.Part](t, w)
	require.Len(t, parts, 1)
	assert.Equal(t, "PV-400", parts[0].PartNumber)

	w = a.do(http.MethodGet, "/api/categories/9999/parts", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPost, "/api/jobs", map[string]any{"name": "Roof array"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	job := decodeInto[models.Job](t, w)
	assert.Regexp(t, `^JOB-\d{4}-001$`, job.JobNumber)

	w = a.do(http.MethodPut, fmt.Sprintf("/api/jobs/%d", job.ID), map[string]any{"customer_name": "Ortiz"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Ortiz", decodeInto[models.Job](t, w).CustomerName)

	w = a.do(http.MethodDelete, fmt.Sprintf("/api/jobs/%d", job.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = a.do(http.MethodGet, fmt.Sprintf("/api/jobs/%d", job.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActingUserHeader(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodGet, "/api/notifications", nil, middlewares.UserIdHeader, "nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/api/notifications", nil, middlewares.UserIdHeader, "4242")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"unread":0}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueriesOverHTTP(t *testing.T) {
	a := newAPI(t)
	a.create("/api/parts", map[string]any{"part_number": "BOX-4", "description": "4in box", "quantity": 2, "min_quantity": 5})

	w := a.do(http.MethodGet, "/api/queries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeInto[[]string](t, w), "get_low_stock_parts")

	w = a.do(http.MethodPost, "/api/queries/get_low_stock_parts", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	parts := decodeInto[[]models.Part](t, w)
	require.Len(t, parts, 1)
	assert.Equal(t, "BOX-4", parts[0].PartNumber)

	w = a.do(http.MethodPost, "/api/queries/get_part_details", map[string]any{"part_number": "NOPE"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPost, "/api/queries/rm_rf", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, utils.KindValidation, decodeInto[errorBody](t, w).Kind)
}

func TestPurchaseOrderOverHTTP(t *testing.T) {
	a := newAPI(t)
	partId := a.create("/api/parts", map[string]any{"part_number": "EMT-1", "description": "1in EMT", "quantity": 0})
	supplierId := a.create("/api/suppliers", map[string]any{"name": "City Electric"})
	orderId := a.create("/api/orders", map[string]any{
		"supplier_id": supplierId,
		"items":       []map[string]any{{"part_id": partId, "quantity_ordered": 5, "unit_cost": "4.25"}},
	})

	w := a.do(http.MethodPost, fmt.Sprintf("/api/orders/%d/receive", orderId), map[string]any{"receipts": []map[string]any{}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decodeInto[errorBody](t, w).Error, "cannot receive")

	w = a.do(http.MethodPost, fmt.Sprintf("/api/orders/%d/submit", orderId), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	order := decodeInto[models.PurchaseOrder](t, w)
	require.Len(t, order.Items, 1)

	w = a.do(http.MethodPost, fmt.Sprintf("/api/orders/%d/receive", orderId), map[string]any{
		"receipts": []map[string]any{{"order_item_id": order.Items[0].ID, "quantity_received": 5}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.PurchaseOrderStatusClosed, decodeInto[models.PurchaseOrder](t, w).Status)

	w = a.do(http.MethodGet, fmt.Sprintf("/api/parts/%d", partId), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, decodeInto[models.Part](t, w).WarehouseQuantity)
}
