package queries_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiredpart/parts_backend/config"
	"github.com/wiredpart/parts_backend/models"
	"github.com/wiredpart/parts_backend/queries"
	"github.com/wiredpart/parts_backend/utils"
)

type shop struct {
	store      *models.Store
	dispatcher *queries.Dispatcher
	ctx        context.Context
	truck      *models.Truck
	job        *models.Job
	breaker    *models.Part
	wire       *models.Part
}

func newShop(t *testing.T) *shop {
	t.Helper()
	settings := &config.Settings{
		DBDriver:          config.DriverSqlite,
		DBPath:            filepath.Join(t.TempDir(), "queries.db"),
		OrderNumberPrefix: "PO",
		RaNumberPrefix:    "RA",
	}
	logger := config.NewLogger("error")
	db, err := config.ConnectDatabase(settings, logger, 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDatabase(db) })
	require.NoError(t, models.MigrateTable(db))

	store := models.NewStore(db, settings, nil, logger)
	ctx := context.Background()
	user, err := store.CreateUser(ctx, &models.NewUser{Username: "sam", DisplayName: "Sam Tech"})
	require.NoError(t, err)
	ctx = utils.SetUserIdInContext(ctx, user.ID)

	truck, err := store.CreateTruck(ctx, &models.NewTruck{TruckNumber: "T-9", Name: "Box truck", AssignedUserId: &user.ID})
	require.NoError(t, err)
	job, err := store.CreateJob(ctx, &models.NewJob{JobNumber: "J-42", Name: "Service change"})
	require.NoError(t, err)
	breakers, err := store.GetCategoryByName(ctx, "Breakers & Fuses")
	require.NoError(t, err)
	breaker, err := store.CreatePart(ctx, &models.NewPart{
		PartNumber: "BRK-20", Description: "20A breaker", CategoryId: &breakers.ID, Quantity: 12, MinQuantity: 2, UnitCost: decimal.NewFromInt(9),
	})
	require.NoError(t, err)
	wire, err := store.CreatePart(ctx, &models.NewPart{
		PartNumber: "WIRE-12", Description: "12 AWG wire", Quantity: 1, MinQuantity: 5, MaxQuantity: 20, UnitCost: decimal.NewFromInt(3),
	})
	require.NoError(t, err)

	transfer, err := store.CreateTransfer(ctx, &models.NewTransfer{TruckId: truck.ID, PartId: breaker.ID, Quantity: 4})
	require.NoError(t, err)
	_, err = store.ReceiveTransfer(ctx, transfer.ID, nil)
	require.NoError(t, err)
	_, err = store.ConsumeFromTruck(ctx, &models.NewConsumption{JobId: job.ID, TruckId: truck.ID, PartId: breaker.ID, Quantity: 3})
	require.NoError(t, err)

	return &shop{
		store:      store,
		dispatcher: queries.NewDispatcher(store, logger),
		ctx:        ctx,
		truck:      truck,
		job:        job,
		breaker:    breaker,
		wire:       wire,
	}
}

func TestDispatcherReads(t *testing.T) {
	s := newShop(t)

	found, err := s.dispatcher.Run(s.ctx, queries.SearchParts{Query: "breaker"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "BRK-20", found.([]models.Part)[0].PartNumber)

	details, err := s.dispatcher.Run(s.ctx, queries.GetPartDetails{PartNumber: "BRK-20"})
	require.NoError(t, err)
	assert.Equal(t, 8, details.(*queries.PartDetails).Part.WarehouseQuantity)
	assert.Equal(t, 1, details.(*queries.PartDetails).TruckUnits)
	assert.Nil(t, details.(*queries.PartDetails).Deprecation)

	onTruck, err := s.dispatcher.Run(s.ctx, queries.GetTruckInventory{TruckNumber: "T-9"})
	require.NoError(t, err)
	require.Len(t, onTruck, 1)
	assert.Equal(t, 1, onTruck.([]models.TruckInventory)[0].Quantity)

	jobParts, err := s.dispatcher.Run(s.ctx, queries.GetJobParts{JobNumber: "J-42"})
	require.NoError(t, err)
	require.Len(t, jobParts, 1)
	assert.Equal(t, 3, jobParts.([]models.JobPart)[0].QuantityUsed)

	details, err = s.dispatcher.Run(s.ctx, queries.GetJobDetails{JobNumber: "J-42"})
	require.NoError(t, err)
	assert.True(t, details.(*models.JobSummary).TotalCost.Equal(decimal.NewFromInt(27)))

	overview, err := s.dispatcher.Run(s.ctx, queries.GetJobSummary{Status: "active"})
	require.NoError(t, err)
	require.Len(t, overview, 1)
	assert.Equal(t, 3, overview.([]queries.JobOverview)[0].TotalUnits)

	completed, err := s.dispatcher.Run(s.ctx, queries.GetJobSummary{Status: "completed"})
	require.NoError(t, err)
	assert.Empty(t, completed)

	low, err := s.dispatcher.Run(s.ctx, queries.GetLowStockParts{})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "WIRE-12", low.([]models.Part)[0].PartNumber)

	reorder, err := s.dispatcher.Run(s.ctx, queries.SuggestReorder{})
	require.NoError(t, err)
	require.Len(t, reorder, 1)
	assert.Equal(t, 19, reorder.([]models.ReorderSuggestion)[0].SuggestedQuantity)

	log, err := s.dispatcher.Run(s.ctx, queries.GetConsumptionLog{})
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, 3, log.([]models.ConsumptionLog)[0].Quantity)

	pending, err := s.dispatcher.Run(s.ctx, queries.GetPendingTransfers{})
	require.NoError(t, err)
	assert.Empty(t, pending)

	summary, err := s.dispatcher.Run(s.ctx, queries.GetInventorySummary{})
	require.NoError(t, err)
	assert.Equal(t, 9, summary.(*models.InventorySummary).TotalWarehouseUnits)
}

func TestDispatcherOrdersOverview(t *testing.T) {
	s := newShop(t)
	supplier, err := s.store.CreateSupplier(s.ctx, &models.NewSupplier{Name: "Rexel"})
	require.NoError(t, err)
	order, err := s.store.CreatePurchaseOrder(s.ctx, &models.NewPurchaseOrder{
		SupplierId: supplier.ID,
		Items:      []models.NewOrderItem{{PartId: s.wire.ID, QuantityOrdered: 10, UnitCost: decimal.NewFromInt(2)}},
	})
	require.NoError(t, err)
	_, err = s.store.SubmitPurchaseOrder(s.ctx, order.ID)
	require.NoError(t, err)
	_, err = s.store.ReceiveOrderItems(s.ctx, order.ID, []models.ReceiptLine{{OrderItemId: order.Items[0].ID, QuantityReceived: 4}}, nil)
	require.NoError(t, err)
	_, err = s.store.CreateReturnAuthorization(s.ctx, &models.NewReturnAuthorization{
		SupplierId: supplier.ID,
		Items:      []models.NewReturnItem{{PartId: s.breaker.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	got, err := s.dispatcher.Run(s.ctx, queries.GetOrdersSummary{})
	require.NoError(t, err)
	overview := got.(*queries.OrdersOverview)
	assert.Equal(t, 1, overview.Counts[models.PurchaseOrderStatusPartial])
	assert.Equal(t, 0, overview.Counts[models.PurchaseOrderStatusClosed])
	assert.Equal(t, 6, overview.UnitsAwaiting)
	assert.Equal(t, 1, overview.OpenReturns)
	assert.True(t, overview.TotalSpent.Equal(decimal.NewFromInt(8)), overview.TotalSpent.String())

	pending, err := s.dispatcher.Run(s.ctx, queries.GetPendingOrders{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 6, pending.([]queries.OrderOverview)[0].UnitsAwaiting)
}

func TestDispatcherDeprecatedAndAudit(t *testing.T) {
	s := newShop(t)
	_, err := s.store.StartPartDeprecation(s.ctx, s.breaker.ID)
	require.NoError(t, err)

	got, err := s.dispatcher.Run(s.ctx, queries.GetDeprecatedParts{})
	require.NoError(t, err)
	progress := got.([]models.DeprecationProgress)
	require.Len(t, progress, 1)
	assert.Equal(t, 1, progress[0].OpenJobs)
	assert.False(t, progress[0].ReadyToAdvance())

	_, err = s.store.RecordAuditResult(s.ctx, &models.NewAuditRecord{
		AuditType: models.AuditTypeTruck, TargetId: &s.truck.ID, PartId: s.breaker.ID,
		ExpectedQuantity: 1, ActualQuantity: 0,
	})
	require.NoError(t, err)
	got, err = s.dispatcher.Run(s.ctx, queries.GetAuditSummary{AuditType: models.AuditTypeTruck, TruckNumber: "T-9"})
	require.NoError(t, err)
	assert.Equal(t, 1, got.(*models.AuditSummary).Discrepancy)
}

func TestDispatcherCategoriesAndUsers(t *testing.T) {
	s := newShop(t)

	got, err := s.dispatcher.Run(s.ctx, queries.GetAllCategories{})
	require.NoError(t, err)
	categories := got.([]models.Category)
	require.Len(t, categories, 10)
	assert.Equal(t, "Boxes & Enclosures", categories[0].Name)

	got, err = s.dispatcher.Run(s.ctx, queries.GetPartsByCategory{Category: "Breakers & Fuses"})
	require.NoError(t, err)
	parts := got.([]models.Part)
	require.Len(t, parts, 1)
	assert.Equal(t, "BRK-20", parts[0].PartNumber)
	require.NotNil(t, parts[0].Category)
	assert.Equal(t, "Breakers & Fuses", parts[0].Category.Name)

	got, err = s.dispatcher.Run(s.ctx, queries.GetPartsByCategory{Category: "Lighting"})
	require.NoError(t, err)
	assert.Empty(t, got)

	// the category name is searchable too
	got, err = s.dispatcher.Run(s.ctx, queries.SearchParts{Query: "fuses"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = s.store.CreateUser(s.ctx, &models.NewUser{Username: "ann", DisplayName: "Ann Apprentice"})
	require.NoError(t, err)
	got, err = s.dispatcher.Run(s.ctx, queries.GetAllUsers{})
	require.NoError(t, err)
	users := got.([]models.User)
	require.Len(t, users, 2)
	assert.Equal(t, "ann", users[0].Username)
	assert.Equal(t, "sam", users[1].Username)
}

func TestDispatcherCreatesNotification(t *testing.T) {
	s := newShop(t)
	q, err := queries.Parse("create_notification", json.RawMessage(`{"title":"Audit gap","message":"T-9 is short one breaker","severity":"critical"}`))
	require.NoError(t, err)

	got, err := s.dispatcher.Run(s.ctx, q)
	require.NoError(t, err)
	note := got.(*models.Notification)
	assert.Equal(t, "assistant", note.Source)
	assert.Equal(t, models.NotificationSeverityCritical, note.Severity)
	assert.Nil(t, note.UserId)
}

func TestDispatcherErrors(t *testing.T) {
	s := newShop(t)
	tests := []struct {
		name  string
		query queries.Query
		kind  error
	}{
		{"missing argument", queries.SearchParts{}, utils.ErrValidation},
		{"unknown part", queries.GetPartDetails{PartNumber: "NOPE"}, utils.ErrNotFound},
		{"unknown truck", queries.GetTruckInventory{TruckNumber: "T-404"}, utils.ErrNotFound},
		{"unknown job", queries.GetJobDetails{JobNumber: "J-404"}, utils.ErrNotFound},
		{"bad job status", queries.GetJobSummary{Status: "paused"}, utils.ErrValidation},
		{"unknown category", queries.GetPartsByCategory{Category: "Plumbing"}, utils.ErrNotFound},
		{"missing category", queries.GetPartsByCategory{}, utils.ErrValidation},
		{"nil query", nil, utils.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.dispatcher.Run(s.ctx, tc.query)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}
