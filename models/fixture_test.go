package models_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/wiredpart/parts_backend/config"
	"github.com/wiredpart/parts_backend/models"
	"github.com/wiredpart/parts_backend/utils"
)

// newTestStore opens a fresh sqlite file under t.TempDir through the same
// connection path the server uses.
func newTestStore(t *testing.T) *models.Store {
	t.Helper()
	settings := &config.Settings{
		DBDriver:          config.DriverSqlite,
		DBPath:            filepath.Join(t.TempDir(), "ledger.db"),
		OrderNumberPrefix: "PO",
		RaNumberPrefix:    "RA",
	}
	logger := config.NewLogger("error")
	db, err := config.ConnectDatabase(settings, logger, 1)
	if err != nil {
		t.Fatalf("ConnectDatabase: %v", err)
	}
	t.Cleanup(func() { _ = config.CloseDatabase(db) })
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}
	return models.NewStore(db, settings, nil, logger)
}

// fixture is a small shop: two technicians, a truck owned by the first, a
// supplier and an active job.
type fixture struct {
	store    *models.Store
	ctx      context.Context
	owner    *models.User
	helper   *models.User
	supplier *models.Supplier
	truck    *models.Truck
	job      *models.Job
	seq      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newTestStore(t)
	ctx := context.Background()

	owner, err := store.CreateUser(ctx, &models.NewUser{Username: "bob", DisplayName: "Bob Owner"})
	if err != nil {
		t.Fatalf("CreateUser owner: %v", err)
	}
	helper, err := store.CreateUser(ctx, &models.NewUser{Username: "alice", DisplayName: "Alice Helper"})
	if err != nil {
		t.Fatalf("CreateUser helper: %v", err)
	}
	supplier, err := store.CreateSupplier(ctx, &models.NewSupplier{Name: "Graybar", Email: "orders@graybar.test"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	truck, err := store.CreateTruck(ctx, &models.NewTruck{TruckNumber: "T-1", Name: "Van one", AssignedUserId: &owner.ID})
	if err != nil {
		t.Fatalf("CreateTruck: %v", err)
	}
	job, err := store.CreateJob(ctx, &models.NewJob{JobNumber: "J-100", Name: "Panel upgrade", CustomerName: "Smith"})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return &fixture{
		store:    store,
		ctx:      utils.SetUserIdInContext(ctx, owner.ID),
		owner:    owner,
		helper:   helper,
		supplier: supplier,
		truck:    truck,
		job:      job,
	}
}

func (f *fixture) part(t *testing.T, qty int, unitCost string) *models.Part {
	t.Helper()
	f.seq++
	part, err := f.store.CreatePart(f.ctx, &models.NewPart{
		PartNumber:  fmt.Sprintf("P-%03d", f.seq),
		Description: fmt.Sprintf("Test part %d", f.seq),
		Quantity:    qty,
		UnitCost:    decimal.RequireFromString(unitCost),
	})
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	return part
}

func (f *fixture) newTruck(t *testing.T, number string, owner *int) *models.Truck {
	t.Helper()
	truck, err := f.store.CreateTruck(f.ctx, &models.NewTruck{TruckNumber: number, AssignedUserId: owner})
	if err != nil {
		t.Fatalf("CreateTruck: %v", err)
	}
	return truck
}

func (f *fixture) newJob(t *testing.T, number string) *models.Job {
	t.Helper()
	job, err := f.store.CreateJob(f.ctx, &models.NewJob{JobNumber: number, Name: "Job " + number})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return job
}

// stockTruck moves qty from the warehouse onto truck and receives it.
func (f *fixture) stockTruck(t *testing.T, truckId int, partId int, qty int) {
	t.Helper()
	transfer, err := f.store.CreateTransfer(f.ctx, &models.NewTransfer{TruckId: truckId, PartId: partId, Quantity: qty})
	if err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}
	if _, err := f.store.ReceiveTransfer(f.ctx, transfer.ID, nil); err != nil {
		t.Fatalf("ReceiveTransfer: %v", err)
	}
}

func (f *fixture) warehouse(t *testing.T, partId int) int {
	t.Helper()
	part, err := f.store.GetPart(f.ctx, partId)
	if err != nil {
		t.Fatalf("GetPart: %v", err)
	}
	return part.WarehouseQuantity
}

func (f *fixture) onTruck(t *testing.T, truckId int, partId int) int {
	t.Helper()
	qty, err := f.store.TruckOnHand(f.ctx, truckId, partId)
	if err != nil {
		t.Fatalf("TruckOnHand: %v", err)
	}
	return qty
}

func (f *fixture) jobPart(t *testing.T, jobId int, partId int) *models.JobPart {
	t.Helper()
	parts, err := f.store.JobParts(f.ctx, jobId)
	if err != nil {
		t.Fatalf("JobParts: %v", err)
	}
	for i := range parts {
		if parts[i].PartId == partId {
			return &parts[i]
		}
	}
	return nil
}

type orderLine struct {
	part *models.Part
	qty  int
}

// submittedOrder creates and submits an order; items come back in line order.
func (f *fixture) submittedOrder(t *testing.T, lines ...orderLine) *models.PurchaseOrder {
	t.Helper()
	input := &models.NewPurchaseOrder{SupplierId: f.supplier.ID}
	for _, l := range lines {
		input.Items = append(input.Items, models.NewOrderItem{PartId: l.part.ID, QuantityOrdered: l.qty, UnitCost: l.part.UnitCost})
	}
	order, err := f.store.CreatePurchaseOrder(f.ctx, input)
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	order, err = f.store.SubmitPurchaseOrder(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("SubmitPurchaseOrder: %v", err)
	}
	return order
}

func wantKind(t *testing.T, err error, kind utils.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	got, ok := utils.KindOf(err)
	if !ok {
		t.Fatalf("expected %s error, got non-ledger error %v", kind, err)
	}
	if got != kind {
		t.Fatalf("expected %s error, got %s: %v", kind, got, err)
	}
}

func wantSentinel(t *testing.T, err error, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected errors.Is(%v, %v)", err, target)
	}
}
