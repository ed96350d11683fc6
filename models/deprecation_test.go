package models_test

import (
	"testing"

	"github.com/wiredpart/parts_backend/models"
	"github.com/wiredpart/parts_backend/utils"
)

func TestStartDeprecationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	part := f.part(t, 3, "1.00")

	for i := 0; i < 2; i++ {
		got, err := f.store.StartPartDeprecation(f.ctx, part.ID)
		if err != nil {
			t.Fatalf("StartPartDeprecation #%d: %v", i+1, err)
		}
		if got.DeprecationStatus != models.DeprecationStatusPending {
			t.Fatalf("after call %d status = %s, want pending", i+1, got.DeprecationStatus)
		}
		if got.DeprecationStartedAt == nil {
			t.Fatalf("deprecation_started_at not set")
		}
	}
}

func TestAdvanceDeprecationGates(t *testing.T) {
	f := newFixture(t)
	part := f.part(t, 10, "1.00")
	f.stockTruck(t, f.truck.ID, part.ID, 4)
	if _, err := f.store.ConsumeFromTruck(f.ctx, &models.NewConsumption{
		JobId: f.job.ID, TruckId: f.truck.ID, PartId: part.ID, Quantity: 1,
	}); err != nil {
		t.Fatalf("ConsumeFromTruck: %v", err)
	}
	if _, err := f.store.StartPartDeprecation(f.ctx, part.ID); err != nil {
		t.Fatalf("StartPartDeprecation: %v", err)
	}

	advance := func(want models.DeprecationStatus) {
		t.Helper()
		got, err := f.store.AdvanceDeprecation(f.ctx, part.ID)
		if err != nil {
			t.Fatalf("AdvanceDeprecation: %v", err)
		}
		if got != want {
			t.Fatalf("status = %s, want %s", got, want)
		}
	}

	// 1) an open job still uses the part
	advance(models.DeprecationStatusPending)
	progress, err := f.store.DeprecationProgress(f.ctx, part.ID)
	if err != nil {
		t.Fatalf("DeprecationProgress: %v", err)
	}
	if progress.OpenJobs != 1 || progress.JobQuantity != 1 || progress.TruckQuantity != 3 || progress.WarehouseQuantity != 6 {
		t.Fatalf("progress = %+v", progress)
	}
	if _, err := f.store.UpdateJobStatus(f.ctx, f.job.ID, models.JobStatusOnHold); err != nil {
		t.Fatalf("UpdateJobStatus: %v", err)
	}
	advance(models.DeprecationStatusPending)

	// 2) job done: one stage only, the truck still holds stock
	if _, err := f.store.UpdateJobStatus(f.ctx, f.job.ID, models.JobStatusCompleted); err != nil {
		t.Fatalf("UpdateJobStatus: %v", err)
	}
	advance(models.DeprecationStatusWindingDown)
	advance(models.DeprecationStatusWindingDown)

	// 3) truck emptied
	if _, err := f.store.ReturnToWarehouse(f.ctx, &models.NewReturnToWarehouse{TruckId: f.truck.ID, PartId: part.ID, Quantity: 3}); err != nil {
		t.Fatalf("ReturnToWarehouse: %v", err)
	}
	advance(models.DeprecationStatusZeroStock)
	advance(models.DeprecationStatusZeroStock)

	// 4) warehouse emptied through a return to the supplier
	if _, err := f.store.CreateReturnAuthorization(f.ctx, &models.NewReturnAuthorization{
		SupplierId: f.supplier.ID,
		Items:      []models.NewReturnItem{{PartId: part.ID, Quantity: 9}},
	}); err != nil {
		t.Fatalf("CreateReturnAuthorization: %v", err)
	}
	advance(models.DeprecationStatusArchived)
	advance(models.DeprecationStatusArchived)

	_, err = f.store.CancelDeprecation(f.ctx, part.ID)
	wantKind(t, err, utils.KindInvalidTransition)

	deprecated, err := f.store.DeprecatedParts(f.ctx)
	if err != nil {
		t.Fatalf("DeprecatedParts: %v", err)
	}
	if len(deprecated) != 1 || deprecated[0].ID != part.ID {
		t.Fatalf("deprecated parts = %+v", deprecated)
	}
}

func TestOpenJobHoldsLaterStages(t *testing.T) {
	f := newFixture(t)
	part := f.part(t, 2, "1.00")
	if _, err := f.store.StartPartDeprecation(f.ctx, part.ID); err != nil {
		t.Fatalf("StartPartDeprecation: %v", err)
	}
	if status, err := f.store.AdvanceDeprecation(f.ctx, part.ID); err != nil || status != models.DeprecationStatusWindingDown {
		t.Fatalf("AdvanceDeprecation = %s, %v; want winding_down", status, err)
	}

	// the last of the stock goes out to an open job while winding down
	f.stockTruck(t, f.truck.ID, part.ID, 2)
	if _, err := f.store.ConsumeFromTruck(f.ctx, &models.NewConsumption{
		JobId: f.job.ID, TruckId: f.truck.ID, PartId: part.ID, Quantity: 2,
	}); err != nil {
		t.Fatalf("ConsumeFromTruck: %v", err)
	}
	status, err := f.store.AdvanceDeprecation(f.ctx, part.ID)
	if err != nil {
		t.Fatalf("AdvanceDeprecation: %v", err)
	}
	if status != models.DeprecationStatusWindingDown {
		t.Fatalf("status = %s with job %s open, want winding_down", status, f.job.JobNumber)
	}

	if _, err := f.store.UpdateJobStatus(f.ctx, f.job.ID, models.JobStatusCompleted); err != nil {
		t.Fatalf("UpdateJobStatus: %v", err)
	}
	for _, want := range []models.DeprecationStatus{models.DeprecationStatusZeroStock, models.DeprecationStatusArchived} {
		if status, err = f.store.AdvanceDeprecation(f.ctx, part.ID); err != nil || status != want {
			t.Fatalf("AdvanceDeprecation = %s, %v; want %s", status, err, want)
		}
	}
}

func TestCancelDeprecation(t *testing.T) {
	f := newFixture(t)
	part := f.part(t, 0, "1.00")

	_, err := f.store.CancelDeprecation(f.ctx, part.ID)
	wantKind(t, err, utils.KindInvalidTransition)
	_, err = f.store.AdvanceDeprecation(f.ctx, part.ID)
	wantKind(t, err, utils.KindInvalidTransition)

	if _, err := f.store.StartPartDeprecation(f.ctx, part.ID); err != nil {
		t.Fatalf("StartPartDeprecation: %v", err)
	}
	status, err := f.store.AdvanceDeprecation(f.ctx, part.ID)
	if err != nil {
		t.Fatalf("AdvanceDeprecation: %v", err)
	}
	if status != models.DeprecationStatusWindingDown {
		t.Fatalf("status = %s, want winding_down", status)
	}
	got, err := f.store.CancelDeprecation(f.ctx, part.ID)
	if err != nil {
		t.Fatalf("CancelDeprecation: %v", err)
	}
	if got.DeprecationStatus != models.DeprecationStatusNone || got.DeprecationStartedAt != nil {
		t.Fatalf("after cancel = %s started %v", got.DeprecationStatus, got.DeprecationStartedAt)
	}

	// zero_stock is past the point of no return
	if _, err := f.store.StartPartDeprecation(f.ctx, part.ID); err != nil {
		t.Fatalf("StartPartDeprecation: %v", err)
	}
	for _, want := range []models.DeprecationStatus{models.DeprecationStatusWindingDown, models.DeprecationStatusZeroStock} {
		if status, err = f.store.AdvanceDeprecation(f.ctx, part.ID); err != nil || status != want {
			t.Fatalf("AdvanceDeprecation = %s, %v; want %s", status, err, want)
		}
	}
	_, err = f.store.CancelDeprecation(f.ctx, part.ID)
	wantKind(t, err, utils.KindInvalidTransition)
}

func TestDeprecatedPartsLeaveLowStock(t *testing.T) {
	f := newFixture(t)
	part, err := f.store.CreatePart(f.ctx, &models.NewPart{PartNumber: "OLD-1", Description: "old breaker", Quantity: 1, MinQuantity: 5})
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	low, err := f.store.LowStockParts(f.ctx)
	if err != nil {
		t.Fatalf("LowStockParts: %v", err)
	}
	if len(low) != 1 {
		t.Fatalf("low stock = %d, want 1", len(low))
	}
	if _, err := f.store.StartPartDeprecation(f.ctx, part.ID); err != nil {
		t.Fatalf("StartPartDeprecation: %v", err)
	}
	low, err = f.store.LowStockParts(f.ctx)
	if err != nil {
		t.Fatalf("LowStockParts: %v", err)
	}
	if len(low) != 0 {
		t.Fatalf("deprecated part still reported low: %+v", low)
	}
}
