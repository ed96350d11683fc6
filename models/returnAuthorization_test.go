package models_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wiredpart/parts_backend/models"
	"github.com/wiredpart/parts_backend/utils"
)

func (f *fixture) newReturn(t *testing.T, items ...models.NewReturnItem) (*models.ReturnAuthorization, error) {
	t.Helper()
	return f.store.CreateReturnAuthorization(f.ctx, &models.NewReturnAuthorization{
		SupplierId: f.supplier.ID,
		Reason:     models.ReturnReasonOverstock,
		Items:      items,
	})
}

func TestReturnTakesStockAndBlocksOverdraw(t *testing.T) {
	f := newFixture(t)
	part := f.part(t, 10, "7.00")

	ra, err := f.newReturn(t, models.NewReturnItem{PartId: part.ID, Quantity: 10})
	if err != nil {
		t.Fatalf("CreateReturnAuthorization: %v", err)
	}
	if ra.Status != models.ReturnStatusInitiated {
		t.Fatalf("status = %s, want initiated", ra.Status)
	}
	if want := fmt.Sprintf("RA-%d-001", time.Now().UTC().Year()); ra.RaNumber != want {
		t.Fatalf("ra number = %s, want %s", ra.RaNumber, want)
	}
	if len(ra.Items) != 1 || !ra.Items[0].UnitCost.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("items = %+v, want one line at the part's cost", ra.Items)
	}
	if got := f.warehouse(t, part.ID); got != 0 {
		t.Fatalf("warehouse = %d, want 0", got)
	}

	_, err = f.newReturn(t, models.NewReturnItem{PartId: part.ID, Quantity: 1})
	wantKind(t, err, utils.KindInsufficientStock)
	if !strings.Contains(err.Error(), "Insufficient warehouse stock") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	list, err := f.store.ListReturnAuthorizations(f.ctx, nil)
	if err != nil {
		t.Fatalf("ListReturnAuthorizations: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("returns = %d, want 1", len(list))
	}
}

func TestReturnLinesForOnePartAreSummed(t *testing.T) {
	f := newFixture(t)
	part := f.part(t, 10, "1.00")
	other := f.part(t, 10, "1.00")

	_, err := f.newReturn(t,
		models.NewReturnItem{PartId: other.ID, Quantity: 3},
		models.NewReturnItem{PartId: part.ID, Quantity: 6},
		models.NewReturnItem{PartId: part.ID, Quantity: 6},
	)
	wantKind(t, err, utils.KindInsufficientStock)
	if got := f.warehouse(t, part.ID); got != 10 {
		t.Fatalf("warehouse = %d, want 10", got)
	}
	if got := f.warehouse(t, other.ID); got != 10 {
		t.Fatalf("other warehouse = %d, want 10", got)
	}
}

func TestReturnValidation(t *testing.T) {
	f := newFixture(t)
	part := f.part(t, 10, "1.00")

	tests := []struct {
		name  string
		items []models.NewReturnItem
		kind  utils.ErrorKind
		text  string
	}{
		{"zero quantity", []models.NewReturnItem{{PartId: part.ID, Quantity: 0}}, utils.KindValidation, "positive"},
		{"unknown part", []models.NewReturnItem{{PartId: 5555, Quantity: 1}}, utils.KindNotFound, "not found"},
		{"no items", nil, utils.KindValidation, "items"},
		{"bad reason", []models.NewReturnItem{{PartId: part.ID, Quantity: 1, Reason: "lost"}}, utils.KindValidation, "reason"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.newReturn(t, tc.items...)
			wantKind(t, err, tc.kind)
			if !strings.Contains(err.Error(), tc.text) {
				t.Fatalf("message %q does not mention %q", err.Error(), tc.text)
			}
			if got := f.warehouse(t, part.ID); got != 10 {
				t.Fatalf("warehouse changed to %d", got)
			}
		})
	}
}

func TestDeleteInitiatedReturnRestoresStock(t *testing.T) {
	f := newFixture(t)
	a := f.part(t, 15, "1.00")
	b := f.part(t, 8, "1.00")

	ra, err := f.newReturn(t,
		models.NewReturnItem{PartId: a.ID, Quantity: 5},
		models.NewReturnItem{PartId: b.ID, Quantity: 8},
	)
	if err != nil {
		t.Fatalf("CreateReturnAuthorization: %v", err)
	}
	if _, err := f.store.DeleteReturnAuthorization(f.ctx, ra.ID); err != nil {
		t.Fatalf("DeleteReturnAuthorization: %v", err)
	}
	if got := f.warehouse(t, a.ID); got != 15 {
		t.Fatalf("warehouse a = %d, want 15", got)
	}
	if got := f.warehouse(t, b.ID); got != 8 {
		t.Fatalf("warehouse b = %d, want 8", got)
	}
	_, err = f.store.GetReturnAuthorization(f.ctx, ra.ID)
	wantKind(t, err, utils.KindNotFound)
}

func TestReturnStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	part := f.part(t, 20, "2.00")

	ra, err := f.newReturn(t, models.NewReturnItem{PartId: part.ID, Quantity: 4})
	if err != nil {
		t.Fatalf("CreateReturnAuthorization: %v", err)
	}

	// credit before pickup is not a defined move
	credit := decimal.RequireFromString("8.00")
	_, err = f.store.UpdateReturnStatus(f.ctx, ra.ID, models.ReturnStatusCreditReceived, &credit)
	wantKind(t, err, utils.KindInvalidTransition)

	ra, err = f.store.UpdateReturnStatus(f.ctx, ra.ID, models.ReturnStatusPickedUp, nil)
	if err != nil {
		t.Fatalf("UpdateReturnStatus picked_up: %v", err)
	}
	if ra.PickedUpAt == nil {
		t.Fatalf("picked_up_at not stamped")
	}

	// only initiated returns may be deleted
	_, err = f.store.DeleteReturnAuthorization(f.ctx, ra.ID)
	wantKind(t, err, utils.KindInvalidTransition)
	if !strings.Contains(err.Error(), "Only initiated") {
		t.Fatalf("unexpected message %q", err.Error())
	}

	ra, err = f.store.UpdateReturnStatus(f.ctx, ra.ID, models.ReturnStatusCreditReceived, &credit)
	if err != nil {
		t.Fatalf("UpdateReturnStatus credit_received: %v", err)
	}
	if ra.CreditReceivedAt == nil || !ra.CreditAmount.Equal(credit) {
		t.Fatalf("credit = %s at %v", ra.CreditAmount, ra.CreditReceivedAt)
	}

	_, err = f.store.UpdateReturnStatus(f.ctx, ra.ID, models.ReturnStatusPickedUp, nil)
	wantKind(t, err, utils.KindInvalidTransition)
	_, err = f.store.UpdateReturnStatus(f.ctx, ra.ID, models.ReturnStatus("shipped"), nil)
	wantKind(t, err, utils.KindValidation)
	if got := f.warehouse(t, part.ID); got != 16 {
		t.Fatalf("warehouse = %d, want 16", got)
	}
}

func TestCancelledReturnKeepsStockOut(t *testing.T) {
	f := newFixture(t)
	part := f.part(t, 9, "2.00")

	ra, err := f.newReturn(t, models.NewReturnItem{PartId: part.ID, Quantity: 4})
	if err != nil {
		t.Fatalf("CreateReturnAuthorization: %v", err)
	}
	ra, err = f.store.UpdateReturnStatus(f.ctx, ra.ID, models.ReturnStatusCancelled, nil)
	if err != nil {
		t.Fatalf("UpdateReturnStatus cancelled: %v", err)
	}
	if ra.Status != models.ReturnStatusCancelled {
		t.Fatalf("status = %s, want cancelled", ra.Status)
	}
	if got := f.warehouse(t, part.ID); got != 5 {
		t.Fatalf("warehouse = %d, want 5", got)
	}
	_, err = f.store.UpdateReturnStatus(f.ctx, ra.ID, models.ReturnStatusCancelled, nil)
	wantKind(t, err, utils.KindInvalidTransition)
	_, err = f.store.DeleteReturnAuthorization(f.ctx, ra.ID)
	wantKind(t, err, utils.KindInvalidTransition)
}
