package models

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wiredpart/parts_backend/utils"
)

type ReturnAuthorization struct {
	ID               int                       `gorm:"primary_key" json:"id"`
	RaNumber         string                    `gorm:"size:30;uniqueIndex;not null" json:"ra_number"`
	SupplierId       int                       `gorm:"not null;index" json:"supplier_id"`
	Status           ReturnStatus              `gorm:"size:20;not null;index" json:"status"`
	Reason           ReturnReason              `gorm:"size:20;not null" json:"reason"`
	Notes            string                    `gorm:"type:text" json:"notes"`
	CreditAmount     decimal.Decimal           `gorm:"type:decimal(20,4);not null;default:0" json:"credit_amount"`
	CreatedBy        *int                      `json:"created_by"`
	PickedUpAt       *time.Time                `json:"picked_up_at"`
	CreditReceivedAt *time.Time                `json:"credit_received_at"`
	Supplier         *Supplier                 `gorm:"foreignKey:SupplierId;constraint:OnDelete:RESTRICT" json:"supplier,omitempty"`
	Items            []ReturnAuthorizationItem `gorm:"foreignKey:ReturnId;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt        time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`
}

// TotalValue is what the returned goods cost when they were bought.
func (ra ReturnAuthorization) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, item := range ra.Items {
		total = total.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

type ReturnAuthorizationItem struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ReturnId  int             `gorm:"not null;index" json:"return_id"`
	PartId    int             `gorm:"not null;index" json:"part_id"`
	Quantity  int             `gorm:"not null;check:chk_return_authorization_items_quantity,quantity > 0" json:"quantity"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"unit_cost"`
	Reason    ReturnReason    `gorm:"size:20;not null" json:"reason"`
	Part      *Part           `gorm:"foreignKey:PartId;constraint:OnDelete:RESTRICT" json:"part,omitempty"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewReturnAuthorization struct {
	SupplierId int             `json:"supplier_id" validate:"required"`
	Reason     ReturnReason    `json:"reason"`
	Notes      string          `json:"notes"`
	CreatedBy  *int            `json:"created_by"`
	Items      []NewReturnItem `json:"items" validate:"min=1"`
}

type NewReturnItem struct {
	PartId   int              `json:"part_id" validate:"required"`
	Quantity int              `json:"quantity" validate:"gt=0"`
	UnitCost *decimal.Decimal `json:"unit_cost"`
	Reason   ReturnReason     `json:"reason"`
}

// CreateReturnAuthorization takes the goods off the warehouse shelf the moment
// the RA exists. Every line is checked before anything is debited.
func (tx *Tx) CreateReturnAuthorization(input *NewReturnAuthorization) (*ReturnAuthorization, error) {
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	if input.Reason == "" {
		input.Reason = ReturnReasonOther
	}
	if !isValidEnum(input.Reason, returnReasons) {
		return nil, utils.ValidationError("invalid return reason %q", input.Reason)
	}
	supplier, err := tx.requireSupplier(input.SupplierId)
	if err != nil {
		return nil, err
	}

	requested := map[int]int{}
	parts := map[int]*Part{}
	var order []int
	for i := range input.Items {
		item := &input.Items[i]
		if err := tx.validateStruct(item); err != nil {
			return nil, err
		}
		if item.Reason == "" {
			item.Reason = input.Reason
		}
		if !isValidEnum(item.Reason, returnReasons) {
			return nil, utils.ValidationError("invalid return reason %q", item.Reason)
		}
		if item.UnitCost != nil && item.UnitCost.IsNegative() {
			return nil, utils.ValidationError("unit_cost must not be negative")
		}
		if _, seen := parts[item.PartId]; !seen {
			part, err := fetchForUpdate[Part](tx, item.PartId, "part")
			if err != nil {
				return nil, err
			}
			parts[item.PartId] = part
			order = append(order, item.PartId)
		}
		requested[item.PartId] += item.Quantity
	}
	for _, partId := range order {
		part := parts[partId]
		if requested[partId] > part.WarehouseQuantity {
			return nil, utils.InsufficientStock("Insufficient warehouse stock for %s: have %d, need %d",
				part.PartNumber, part.WarehouseQuantity, requested[partId])
		}
	}

	raNumber, err := tx.nextDocumentNumber(&ReturnAuthorization{}, "ra_number", tx.settings.RaNumberPrefix)
	if err != nil {
		return nil, err
	}
	ra := ReturnAuthorization{
		RaNumber:     raNumber,
		SupplierId:   supplier.ID,
		Status:       ReturnStatusInitiated,
		Reason:       input.Reason,
		Notes:        input.Notes,
		CreditAmount: decimal.Zero,
		CreatedBy:    tx.actingUser(input.CreatedBy),
	}
	if err := tx.db.Create(&ra).Error; err != nil {
		return nil, err
	}
	for _, in := range input.Items {
		if err := tx.debitWarehouse(in.PartId, in.Quantity); err != nil {
			return nil, err
		}
		unitCost := parts[in.PartId].UnitCost
		if in.UnitCost != nil {
			unitCost = *in.UnitCost
		}
		item := ReturnAuthorizationItem{
			ReturnId: ra.ID,
			PartId:   in.PartId,
			Quantity: in.Quantity,
			UnitCost: unitCost,
			Reason:   in.Reason,
		}
		if err := tx.db.Create(&item).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.createHistory(historyActionCreate, ra.ID, "return_authorizations", nil, ra,
		fmt.Sprintf("Return %s created for %s.", ra.RaNumber, supplier.Name)); err != nil {
		return nil, err
	}
	return tx.loadReturnAuthorization(ra.ID)
}

func (s *Store) CreateReturnAuthorization(ctx context.Context, input *NewReturnAuthorization) (*ReturnAuthorization, error) {
	return inTx(s, ctx, "CreateReturnAuthorization", func(tx *Tx) (*ReturnAuthorization, error) {
		return tx.CreateReturnAuthorization(input)
	})
}

// UpdateReturnStatus moves an RA along its lifecycle. creditAmount is only
// read when the credit arrives.
func (tx *Tx) UpdateReturnStatus(id int, next ReturnStatus, creditAmount *decimal.Decimal) (*ReturnAuthorization, error) {
	if !isValidEnum(next, returnStatuses) {
		return nil, utils.ValidationError("invalid return status %q", next)
	}
	ra, err := fetchForUpdate[ReturnAuthorization](tx, id, "return authorization")
	if err != nil {
		return nil, err
	}
	if !ra.Status.CanTransitionTo(next) {
		return nil, utils.InvalidTransition("return %s is %s and cannot become %s", ra.RaNumber, ra.Status, next)
	}

	updates := map[string]interface{}{"status": next}
	now := tx.now
	switch next {
	case ReturnStatusPickedUp:
		updates["picked_up_at"] = now
	case ReturnStatusCreditReceived:
		updates["credit_received_at"] = now
		if creditAmount != nil {
			if creditAmount.IsNegative() {
				return nil, utils.ValidationError("credit_amount must not be negative")
			}
			updates["credit_amount"] = *creditAmount
		}
	case ReturnStatusCancelled:
	case ReturnStatusInitiated:
	}
	if err := tx.db.Model(&ReturnAuthorization{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := tx.createHistory(historyActionStatus, id, "return_authorizations", ra.Status, next,
		fmt.Sprintf("Return %s is now %s.", ra.RaNumber, next)); err != nil {
		return nil, err
	}
	return tx.loadReturnAuthorization(id)
}

func (s *Store) UpdateReturnStatus(ctx context.Context, id int, next ReturnStatus, creditAmount *decimal.Decimal) (*ReturnAuthorization, error) {
	return inTx(s, ctx, "UpdateReturnStatus", func(tx *Tx) (*ReturnAuthorization, error) {
		return tx.UpdateReturnStatus(id, next, creditAmount)
	})
}

// DeleteReturnAuthorization puts every line back on the warehouse shelf.
func (tx *Tx) DeleteReturnAuthorization(id int) (*ReturnAuthorization, error) {
	ra, err := fetchForUpdate[ReturnAuthorization](tx, id, "return authorization")
	if err != nil {
		return nil, err
	}
	if ra.Status != ReturnStatusInitiated {
		return nil, utils.InvalidTransition("Only initiated return authorizations can be deleted; %s is %s", ra.RaNumber, ra.Status)
	}
	var items []ReturnAuthorizationItem
	if err := tx.db.Where("return_id = ?", id).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := tx.creditWarehouse(item.PartId, item.Quantity); err != nil {
			return nil, err
		}
	}
	ra.Items = items
	if err := tx.db.Where("return_id = ?", id).Delete(&ReturnAuthorizationItem{}).Error; err != nil {
		return nil, err
	}
	if err := tx.db.Delete(&ReturnAuthorization{}, id).Error; err != nil {
		return nil, err
	}
	if err := tx.createHistory(historyActionDelete, id, "return_authorizations", ra, nil,
		fmt.Sprintf("Return %s deleted and stock restored.", ra.RaNumber)); err != nil {
		return nil, err
	}
	return ra, nil
}

func (s *Store) DeleteReturnAuthorization(ctx context.Context, id int) (*ReturnAuthorization, error) {
	return inTx(s, ctx, "DeleteReturnAuthorization", func(tx *Tx) (*ReturnAuthorization, error) {
		return tx.DeleteReturnAuthorization(id)
	})
}

func (tx *Tx) loadReturnAuthorization(id int) (*ReturnAuthorization, error) {
	return fetch[ReturnAuthorization](tx.db.Preload("Items").Preload("Items.Part").Preload("Supplier"), id, "return authorization")
}

func (s *Store) GetReturnAuthorization(ctx context.Context, id int) (*ReturnAuthorization, error) {
	return fetch[ReturnAuthorization](s.read(ctx).Preload("Items").Preload("Items.Part").Preload("Supplier"), id, "return authorization")
}

func (s *Store) ListReturnAuthorizations(ctx context.Context, status *ReturnStatus) ([]ReturnAuthorization, error) {
	db := s.read(ctx).Preload("Items").Preload("Supplier")
	if status != nil {
		db = db.Where("status = ?", *status)
	}
	var rows []ReturnAuthorization
	err := db.Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, err
}
