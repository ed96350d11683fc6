package models

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wiredpart/parts_backend/utils"
)

type PurchaseOrder struct {
	ID          int                 `gorm:"primary_key" json:"id"`
	OrderNumber string              `gorm:"size:30;uniqueIndex;not null" json:"order_number"`
	SupplierId  int                 `gorm:"not null;index" json:"supplier_id"`
	Status      PurchaseOrderStatus `gorm:"size:20;not null;index" json:"status"`
	Notes       string              `gorm:"type:text" json:"notes"`
	CreatedBy   *int                `json:"created_by"`
	SubmittedAt *time.Time          `json:"submitted_at"`
	ClosedAt    *time.Time          `json:"closed_at"`
	Supplier    *Supplier           `gorm:"foreignKey:SupplierId;constraint:OnDelete:RESTRICT" json:"supplier,omitempty"`
	Items       []PurchaseOrderItem `gorm:"foreignKey:OrderId;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt   time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// TotalCost needs Items loaded.
func (o PurchaseOrder) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// PurchaseOrderItem keeps 0 <= quantity_received <= quantity_ordered, checked in
// code before every change and by the table constraint after it.
type PurchaseOrderItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	OrderId          int             `gorm:"not null;index" json:"order_id"`
	PartId           int             `gorm:"not null;index" json:"part_id"`
	QuantityOrdered  int             `gorm:"not null;check:chk_purchase_order_items_ordered,quantity_ordered > 0" json:"quantity_ordered"`
	QuantityReceived int             `gorm:"not null;default:0;check:chk_purchase_order_items_received,quantity_received >= 0 AND quantity_received <= quantity_ordered" json:"quantity_received"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"unit_cost"`
	Notes            string          `gorm:"type:text" json:"notes"`
	Part             *Part           `gorm:"foreignKey:PartId;constraint:OnDelete:RESTRICT" json:"part,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i PurchaseOrderItem) Remaining() int {
	return i.QuantityOrdered - i.QuantityReceived
}

func (i PurchaseOrderItem) LineTotal() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.QuantityOrdered)))
}

type NewPurchaseOrder struct {
	SupplierId int            `json:"supplier_id" validate:"required"`
	Notes      string         `json:"notes"`
	CreatedBy  *int           `json:"created_by"`
	Items      []NewOrderItem `json:"items"`
}

type NewOrderItem struct {
	PartId          int             `json:"part_id" validate:"required"`
	QuantityOrdered int             `json:"quantity_ordered" validate:"gt=0"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Notes           string          `json:"notes"`
}

type UpdateOrderItem struct {
	QuantityOrdered *int             `json:"quantity_ordered" validate:"omitempty,gt=0"`
	UnitCost        *decimal.Decimal `json:"unit_cost"`
	Notes           *string          `json:"notes"`
}

func (input *NewOrderItem) validate(tx *Tx) error {
	if err := tx.validateStruct(input); err != nil {
		return err
	}
	if input.UnitCost.IsNegative() {
		return utils.ValidationError("unit_cost must not be negative")
	}
	_, err := fetch[Part](tx.db, input.PartId, "part")
	return err
}

func (tx *Tx) CreatePurchaseOrder(input *NewPurchaseOrder) (*PurchaseOrder, error) {
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	supplier, err := tx.requireSupplier(input.SupplierId)
	if err != nil {
		return nil, err
	}
	for i := range input.Items {
		if err := input.Items[i].validate(tx); err != nil {
			return nil, err
		}
	}
	orderNumber, err := tx.nextDocumentNumber(&PurchaseOrder{}, "order_number", tx.settings.OrderNumberPrefix)
	if err != nil {
		return nil, err
	}
	order := PurchaseOrder{
		OrderNumber: orderNumber,
		SupplierId:  supplier.ID,
		Status:      PurchaseOrderStatusDraft,
		Notes:       input.Notes,
		CreatedBy:   tx.actingUser(input.CreatedBy),
	}
	if err := tx.db.Create(&order).Error; err != nil {
		return nil, err
	}
	for i := range input.Items {
		if _, err := tx.insertOrderItem(order.ID, &input.Items[i]); err != nil {
			return nil, err
		}
	}
	if err := tx.createHistory(historyActionCreate, order.ID, "purchase_orders", nil, order,
		fmt.Sprintf("Purchase order %s created for %s.", order.OrderNumber, supplier.Name)); err != nil {
		return nil, err
	}
	return tx.loadPurchaseOrder(order.ID)
}

func (s *Store) CreatePurchaseOrder(ctx context.Context, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	return inTx(s, ctx, "CreatePurchaseOrder", func(tx *Tx) (*PurchaseOrder, error) {
		return tx.CreatePurchaseOrder(input)
	})
}

func (tx *Tx) insertOrderItem(orderId int, input *NewOrderItem) (*PurchaseOrderItem, error) {
	item := PurchaseOrderItem{
		OrderId:         orderId,
		PartId:          input.PartId,
		QuantityOrdered: input.QuantityOrdered,
		UnitCost:        input.UnitCost,
		Notes:           input.Notes,
	}
	if err := tx.db.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// editableOrder locks an order that may still have its lines changed.
func (tx *Tx) editableOrder(orderId int) (*PurchaseOrder, error) {
	order, err := fetchForUpdate[PurchaseOrder](tx, orderId, "purchase order")
	if err != nil {
		return nil, err
	}
	if !order.Status.IsEditable() {
		return nil, utils.InvalidTransition("order %s is %s and can no longer be edited", order.OrderNumber, order.Status)
	}
	return order, nil
}

func (tx *Tx) AddOrderItem(orderId int, input *NewOrderItem) (*PurchaseOrderItem, error) {
	if err := input.validate(tx); err != nil {
		return nil, err
	}
	if _, err := tx.editableOrder(orderId); err != nil {
		return nil, err
	}
	return tx.insertOrderItem(orderId, input)
}

func (s *Store) AddOrderItem(ctx context.Context, orderId int, input *NewOrderItem) (*PurchaseOrderItem, error) {
	return inTx(s, ctx, "AddOrderItem", func(tx *Tx) (*PurchaseOrderItem, error) {
		return tx.AddOrderItem(orderId, input)
	})
}

func (tx *Tx) UpdateOrderItem(itemId int, input *UpdateOrderItem) (*PurchaseOrderItem, error) {
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	item, err := fetchForUpdate[PurchaseOrderItem](tx, itemId, "order item")
	if err != nil {
		return nil, err
	}
	if _, err := tx.editableOrder(item.OrderId); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if input.QuantityOrdered != nil {
		updates["quantity_ordered"] = *input.QuantityOrdered
		item.QuantityOrdered = *input.QuantityOrdered
	}
	if input.UnitCost != nil {
		if input.UnitCost.IsNegative() {
			return nil, utils.ValidationError("unit_cost must not be negative")
		}
		updates["unit_cost"] = *input.UnitCost
		item.UnitCost = *input.UnitCost
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
		item.Notes = *input.Notes
	}
	if len(updates) == 0 {
		return item, nil
	}
	if err := tx.db.Model(&PurchaseOrderItem{}).Where("id = ?", itemId).Updates(updates).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Store) UpdateOrderItem(ctx context.Context, itemId int, input *UpdateOrderItem) (*PurchaseOrderItem, error) {
	return inTx(s, ctx, "UpdateOrderItem", func(tx *Tx) (*PurchaseOrderItem, error) {
		return tx.UpdateOrderItem(itemId, input)
	})
}

func (tx *Tx) RemoveOrderItem(itemId int) error {
	item, err := fetchForUpdate[PurchaseOrderItem](tx, itemId, "order item")
	if err != nil {
		return err
	}
	if _, err := tx.editableOrder(item.OrderId); err != nil {
		return err
	}
	return tx.db.Delete(&PurchaseOrderItem{}, itemId).Error
}

func (s *Store) RemoveOrderItem(ctx context.Context, itemId int) error {
	return s.withTransaction(ctx, "RemoveOrderItem", func(tx *Tx) error {
		return tx.RemoveOrderItem(itemId)
	})
}

// transitionOrder moves an order to next and stamps the matching timestamp.
func (tx *Tx) transitionOrder(order *PurchaseOrder, next PurchaseOrderStatus, description string) error {
	return tx.transitionOrderAs(order, next, historyActionStatus, description)
}

// transitionOrderAs is transitionOrder with the history action spelled out, so
// receipts that close an order can be told apart from a manual close.
func (tx *Tx) transitionOrderAs(order *PurchaseOrder, next PurchaseOrderStatus, action string, description string) error {
	if !order.Status.CanTransitionTo(next) {
		return utils.InvalidTransition("order %s is %s and cannot become %s", order.OrderNumber, order.Status, next)
	}
	updates := map[string]interface{}{"status": next}
	now := tx.now
	switch next {
	case PurchaseOrderStatusSubmitted:
		updates["submitted_at"] = now
		order.SubmittedAt = &now
	case PurchaseOrderStatusClosed:
		updates["closed_at"] = now
		order.ClosedAt = &now
	case PurchaseOrderStatusDraft, PurchaseOrderStatusPartial, PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled:
	}
	if err := tx.db.Model(&PurchaseOrder{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
		return err
	}
	before := order.Status
	order.Status = next
	return tx.createHistory(action, order.ID, "purchase_orders", before, next, description)
}

func (tx *Tx) SubmitPurchaseOrder(orderId int) (*PurchaseOrder, error) {
	order, err := fetchForUpdate[PurchaseOrder](tx, orderId, "purchase order")
	if err != nil {
		return nil, err
	}
	if order.Status != PurchaseOrderStatusDraft {
		return nil, utils.InvalidTransition("order %s is already %s", order.OrderNumber, order.Status)
	}
	var itemCount int64
	if err := tx.db.Model(&PurchaseOrderItem{}).Where("order_id = ?", orderId).Count(&itemCount).Error; err != nil {
		return nil, err
	}
	if itemCount == 0 {
		return nil, utils.ValidationError("cannot submit order %s: it has no items", order.OrderNumber)
	}
	if err := tx.transitionOrder(order, PurchaseOrderStatusSubmitted,
		fmt.Sprintf("Purchase order %s submitted.", order.OrderNumber)); err != nil {
		return nil, err
	}
	return tx.loadPurchaseOrder(orderId)
}

func (s *Store) SubmitPurchaseOrder(ctx context.Context, orderId int) (*PurchaseOrder, error) {
	return inTx(s, ctx, "SubmitPurchaseOrder", func(tx *Tx) (*PurchaseOrder, error) {
		return tx.SubmitPurchaseOrder(orderId)
	})
}

// CancelPurchaseOrder only marks the order; stock already received stays where it went.
func (tx *Tx) CancelPurchaseOrder(orderId int) (*PurchaseOrder, error) {
	order, err := fetchForUpdate[PurchaseOrder](tx, orderId, "purchase order")
	if err != nil {
		return nil, err
	}
	if err := tx.transitionOrder(order, PurchaseOrderStatusCancelled,
		fmt.Sprintf("Purchase order %s cancelled.", order.OrderNumber)); err != nil {
		return nil, err
	}
	return tx.loadPurchaseOrder(orderId)
}

func (s *Store) CancelPurchaseOrder(ctx context.Context, orderId int) (*PurchaseOrder, error) {
	return inTx(s, ctx, "CancelPurchaseOrder", func(tx *Tx) (*PurchaseOrder, error) {
		return tx.CancelPurchaseOrder(orderId)
	})
}

// ClosePurchaseOrder force-closes an order that will not be received in full.
func (tx *Tx) ClosePurchaseOrder(orderId int) (*PurchaseOrder, error) {
	order, err := fetchForUpdate[PurchaseOrder](tx, orderId, "purchase order")
	if err != nil {
		return nil, err
	}
	if err := tx.transitionOrder(order, PurchaseOrderStatusClosed,
		fmt.Sprintf("Purchase order %s closed.", order.OrderNumber)); err != nil {
		return nil, err
	}
	return tx.loadPurchaseOrder(orderId)
}

func (s *Store) ClosePurchaseOrder(ctx context.Context, orderId int) (*PurchaseOrder, error) {
	return inTx(s, ctx, "ClosePurchaseOrder", func(tx *Tx) (*PurchaseOrder, error) {
		return tx.ClosePurchaseOrder(orderId)
	})
}

func (tx *Tx) DeletePurchaseOrder(orderId int) (*PurchaseOrder, error) {
	order, err := fetchForUpdate[PurchaseOrder](tx, orderId, "purchase order")
	if err != nil {
		return nil, err
	}
	if order.Status != PurchaseOrderStatusDraft {
		return nil, utils.InvalidTransition("Only draft orders can be deleted; %s is %s", order.OrderNumber, order.Status)
	}
	if err := tx.db.Where("order_id = ?", orderId).Delete(&PurchaseOrderItem{}).Error; err != nil {
		return nil, err
	}
	if err := tx.db.Delete(&PurchaseOrder{}, orderId).Error; err != nil {
		return nil, err
	}
	if err := tx.createHistory(historyActionDelete, orderId, "purchase_orders", order, nil,
		fmt.Sprintf("Purchase order %s deleted.", order.OrderNumber)); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Store) DeletePurchaseOrder(ctx context.Context, orderId int) (*PurchaseOrder, error) {
	return inTx(s, ctx, "DeletePurchaseOrder", func(tx *Tx) (*PurchaseOrder, error) {
		return tx.DeletePurchaseOrder(orderId)
	})
}

func (tx *Tx) loadPurchaseOrder(orderId int) (*PurchaseOrder, error) {
	return fetch[PurchaseOrder](tx.db.Preload("Items", orderItemsInOrder).Preload("Items.Part").Preload("Supplier"), orderId, "purchase order")
}

func (s *Store) GetPurchaseOrder(ctx context.Context, orderId int) (*PurchaseOrder, error) {
	return fetch[PurchaseOrder](s.read(ctx).Preload("Items", orderItemsInOrder).Preload("Items.Part").Preload("Supplier"), orderId, "purchase order")
}

func (s *Store) ListPurchaseOrders(ctx context.Context, status *PurchaseOrderStatus) ([]PurchaseOrder, error) {
	db := s.read(ctx).Preload("Items", orderItemsInOrder).Preload("Supplier")
	if status != nil {
		db = db.Where("status = ?", *status)
	}
	var orders []PurchaseOrder
	err := db.Order("created_at DESC, id DESC").Find(&orders).Error
	return orders, err
}

// PendingOrders are orders still waiting on the supplier.
func (s *Store) PendingOrders(ctx context.Context) ([]PurchaseOrder, error) {
	var orders []PurchaseOrder
	err := s.read(ctx).Preload("Items", orderItemsInOrder).Preload("Supplier").
		Where("status IN ?", []PurchaseOrderStatus{PurchaseOrderStatusSubmitted, PurchaseOrderStatusPartial}).
		Order("submitted_at, id").
		Find(&orders).Error
	return orders, err
}
