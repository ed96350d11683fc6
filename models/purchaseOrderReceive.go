package models

import (
	"context"
	"fmt"
	"time"

	"github.com/wiredpart/parts_backend/utils"
	"gorm.io/gorm"
)

// ReceiveLog is the receiving trail: one row per receipt line applied to an order.
type ReceiveLog struct {
	ID               int                `gorm:"primary_key" json:"id"`
	OrderItemId      int                `gorm:"not null;index" json:"order_item_id"`
	PartId           int                `gorm:"not null;index" json:"part_id"`
	SupplierId       *int               `gorm:"index" json:"supplier_id"`
	QuantityReceived int                `gorm:"not null;check:chk_receive_logs_quantity,quantity_received > 0" json:"quantity_received"`
	AllocateTo       AllocateTarget     `gorm:"size:10;not null" json:"allocate_to"`
	AllocateTruckId  *int               `json:"allocate_truck_id"`
	AllocateJobId    *int               `json:"allocate_job_id"`
	ReceivedBy       *int               `json:"received_by"`
	Notes            string             `gorm:"type:text" json:"notes"`
	OrderItem        *PurchaseOrderItem `gorm:"foreignKey:OrderItemId;constraint:OnDelete:CASCADE" json:"-"`
	ReceivedAt       time.Time          `gorm:"autoCreateTime;index" json:"received_at"`
}

// ReceiptLine applies delivered goods against one order line.
type ReceiptLine struct {
	OrderItemId      int            `json:"order_item_id" validate:"required"`
	QuantityReceived int            `json:"quantity_received" validate:"gte=0"`
	AllocateTo       AllocateTarget `json:"allocate_to"`
	AllocateTruckId  *int           `json:"allocate_truck_id"`
	AllocateJobId    *int           `json:"allocate_job_id"`
	Notes            string         `json:"notes"`
}

func orderItemsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// ReceiveOrderItems applies every receipt or none of them. When the last
// outstanding unit arrives the order closes itself; otherwise it is partial.
// Zero-quantity lines are skipped, but at least one line must carry goods.
func (tx *Tx) ReceiveOrderItems(orderId int, receipts []ReceiptLine, receivedBy *int) (*PurchaseOrder, error) {
	order, err := fetchForUpdate[PurchaseOrder](tx, orderId, "purchase order")
	if err != nil {
		return nil, err
	}
	if !order.Status.IsReceivable() {
		return nil, utils.InvalidTransition("cannot receive against order %s: it is %s", order.OrderNumber, order.Status)
	}
	if len(receipts) == 0 {
		return nil, utils.ValidationError("no receipts given for order %s", order.OrderNumber)
	}
	by := tx.actingUser(receivedBy)

	applied := 0
	for i := range receipts {
		if err := tx.applyReceipt(order, &receipts[i], by); err != nil {
			return nil, err
		}
		if receipts[i].QuantityReceived > 0 {
			applied++
		}
	}
	if applied == 0 {
		return nil, utils.ValidationError("no quantities to receive on order %s", order.OrderNumber)
	}

	var outstanding int64
	if err := tx.db.Model(&PurchaseOrderItem{}).
		Where("order_id = ? AND quantity_received < quantity_ordered", orderId).
		Count(&outstanding).Error; err != nil {
		return nil, err
	}
	next := PurchaseOrderStatusPartial
	if outstanding == 0 {
		next = PurchaseOrderStatusClosed
	}
	if next != order.Status {
		if err := tx.transitionOrderAs(order, next, historyActionReceive,
			fmt.Sprintf("Purchase order %s is now %s after receiving.", order.OrderNumber, next)); err != nil {
			return nil, err
		}
	}
	return tx.loadPurchaseOrder(orderId)
}

func (s *Store) ReceiveOrderItems(ctx context.Context, orderId int, receipts []ReceiptLine, receivedBy *int) (*PurchaseOrder, error) {
	return inTx(s, ctx, "ReceiveOrderItems", func(tx *Tx) (*PurchaseOrder, error) {
		return tx.ReceiveOrderItems(orderId, receipts, receivedBy)
	})
}

func (tx *Tx) applyReceipt(order *PurchaseOrder, r *ReceiptLine, by *int) error {
	if err := tx.validateStruct(r); err != nil {
		return err
	}
	if r.QuantityReceived == 0 {
		return nil
	}
	if r.AllocateTo == "" {
		r.AllocateTo = AllocateToWarehouse
	}

	var item PurchaseOrderItem
	if err := tx.forUpdate().Where("id = ? AND order_id = ?", r.OrderItemId, order.ID).Limit(1).Find(&item).Error; err != nil {
		return err
	}
	if item.ID == 0 {
		return utils.NotFound("order item %d not found on order %s", r.OrderItemId, order.OrderNumber)
	}
	if r.QuantityReceived > item.Remaining() {
		return utils.ValidationError("cannot receive %d on line %d of %s: only %d remaining",
			r.QuantityReceived, item.ID, order.OrderNumber, item.Remaining())
	}

	res := tx.db.Model(&PurchaseOrderItem{}).
		Where("id = ? AND quantity_received + ? <= quantity_ordered", item.ID, r.QuantityReceived).
		Update("quantity_received", gorm.Expr("quantity_received + ?", r.QuantityReceived))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return utils.ValidationError("cannot receive %d on line %d of %s: only %d remaining",
			r.QuantityReceived, item.ID, order.OrderNumber, item.Remaining())
	}

	supplierId := order.SupplierId
	switch r.AllocateTo {
	case AllocateToWarehouse:
		r.AllocateTruckId, r.AllocateJobId = nil, nil
		if err := tx.creditWarehouse(item.PartId, r.QuantityReceived); err != nil {
			return err
		}
	case AllocateToTruck:
		if r.AllocateTruckId == nil {
			return utils.ValidationError("allocate_truck_id is required when allocating to a truck")
		}
		r.AllocateJobId = nil
		if err := tx.receiveOntoTruck(order, &item, *r.AllocateTruckId, r.QuantityReceived, by); err != nil {
			return err
		}
	case AllocateToJob:
		if r.AllocateJobId == nil {
			return utils.ValidationError("allocate_job_id is required when allocating to a job")
		}
		r.AllocateTruckId = nil
		if _, err := fetch[Job](tx.db, *r.AllocateJobId, "job"); err != nil {
			return err
		}
		if _, err := tx.upsertJobPart(jobPartCredit{
			JobId:      *r.AllocateJobId,
			PartId:     item.PartId,
			Quantity:   r.QuantityReceived,
			SupplierId: &supplierId,
		}); err != nil {
			return err
		}
	default:
		return utils.ValidationError("invalid allocation target %q", r.AllocateTo)
	}

	log := ReceiveLog{
		OrderItemId:      item.ID,
		PartId:           item.PartId,
		SupplierId:       &supplierId,
		QuantityReceived: r.QuantityReceived,
		AllocateTo:       r.AllocateTo,
		AllocateTruckId:  r.AllocateTruckId,
		AllocateJobId:    r.AllocateJobId,
		ReceivedBy:       by,
		Notes:            r.Notes,
	}
	return tx.db.Create(&log).Error
}

// receiveOntoTruck credits the truck directly. The goods are already on the
// truck, so the transfer is recorded as received rather than pending.
func (tx *Tx) receiveOntoTruck(order *PurchaseOrder, item *PurchaseOrderItem, truckId int, qty int, by *int) error {
	if _, err := fetch[Truck](tx.db, truckId, "truck"); err != nil {
		return err
	}
	if err := tx.creditTruck(truckId, item.PartId, qty); err != nil {
		return err
	}
	now := tx.now
	supplierId := order.SupplierId
	orderId := order.ID
	transfer := TruckTransfer{
		TruckId:       truckId,
		PartId:        item.PartId,
		Quantity:      qty,
		Direction:     TransferDirectionOutbound,
		Status:        TransferStatusReceived,
		SupplierId:    &supplierId,
		SourceOrderId: &orderId,
		CreatedBy:     by,
		ReceivedBy:    by,
		ReceivedAt:    &now,
		Notes:         fmt.Sprintf("Received from %s", order.OrderNumber),
	}
	return tx.db.Create(&transfer).Error
}

func (s *Store) ReceiveLogForOrder(ctx context.Context, orderId int) ([]ReceiveLog, error) {
	if _, err := fetch[PurchaseOrder](s.read(ctx), orderId, "purchase order"); err != nil {
		return nil, err
	}
	var rows []ReceiveLog
	err := s.read(ctx).
		Joins("JOIN purchase_order_items ON purchase_order_items.id = receive_logs.order_item_id").
		Where("purchase_order_items.order_id = ?", orderId).
		Select("receive_logs.*").
		Order("receive_logs.received_at, receive_logs.id").
		Find(&rows).Error
	return rows, err
}

type OrderReceiveSummary struct {
	TotalItems    int `json:"total_items"`
	TotalOrdered  int `json:"total_ordered"`
	TotalReceived int `json:"total_received"`
	Remaining     int `json:"remaining"`
}

func (s *Store) OrderReceiveSummary(ctx context.Context, orderId int) (*OrderReceiveSummary, error) {
	order, err := s.GetPurchaseOrder(ctx, orderId)
	if err != nil {
		return nil, err
	}
	summary := &OrderReceiveSummary{TotalItems: len(order.Items)}
	for _, item := range order.Items {
		summary.TotalOrdered += item.QuantityOrdered
		summary.TotalReceived += item.QuantityReceived
	}
	summary.Remaining = summary.TotalOrdered - summary.TotalReceived
	return summary, nil
}
