package models

import (
	"context"
	"fmt"
	"time"

	"github.com/wiredpart/parts_backend/utils"
)

// TruckTransfer records a movement between the warehouse and a truck.
// Outbound transfers debit the warehouse when created and credit the truck when
// received; the goods are in transit in between.
type TruckTransfer struct {
	ID            int               `gorm:"primary_key" json:"id"`
	TruckId       int               `gorm:"not null;index" json:"truck_id"`
	PartId        int               `gorm:"not null;index" json:"part_id"`
	Quantity      int               `gorm:"not null;check:chk_truck_transfers_quantity,quantity > 0" json:"quantity"`
	Direction     TransferDirection `gorm:"size:10;not null" json:"direction"`
	Status        TransferStatus    `gorm:"size:10;not null;index" json:"status"`
	SupplierId    *int              `json:"supplier_id"`
	SourceOrderId *int              `gorm:"index" json:"source_order_id"`
	CreatedBy     *int              `json:"created_by"`
	ReceivedBy    *int              `json:"received_by"`
	ReceivedAt    *time.Time        `json:"received_at"`
	Notes         string            `gorm:"type:text" json:"notes"`
	Truck         *Truck            `gorm:"foreignKey:TruckId;constraint:OnDelete:CASCADE" json:"-"`
	Part          *Part             `gorm:"foreignKey:PartId;constraint:OnDelete:CASCADE" json:"part,omitempty"`
	Supplier      *Supplier         `gorm:"foreignKey:SupplierId;constraint:OnDelete:SET NULL" json:"-"`
	SourceOrder   *PurchaseOrder    `gorm:"foreignKey:SourceOrderId;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// HistoryLabel is "returned" for truck to warehouse movements and
// "transferred" otherwise.
func (t TruckTransfer) HistoryLabel() string {
	return t.Direction.Label()
}

type NewTransfer struct {
	TruckId   int    `json:"truck_id" validate:"required"`
	PartId    int    `json:"part_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	CreatedBy *int   `json:"created_by"`
	Notes     string `json:"notes"`
}

type NewReturnToWarehouse struct {
	TruckId  int    `json:"truck_id" validate:"required"`
	PartId   int    `json:"part_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
	UserId   *int   `json:"user_id"`
	Notes    string `json:"notes"`
}

type TransferFilter struct {
	TruckId   *int
	PartId    *int
	Status    *TransferStatus
	Direction *TransferDirection
	Limit     int
}

func (tx *Tx) actingUser(explicit *int) *int {
	if explicit != nil {
		return explicit
	}
	return utils.ActingUserId(tx.ctx)
}

func (tx *Tx) CreateTransfer(input *NewTransfer) (*TruckTransfer, error) {
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	truck, err := fetch[Truck](tx.db, input.TruckId, "truck")
	if err != nil {
		return nil, err
	}
	part, err := fetch[Part](tx.db, input.PartId, "part")
	if err != nil {
		return nil, err
	}
	if err := tx.debitWarehouse(part.ID, input.Quantity); err != nil {
		return nil, err
	}
	transfer := TruckTransfer{
		TruckId:   truck.ID,
		PartId:    part.ID,
		Quantity:  input.Quantity,
		Direction: TransferDirectionOutbound,
		Status:    TransferStatusPending,
		CreatedBy: tx.actingUser(input.CreatedBy),
		Notes:     input.Notes,
	}
	if err := tx.db.Create(&transfer).Error; err != nil {
		return nil, err
	}
	if err := tx.createHistory(historyActionMove, transfer.ID, "truck_transfers", nil, transfer,
		fmt.Sprintf("%d x %s sent to truck %s.", transfer.Quantity, part.PartNumber, truck.TruckNumber)); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (s *Store) CreateTransfer(ctx context.Context, input *NewTransfer) (*TruckTransfer, error) {
	return inTx(s, ctx, "CreateTransfer", func(tx *Tx) (*TruckTransfer, error) {
		return tx.CreateTransfer(input)
	})
}

// pendingTransfer locks an outbound transfer that has not been settled yet.
func (tx *Tx) pendingTransfer(id int) (*TruckTransfer, error) {
	var transfer TruckTransfer
	err := tx.forUpdate().
		Where("id = ? AND status = ? AND direction = ?", id, TransferStatusPending, TransferDirectionOutbound).
		Limit(1).
		Find(&transfer).Error
	if err != nil {
		return nil, err
	}
	if transfer.ID == 0 {
		return nil, utils.NotFound("transfer %d not found or not pending", id)
	}
	return &transfer, nil
}

func (tx *Tx) ReceiveTransfer(id int, receivedBy *int) (*TruckTransfer, error) {
	transfer, err := tx.pendingTransfer(id)
	if err != nil {
		return nil, err
	}
	if err := tx.creditTruck(transfer.TruckId, transfer.PartId, transfer.Quantity); err != nil {
		return nil, err
	}
	now := tx.now
	by := tx.actingUser(receivedBy)
	if err := tx.db.Model(&TruckTransfer{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      TransferStatusReceived,
		"received_by": by,
		"received_at": now,
	}).Error; err != nil {
		return nil, err
	}
	before := transfer.Status
	transfer.Status = TransferStatusReceived
	transfer.ReceivedBy = by
	transfer.ReceivedAt = &now
	if err := tx.createHistory(historyActionStatus, id, "truck_transfers", before, transfer.Status,
		fmt.Sprintf("Transfer of %d received on truck.", transfer.Quantity)); err != nil {
		return nil, err
	}
	return transfer, nil
}

func (s *Store) ReceiveTransfer(ctx context.Context, id int, receivedBy *int) (*TruckTransfer, error) {
	return inTx(s, ctx, "ReceiveTransfer", func(tx *Tx) (*TruckTransfer, error) {
		return tx.ReceiveTransfer(id, receivedBy)
	})
}

func (tx *Tx) CancelTransfer(id int) (*TruckTransfer, error) {
	transfer, err := tx.pendingTransfer(id)
	if err != nil {
		return nil, err
	}
	if err := tx.creditWarehouse(transfer.PartId, transfer.Quantity); err != nil {
		return nil, err
	}
	if err := tx.db.Model(&TruckTransfer{}).Where("id = ?", id).Update("status", TransferStatusCancelled).Error; err != nil {
		return nil, err
	}
	before := transfer.Status
	transfer.Status = TransferStatusCancelled
	if err := tx.createHistory(historyActionStatus, id, "truck_transfers", before, transfer.Status,
		fmt.Sprintf("Transfer cancelled; %d returned to warehouse.", transfer.Quantity)); err != nil {
		return nil, err
	}
	return transfer, nil
}

func (s *Store) CancelTransfer(ctx context.Context, id int) (*TruckTransfer, error) {
	return inTx(s, ctx, "CancelTransfer", func(tx *Tx) (*TruckTransfer, error) {
		return tx.CancelTransfer(id)
	})
}

// ReturnToWarehouse moves stock off a truck back onto the warehouse shelf in one
// step and records it as an inbound transfer.
func (tx *Tx) ReturnToWarehouse(input *NewReturnToWarehouse) (*TruckTransfer, error) {
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	if err := tx.debitTruck(input.TruckId, input.PartId, input.Quantity); err != nil {
		return nil, err
	}
	if err := tx.creditWarehouse(input.PartId, input.Quantity); err != nil {
		return nil, err
	}
	now := tx.now
	by := tx.actingUser(input.UserId)
	transfer := TruckTransfer{
		TruckId:    input.TruckId,
		PartId:     input.PartId,
		Quantity:   input.Quantity,
		Direction:  TransferDirectionInbound,
		Status:     TransferStatusReceived,
		CreatedBy:  by,
		ReceivedBy: by,
		ReceivedAt: &now,
		Notes:      input.Notes,
	}
	if err := tx.db.Create(&transfer).Error; err != nil {
		return nil, err
	}
	if err := tx.createHistory(historyActionMove, transfer.ID, "truck_transfers", nil, transfer,
		fmt.Sprintf("%d returned from truck to warehouse.", transfer.Quantity)); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (s *Store) ReturnToWarehouse(ctx context.Context, input *NewReturnToWarehouse) (*TruckTransfer, error) {
	return inTx(s, ctx, "ReturnToWarehouse", func(tx *Tx) (*TruckTransfer, error) {
		return tx.ReturnToWarehouse(input)
	})
}

func (s *Store) GetTransfer(ctx context.Context, id int) (*TruckTransfer, error) {
	return fetch[TruckTransfer](s.read(ctx).Preload("Part"), id, "transfer")
}

func (s *Store) ListTransfers(ctx context.Context, filter TransferFilter) ([]TruckTransfer, error) {
	db := s.read(ctx).Preload("Part")
	if filter.TruckId != nil {
		db = db.Where("truck_id = ?", *filter.TruckId)
	}
	if filter.PartId != nil {
		db = db.Where("part_id = ?", *filter.PartId)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.Direction != nil {
		db = db.Where("direction = ?", *filter.Direction)
	}
	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}
	var transfers []TruckTransfer
	err := db.Order("created_at DESC, id DESC").Find(&transfers).Error
	return transfers, err
}

func (s *Store) PendingTransfers(ctx context.Context, truckId *int) ([]TruckTransfer, error) {
	status := TransferStatusPending
	direction := TransferDirectionOutbound
	return s.ListTransfers(ctx, TransferFilter{TruckId: truckId, Status: &status, Direction: &direction})
}
