package models

import (
	"errors"

	"github.com/wiredpart/parts_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The three quantity ledgers (warehouse, truck, job) are only ever changed
// here. Debits are a single conditional UPDATE so a concurrent writer can never
// push a counter below zero; credits always succeed for non-negative amounts.

func (tx *Tx) debitWarehouse(partId int, qty int) error {
	if qty < 0 {
		return utils.ValidationError("quantity must not be negative")
	}
	if qty == 0 {
		return nil
	}
	res := tx.db.Model(&Part{}).
		Where("id = ? AND warehouse_quantity >= ?", partId, qty).
		Update("warehouse_quantity", gorm.Expr("warehouse_quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	part, err := fetch[Part](tx.db, partId, "part")
	if err != nil {
		return err
	}
	return utils.InsufficientStock("Insufficient warehouse stock for %s: have %d, need %d",
		part.PartNumber, part.WarehouseQuantity, qty)
}

func (tx *Tx) creditWarehouse(partId int, qty int) error {
	if qty < 0 {
		return utils.ValidationError("quantity must not be negative")
	}
	if qty == 0 {
		return nil
	}
	res := tx.db.Model(&Part{}).
		Where("id = ?", partId).
		Update("warehouse_quantity", gorm.Expr("warehouse_quantity + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.NotFound("part %d not found", partId)
	}
	return nil
}

func (tx *Tx) debitTruck(truckId int, partId int, qty int) error {
	if qty < 0 {
		return utils.ValidationError("quantity must not be negative")
	}
	if qty == 0 {
		return nil
	}
	res := tx.db.Model(&TruckInventory{}).
		Where("truck_id = ? AND part_id = ? AND quantity >= ?", truckId, partId, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if _, err := fetch[Truck](tx.db, truckId, "truck"); err != nil {
		return err
	}
	part, err := fetch[Part](tx.db, partId, "part")
	if err != nil {
		return err
	}
	var onHand int
	if err := tx.db.Model(&TruckInventory{}).
		Where("truck_id = ? AND part_id = ?", truckId, partId).
		Select("COALESCE(SUM(quantity), 0)").Scan(&onHand).Error; err != nil {
		return err
	}
	return utils.InsufficientStock("Insufficient truck stock for %s: have %d, need %d",
		part.PartNumber, onHand, qty)
}

// creditTruck creates the (truck, part) row on first use.
func (tx *Tx) creditTruck(truckId int, partId int, qty int) error {
	if qty < 0 {
		return utils.ValidationError("quantity must not be negative")
	}
	row := TruckInventory{TruckId: truckId, PartId: partId, Quantity: qty}
	return tx.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "truck_id"}, {Name: "part_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"quantity": gorm.Expr("truck_inventories.quantity + ?", qty)}),
	}).Create(&row).Error
}

// jobPartCredit describes one credit to the job ledger.
type jobPartCredit struct {
	JobId      int
	PartId     int
	Quantity   int
	SupplierId *int // supplier known from the movement itself (order, transfer)
}

// upsertJobPart credits the job ledger. A new row snapshots the unit cost and
// the best known supplier; an existing row only accumulates quantity.
func (tx *Tx) upsertJobPart(c jobPartCredit) (*JobPart, error) {
	if c.Quantity < 0 {
		return nil, utils.ValidationError("quantity must not be negative")
	}
	var existing JobPart
	err := tx.forUpdate().Where("job_id = ? AND part_id = ?", c.JobId, c.PartId).Limit(1).Find(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing.ID != 0 {
		res := tx.db.Model(&JobPart{}).
			Where("id = ?", existing.ID).
			Update("quantity_used", gorm.Expr("quantity_used + ?", c.Quantity))
		if res.Error != nil {
			return nil, res.Error
		}
		existing.QuantityUsed += c.Quantity
		return &existing, nil
	}

	part, err := fetch[Part](tx.db, c.PartId, "part")
	if err != nil {
		return nil, err
	}
	supplierId := c.SupplierId
	if supplierId == nil {
		if supplierId, err = tx.lastReceivingSupplier(c.PartId); err != nil {
			return nil, err
		}
	}
	jobPart := JobPart{
		JobId:         c.JobId,
		PartId:        c.PartId,
		QuantityUsed:  c.Quantity,
		UnitCostAtUse: part.UnitCost,
		SupplierId:    supplierId,
	}
	if err := tx.db.Create(&jobPart).Error; err != nil {
		return nil, err
	}
	return &jobPart, nil
}

// lastReceivingSupplier is the supplier of the part's most recent order receipt.
func (tx *Tx) lastReceivingSupplier(partId int) (*int, error) {
	var log ReceiveLog
	err := tx.db.Where("part_id = ? AND supplier_id IS NOT NULL", partId).
		Order("received_at DESC, id DESC").
		Limit(1).
		Find(&log).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if log.ID == 0 {
		return nil, nil
	}
	return log.SupplierId, nil
}

// truckSupplier is the supplier behind the latest received delivery of the
// part onto the truck, when that delivery came straight from an order.
func (tx *Tx) truckSupplier(truckId int, partId int) (*int, error) {
	var transfer TruckTransfer
	err := tx.db.Where("truck_id = ? AND part_id = ? AND status = ? AND supplier_id IS NOT NULL",
		truckId, partId, TransferStatusReceived).
		Order("received_at DESC, id DESC").
		Limit(1).
		Find(&transfer).Error
	if err != nil {
		return nil, err
	}
	if transfer.ID == 0 {
		return nil, nil
	}
	return transfer.SupplierId, nil
}

func (tx *Tx) requireOpenJob(jobId int) (*Job, error) {
	job, err := fetch[Job](tx.db, jobId, "job")
	if err != nil {
		return nil, err
	}
	if !job.Status.IsOpen() {
		return nil, utils.InvalidTransition("job %s is %s", job.JobNumber, job.Status)
	}
	return job, nil
}
