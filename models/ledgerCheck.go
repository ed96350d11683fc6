package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wiredpart/parts_backend/utils"
)

// CheckLedger scans every table for states the ledger operations should never
// leave behind. Pending outbound transfers created before now-staleAfter are
// reported as stale; a zero staleAfter skips that check.
func (s *Store) CheckLedger(ctx context.Context, staleAfter time.Duration) ([]LedgerViolation, error) {
	cid, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok || cid == "" {
		cid = uuid.NewString()
	}
	db := s.read(ctx)
	var out []LedgerViolation
	add := func(check, entity string, id int, format string, args ...any) {
		out = append(out, LedgerViolation{
			CheckType:     check,
			EntityType:    entity,
			EntityId:      id,
			Details:       fmt.Sprintf(format, args...),
			CorrelationId: cid,
		})
	}

	// 1) negative on-hand quantities
	var parts []Part
	if err := db.Where("warehouse_quantity < 0").Order("id").Find(&parts).Error; err != nil {
		return nil, err
	}
	for _, p := range parts {
		add(CheckNegativeWarehouse, "Part", p.ID, "part %s has warehouse quantity %d", p.PartNumber, p.WarehouseQuantity)
	}

	var stock []TruckInventory
	if err := db.Where("quantity < 0").Order("id").Find(&stock).Error; err != nil {
		return nil, err
	}
	for _, row := range stock {
		add(CheckNegativeTruck, "TruckInventory", row.ID, "truck %d holds %d of part %d", row.TruckId, row.Quantity, row.PartId)
	}

	var jobParts []JobPart
	if err := db.Where("quantity_used < 0").Order("id").Find(&jobParts).Error; err != nil {
		return nil, err
	}
	for _, row := range jobParts {
		add(CheckNegativeJob, "JobPart", row.ID, "job %d used %d of part %d", row.JobId, row.QuantityUsed, row.PartId)
	}

	// 2) order lines received out of range
	var lines []PurchaseOrderItem
	if err := db.Where("quantity_received < 0 OR quantity_received > quantity_ordered").Order("id").Find(&lines).Error; err != nil {
		return nil, err
	}
	for _, item := range lines {
		add(CheckOrderLineReceived, "PurchaseOrderItem", item.ID, "order %d line received %d of %d",
			item.OrderId, item.QuantityReceived, item.QuantityOrdered)
	}

	// 3) orders closed by a receipt that still have open lines. A manual close
	// may leave lines short; a receipt only closes an order once every line is in.
	type shortRow struct {
		ID          int
		OrderNumber string
		Remaining   int
	}
	var short []shortRow
	if err := db.Raw(`
		SELECT po.id, po.order_number, SUM(poi.quantity_ordered - poi.quantity_received) AS remaining
		FROM purchase_orders po
		JOIN purchase_order_items poi ON poi.order_id = po.id
		WHERE po.status = ?
		   OR (po.status = ? AND EXISTS (
				SELECT 1 FROM histories h
				WHERE h.reference_type = 'purchase_orders' AND h.reference_id = po.id
				  AND h.action_type = ? AND h.after = ?))
		GROUP BY po.id, po.order_number
		HAVING SUM(poi.quantity_ordered - poi.quantity_received) > 0
		ORDER BY po.id
	`, PurchaseOrderStatusReceived, PurchaseOrderStatusClosed, historyActionReceive, `"`+string(PurchaseOrderStatusClosed)+`"`).
		Scan(&short).Error; err != nil {
		return nil, err
	}
	for _, row := range short {
		add(CheckReceivedShort, "PurchaseOrder", row.ID, "order %s was closed by receiving with %d units outstanding", row.OrderNumber, row.Remaining)
	}

	// 4) stale pending transfers
	if staleAfter > 0 {
		cutoff := s.now().Add(-staleAfter)
		var transfers []TruckTransfer
		if err := db.Where("status = ? AND direction = ? AND created_at < ?",
			TransferStatusPending, TransferDirectionOutbound, cutoff).Order("id").Find(&transfers).Error; err != nil {
			return nil, err
		}
		for _, t := range transfers {
			add(CheckStaleTransfer, "TruckTransfer", t.ID, "transfer of %d x part %d to truck %d pending since %s",
				t.Quantity, t.PartId, t.TruckId, t.CreatedAt.Format(time.RFC3339))
		}
	}

	s.logger.WithFields(logrus.Fields{
		"correlationId": cid,
		"violations":    len(out),
	}).Info("ledger check finished")
	return out, nil
}

// RecordLedgerViolations stores the findings of a check run.
func (s *Store) RecordLedgerViolations(ctx context.Context, violations []LedgerViolation) error {
	if len(violations) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(&violations, 100).Error
}
