package models

import (
	"context"

	"github.com/shopspring/decimal"
)

type InventorySummary struct {
	TotalParts          int             `json:"total_parts"`
	TotalWarehouseUnits int             `json:"total_warehouse_units"`
	WarehouseValue      decimal.Decimal `json:"warehouse_value"`
	LowStockCount       int             `json:"low_stock_count"`
	TruckUnits          int             `json:"truck_units"`
	PendingTransfers    int             `json:"pending_transfers"`
}

func (s *Store) InventorySummary(ctx context.Context) (*InventorySummary, error) {
	db := s.read(ctx)
	var parts []Part
	if err := db.Select("id", "warehouse_quantity", "min_quantity", "unit_cost", "deprecation_status").
		Where("deprecation_status <> ?", DeprecationStatusArchived).
		Find(&parts).Error; err != nil {
		return nil, err
	}
	summary := &InventorySummary{TotalParts: len(parts), WarehouseValue: decimal.Zero}
	for _, p := range parts {
		summary.TotalWarehouseUnits += p.WarehouseQuantity
		summary.WarehouseValue = summary.WarehouseValue.Add(p.WarehouseValue())
		if p.IsLowStock() && !p.DeprecationStatus.IsDeprecated() {
			summary.LowStockCount++
		}
	}
	if err := db.Model(&TruckInventory{}).Select("COALESCE(SUM(quantity), 0)").Scan(&summary.TruckUnits).Error; err != nil {
		return nil, err
	}
	var pending int64
	if err := db.Model(&TruckTransfer{}).Where("status = ?", TransferStatusPending).Count(&pending).Error; err != nil {
		return nil, err
	}
	summary.PendingTransfers = int(pending)
	return summary, nil
}

// OrdersSummary counts purchase orders per status. Every status is present,
// with zero when no order has it.
func (s *Store) OrdersSummary(ctx context.Context) (map[PurchaseOrderStatus]int, error) {
	var rows []struct {
		Status PurchaseOrderStatus
		Count  int
	}
	if err := s.read(ctx).Model(&PurchaseOrder{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	summary := make(map[PurchaseOrderStatus]int, len(purchaseOrderStatuses))
	for _, status := range purchaseOrderStatuses {
		summary[status] = 0
	}
	for _, r := range rows {
		summary[r.Status] = r.Count
	}
	return summary, nil
}

type ReorderSuggestion struct {
	Part              Part `json:"part"`
	SuggestedQuantity int  `json:"suggested_quantity"`
	OnOrder           int  `json:"on_order"`
}

// SuggestReorder proposes a quantity for every low stock part: up to the
// maximum, or twice the minimum when no maximum is set.
func (s *Store) SuggestReorder(ctx context.Context) ([]ReorderSuggestion, error) {
	parts, err := s.LowStockParts(ctx)
	if err != nil {
		return nil, err
	}
	var onOrder []struct {
		PartId   int
		Quantity int
	}
	if err := s.read(ctx).Model(&PurchaseOrderItem{}).
		Joins("JOIN purchase_orders ON purchase_orders.id = purchase_order_items.order_id").
		Where("purchase_orders.status IN ?", []PurchaseOrderStatus{
			PurchaseOrderStatusDraft, PurchaseOrderStatusSubmitted, PurchaseOrderStatusPartial,
		}).
		Select("purchase_order_items.part_id, COALESCE(SUM(purchase_order_items.quantity_ordered - purchase_order_items.quantity_received), 0) AS quantity").
		Group("purchase_order_items.part_id").
		Scan(&onOrder).Error; err != nil {
		return nil, err
	}
	outstanding := make(map[int]int, len(onOrder))
	for _, o := range onOrder {
		outstanding[o.PartId] = o.Quantity
	}

	suggestions := make([]ReorderSuggestion, 0, len(parts))
	for _, p := range parts {
		target := p.MaxQuantity
		if target <= 0 {
			target = 2 * p.MinQuantity
		}
		qty := target - p.WarehouseQuantity
		if qty <= 0 {
			continue
		}
		suggestions = append(suggestions, ReorderSuggestion{
			Part:              p,
			SuggestedQuantity: qty,
			OnOrder:           outstanding[p.ID],
		})
	}
	return suggestions, nil
}
