package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wiredpart/parts_backend/config"
	"github.com/wiredpart/parts_backend/utils"
)

type Part struct {
	ID                   int               `gorm:"primary_key" json:"id"`
	PartNumber           string            `gorm:"size:100;uniqueIndex;not null" json:"part_number"`
	Description          string            `gorm:"size:255;not null" json:"description"`
	CategoryId           *int              `gorm:"index" json:"category_id"`
	Location             string            `gorm:"size:100" json:"location"`
	WarehouseQuantity    int               `gorm:"not null;default:0;check:chk_parts_warehouse_quantity,warehouse_quantity >= 0" json:"warehouse_quantity"`
	MinQuantity          int               `gorm:"not null;default:0" json:"min_quantity"`
	MaxQuantity          int               `gorm:"not null;default:0" json:"max_quantity"`
	UnitCost             decimal.Decimal   `gorm:"type:decimal(20,4);not null;default:0" json:"unit_cost"`
	DeprecationStatus    DeprecationStatus `gorm:"size:20;not null;default:none;index" json:"deprecation_status"`
	DeprecationStartedAt *time.Time        `json:"deprecation_started_at"`
	CreatedAt            time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	Category             *Category         `gorm:"foreignKey:CategoryId;constraint:OnDelete:SET NULL" json:"category,omitempty"`
}

// IsLowStock is only meaningful when a minimum has been set.
func (p Part) IsLowStock() bool {
	return p.MinQuantity > 0 && p.WarehouseQuantity < p.MinQuantity
}

func (p Part) WarehouseValue() decimal.Decimal {
	return p.UnitCost.Mul(decimal.NewFromInt(int64(p.WarehouseQuantity)))
}

type NewPart struct {
	PartNumber  string          `json:"part_number" validate:"required,max=100"`
	Description string          `json:"description" validate:"required,max=255"`
	CategoryId  *int            `json:"category_id"`
	Location    string          `json:"location" validate:"max=100"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	MinQuantity int             `json:"min_quantity" validate:"gte=0"`
	MaxQuantity int             `json:"max_quantity" validate:"gte=0"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// UpdatePart changes descriptive fields and thresholds. Quantities only move
// through ledger operations. A CategoryId of 0 clears the category.
type UpdatePart struct {
	Description *string          `json:"description" validate:"omitempty,max=255"`
	CategoryId  *int             `json:"category_id" validate:"omitempty,gte=0"`
	Location    *string          `json:"location" validate:"omitempty,max=100"`
	MinQuantity *int             `json:"min_quantity" validate:"omitempty,gte=0"`
	MaxQuantity *int             `json:"max_quantity" validate:"omitempty,gte=0"`
	UnitCost    *decimal.Decimal `json:"unit_cost"`
}

func (input *NewPart) validate(tx *Tx) error {
	input.PartNumber = strings.TrimSpace(input.PartNumber)
	input.Description = strings.TrimSpace(input.Description)
	if err := tx.validateStruct(input); err != nil {
		return err
	}
	if input.UnitCost.IsNegative() {
		return utils.ValidationError("unit_cost must not be negative")
	}
	if input.MaxQuantity > 0 && input.MaxQuantity < input.MinQuantity {
		return utils.ValidationError("max_quantity must not be below min_quantity")
	}
	if err := tx.checkCategory(input.CategoryId); err != nil {
		return err
	}
	var count int64
	if err := tx.db.Model(&Part{}).Where("part_number = ?", input.PartNumber).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return utils.ValidationError("part number %s already exists", input.PartNumber)
	}
	return nil
}

func (tx *Tx) CreatePart(input *NewPart) (*Part, error) {
	if err := input.validate(tx); err != nil {
		return nil, err
	}
	part := Part{
		PartNumber:        input.PartNumber,
		Description:       input.Description,
		CategoryId:        input.CategoryId,
		Location:          input.Location,
		WarehouseQuantity: input.Quantity,
		MinQuantity:       input.MinQuantity,
		MaxQuantity:       input.MaxQuantity,
		UnitCost:          input.UnitCost,
		DeprecationStatus: DeprecationStatusNone,
	}
	if err := tx.db.Create(&part).Error; err != nil {
		return nil, err
	}
	if err := tx.createHistory(historyActionCreate, part.ID, "parts", nil, part,
		fmt.Sprintf("Part %s created with %d in warehouse.", part.PartNumber, part.WarehouseQuantity)); err != nil {
		return nil, err
	}
	return &part, nil
}

func (s *Store) CreatePart(ctx context.Context, input *NewPart) (*Part, error) {
	return inTx(s, ctx, "CreatePart", func(tx *Tx) (*Part, error) {
		return tx.CreatePart(input)
	})
}

func (tx *Tx) UpdatePart(id int, input *UpdatePart) (*Part, error) {
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	oldPart, err := fetchForUpdate[Part](tx, id, "part")
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if input.Description != nil {
		d := strings.TrimSpace(*input.Description)
		if d == "" {
			return nil, utils.ValidationError("description is required")
		}
		updates["description"] = d
	}
	if input.CategoryId != nil {
		if *input.CategoryId == 0 {
			updates["category_id"] = nil
		} else {
			if err := tx.checkCategory(input.CategoryId); err != nil {
				return nil, err
			}
			updates["category_id"] = *input.CategoryId
		}
	}
	if input.Location != nil {
		updates["location"] = *input.Location
	}
	minQty, maxQty := oldPart.MinQuantity, oldPart.MaxQuantity
	if input.MinQuantity != nil {
		minQty = *input.MinQuantity
		updates["min_quantity"] = minQty
	}
	if input.MaxQuantity != nil {
		maxQty = *input.MaxQuantity
		updates["max_quantity"] = maxQty
	}
	if maxQty > 0 && maxQty < minQty {
		return nil, utils.ValidationError("max_quantity must not be below min_quantity")
	}
	if input.UnitCost != nil {
		if input.UnitCost.IsNegative() {
			return nil, utils.ValidationError("unit_cost must not be negative")
		}
		updates["unit_cost"] = *input.UnitCost
	}
	if len(updates) == 0 {
		return oldPart, nil
	}
	if err := tx.db.Model(&Part{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	part, err := fetch[Part](tx.db, id, "part")
	if err != nil {
		return nil, err
	}
	if err := tx.createHistory(historyActionUpdate, id, "parts", oldPart, part, "Part details updated."); err != nil {
		return nil, err
	}
	return part, nil
}

func (s *Store) UpdatePart(ctx context.Context, id int, input *UpdatePart) (*Part, error) {
	return inTx(s, ctx, "UpdatePart", func(tx *Tx) (*Part, error) {
		return tx.UpdatePart(id, input)
	})
}

// PartDeleteCheck lists what still references a part.
type PartDeleteCheck struct {
	CanDelete bool     `json:"can_delete"`
	Reasons   []string `json:"reasons"`
}

func (tx *Tx) CanDeletePart(id int) (*PartDeleteCheck, error) {
	if _, err := fetch[Part](tx.db, id, "part"); err != nil {
		return nil, err
	}
	var reasons []string

	var truckUnits int64
	if err := tx.db.Model(&TruckInventory{}).Where("part_id = ?", id).
		Select("COALESCE(SUM(quantity), 0)").Scan(&truckUnits).Error; err != nil {
		return nil, err
	}
	if truckUnits > 0 {
		reasons = append(reasons, fmt.Sprintf("%d units are on trucks", truckUnits))
	}

	counts := []struct {
		query  func() (int64, error)
		reason string
	}{
		{func() (int64, error) {
			var n int64
			err := tx.db.Model(&JobPart{}).Where("part_id = ?", id).Count(&n).Error
			return n, err
		}, "it is assigned to jobs"},
		{func() (int64, error) {
			var n int64
			err := tx.db.Model(&TruckTransfer{}).Where("part_id = ? AND status = ?", id, TransferStatusPending).Count(&n).Error
			return n, err
		}, "it has pending transfers"},
		{func() (int64, error) {
			var n int64
			err := tx.db.Model(&PurchaseOrderItem{}).Where("part_id = ?", id).Count(&n).Error
			return n, err
		}, "it is referenced by purchase orders"},
		{func() (int64, error) {
			var n int64
			err := tx.db.Model(&ReturnAuthorizationItem{}).Where("part_id = ?", id).Count(&n).Error
			return n, err
		}, "it is referenced by return authorizations"},
	}
	for _, c := range counts {
		n, err := c.query()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			reasons = append(reasons, c.reason)
		}
	}
	return &PartDeleteCheck{CanDelete: len(reasons) == 0, Reasons: reasons}, nil
}

func (s *Store) CanDeletePart(ctx context.Context, id int) (*PartDeleteCheck, error) {
	return inTx(s, ctx, "CanDeletePart", func(tx *Tx) (*PartDeleteCheck, error) {
		return tx.CanDeletePart(id)
	})
}

func (tx *Tx) DeletePart(id int) (*Part, error) {
	part, err := fetchForUpdate[Part](tx, id, "part")
	if err != nil {
		return nil, err
	}
	check, err := tx.CanDeletePart(id)
	if err != nil {
		return nil, err
	}
	if !check.CanDelete {
		return nil, utils.InvalidTransition("part %s cannot be deleted: %s", part.PartNumber, strings.Join(check.Reasons, "; "))
	}
	if err := tx.db.Delete(&Part{}, id).Error; err != nil {
		return nil, err
	}
	if err := tx.createHistory(historyActionDelete, id, "parts", part, nil,
		fmt.Sprintf("Part %s deleted.", part.PartNumber)); err != nil {
		return nil, err
	}
	return part, nil
}

func (s *Store) DeletePart(ctx context.Context, id int) (*Part, error) {
	return inTx(s, ctx, "DeletePart", func(tx *Tx) (*Part, error) {
		return tx.DeletePart(id)
	})
}

func (s *Store) GetPart(ctx context.Context, id int) (*Part, error) {
	return fetch[Part](s.read(ctx), id, "part")
}

func (s *Store) GetPartByNumber(ctx context.Context, partNumber string) (*Part, error) {
	var part Part
	err := s.read(ctx).Where("part_number = ?", partNumber).Limit(1).Find(&part).Error
	if err != nil {
		return nil, err
	}
	if part.ID == 0 {
		return nil, utils.NotFound("part %s not found", partNumber)
	}
	return &part, nil
}

func (s *Store) ListParts(ctx context.Context, includeArchived bool) ([]Part, error) {
	var parts []Part
	db := s.read(ctx)
	if !includeArchived {
		db = db.Where("deprecation_status <> ?", DeprecationStatusArchived)
	}
	err := db.Preload("Category").Order("part_number").Find(&parts).Error
	return parts, err
}

// SearchParts matches part number, description or category name.
func (s *Store) SearchParts(ctx context.Context, q string) ([]Part, error) {
	var parts []Part
	like := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	err := s.read(ctx).Preload("Category").
		Where("LOWER(part_number) LIKE ? OR LOWER(description) LIKE ? OR category_id IN (?)", like, like,
			s.read(ctx).Model(&Category{}).Select("id").Where("LOWER(name) LIKE ?", like)).
		Order("part_number").
		Limit(config.SearchLimit).
		Find(&parts).Error
	return parts, err
}

func (s *Store) LowStockParts(ctx context.Context) ([]Part, error) {
	var parts []Part
	err := s.read(ctx).
		Where("min_quantity > 0 AND warehouse_quantity < min_quantity").
		Where("deprecation_status = ?", DeprecationStatusNone).
		Order("part_number").
		Find(&parts).Error
	return parts, err
}
