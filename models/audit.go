package models

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/wiredpart/parts_backend/utils"
	"gorm.io/gorm"
)

// AuditRecord is an immutable count result. It never corrects the ledger;
// discrepancies are resolved by people through the normal operations.
type AuditRecord struct {
	ID               int         `gorm:"primary_key" json:"id"`
	AuditType        AuditType   `gorm:"size:10;not null;index:idx_audit_records_location" json:"audit_type"`
	TargetId         int         `gorm:"not null;default:0;index:idx_audit_records_location" json:"target_id"` // 0 for the warehouse
	PartId           int         `gorm:"not null;index" json:"part_id"`
	ExpectedQuantity int         `gorm:"not null;check:chk_audit_records_expected,expected_quantity >= 0" json:"expected_quantity"`
	ActualQuantity   int         `gorm:"not null;check:chk_audit_records_actual,actual_quantity >= 0" json:"actual_quantity"`
	Status           AuditStatus `gorm:"size:20;not null" json:"status"`
	AuditedBy        *int        `json:"audited_by"`
	Notes            string      `gorm:"type:text" json:"notes"`
	Part             *Part       `gorm:"foreignKey:PartId;constraint:OnDelete:CASCADE" json:"part,omitempty"`
	AuditedAt        time.Time   `gorm:"autoCreateTime;index" json:"audited_at"`
}

// Variance is actual minus expected.
func (r AuditRecord) Variance() int {
	return r.ActualQuantity - r.ExpectedQuantity
}

// AuditItem is one thing to count at a location.
type AuditItem struct {
	PartId           int        `json:"part_id"`
	PartNumber       string     `json:"part_number"`
	Description      string     `json:"description"`
	Location         string     `json:"location"`
	ExpectedQuantity int        `json:"expected_quantity"`
	LastAuditedAt    *time.Time `json:"last_audited_at"`
}

type NewAuditRecord struct {
	AuditType        AuditType   `json:"audit_type" validate:"required"`
	TargetId         *int        `json:"target_id"`
	PartId           int         `json:"part_id" validate:"required"`
	ExpectedQuantity int         `json:"expected_quantity" validate:"gte=0"`
	ActualQuantity   int         `json:"actual_quantity" validate:"gte=0"`
	Status           AuditStatus `json:"status"`
	AuditedBy        *int        `json:"audited_by"`
	Notes            string      `json:"notes"`
}

// auditTarget resolves the stored target id for a location, checking that
// trucks and jobs exist. The warehouse is always target 0.
func auditTarget(db *gorm.DB, auditType AuditType, targetId *int) (int, error) {
	switch auditType {
	case AuditTypeWarehouse:
		return 0, nil
	case AuditTypeTruck:
		if targetId == nil {
			return 0, utils.ValidationError("target_id is required for a truck audit")
		}
		if _, err := fetch[Truck](db, *targetId, "truck"); err != nil {
			return 0, err
		}
		return *targetId, nil
	case AuditTypeJob:
		if targetId == nil {
			return 0, utils.ValidationError("target_id is required for a job audit")
		}
		if _, err := fetch[Job](db, *targetId, "job"); err != nil {
			return 0, err
		}
		return *targetId, nil
	}
	return 0, utils.ValidationError("invalid audit type %q", auditType)
}

// GetAuditItems lists what to count at a location, never-audited parts first,
// then the longest since their last count. limit <= 0 returns everything.
func (s *Store) GetAuditItems(ctx context.Context, auditType AuditType, targetId *int, limit int) ([]AuditItem, error) {
	db := s.read(ctx)
	target, err := auditTarget(db, auditType, targetId)
	if err != nil {
		return nil, err
	}

	var items []AuditItem
	switch auditType {
	case AuditTypeWarehouse:
		err = db.Model(&Part{}).
			Where("warehouse_quantity > 0").
			Select("id AS part_id, part_number, description, location, warehouse_quantity AS expected_quantity").
			Scan(&items).Error
	case AuditTypeTruck:
		err = db.Model(&TruckInventory{}).
			Joins("JOIN parts ON parts.id = truck_inventories.part_id").
			Where("truck_inventories.truck_id = ? AND truck_inventories.quantity > 0", target).
			Select("parts.id AS part_id, parts.part_number, parts.description, parts.location, truck_inventories.quantity AS expected_quantity").
			Scan(&items).Error
	case AuditTypeJob:
		err = db.Model(&JobPart{}).
			Joins("JOIN parts ON parts.id = job_parts.part_id").
			Where("job_parts.job_id = ?", target).
			Select("parts.id AS part_id, parts.part_number, parts.description, parts.location, job_parts.quantity_used AS expected_quantity").
			Scan(&items).Error
	}
	if err != nil {
		return nil, err
	}

	var history []AuditRecord
	if err := db.Select("part_id", "audited_at").
		Where("audit_type = ? AND target_id = ?", auditType, target).
		Find(&history).Error; err != nil {
		return nil, err
	}
	last := make(map[int]time.Time, len(history))
	for _, h := range history {
		if seen, ok := last[h.PartId]; !ok || h.AuditedAt.After(seen) {
			last[h.PartId] = h.AuditedAt
		}
	}
	for i := range items {
		if at, ok := last[items[i].PartId]; ok {
			items[i].LastAuditedAt = &at
		}
	}

	slices.SortStableFunc(items, func(a, b AuditItem) int {
		switch {
		case a.LastAuditedAt == nil && b.LastAuditedAt != nil:
			return -1
		case a.LastAuditedAt != nil && b.LastAuditedAt == nil:
			return 1
		case a.LastAuditedAt != nil && !a.LastAuditedAt.Equal(*b.LastAuditedAt):
			return a.LastAuditedAt.Compare(*b.LastAuditedAt)
		}
		return strings.Compare(a.PartNumber, b.PartNumber)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (tx *Tx) RecordAuditResult(input *NewAuditRecord) (*AuditRecord, error) {
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	if !isValidEnum(input.AuditType, auditTypes) {
		return nil, utils.ValidationError("invalid audit type %q", input.AuditType)
	}
	status := input.Status
	if status == "" {
		status = AuditStatusConfirmed
		if input.ActualQuantity != input.ExpectedQuantity {
			status = AuditStatusDiscrepancy
		}
	}
	if !isValidEnum(status, auditStatuses) {
		return nil, utils.ValidationError("invalid audit status %q", status)
	}
	target, err := auditTarget(tx.db, input.AuditType, input.TargetId)
	if err != nil {
		return nil, err
	}
	part, err := fetch[Part](tx.db, input.PartId, "part")
	if err != nil {
		return nil, err
	}
	record := AuditRecord{
		AuditType:        input.AuditType,
		TargetId:         target,
		PartId:           part.ID,
		ExpectedQuantity: input.ExpectedQuantity,
		ActualQuantity:   input.ActualQuantity,
		Status:           status,
		AuditedBy:        tx.actingUser(input.AuditedBy),
		Notes:            input.Notes,
		AuditedAt:        tx.now,
	}
	if err := tx.db.Create(&record).Error; err != nil {
		return nil, err
	}
	if status == AuditStatusDiscrepancy {
		if err := tx.createHistory(historyActionCreate, record.ID, "audit_records", nil, record,
			fmt.Sprintf("Count of %s at %s: expected %d, found %d.",
				part.PartNumber, input.AuditType, record.ExpectedQuantity, record.ActualQuantity)); err != nil {
			return nil, err
		}
	}
	return &record, nil
}

func (s *Store) RecordAuditResult(ctx context.Context, input *NewAuditRecord) (*AuditRecord, error) {
	return inTx(s, ctx, "RecordAuditResult", func(tx *Tx) (*AuditRecord, error) {
		return tx.RecordAuditResult(input)
	})
}

type AuditSummary struct {
	Confirmed   int        `json:"confirmed"`
	Discrepancy int        `json:"discrepancy"`
	Skipped     int        `json:"skipped"`
	Total       int        `json:"total"`
	LastAudit   *time.Time `json:"last_audit"`
}

// AuditSummary counts results for one audit type, optionally narrowed to a
// single truck or job.
func (s *Store) AuditSummary(ctx context.Context, auditType AuditType, targetId *int) (*AuditSummary, error) {
	if !isValidEnum(auditType, auditTypes) {
		return nil, utils.ValidationError("invalid audit type %q", auditType)
	}
	scope := func() *gorm.DB {
		db := s.read(ctx).Model(&AuditRecord{}).Where("audit_type = ?", auditType)
		if targetId != nil {
			db = db.Where("target_id = ?", *targetId)
		}
		return db
	}

	var counts []struct {
		Status AuditStatus
		Count  int
	}
	if err := scope().Select("status, COUNT(*) AS count").Group("status").Scan(&counts).Error; err != nil {
		return nil, err
	}
	summary := &AuditSummary{}
	for _, c := range counts {
		switch c.Status {
		case AuditStatusConfirmed:
			summary.Confirmed = c.Count
		case AuditStatusDiscrepancy:
			summary.Discrepancy = c.Count
		case AuditStatusSkipped:
			summary.Skipped = c.Count
		}
		summary.Total += c.Count
	}

	var latest AuditRecord
	if err := scope().Order("audited_at DESC, id DESC").Limit(1).Find(&latest).Error; err != nil {
		return nil, err
	}
	if latest.ID != 0 {
		summary.LastAudit = &latest.AuditedAt
	}
	return summary, nil
}
