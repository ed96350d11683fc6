package models

import (
	"context"
	"fmt"

	"github.com/wiredpart/parts_backend/utils"
	"gorm.io/gorm"
)

// DeprecationProgress is what stands between a part and its next stage.
type DeprecationProgress struct {
	PartId            int               `json:"part_id"`
	PartNumber        string            `json:"part_number"`
	Status            DeprecationStatus `json:"status"`
	OpenJobs          int               `json:"open_jobs"`
	JobQuantity       int               `json:"job_quantity"`
	TruckQuantity     int               `json:"truck_quantity"`
	WarehouseQuantity int               `json:"warehouse_quantity"`
}

// ReadyToAdvance reports whether the gate for the current stage is open. An
// open job using the part holds every stage, since stock can still reach a
// job after the part has left pending.
func (p DeprecationProgress) ReadyToAdvance() bool {
	if p.OpenJobs > 0 {
		return false
	}
	switch p.Status {
	case DeprecationStatusPending:
		return true
	case DeprecationStatusWindingDown:
		return p.TruckQuantity == 0
	case DeprecationStatusZeroStock:
		return p.WarehouseQuantity == 0
	case DeprecationStatusNone, DeprecationStatusArchived:
		return false
	}
	return false
}

func deprecationProgress(db *gorm.DB, part *Part) (*DeprecationProgress, error) {
	progress := &DeprecationProgress{
		PartId:            part.ID,
		PartNumber:        part.PartNumber,
		Status:            part.DeprecationStatus,
		WarehouseQuantity: part.WarehouseQuantity,
	}
	var jobs struct {
		Jobs     int
		Quantity int
	}
	err := db.Model(&JobPart{}).
		Joins("JOIN jobs ON jobs.id = job_parts.job_id").
		Where("job_parts.part_id = ? AND jobs.status IN ?", part.ID, openJobStatuses()).
		Select("COUNT(DISTINCT job_parts.job_id) AS jobs, COALESCE(SUM(job_parts.quantity_used), 0) AS quantity").
		Scan(&jobs).Error
	if err != nil {
		return nil, err
	}
	progress.OpenJobs = jobs.Jobs
	progress.JobQuantity = jobs.Quantity

	if err := db.Model(&TruckInventory{}).
		Where("part_id = ?", part.ID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&progress.TruckQuantity).Error; err != nil {
		return nil, err
	}
	return progress, nil
}

// StartPartDeprecation is a no-op for a part already in the pipeline.
func (tx *Tx) StartPartDeprecation(partId int) (*Part, error) {
	part, err := fetchForUpdate[Part](tx, partId, "part")
	if err != nil {
		return nil, err
	}
	if part.DeprecationStatus.IsDeprecated() {
		return part, nil
	}
	now := tx.now
	if err := tx.db.Model(&Part{}).Where("id = ?", partId).Updates(map[string]interface{}{
		"deprecation_status":     DeprecationStatusPending,
		"deprecation_started_at": now,
	}).Error; err != nil {
		return nil, err
	}
	before := part.DeprecationStatus
	part.DeprecationStatus = DeprecationStatusPending
	part.DeprecationStartedAt = &now
	if err := tx.createHistory(historyActionStatus, partId, "parts", before, part.DeprecationStatus,
		fmt.Sprintf("Deprecation of %s started.", part.PartNumber)); err != nil {
		return nil, err
	}
	return part, nil
}

func (s *Store) StartPartDeprecation(ctx context.Context, partId int) (*Part, error) {
	return inTx(s, ctx, "StartPartDeprecation", func(tx *Tx) (*Part, error) {
		return tx.StartPartDeprecation(partId)
	})
}

// AdvanceDeprecation checks the current stage's gate and moves one stage
// forward when it is open. It returns the status the part ends up in.
func (tx *Tx) AdvanceDeprecation(partId int) (DeprecationStatus, error) {
	part, err := fetchForUpdate[Part](tx, partId, "part")
	if err != nil {
		return "", err
	}
	if !part.DeprecationStatus.IsDeprecated() {
		return part.DeprecationStatus, utils.InvalidTransition("part %s is not being deprecated", part.PartNumber)
	}
	next, ok := part.DeprecationStatus.Next()
	if !ok {
		return part.DeprecationStatus, nil
	}
	progress, err := deprecationProgress(tx.db, part)
	if err != nil {
		return "", err
	}
	if !progress.ReadyToAdvance() {
		return part.DeprecationStatus, nil
	}
	if err := tx.db.Model(&Part{}).Where("id = ?", partId).
		Update("deprecation_status", next).Error; err != nil {
		return "", err
	}
	if err := tx.createHistory(historyActionStatus, partId, "parts", part.DeprecationStatus, next,
		fmt.Sprintf("Deprecation of %s advanced to %s.", part.PartNumber, next)); err != nil {
		return "", err
	}
	return next, nil
}

func (s *Store) AdvanceDeprecation(ctx context.Context, partId int) (DeprecationStatus, error) {
	return inTx(s, ctx, "AdvanceDeprecation", func(tx *Tx) (DeprecationStatus, error) {
		return tx.AdvanceDeprecation(partId)
	})
}

// CancelDeprecation returns the part to normal use. Once stock has been run
// down to zero the decision is final.
func (tx *Tx) CancelDeprecation(partId int) (*Part, error) {
	part, err := fetchForUpdate[Part](tx, partId, "part")
	if err != nil {
		return nil, err
	}
	if !part.DeprecationStatus.IsCancellable() {
		return nil, utils.InvalidTransition("deprecation of %s cannot be cancelled: it is %s", part.PartNumber, part.DeprecationStatus)
	}
	if err := tx.db.Model(&Part{}).Where("id = ?", partId).Updates(map[string]interface{}{
		"deprecation_status":     DeprecationStatusNone,
		"deprecation_started_at": nil,
	}).Error; err != nil {
		return nil, err
	}
	before := part.DeprecationStatus
	part.DeprecationStatus = DeprecationStatusNone
	part.DeprecationStartedAt = nil
	if err := tx.createHistory(historyActionStatus, partId, "parts", before, part.DeprecationStatus,
		fmt.Sprintf("Deprecation of %s cancelled.", part.PartNumber)); err != nil {
		return nil, err
	}
	return part, nil
}

func (s *Store) CancelDeprecation(ctx context.Context, partId int) (*Part, error) {
	return inTx(s, ctx, "CancelDeprecation", func(tx *Tx) (*Part, error) {
		return tx.CancelDeprecation(partId)
	})
}

func (s *Store) DeprecationProgress(ctx context.Context, partId int) (*DeprecationProgress, error) {
	part, err := fetch[Part](s.read(ctx), partId, "part")
	if err != nil {
		return nil, err
	}
	return deprecationProgress(s.read(ctx), part)
}

func (s *Store) DeprecatedParts(ctx context.Context) ([]Part, error) {
	var parts []Part
	err := s.read(ctx).
		Where("deprecation_status <> ?", DeprecationStatusNone).
		Order("deprecation_started_at, part_number").
		Find(&parts).Error
	return parts, err
}
