package models

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ConsumptionLog is append-only: one row per truck to job movement.
type ConsumptionLog struct {
	ID            int             `gorm:"primary_key" json:"id"`
	JobId         int             `gorm:"not null;index" json:"job_id"`
	TruckId       int             `gorm:"not null;index" json:"truck_id"`
	PartId        int             `gorm:"not null;index" json:"part_id"`
	Quantity      int             `gorm:"not null;check:chk_consumption_logs_quantity,quantity > 0" json:"quantity"`
	UnitCostAtUse decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"unit_cost_at_use"`
	UserId        *int            `gorm:"index" json:"user_id"`
	Notes         string          `gorm:"type:text" json:"notes"`
	Job           *Job            `gorm:"foreignKey:JobId;constraint:OnDelete:CASCADE" json:"-"`
	Truck         *Truck          `gorm:"foreignKey:TruckId;constraint:OnDelete:CASCADE" json:"-"`
	Part          *Part           `gorm:"foreignKey:PartId;constraint:OnDelete:CASCADE" json:"part,omitempty"`
	ConsumedAt    time.Time       `gorm:"autoCreateTime;index" json:"consumed_at"`
}

type NewConsumption struct {
	JobId    int    `json:"job_id" validate:"required"`
	TruckId  int    `json:"truck_id" validate:"required"`
	PartId   int    `json:"part_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
	UserId   *int   `json:"user_id"`
	Notes    string `json:"notes"`
}

const consumptionNotificationTitle = "Parts consumed from your truck"

// ConsumeFromTruck moves stock from a truck onto a job. The truck debit comes
// first so a shortage aborts before anything else is written.
func (tx *Tx) ConsumeFromTruck(input *NewConsumption) (*ConsumptionLog, error) {
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	job, err := tx.requireOpenJob(input.JobId)
	if err != nil {
		return nil, err
	}
	truck, err := fetch[Truck](tx.db, input.TruckId, "truck")
	if err != nil {
		return nil, err
	}

	// 1) truck on-hand
	if err := tx.debitTruck(truck.ID, input.PartId, input.Quantity); err != nil {
		return nil, err
	}

	// 2) job ledger, supplier taken from the truck's own deliveries first and
	// the last warehouse receipt otherwise
	supplierId, err := tx.truckSupplier(truck.ID, input.PartId)
	if err != nil {
		return nil, err
	}
	jobPart, err := tx.upsertJobPart(jobPartCredit{
		JobId:      job.ID,
		PartId:     input.PartId,
		Quantity:   input.Quantity,
		SupplierId: supplierId,
	})
	if err != nil {
		return nil, err
	}

	// 3) log
	userId := input.UserId
	entry := ConsumptionLog{
		JobId:         job.ID,
		TruckId:       truck.ID,
		PartId:        input.PartId,
		Quantity:      input.Quantity,
		UnitCostAtUse: jobPart.UnitCostAtUse,
		UserId:        userId,
		Notes:         input.Notes,
	}
	if err := tx.db.Create(&entry).Error; err != nil {
		return nil, err
	}

	// 4) tell the truck's owner when someone else used their stock
	if userId != nil && truck.AssignedUserId != nil && *truck.AssignedUserId != *userId {
		part, err := fetch[Part](tx.db, input.PartId, "part")
		if err != nil {
			return nil, err
		}
		name, err := tx.actorName(userId)
		if err != nil {
			return nil, err
		}
		if _, err := tx.CreateNotification(&NewNotification{
			UserId:   truck.AssignedUserId,
			Title:    consumptionNotificationTitle,
			Severity: NotificationSeverityInfo,
			Source:   "consumption",
			Message: fmt.Sprintf("%s used %d x %s (%s) from truck %s on job %s - %s.",
				name, input.Quantity, part.PartNumber, part.Description, truck.TruckNumber, job.JobNumber, job.Name),
			TargetTab:  "trucks",
			TargetData: strconv.Itoa(truck.ID),
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.createHistory(historyActionMove, entry.ID, "consumption_logs", nil, entry,
		fmt.Sprintf("%d consumed from truck %s on job %s.", entry.Quantity, truck.TruckNumber, job.JobNumber)); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Store) ConsumeFromTruck(ctx context.Context, input *NewConsumption) (*ConsumptionLog, error) {
	return inTx(s, ctx, "ConsumeFromTruck", func(tx *Tx) (*ConsumptionLog, error) {
		return tx.ConsumeFromTruck(input)
	})
}

// ConsumptionLogForJob is the job's movement trail, oldest first.
func (s *Store) ConsumptionLogForJob(ctx context.Context, jobId int) ([]ConsumptionLog, error) {
	if _, err := fetch[Job](s.read(ctx), jobId, "job"); err != nil {
		return nil, err
	}
	var rows []ConsumptionLog
	err := s.read(ctx).Preload("Part").
		Where("job_id = ?", jobId).
		Order("consumed_at, id").
		Find(&rows).Error
	return rows, err
}

// RecentConsumption returns the newest consumption entries across all jobs.
func (s *Store) RecentConsumption(ctx context.Context, limit int) ([]ConsumptionLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []ConsumptionLog
	err := s.read(ctx).Preload("Part").
		Order("consumed_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
