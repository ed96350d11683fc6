package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wiredpart/parts_backend/utils"
)

type Job struct {
	ID           int       `gorm:"primary_key" json:"id"`
	JobNumber    string    `gorm:"size:50;uniqueIndex;not null" json:"job_number"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	CustomerName string    `gorm:"size:255" json:"customer_name"`
	Address      string    `gorm:"type:text" json:"address"`
	Status       JobStatus `gorm:"size:20;not null;index" json:"status"`
	Notes        string    `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// JobPart is the running total of one part used on one job. Cost and supplier
// are captured when the row is first written and kept on later accumulation.
type JobPart struct {
	ID            int             `gorm:"primary_key" json:"id"`
	JobId         int             `gorm:"not null;uniqueIndex:idx_job_parts_job_part" json:"job_id"`
	PartId        int             `gorm:"not null;uniqueIndex:idx_job_parts_job_part;index" json:"part_id"`
	QuantityUsed  int             `gorm:"not null;default:0;check:chk_job_parts_quantity_used,quantity_used >= 0" json:"quantity_used"`
	UnitCostAtUse decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"unit_cost_at_use"`
	SupplierId    *int            `gorm:"index" json:"supplier_id"`
	Notes         string          `gorm:"type:text" json:"notes"`
	Job           *Job            `gorm:"foreignKey:JobId;constraint:OnDelete:CASCADE" json:"-"`
	Part          *Part           `gorm:"foreignKey:PartId;constraint:OnDelete:RESTRICT" json:"part,omitempty"`
	Supplier      *Supplier       `gorm:"foreignKey:SupplierId;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (jp JobPart) TotalCost() decimal.Decimal {
	return jp.UnitCostAtUse.Mul(decimal.NewFromInt(int64(jp.QuantityUsed)))
}

// jobNumberPrefix is used when a job is created without a number.
const jobNumberPrefix = "JOB"

// NewJob leaves JobNumber empty to have one generated as JOB-YYYY-NNN.
type NewJob struct {
	JobNumber    string `json:"job_number" validate:"max=50"`
	Name         string `json:"name" validate:"required,max=255"`
	CustomerName string `json:"customer_name" validate:"max=255"`
	Address      string `json:"address"`
	Notes        string `json:"notes"`
}

// UpdateJob edits the job's descriptive fields. Status has its own operation.
type UpdateJob struct {
	JobNumber    *string `json:"job_number" validate:"omitempty,max=50"`
	Name         *string `json:"name" validate:"omitempty,max=255"`
	CustomerName *string `json:"customer_name" validate:"omitempty,max=255"`
	Address      *string `json:"address"`
	Notes        *string `json:"notes"`
}

func (tx *Tx) jobNumberTaken(jobNumber string, exceptId int) error {
	var count int64
	if err := tx.db.Model(&Job{}).Where("job_number = ? AND id <> ?", jobNumber, exceptId).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return utils.ValidationError("job %s already exists", jobNumber)
	}
	return nil
}

func (tx *Tx) CreateJob(input *NewJob) (*Job, error) {
	input.JobNumber = strings.TrimSpace(input.JobNumber)
	input.Name = strings.TrimSpace(input.Name)
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	if input.JobNumber == "" {
		number, err := tx.nextDocumentNumber(&Job{}, "job_number", jobNumberPrefix)
		if err != nil {
			return nil, err
		}
		input.JobNumber = number
	}
	if err := tx.jobNumberTaken(input.JobNumber, 0); err != nil {
		return nil, err
	}
	job := Job{
		JobNumber:    input.JobNumber,
		Name:         input.Name,
		CustomerName: input.CustomerName,
		Address:      input.Address,
		Notes:        input.Notes,
		Status:       JobStatusActive,
	}
	if err := tx.db.Create(&job).Error; err != nil {
		return nil, err
	}
	if err := tx.createHistory(historyActionCreate, job.ID, "jobs", nil, job,
		fmt.Sprintf("Job %s created.", job.JobNumber)); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *Store) CreateJob(ctx context.Context, input *NewJob) (*Job, error) {
	return inTx(s, ctx, "CreateJob", func(tx *Tx) (*Job, error) {
		return tx.CreateJob(input)
	})
}

func (tx *Tx) UpdateJobStatus(id int, status JobStatus) (*Job, error) {
	if !isValidEnum(status, jobStatuses) {
		return nil, utils.ValidationError("invalid job status %q", status)
	}
	job, err := fetchForUpdate[Job](tx, id, "job")
	if err != nil {
		return nil, err
	}
	if job.Status == status {
		return job, nil
	}
	before := job.Status
	if err := tx.db.Model(&Job{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return nil, err
	}
	job.Status = status
	if err := tx.createHistory(historyActionStatus, id, "jobs", before, status,
		fmt.Sprintf("Job %s moved from %s to %s.", job.JobNumber, before, status)); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Store) UpdateJobStatus(ctx context.Context, id int, status JobStatus) (*Job, error) {
	return inTx(s, ctx, "UpdateJobStatus", func(tx *Tx) (*Job, error) {
		return tx.UpdateJobStatus(id, status)
	})
}

func (tx *Tx) UpdateJob(id int, input *UpdateJob) (*Job, error) {
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	oldJob, err := fetchForUpdate[Job](tx, id, "job")
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if input.JobNumber != nil {
		number := strings.TrimSpace(*input.JobNumber)
		if number == "" {
			return nil, utils.ValidationError("job_number is required")
		}
		if err := tx.jobNumberTaken(number, id); err != nil {
			return nil, err
		}
		updates["job_number"] = number
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, utils.ValidationError("name is required")
		}
		updates["name"] = name
	}
	if input.CustomerName != nil {
		updates["customer_name"] = *input.CustomerName
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if len(updates) == 0 {
		return oldJob, nil
	}
	if err := tx.db.Model(&Job{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	job, err := fetch[Job](tx.db, id, "job")
	if err != nil {
		return nil, err
	}
	if err := tx.createHistory(historyActionUpdate, id, "jobs", oldJob, job,
		fmt.Sprintf("Job %s updated.", job.JobNumber)); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Store) UpdateJob(ctx context.Context, id int, input *UpdateJob) (*Job, error) {
	return inTx(s, ctx, "UpdateJob", func(tx *Tx) (*Job, error) {
		return tx.UpdateJob(id, input)
	})
}

// DeleteJob removes the job with its parts ledger and consumption trail.
// Consumed stock is not returned anywhere; it left the shop with the job.
func (tx *Tx) DeleteJob(id int) (*Job, error) {
	job, err := fetchForUpdate[Job](tx, id, "job")
	if err != nil {
		return nil, err
	}
	if err := tx.db.Where("job_id = ?", id).Delete(&ConsumptionLog{}).Error; err != nil {
		return nil, err
	}
	if err := tx.db.Where("job_id = ?", id).Delete(&JobPart{}).Error; err != nil {
		return nil, err
	}
	if err := tx.db.Delete(&Job{}, id).Error; err != nil {
		return nil, err
	}
	if err := tx.createHistory(historyActionDelete, id, "jobs", job, nil,
		fmt.Sprintf("Job %s deleted.", job.JobNumber)); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Store) DeleteJob(ctx context.Context, id int) (*Job, error) {
	return inTx(s, ctx, "DeleteJob", func(tx *Tx) (*Job, error) {
		return tx.DeleteJob(id)
	})
}

func (s *Store) GetJob(ctx context.Context, id int) (*Job, error) {
	return fetch[Job](s.read(ctx), id, "job")
}

func (s *Store) ListJobs(ctx context.Context, status *JobStatus) ([]Job, error) {
	var jobs []Job
	db := s.read(ctx)
	if status != nil {
		db = db.Where("status = ?", *status)
	}
	err := db.Order("job_number").Find(&jobs).Error
	return jobs, err
}

func (s *Store) JobParts(ctx context.Context, jobId int) ([]JobPart, error) {
	if _, err := fetch[Job](s.read(ctx), jobId, "job"); err != nil {
		return nil, err
	}
	var rows []JobPart
	err := s.read(ctx).Preload("Part").Where("job_id = ?", jobId).Order("id").Find(&rows).Error
	return rows, err
}

// JobCost sums quantity_used * unit_cost_at_use across the job.
func (s *Store) JobCost(ctx context.Context, jobId int) (decimal.Decimal, error) {
	rows, err := s.JobParts(ctx, jobId)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.TotalCost())
	}
	return total, nil
}

type JobSummary struct {
	Job        *Job            `json:"job"`
	Parts      []JobPart       `json:"parts"`
	TotalUnits int             `json:"total_units"`
	TotalCost  decimal.Decimal `json:"total_cost"`
}

func (s *Store) JobSummary(ctx context.Context, jobId int) (*JobSummary, error) {
	job, err := s.GetJob(ctx, jobId)
	if err != nil {
		return nil, err
	}
	rows, err := s.JobParts(ctx, jobId)
	if err != nil {
		return nil, err
	}
	summary := &JobSummary{Job: job, Parts: rows, TotalCost: decimal.Zero}
	for _, r := range rows {
		summary.TotalUnits += r.QuantityUsed
		summary.TotalCost = summary.TotalCost.Add(r.TotalCost())
	}
	return summary, nil
}

func (s *Store) GetJobByNumber(ctx context.Context, jobNumber string) (*Job, error) {
	var job Job
	err := s.read(ctx).Where("job_number = ?", strings.TrimSpace(jobNumber)).Limit(1).Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, utils.NotFound("job %s not found", jobNumber)
	}
	return &job, nil
}
