package models

import (
	"context"
	"fmt"
)

type NewJobAssignment struct {
	JobId    int    `json:"job_id" validate:"required"`
	PartId   int    `json:"part_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
	Notes    string `json:"notes"`
}

// AssignPartToJob takes stock straight from the warehouse onto a job, for
// material that never rides on a truck.
func (tx *Tx) AssignPartToJob(input *NewJobAssignment) (*JobPart, error) {
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	job, err := tx.requireOpenJob(input.JobId)
	if err != nil {
		return nil, err
	}
	if err := tx.debitWarehouse(input.PartId, input.Quantity); err != nil {
		return nil, err
	}
	jobPart, err := tx.upsertJobPart(jobPartCredit{
		JobId:    job.ID,
		PartId:   input.PartId,
		Quantity: input.Quantity,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.createHistory(historyActionMove, jobPart.ID, "job_parts", nil, jobPart,
		fmt.Sprintf("%d assigned from warehouse to job %s.", input.Quantity, job.JobNumber)); err != nil {
		return nil, err
	}
	return jobPart, nil
}

func (s *Store) AssignPartToJob(ctx context.Context, input *NewJobAssignment) (*JobPart, error) {
	return inTx(s, ctx, "AssignPartToJob", func(tx *Tx) (*JobPart, error) {
		return tx.AssignPartToJob(input)
	})
}

// RemovePartFromJob deletes the job's aggregate for a part and puts the whole
// quantity back in the warehouse.
func (tx *Tx) RemovePartFromJob(jobPartId int) (*JobPart, error) {
	jobPart, err := fetchForUpdate[JobPart](tx, jobPartId, "job part")
	if err != nil {
		return nil, err
	}
	if err := tx.creditWarehouse(jobPart.PartId, jobPart.QuantityUsed); err != nil {
		return nil, err
	}
	if err := tx.db.Delete(&JobPart{}, jobPart.ID).Error; err != nil {
		return nil, err
	}
	if err := tx.createHistory(historyActionDelete, jobPart.ID, "job_parts", jobPart, nil,
		fmt.Sprintf("%d removed from job and restored to warehouse.", jobPart.QuantityUsed)); err != nil {
		return nil, err
	}
	return jobPart, nil
}

func (s *Store) RemovePartFromJob(ctx context.Context, jobPartId int) (*JobPart, error) {
	return inTx(s, ctx, "RemovePartFromJob", func(tx *Tx) (*JobPart, error) {
		return tx.RemovePartFromJob(jobPartId)
	})
}
