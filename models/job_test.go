package models_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/wiredpart/parts_backend/models"
	"github.com/wiredpart/parts_backend/utils"
)

func TestCreateJobGeneratesNumber(t *testing.T) {
	f := newFixture(t)
	head := fmt.Sprintf("JOB-%d-", time.Now().UTC().Year())

	first, err := f.store.CreateJob(f.ctx, &models.NewJob{Name: "Kitchen remodel"})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if first.JobNumber != head+"001" {
		t.Fatalf("job number = %s, want %s001", first.JobNumber, head)
	}
	second, err := f.store.CreateJob(f.ctx, &models.NewJob{JobNumber: "  ", Name: "Garage subpanel"})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if second.JobNumber != head+"002" {
		t.Fatalf("job number = %s, want %s002", second.JobNumber, head)
	}

	// numbers freed by a delete are not handed out again
	if _, err := f.store.DeleteJob(f.ctx, first.ID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	third, err := f.store.CreateJob(f.ctx, &models.NewJob{Name: "Service call"})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if third.JobNumber != head+"003" {
		t.Fatalf("job number = %s, want %s003", third.JobNumber, head)
	}

	_, err = f.store.CreateJob(f.ctx, &models.NewJob{JobNumber: third.JobNumber, Name: "Duplicate"})
	wantKind(t, err, utils.KindValidation)
}

func TestUpdateJob(t *testing.T) {
	f := newFixture(t)
	other := f.newJob(t, "J-200")

	name, customer := "Panel and meter upgrade", "Smith & Sons"
	job, err := f.store.UpdateJob(f.ctx, f.job.ID, &models.UpdateJob{Name: &name, CustomerName: &customer})
	if err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	if job.Name != name || job.CustomerName != customer || job.JobNumber != "J-100" || job.Status != models.JobStatusActive {
		t.Fatalf("job = %+v", job)
	}

	taken, blank := other.JobNumber, " "
	_, err = f.store.UpdateJob(f.ctx, f.job.ID, &models.UpdateJob{JobNumber: &taken})
	wantKind(t, err, utils.KindValidation)
	_, err = f.store.UpdateJob(f.ctx, f.job.ID, &models.UpdateJob{Name: &blank})
	wantKind(t, err, utils.KindValidation)
	_, err = f.store.UpdateJob(f.ctx, 9999, &models.UpdateJob{Name: &name})
	wantKind(t, err, utils.KindNotFound)

	// keeping its own number is not a clash
	own := "J-100"
	if _, err := f.store.UpdateJob(f.ctx, f.job.ID, &models.UpdateJob{JobNumber: &own}); err != nil {
		t.Fatalf("UpdateJob own number: %v", err)
	}

	history, err := f.store.GetHistory(f.ctx, "jobs", f.job.ID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) < 2 {
		t.Fatalf("history entries = %d, want create and update", len(history))
	}
}

func TestDeleteJobRemovesItsLedger(t *testing.T) {
	f := newFixture(t)
	part := f.part(t, 10, "4.00")
	f.stockTruck(t, f.truck.ID, part.ID, 5)
	if _, err := f.store.ConsumeFromTruck(f.ctx, &models.NewConsumption{
		JobId: f.job.ID, TruckId: f.truck.ID, PartId: part.ID, Quantity: 2,
	}); err != nil {
		t.Fatalf("ConsumeFromTruck: %v", err)
	}
	kept := f.newJob(t, "J-300")
	if _, err := f.store.ConsumeFromTruck(f.ctx, &models.NewConsumption{
		JobId: kept.ID, TruckId: f.truck.ID, PartId: part.ID, Quantity: 1,
	}); err != nil {
		t.Fatalf("ConsumeFromTruck: %v", err)
	}

	deleted, err := f.store.DeleteJob(f.ctx, f.job.ID)
	if err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	if deleted.JobNumber != "J-100" {
		t.Fatalf("deleted = %s, want J-100", deleted.JobNumber)
	}
	_, err = f.store.GetJob(f.ctx, f.job.ID)
	wantKind(t, err, utils.KindNotFound)
	_, err = f.store.JobParts(f.ctx, f.job.ID)
	wantKind(t, err, utils.KindNotFound)
	recent, err := f.store.RecentConsumption(f.ctx, 10)
	if err != nil {
		t.Fatalf("RecentConsumption: %v", err)
	}
	if len(recent) != 1 || recent[0].JobId != kept.ID {
		t.Fatalf("consumption left = %+v, want only job J-300", recent)
	}

	// the other job and the stock counters are untouched
	if jp := f.jobPart(t, kept.ID, part.ID); jp == nil || jp.QuantityUsed != 1 {
		t.Fatalf("kept job part = %+v", jp)
	}
	if got := f.onTruck(t, f.truck.ID, part.ID); got != 2 {
		t.Fatalf("truck = %d, want 2", got)
	}
	if got := f.warehouse(t, part.ID); got != 5 {
		t.Fatalf("warehouse = %d, want 5", got)
	}

	_, err = f.store.DeleteJob(f.ctx, f.job.ID)
	wantKind(t, err, utils.KindNotFound)
}
