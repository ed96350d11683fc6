package queries

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wiredpart/parts_backend/config"
	"github.com/wiredpart/parts_backend/models"
	"github.com/wiredpart/parts_backend/utils"
)

const notificationSource = "assistant"

// Dispatcher answers queries against the store. Every query except
// CreateNotification is a pure read.
type Dispatcher struct {
	store  *models.Store
	logger *logrus.Logger
}

func NewDispatcher(store *models.Store, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{store: store, logger: logger}
}

type JobOverview struct {
	Job        models.Job      `json:"job"`
	TotalUnits int             `json:"total_units"`
	TotalCost  decimal.Decimal `json:"total_cost"`
}

type OrderOverview struct {
	Order         models.PurchaseOrder `json:"order"`
	ItemCount     int                  `json:"item_count"`
	TotalCost     decimal.Decimal      `json:"total_cost"`
	UnitsAwaiting int                  `json:"units_awaiting"`
}

type OrdersOverview struct {
	Counts        map[models.PurchaseOrderStatus]int `json:"counts"`
	TotalSpent    decimal.Decimal                    `json:"total_spent"`
	UnitsAwaiting int                                `json:"units_awaiting"`
	OpenReturns   int                                `json:"open_returns"`
}

type PartDetails struct {
	Part        *models.Part               `json:"part"`
	TruckUnits  int                        `json:"truck_units"`
	Deprecation *models.DeprecationProgress `json:"deprecation,omitempty"`
}

// Run executes q. Callers get LedgerErrors back unchanged so the message can be
// shown as is.
func (d *Dispatcher) Run(ctx context.Context, q Query) (any, error) {
	if q == nil {
		return nil, utils.ValidationError("no query given")
	}
	if err := d.store.Validate(q); err != nil {
		return nil, err
	}
	result, err := d.run(ctx, q)
	if err != nil && !utils.IsLedgerError(err) {
		config.LogError(d.logger, "queries", "Run", q.Name(), q, err)
	}
	return result, err
}

func (d *Dispatcher) run(ctx context.Context, q Query) (any, error) {
	switch q := q.(type) {
	case SearchParts:
		return d.store.SearchParts(ctx, q.Query)
	case GetPartDetails:
		return d.partDetails(ctx, q.PartNumber)
	case GetJobParts:
		job, err := d.store.GetJobByNumber(ctx, q.JobNumber)
		if err != nil {
			return nil, err
		}
		return d.store.JobParts(ctx, job.ID)
	case GetLowStockParts:
		return d.store.LowStockParts(ctx)
	case GetInventorySummary:
		return d.store.InventorySummary(ctx)
	case GetJobSummary:
		return d.jobOverview(ctx, q.Status)
	case GetTruckInventory:
		truck, err := d.store.GetTruckByNumber(ctx, q.TruckNumber)
		if err != nil {
			return nil, err
		}
		return d.store.GetTruckInventory(ctx, truck.ID)
	case GetPendingTransfers:
		var truckId *int
		if q.TruckNumber != "" {
			truck, err := d.store.GetTruckByNumber(ctx, q.TruckNumber)
			if err != nil {
				return nil, err
			}
			truckId = &truck.ID
		}
		return d.store.PendingTransfers(ctx, truckId)
	case GetAllTrucks:
		return d.store.ListTrucks(ctx)
	case GetConsumptionLog:
		if q.JobNumber == "" {
			return d.store.RecentConsumption(ctx, q.Limit)
		}
		job, err := d.store.GetJobByNumber(ctx, q.JobNumber)
		if err != nil {
			return nil, err
		}
		return d.store.ConsumptionLogForJob(ctx, job.ID)
	case GetPendingOrders:
		return d.pendingOrders(ctx)
	case GetOrdersSummary:
		return d.ordersOverview(ctx)
	case SuggestReorder:
		return d.store.SuggestReorder(ctx)
	case GetAllSuppliers:
		return d.store.ListSuppliers(ctx)
	case GetAllCategories:
		return d.store.ListCategories(ctx)
	case GetPartsByCategory:
		category, err := d.store.GetCategoryByName(ctx, q.Category)
		if err != nil {
			return nil, err
		}
		return d.store.PartsByCategory(ctx, category.ID)
	case GetAllUsers:
		return d.store.ListUsers(ctx)
	case GetJobDetails:
		job, err := d.store.GetJobByNumber(ctx, q.JobNumber)
		if err != nil {
			return nil, err
		}
		return d.store.JobSummary(ctx, job.ID)
	case GetDeprecatedParts:
		return d.deprecatedParts(ctx)
	case GetAuditSummary:
		targetId, err := d.auditTarget(ctx, q)
		if err != nil {
			return nil, err
		}
		return d.store.AuditSummary(ctx, q.AuditType, targetId)
	case CreateNotification:
		return d.store.CreateNotification(ctx, &models.NewNotification{
			UserId:   q.UserId,
			Title:    q.Title,
			Message:  q.Message,
			Severity: q.Severity,
			Source:   notificationSource,
		})
	}
	return nil, fmt.Errorf("unhandled query %T", q)
}

func (d *Dispatcher) partDetails(ctx context.Context, partNumber string) (*PartDetails, error) {
	part, err := d.store.GetPartByNumber(ctx, partNumber)
	if err != nil {
		return nil, err
	}
	progress, err := d.store.DeprecationProgress(ctx, part.ID)
	if err != nil {
		return nil, err
	}
	details := &PartDetails{Part: part, TruckUnits: progress.TruckQuantity}
	if part.DeprecationStatus != models.DeprecationStatusNone {
		details.Deprecation = progress
	}
	return details, nil
}

func (d *Dispatcher) jobOverview(ctx context.Context, status string) ([]JobOverview, error) {
	var filter *models.JobStatus
	if status != "" && status != "all" {
		parsed, err := models.ParseJobStatus(status)
		if err != nil {
			return nil, err
		}
		filter = &parsed
	}
	jobs, err := d.store.ListJobs(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]JobOverview, 0, len(jobs))
	for _, job := range jobs {
		summary, err := d.store.JobSummary(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, JobOverview{Job: job, TotalUnits: summary.TotalUnits, TotalCost: summary.TotalCost})
	}
	return out, nil
}

func (d *Dispatcher) pendingOrders(ctx context.Context) ([]OrderOverview, error) {
	draft := models.PurchaseOrderStatusDraft
	drafts, err := d.store.ListPurchaseOrders(ctx, &draft)
	if err != nil {
		return nil, err
	}
	pending, err := d.store.PendingOrders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]OrderOverview, 0, len(drafts)+len(pending))
	for _, order := range append(drafts, pending...) {
		row := OrderOverview{Order: order, ItemCount: len(order.Items), TotalCost: order.TotalCost()}
		for _, item := range order.Items {
			row.UnitsAwaiting += item.Remaining()
		}
		out = append(out, row)
	}
	return out, nil
}

func (d *Dispatcher) ordersOverview(ctx context.Context) (*OrdersOverview, error) {
	counts, err := d.store.OrdersSummary(ctx)
	if err != nil {
		return nil, err
	}
	out := &OrdersOverview{Counts: counts, TotalSpent: decimal.Zero}

	orders, err := d.store.ListPurchaseOrders(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		switch order.Status {
		case models.PurchaseOrderStatusSubmitted, models.PurchaseOrderStatusPartial:
			for _, item := range order.Items {
				out.UnitsAwaiting += item.Remaining()
			}
		}
		// spend is what actually arrived
		for _, item := range order.Items {
			out.TotalSpent = out.TotalSpent.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.QuantityReceived))))
		}
	}

	returns, err := d.store.ListReturnAuthorizations(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, ra := range returns {
		if ra.Status == models.ReturnStatusInitiated || ra.Status == models.ReturnStatusPickedUp {
			out.OpenReturns++
		}
	}
	return out, nil
}

func (d *Dispatcher) deprecatedParts(ctx context.Context) ([]models.DeprecationProgress, error) {
	parts, err := d.store.DeprecatedParts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.DeprecationProgress, 0, len(parts))
	for _, part := range parts {
		progress, err := d.store.DeprecationProgress(ctx, part.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *progress)
	}
	return out, nil
}

func (d *Dispatcher) auditTarget(ctx context.Context, q GetAuditSummary) (*int, error) {
	switch q.AuditType {
	case models.AuditTypeTruck:
		if q.TruckNumber == "" {
			return nil, nil
		}
		truck, err := d.store.GetTruckByNumber(ctx, q.TruckNumber)
		if err != nil {
			return nil, err
		}
		return &truck.ID, nil
	case models.AuditTypeJob:
		if q.JobNumber == "" {
			return nil, nil
		}
		job, err := d.store.GetJobByNumber(ctx, q.JobNumber)
		if err != nil {
			return nil, err
		}
		return &job.ID, nil
	}
	return nil, nil
}
