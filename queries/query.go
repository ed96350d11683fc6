package queries

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/wiredpart/parts_backend/models"
	"github.com/wiredpart/parts_backend/utils"
)

// Query is one question the assistant layer may ask the ledger. Only the
// types in this file implement it.
type Query interface {
	Name() string
	isQuery()
}

type SearchParts struct {
	Query string `json:"query" validate:"required"`
}

type GetPartDetails struct {
	PartNumber string `json:"part_number" validate:"required"`
}

type GetJobParts struct {
	JobNumber string `json:"job_number" validate:"required"`
}

type GetLowStockParts struct{}

type GetInventorySummary struct{}

// GetJobSummary lists jobs with their running cost. An empty Status or "all"
// means every job.
type GetJobSummary struct {
	Status string `json:"status"`
}

type GetTruckInventory struct {
	TruckNumber string `json:"truck_number" validate:"required"`
}

type GetPendingTransfers struct {
	TruckNumber string `json:"truck_number"`
}

type GetAllTrucks struct{}

// GetConsumptionLog returns one job's trail when JobNumber is set, otherwise
// the most recent entries across all jobs.
type GetConsumptionLog struct {
	JobNumber string `json:"job_number"`
	Limit     int    `json:"limit" validate:"gte=0"`
}

type GetPendingOrders struct{}

type GetOrdersSummary struct{}

type SuggestReorder struct{}

type GetAllSuppliers struct{}

type GetAllCategories struct{}

// GetPartsByCategory takes the category name, as listed by get_all_categories.
type GetPartsByCategory struct {
	Category string `json:"category" validate:"required"`
}

type GetAllUsers struct{}

type GetJobDetails struct {
	JobNumber string `json:"job_number" validate:"required"`
}

type GetDeprecatedParts struct{}

type GetAuditSummary struct {
	AuditType   models.AuditType `json:"audit_type" validate:"required"`
	TruckNumber string           `json:"truck_number"`
	JobNumber   string           `json:"job_number"`
}

// CreateNotification is the one query with a side effect.
type CreateNotification struct {
	Title    string                      `json:"title" validate:"required,max=255"`
	Message  string                      `json:"message" validate:"required"`
	Severity models.NotificationSeverity `json:"severity" validate:"required"`
	UserId   *int                        `json:"user_id"`
}

func (SearchParts) Name() string         { return "search_parts" }
func (GetPartDetails) Name() string      { return "get_part_details" }
func (GetJobParts) Name() string         { return "get_job_parts" }
func (GetLowStockParts) Name() string    { return "get_low_stock_parts" }
func (GetInventorySummary) Name() string { return "get_inventory_summary" }
func (GetJobSummary) Name() string       { return "get_job_summary" }
func (GetTruckInventory) Name() string   { return "get_truck_inventory" }
func (GetPendingTransfers) Name() string { return "get_pending_transfers" }
func (GetAllTrucks) Name() string        { return "get_all_trucks" }
func (GetConsumptionLog) Name() string   { return "get_consumption_log" }
func (GetPendingOrders) Name() string    { return "get_pending_orders" }
func (GetOrdersSummary) Name() string    { return "get_orders_summary" }
func (SuggestReorder) Name() string      { return "suggest_reorder" }
func (GetAllSuppliers) Name() string     { return "get_all_suppliers" }
func (GetAllCategories) Name() string    { return "get_all_categories" }
func (GetPartsByCategory) Name() string  { return "get_parts_by_category" }
func (GetAllUsers) Name() string         { return "get_all_users" }
func (GetJobDetails) Name() string       { return "get_job_details" }
func (GetDeprecatedParts) Name() string  { return "get_deprecated_parts" }
func (GetAuditSummary) Name() string     { return "get_audit_summary" }
func (CreateNotification) Name() string  { return "create_notification" }

func (SearchParts) isQuery()         {}
func (GetPartDetails) isQuery()      {}
func (GetJobParts) isQuery()         {}
func (GetLowStockParts) isQuery()    {}
func (GetInventorySummary) isQuery() {}
func (GetJobSummary) isQuery()       {}
func (GetTruckInventory) isQuery()   {}
func (GetPendingTransfers) isQuery() {}
func (GetAllTrucks) isQuery()        {}
func (GetConsumptionLog) isQuery()   {}
func (GetPendingOrders) isQuery()    {}
func (GetOrdersSummary) isQuery()    {}
func (SuggestReorder) isQuery()      {}
func (GetAllSuppliers) isQuery()     {}
func (GetAllCategories) isQuery()    {}
func (GetPartsByCategory) isQuery()  {}
func (GetAllUsers) isQuery()         {}
func (GetJobDetails) isQuery()       {}
func (GetDeprecatedParts) isQuery()  {}
func (GetAuditSummary) isQuery()     {}
func (CreateNotification) isQuery()  {}

// Names lists every query name Parse accepts, in a stable order.
func Names() []string {
	return []string{
		SearchParts{}.Name(),
		GetPartDetails{}.Name(),
		GetJobParts{}.Name(),
		GetLowStockParts{}.Name(),
		GetInventorySummary{}.Name(),
		GetJobSummary{}.Name(),
		GetTruckInventory{}.Name(),
		GetPendingTransfers{}.Name(),
		GetAllTrucks{}.Name(),
		GetConsumptionLog{}.Name(),
		GetPendingOrders{}.Name(),
		GetOrdersSummary{}.Name(),
		SuggestReorder{}.Name(),
		GetAllSuppliers{}.Name(),
		GetAllCategories{}.Name(),
		GetPartsByCategory{}.Name(),
		GetAllUsers{}.Name(),
		GetJobDetails{}.Name(),
		GetDeprecatedParts{}.Name(),
		GetAuditSummary{}.Name(),
		CreateNotification{}.Name(),
	}
}

// Parse builds the query named by a tool call. Empty or null args are fine
// for queries without parameters; unknown fields are rejected.
func Parse(name string, args json.RawMessage) (Query, error) {
	switch name {
	case "search_parts":
		return decode[SearchParts](args)
	case "get_part_details":
		return decode[GetPartDetails](args)
	case "get_job_parts":
		return decode[GetJobParts](args)
	case "get_low_stock_parts":
		return decode[GetLowStockParts](args)
	case "get_inventory_summary":
		return decode[GetInventorySummary](args)
	case "get_job_summary":
		return decode[GetJobSummary](args)
	case "get_truck_inventory":
		return decode[GetTruckInventory](args)
	case "get_pending_transfers":
		return decode[GetPendingTransfers](args)
	case "get_all_trucks":
		return decode[GetAllTrucks](args)
	case "get_consumption_log":
		return decode[GetConsumptionLog](args)
	case "get_pending_orders":
		return decode[GetPendingOrders](args)
	case "get_orders_summary":
		return decode[GetOrdersSummary](args)
	case "suggest_reorder":
		return decode[SuggestReorder](args)
	case "get_all_suppliers":
		return decode[GetAllSuppliers](args)
	case "get_all_categories":
		return decode[GetAllCategories](args)
	case "get_parts_by_category":
		return decode[GetPartsByCategory](args)
	case "get_all_users":
		return decode[GetAllUsers](args)
	case "get_job_details":
		return decode[GetJobDetails](args)
	case "get_deprecated_parts":
		return decode[GetDeprecatedParts](args)
	case "get_audit_summary":
		return decode[GetAuditSummary](args)
	case "create_notification":
		return decode[CreateNotification](args)
	}
	return nil, utils.ValidationError("unknown query %q", name)
}

func decode[T Query](args json.RawMessage) (Query, error) {
	var q T
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return q, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		var ledgerErr *utils.LedgerError
		if errors.As(err, &ledgerErr) {
			return nil, ledgerErr
		}
		return nil, utils.ValidationError("invalid arguments for %s: %v", q.Name(), err)
	}
	return q, nil
}
