package models

import "time"

// LedgerViolation is one finding of a ledger check run. Rows from the same run
// share a CorrelationId.
type LedgerViolation struct {
	ID            int       `gorm:"primary_key" json:"id"`
	CheckType     string    `gorm:"size:50;index;not null" json:"check_type"`
	EntityType    string    `gorm:"size:50;index;not null" json:"entity_type"`
	EntityId      int       `gorm:"index;not null" json:"entity_id"`
	Details       string    `gorm:"type:text" json:"details"`
	CorrelationId string    `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	CheckNegativeWarehouse = "NEGATIVE_WAREHOUSE"
	CheckNegativeTruck     = "NEGATIVE_TRUCK"
	CheckNegativeJob       = "NEGATIVE_JOB"
	CheckOrderLineReceived = "ORDER_LINE_RECEIVED"
	CheckReceivedShort     = "RECEIVED_SHORT"
	CheckStaleTransfer     = "STALE_TRANSFER"
)
