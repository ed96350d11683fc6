package models

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateTable creates or updates every table and seeds the stock categories.
// Order matters for the foreign keys: referenced tables come first.
func MigrateTable(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{}, &Supplier{},
		&Category{}, &Part{},
		&Truck{}, &TruckInventory{},
		&Job{}, &JobPart{},
		&PurchaseOrder{}, &PurchaseOrderItem{}, &ReceiveLog{},
		&TruckTransfer{}, &ConsumptionLog{},
		&ReturnAuthorization{}, &ReturnAuthorizationItem{},
		&AuditRecord{},
		&Notification{},
		&History{},
		&LedgerViolation{},
	)
	if err != nil {
		return fmt.Errorf("migrate tables: %w", err)
	}
	return seedCategories(db)
}
