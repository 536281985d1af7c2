package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Branch represents the 'branches' table.
type Branch struct {
	ID         uint   `gorm:"column:id;primaryKey"`
	Name       string `gorm:"column:name;type:varchar(255);not null"`
	ExternalID string `gorm:"column:external_id;type:varchar(64);not null"` // POS storage_id
	Active     bool   `gorm:"column:active;not null"`
}

// TableName overrides the table name.
func (Branch) TableName() string {
	return "branches"
}

// Inventory represents the 'inventory' table. There is exactly one row per
// (product_id, branch_id).
type Inventory struct {
	ID          uint            `gorm:"column:id;primaryKey"`
	ProductID   string          `gorm:"column:product_id;type:varchar(64);not null;uniqueIndex:idx_inventory_product_branch,priority:1"`
	BranchID    uint            `gorm:"column:branch_id;not null;uniqueIndex:idx_inventory_product_branch,priority:2"`
	StockLevel  decimal.Decimal `gorm:"column:stock_level;type:decimal(15,4);not null"`
	LastUpdated time.Time       `gorm:"column:last_updated;not null"`
	LastSync    time.Time       `gorm:"column:last_sync;not null"`
}

// TableName overrides the table name.
func (Inventory) TableName() string {
	return "inventory"
}

// SyncLog represents the append-only 'sync_logs' table.
type SyncLog struct {
	ID           uint      `gorm:"column:id;primaryKey"`
	SyncType     string    `gorm:"column:sync_type;type:varchar(32);not null;index"`
	Status       string    `gorm:"column:status;type:varchar(16);not null"`
	TotalRecords int       `gorm:"column:total_records;not null"`
	Details      string    `gorm:"column:details;type:text"` // JSON array of branch results
	ErrorMessage *string   `gorm:"column:error_message;type:text"`
	StartedAt    time.Time `gorm:"column:started_at;not null"`
	CompletedAt  time.Time `gorm:"column:completed_at;not null"`
}

// TableName overrides the table name.
func (SyncLog) TableName() string {
	return "sync_logs"
}

// All lists every model owned by the inventory feature.
func All() []any {
	return []any{&Branch{}, &Inventory{}, &SyncLog{}}
}
