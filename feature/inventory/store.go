package inventory

import (
	"context"
	"fmt"
	"time"

	"inventory-sync/core/reconcile"
	"inventory-sync/feature/inventory/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// stock_level is decimal(15,4): at most 11 integer digits and 4 fractional.
const stockLevelScale = 4

var maxStockLevel = decimal.New(1, 11)

// InventoryStore writes stock levels to the 'inventory' table.
type InventoryStore struct {
	db *gorm.DB
}

// NewInventoryStore creates a store backed by db.
func NewInventoryStore(db *gorm.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

// Upsert inserts or updates the row for (productID, branchID) in one statement
// and returns the stored row. Levels are rounded to four decimal places; a level
// that does not fit the column is rejected without touching the table.
func (s *InventoryStore) Upsert(ctx context.Context, productID string, branchID uint, stockLevel decimal.Decimal, now time.Time) (*reconcile.InventoryRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: database connection is nil", reconcile.ErrUpsertFailure)
	}

	if stockLevel.Abs().GreaterThanOrEqual(maxStockLevel) {
		return nil, fmt.Errorf("%w: product %s at branch %d: stock level %s out of range", reconcile.ErrUpsertFailure, productID, branchID, stockLevel)
	}
	stockLevel = stockLevel.Round(stockLevelScale)

	row := models.Inventory{
		ProductID:   productID,
		BranchID:    branchID,
		StockLevel:  stockLevel,
		LastUpdated: now,
		LastSync:    now,
	}

	db := s.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "branch_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"stock_level", "last_updated", "last_sync"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("%w: product %s at branch %d: %w", reconcile.ErrUpsertFailure, productID, branchID, err)
	}

	// The insert id is not reliable after a conflict update, so read the row back.
	var stored models.Inventory
	if err := db.Where("product_id = ? AND branch_id = ?", productID, branchID).Take(&stored).Error; err != nil {
		return nil, fmt.Errorf("%w: product %s at branch %d: reload: %w", reconcile.ErrUpsertFailure, productID, branchID, err)
	}

	return &reconcile.InventoryRecord{
		ID:          stored.ID,
		ProductID:   stored.ProductID,
		BranchID:    stored.BranchID,
		StockLevel:  stored.StockLevel,
		LastUpdated: stored.LastUpdated,
		LastSync:    stored.LastSync,
	}, nil
}
