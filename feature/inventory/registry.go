package inventory

import (
	"context"
	"fmt"

	"inventory-sync/core/reconcile"
	"inventory-sync/feature/inventory/models"

	"gorm.io/gorm"
)

// BranchRegistry reads branches from the 'branches' table.
type BranchRegistry struct {
	db *gorm.DB
}

// NewBranchRegistry creates a registry backed by db.
func NewBranchRegistry(db *gorm.DB) *BranchRegistry {
	return &BranchRegistry{db: db}
}

// ActiveBranches returns the active branches ordered by id.
func (r *BranchRegistry) ActiveBranches(ctx context.Context) ([]reconcile.Branch, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var rows []models.Branch
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load branches: %w", err)
	}

	branches := make([]reconcile.Branch, 0, len(rows))
	for _, row := range rows {
		branches = append(branches, reconcile.Branch{
			ID:         row.ID,
			Name:       row.Name,
			ExternalID: row.ExternalID,
			Active:     row.Active,
		})
	}
	return branches, nil
}
