package reconcile

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BranchRegistry supplies the branches to reconcile.
type BranchRegistry interface {
	// ActiveBranches returns the active branches in a stable order.
	// Results of a run are reported in this order.
	ActiveBranches(ctx context.Context) ([]Branch, error)
}

// InventorySource fetches current stock for one branch from the POS.
//
// Errors must wrap ErrSourceUnavailable for transport failures and
// ErrSourceError for application-level failures. An empty slice is a valid
// answer and is not an error.
type InventorySource interface {
	FetchStock(ctx context.Context, branch Branch) ([]StockReading, error)
}

// InventoryStore persists stock levels keyed by (product, branch).
type InventoryStore interface {
	// Upsert creates the record for the key or updates its stock level and both
	// timestamps to now. Each call is atomic and independent of every other call.
	// Errors wrap ErrUpsertFailure.
	Upsert(ctx context.Context, productID string, branchID uint, stockLevel decimal.Decimal, now time.Time) (*InventoryRecord, error)
}

// RunLogger appends run records to the audit trail.
type RunLogger interface {
	// RecordRun persists rec and sets rec.ID. Errors wrap ErrAuditWriteFailure.
	RecordRun(ctx context.Context, rec *RunRecord) error
}
