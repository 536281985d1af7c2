package reconcile

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// SyncTypeInventory is the sync_type recorded for every inventory run.
const SyncTypeInventory = "inventory"

// BranchStatus is the outcome of one branch within a run.
type BranchStatus string

const (
	BranchStatusSuccess BranchStatus = "success"
	BranchStatusError   BranchStatus = "error"
)

// RunStatus is the overall outcome of a run as persisted in the audit trail.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Branch is a retail location whose stock is mirrored from the POS.
type Branch struct {
	// ID is the local branch identifier.
	ID uint

	// Name is the display name used in run results.
	Name string

	// ExternalID identifies the branch (storage) in the POS API.
	ExternalID string

	// Active marks branches that take part in reconciliation.
	Active bool
}

// StockReading is the latest known quantity for one product at one branch.
// It only lives for the duration of a single run.
type StockReading struct {
	// ProductID is the POS product (ingredient) identifier.
	ProductID string

	// Quantity is the quantity on hand, never negative.
	Quantity decimal.Decimal
}

// InventoryRecord is the persisted stock level for a (product, branch) pair.
type InventoryRecord struct {
	ID          uint
	ProductID   string
	BranchID    uint
	StockLevel  decimal.Decimal
	LastUpdated time.Time
	LastSync    time.Time
}

// BranchSyncResult is the per-branch outcome of one run.
type BranchSyncResult struct {
	// Branch is the branch display name.
	Branch string `json:"branch"`

	// ProductsUpdated counts successful upserts.
	ProductsUpdated int `json:"products_updated"`

	// Status is success or error.
	Status BranchStatus `json:"status"`

	// Error describes why the branch failed, or which upserts were rejected.
	Error string `json:"error,omitempty"`

	// ProductsFailed counts upserts the store rejected.
	ProductsFailed int `json:"products_failed,omitempty"`
}

// RunRecord is the durable audit entry written once per run.
type RunRecord struct {
	ID           uint               `json:"id"`
	SyncType     string             `json:"sync_type"`
	Status       RunStatus          `json:"status"`
	TotalRecords int                `json:"total_records"`
	Details      []BranchSyncResult `json:"details"`
	ErrorMessage string             `json:"error_message,omitempty"`
	StartedAt    time.Time          `json:"started_at"`
	CompletedAt  time.Time          `json:"completed_at"`
}

// Summary is what a caller receives from a run. It is always well formed,
// including on total failure.
type Summary struct {
	Success        bool
	Message        string
	Error          string
	TotalUpdated   int
	BranchesSynced int
	Results        []BranchSyncResult
	Timestamp      time.Time

	// AuditFailed is set when the run record could not be persisted.
	// It never changes Success.
	AuditFailed bool
}

type successBody struct {
	Success        bool               `json:"success"`
	Message        string             `json:"message"`
	TotalUpdated   int                `json:"total_updated"`
	BranchesSynced int                `json:"branches_synced"`
	Results        []BranchSyncResult `json:"results"`
	Timestamp      string             `json:"timestamp"`
}

type failureBody struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// MarshalJSON renders the success shape, or the reduced failure shape
// ({success, error, message, timestamp}) when the run did not get past
// enumerating branches.
func (s Summary) MarshalJSON() ([]byte, error) {
	ts := s.Timestamp.UTC().Format(time.RFC3339Nano)
	if !s.Success {
		return json.Marshal(failureBody{
			Success:   false,
			Error:     s.Error,
			Message:   s.Message,
			Timestamp: ts,
		})
	}

	results := s.Results
	if results == nil {
		results = []BranchSyncResult{}
	}
	return json.Marshal(successBody{
		Success:        true,
		Message:        s.Message,
		TotalUpdated:   s.TotalUpdated,
		BranchesSynced: s.BranchesSynced,
		Results:        results,
		Timestamp:      ts,
	})
}
