package checks

import (
	"context"
	"fmt"

	"inventory-sync/core/storage"
)

// StorageReport is the result of the archive bucket check.
type StorageReport struct {
	Enabled bool   `json:"enabled"`
	Bucket  string `json:"bucket"`
	Exists  bool   `json:"exists"`
	Status  string `json:"status"` // "ok", "error", "disabled"
}

// CheckStorage verifies the archive bucket is reachable. A nil client means
// archiving is disabled, which is not an error.
func CheckStorage(ctx context.Context, client storage.Client, bucket string) (*StorageReport, error) {
	if client == nil {
		return &StorageReport{Bucket: bucket, Status: "disabled"}, nil
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}

	report := &StorageReport{Enabled: true, Bucket: bucket, Exists: exists, Status: "ok"}
	if !exists {
		report.Status = "error"
	}
	return report, nil
}
