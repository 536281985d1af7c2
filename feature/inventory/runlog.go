package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"inventory-sync/core/reconcile"
	"inventory-sync/feature/inventory/models"

	"gorm.io/gorm"
)

const (
	// DefaultRunsLimit is the page size of ListRuns when none is given.
	DefaultRunsLimit = 20
	// MaxRunsLimit caps the page size of ListRuns.
	MaxRunsLimit = 100
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("sync run not found")

// RunHistory is the read side of the audit trail.
type RunHistory interface {
	ListRuns(ctx context.Context, limit int) ([]reconcile.RunRecord, error)
	GetRun(ctx context.Context, id uint) (*reconcile.RunRecord, error)
}

// RunLog stores run records in the append-only 'sync_logs' table.
type RunLog struct {
	db *gorm.DB
}

// NewRunLog creates a run log backed by db.
func NewRunLog(db *gorm.DB) *RunLog {
	return &RunLog{db: db}
}

// RecordRun inserts rec and sets rec.ID.
func (l *RunLog) RecordRun(ctx context.Context, rec *reconcile.RunRecord) error {
	if l.db == nil {
		return fmt.Errorf("%w: database connection is nil", reconcile.ErrAuditWriteFailure)
	}

	details := rec.Details
	if details == nil {
		details = []reconcile.BranchSyncResult{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("%w: encode details: %w", reconcile.ErrAuditWriteFailure, err)
	}

	row := models.SyncLog{
		SyncType:     rec.SyncType,
		Status:       string(rec.Status),
		TotalRecords: rec.TotalRecords,
		Details:      string(raw),
		StartedAt:    rec.StartedAt,
		CompletedAt:  rec.CompletedAt,
	}
	if rec.ErrorMessage != "" {
		msg := rec.ErrorMessage
		row.ErrorMessage = &msg
	}

	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("%w: %w", reconcile.ErrAuditWriteFailure, err)
	}
	rec.ID = row.ID
	return nil
}

// ListRuns returns the most recent runs, newest first.
// A limit outside 1..MaxRunsLimit is clamped.
func (l *RunLog) ListRuns(ctx context.Context, limit int) ([]reconcile.RunRecord, error) {
	if l.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if limit <= 0 {
		limit = DefaultRunsLimit
	}
	if limit > MaxRunsLimit {
		limit = MaxRunsLimit
	}

	var rows []models.SyncLog
	if err := l.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}

	runs := make([]reconcile.RunRecord, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, toRunRecord(row))
	}
	return runs, nil
}

// GetRun returns one run by id.
func (l *RunLog) GetRun(ctx context.Context, id uint) (*reconcile.RunRecord, error) {
	if l.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var row models.SyncLog
	err := l.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sync run %d: %w", id, err)
	}

	rec := toRunRecord(row)
	return &rec, nil
}

func toRunRecord(row models.SyncLog) reconcile.RunRecord {
	rec := reconcile.RunRecord{
		ID:           row.ID,
		SyncType:     row.SyncType,
		Status:       reconcile.RunStatus(row.Status),
		TotalRecords: row.TotalRecords,
		StartedAt:    row.StartedAt,
		CompletedAt:  row.CompletedAt,
	}
	if row.ErrorMessage != nil {
		rec.ErrorMessage = *row.ErrorMessage
	}
	// Undecodable details are reported as empty rather than failing the read.
	_ = json.Unmarshal([]byte(row.Details), &rec.Details)
	if rec.Details == nil {
		rec.Details = []reconcile.BranchSyncResult{}
	}
	return rec
}
