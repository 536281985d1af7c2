package inventory

import (
	"inventory-sync/core/lock"
	"inventory-sync/core/reconcile"
	"inventory-sync/core/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options collects what Build needs beyond the database.
type Options struct {
	// Source reaches the POS.
	Source SourceConfig
	// Concurrency bounds parallel branch fetches.
	Concurrency int
	// LockKey names the run lock and the in-process coalescing key.
	LockKey string
	// Locker guards runs across processes. Nil means no cross-process lock.
	Locker lock.Locker
	// Archive, when set, receives a JSON copy of every run record.
	Archive       storage.Client
	ArchiveBucket string
	ArchivePrefix string
}

// Build wires the database-backed collaborators, the POS source and the
// orchestrator into a Service.
func Build(db *gorm.DB, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	runLog := NewRunLog(db)
	var runs reconcile.RunLogger = runLog
	if opts.Archive != nil {
		runs = NewArchivingRunLogger(runLog, opts.Archive, opts.ArchiveBucket, opts.ArchivePrefix, logger)
	}

	orch := reconcile.NewOrchestrator(
		NewBranchRegistry(db),
		NewPosterSource(opts.Source, nil),
		NewInventoryStore(db),
		runs,
		reconcile.WithLogger(logger),
		reconcile.WithConcurrency(opts.Concurrency),
		reconcile.WithFetchTimeout(opts.Source.Timeout),
	)

	lockKey := opts.LockKey
	if lockKey == "" {
		lockKey = "sync:inventory"
	}
	return NewService(orch, runLog, opts.Locker, lockKey, logger)
}
