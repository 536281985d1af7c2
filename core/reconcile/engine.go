package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultConcurrency is the number of branches processed at once.
	DefaultConcurrency = 4
	// DefaultFetchTimeout bounds a single branch fetch.
	DefaultFetchTimeout = 30 * time.Second
)

// Orchestrator drives one inventory reconciliation run across all active branches.
type Orchestrator struct {
	registry BranchRegistry
	source   InventorySource
	store    InventoryStore
	runs     RunLogger

	logger       *zap.Logger
	tracer       trace.Tracer
	concurrency  int
	fetchTimeout time.Duration
	now          func() time.Time

	auditFailures atomic.Int64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConcurrency bounds how many branches are processed in parallel.
// Values below one mean sequential processing.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n < 1 {
			n = 1
		}
		o.concurrency = n
	}
}

// WithFetchTimeout bounds each branch fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.fetchTimeout = d
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator wires the four collaborators of a run.
func NewOrchestrator(registry BranchRegistry, source InventorySource, store InventoryStore, runs RunLogger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:     registry,
		source:       source,
		store:        store,
		runs:         runs,
		logger:       zap.NewNop(),
		tracer:       otel.Tracer("inventory-sync/core/reconcile"),
		concurrency:  DefaultConcurrency,
		fetchTimeout: DefaultFetchTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AuditFailures reports how many run records could not be persisted since start.
func (o *Orchestrator) AuditFailures() int64 {
	return o.auditFailures.Load()
}

// Run performs one reconciliation pass and always returns a well formed summary.
// Once started, a run is not cancelled by the caller's context.
func (o *Orchestrator) Run(ctx context.Context) (summary Summary) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := o.tracer.Start(ctx, "inventory.sync")
	defer span.End()

	startedAt := o.now()
	o.logger.Info("Starting inventory sync")

	// Set once a run record has been written; a late panic must not add a second one.
	recorded := false
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("inventory sync panicked: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if recorded {
				o.logger.Error("Inventory sync failed after the run was recorded", zap.Error(err))
				summary = failedSummary(err, o.now(), false)
				return
			}
			summary = o.fail(ctx, startedAt, err)
		}
	}()

	branches, err := o.registry.ActiveBranches(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrBranchListUnavailable, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return o.fail(ctx, startedAt, err)
	}
	span.SetAttributes(attribute.Int("sync.branches", len(branches)))

	results := o.syncBranches(ctx, branches)

	total := 0
	for _, r := range results {
		total += r.ProductsUpdated
	}

	completedAt := o.now()
	rec := &RunRecord{
		SyncType:     SyncTypeInventory,
		Status:       RunStatusCompleted,
		TotalRecords: total,
		Details:      results,
		StartedAt:    startedAt,
		CompletedAt:  completedAt,
	}
	auditErr := o.record(ctx, rec)
	recorded = true

	span.SetAttributes(attribute.Int("sync.total_updated", total))
	o.logger.Info("Inventory sync completed",
		zap.Int("branches", len(branches)),
		zap.Int("total_updated", total),
		zap.Duration("duration", completedAt.Sub(startedAt)),
	)

	return Summary{
		Success:        true,
		Message:        fmt.Sprintf("Inventory synced: %d products updated across %d branches", total, len(branches)),
		TotalUpdated:   total,
		BranchesSynced: len(results),
		Results:        results,
		Timestamp:      completedAt,
		AuditFailed:    auditErr != nil,
	}
}

// fail records a failed run with no branch detail and builds the failure summary.
func (o *Orchestrator) fail(ctx context.Context, startedAt time.Time, cause error) Summary {
	o.logger.Error("Inventory sync failed", zap.Error(cause))

	completedAt := o.now()
	rec := &RunRecord{
		SyncType:     SyncTypeInventory,
		Status:       RunStatusFailed,
		ErrorMessage: cause.Error(),
		StartedAt:    startedAt,
		CompletedAt:  completedAt,
	}
	auditErr := o.record(ctx, rec)
	return failedSummary(cause, completedAt, auditErr != nil)
}

func failedSummary(cause error, at time.Time, auditFailed bool) Summary {
	message := "Inventory sync failed"
	if auditFailed {
		message = "Inventory sync failed and the run could not be recorded"
	}
	return Summary{
		Success:     false,
		Message:     message,
		Error:       cause.Error(),
		Timestamp:   at,
		AuditFailed: auditFailed,
	}
}

// record persists rec on a best-effort basis. A failure is logged and counted
// but never escalated.
func (o *Orchestrator) record(ctx context.Context, rec *RunRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrAuditWriteFailure, r)
		}
		if err != nil {
			o.auditFailures.Add(1)
			o.logger.Error("Failed to record sync run",
				zap.Bool("audit_write_failed", true),
				zap.String("status", string(rec.Status)),
				zap.Int("total_records", rec.TotalRecords),
				zap.Error(err),
			)
		}
	}()
	return o.runs.RecordRun(ctx, rec)
}

// syncBranches processes every branch with bounded parallelism. Results keep
// the enumeration order regardless of completion order.
func (o *Orchestrator) syncBranches(ctx context.Context, branches []Branch) []BranchSyncResult {
	results := make([]BranchSyncResult, len(branches))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, branch := range branches {
		g.Go(func() error {
			results[i] = o.syncBranch(ctx, branch)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// syncBranch fetches and reconciles a single branch. Nothing that happens here
// escapes as an error or panic; it all ends up in the returned result.
func (o *Orchestrator) syncBranch(ctx context.Context, branch Branch) (result BranchSyncResult) {
	ctx, span := o.tracer.Start(ctx, "inventory.branch", trace.WithAttributes(
		attribute.Int64("branch.id", int64(branch.ID)),
		attribute.String("branch.name", branch.Name),
	))
	defer span.End()

	log := o.logger.With(zap.String("branch", branch.Name), zap.Uint("branch_id", branch.ID))

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("branch sync panicked: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("Branch sync aborted", zap.Error(err))
			result = BranchSyncResult{
				Branch:          branch.Name,
				ProductsUpdated: result.ProductsUpdated,
				ProductsFailed:  result.ProductsFailed,
				Status:          BranchStatusError,
				Error:           err.Error(),
			}
		}
	}()

	result = BranchSyncResult{Branch: branch.Name, Status: BranchStatusSuccess}

	readings, err := o.fetch(ctx, branch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("Branch fetch failed", zap.Error(err))
		result.Status = BranchStatusError
		result.Error = err.Error()
		return result
	}

	var lastErr error
	for _, reading := range readings {
		if err := o.upsert(ctx, branch.ID, reading); err != nil {
			result.ProductsFailed++
			lastErr = err
			log.Warn("Inventory upsert failed", zap.String("product_id", reading.ProductID), zap.Error(err))
			continue
		}
		result.ProductsUpdated++
	}

	if result.ProductsFailed > 0 {
		if result.ProductsUpdated == 0 {
			result.Status = BranchStatusError
			result.Error = fmt.Sprintf("all %d upserts failed: %v", result.ProductsFailed, lastErr)
			span.SetStatus(codes.Error, result.Error)
		} else {
			result.Error = fmt.Sprintf("%d of %d upserts failed: %v", result.ProductsFailed, len(readings), lastErr)
		}
	}

	span.SetAttributes(
		attribute.Int("branch.products_updated", result.ProductsUpdated),
		attribute.Int("branch.products_failed", result.ProductsFailed),
	)
	log.Info("Branch synced",
		zap.Int("readings", len(readings)),
		zap.Int("products_updated", result.ProductsUpdated),
		zap.Int("products_failed", result.ProductsFailed),
	)
	return result
}

// upsert writes one reading. A store panic is turned into an upsert failure so
// the remaining readings of the branch are still written.
func (o *Orchestrator) upsert(ctx context.Context, branchID uint, reading StockReading) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: product %s at branch %d: panic: %v", ErrUpsertFailure, reading.ProductID, branchID, r)
		}
	}()
	_, err = o.store.Upsert(ctx, reading.ProductID, branchID, reading.Quantity, o.now())
	return err
}

type fetchOutcome struct {
	readings []StockReading
	err      error
}

// fetch calls the source under a bounded timeout. A source that ignores its
// context still cannot stall the run past the timeout.
func (o *Orchestrator) fetch(ctx context.Context, branch Branch) ([]StockReading, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()

	done := make(chan fetchOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchOutcome{err: fmt.Errorf("%w: fetch panicked: %v", ErrSourceError, r)}
			}
		}()
		readings, err := o.source.FetchStock(fetchCtx, branch)
		done <- fetchOutcome{readings: readings, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(fetchCtx.Err(), context.DeadlineExceeded) && !errors.Is(out.err, ErrSourceUnavailable) {
			return nil, fmt.Errorf("%w: fetch for branch %q timed out after %s: %w", ErrSourceUnavailable, branch.Name, o.fetchTimeout, out.err)
		}
		return out.readings, out.err
	case <-fetchCtx.Done():
		return nil, fmt.Errorf("%w: fetch for branch %q timed out after %s", ErrSourceUnavailable, branch.Name, o.fetchTimeout)
	}
}
