// Package reconcile implements the multi-branch inventory reconciliation run.
//
// A run enumerates the active branches, fetches each branch's stock from the
// POS, upserts one inventory record per (product, branch) and appends a single
// audit record describing the run.
//
// # Architecture
//
// The package owns the run logic and talks to four collaborators through interfaces:
//
//  1. BranchRegistry: lists the active branches.
//  2. InventorySource: fetches stock readings for one branch.
//  3. InventoryStore: upserts one inventory record.
//  4. RunLogger: appends the run record to the audit trail.
//
// Concrete implementations live in feature/inventory; tests substitute fakes.
//
// # Failure Isolation
//
// Branches are independent. A fetch failure, a timeout or a panic in one branch
// becomes an error result for that branch and never stops the others. Within a
// branch each upsert is isolated too: a rejected product is counted in
// ProductsFailed and the remaining products are still written. Only a failure to
// list branches fails the whole run. Nothing is retried; the next run is the retry.
//
// # Concurrency
//
// Branches are processed with bounded parallelism (errgroup with a limit) and
// results are reported in enumeration order. Each fetch runs under its own timeout.
//
// # Usage Example
//
//	orch := reconcile.NewOrchestrator(registry, source, store, runLog,
//	    reconcile.WithLogger(log),
//	    reconcile.WithConcurrency(4),
//	    reconcile.WithFetchTimeout(30*time.Second),
//	)
//	summary := orch.Run(ctx)
package reconcile
