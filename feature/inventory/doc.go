// Package inventory mirrors branch stock levels from the POS into the local
// inventory table.
//
// It supplies the concrete collaborators of the reconcile engine:
//
//   - BranchRegistry: active rows of 'branches', ordered by id.
//   - PosterSource: GET {base_url}/{method}?token=..&storage_id=.. per branch.
//   - InventoryStore: one atomic upsert per (product_id, branch_id).
//   - RunLog: append-only 'sync_logs' plus the read side used by the API.
//   - ArchivingRunLogger: optional copy of each run record to object storage.
//
// Service coalesces concurrent triggers in the process and takes the optional
// Redis lock before running.
//
// # HTTP Endpoints
//
//   - POST /sync/inventory : Runs a sync. 200 on success, 500 with the failure summary otherwise.
//   - GET /sync/runs : Recent runs (?limit=, default 20, max 100).
//   - GET /sync/runs/:id : A single run.
package inventory
