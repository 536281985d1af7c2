// Package integrity provides system health checks for the inventory sync service.
//
// # Checks Provided
//
//   - Server: Validates that the branches, inventory and sync_logs tables exist and carry
//     the columns (and declared types) of the GORM models.
//   - Storage: Verifies the run archive bucket when archiving is enabled.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/server : Runs server schema check.
//   - GET /integrity/storage : Runs archive bucket check.
package integrity
