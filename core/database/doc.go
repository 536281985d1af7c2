// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to configure MySQL (production) or SQLite
// (local runs and tests) connections from the application's configuration.
//
// # Connect
//
// Connect opens the configured driver, applies pool settings and pings the
// database. Close releases the pool; one-shot commands defer it so the
// connection is released on every exit path.
//
// # Schema Inspection
//
// GetTableColumns lists a table's columns, used by the integrity check to verify
// that the branches, inventory and sync_logs tables carry the expected columns.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer database.Close(db)
package database
