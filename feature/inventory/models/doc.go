// Package models defines the GORM models for the tables the inventory sync
// reads and writes: branches, inventory and sync_logs.
//
// The column tags double as the expected schema for the integrity checks.
package models
