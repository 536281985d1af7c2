// Package utils provides common utility functions for the inventory-sync application.
// It includes lenient type conversion helpers used when decoding loosely typed
// payloads from the POS API, where numbers may arrive as strings, numbers or null.
package utils
