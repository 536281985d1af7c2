// Package config provides configuration management for the inventory sync service.
//
// Values come from an optional .env file and the process environment, read
// through Viper. Defaults live in `default` struct tags on each section.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, request timeout
//   - Log: level and format
//   - Database: driver (mysql or sqlite) and connection details
//   - POS: inventory API base URL, method, token, fetch timeout
//   - Sync: branch concurrency and lock key
//   - Redis: optional cross-process run lock
//   - Storage: optional S3/MinIO archive of run records
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.POS.BaseURL)
package config
