// Package server holds the HTTP server configuration.
//
// While cmd/start.go handles the server startup, this package defines the
// configuration structure: listen port, the API key protecting the sync
// endpoints, and the time budget a sync trigger request is allowed to take.
package server
