// Package server exposes the metadata store as a small read-only JSON
// API: crate lookups, release details, queue length, and a health check
// that pings the database.
//
// All responses are JSON, including 404s; store failures surface as 500s
// carrying the machine-readable error code. Writes stay with the build
// pipeline — the API never mutates anything.
package server
