// Package registry provides an HTTP client for the registry metadata API.
//
// # Overview
//
// This package fetches version and ownership metadata from a crates.io
// style registry API. It backs the metadata ingestor, which mirrors this
// data into the relational store.
//
// # Usage
//
//	client := registry.NewClient("") // "" = https://crates.io/api/v1
//
//	versions, err := client.Versions(ctx, "serde")
//	owners, err := client.Owners(ctx, "serde")
//
// # Freshness
//
// Responses are never cached. Every call hits the live API so that yank
// status, download counts, and ownership changes are always current when a
// release is ingested.
//
// # Timestamps
//
// The registry reports publish times with sub-second precision and a zone
// offset (e.g., "2014-12-08T02:08:06.016234+00:00"). Only the leading
// seconds-precision prefix is parsed; the result is interpreted as UTC.
// Unparseable timestamps yield a nil CreatedAt rather than an error.
package registry
