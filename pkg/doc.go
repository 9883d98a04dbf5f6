// Package pkg provides the core libraries for the docyard documentation builder.
//
// # Overview
//
// Docyard builds rustdoc documentation for published crate versions and
// mirrors registry metadata into a relational store. The pkg directory is
// organized into four main areas:
//
//  1. [core] - Domain logic (index resolution, staging, builds, ingestion)
//  2. [integrations] - External HTTP clients (registry API, archive host)
//  3. [store], [storage], [queue] - Persistence, uploads, and job queueing
//  4. [render] - Dependency graph rendering
//
// # Architecture
//
// The typical data flow through docyard:
//
//	Registry Index (newline-JSON files)
//	         ↓
//	    [core/index] package (resolve crate name and version)
//	         ↓
//	    [integrations/artifacts] package (download the .crate archive)
//	         ↓
//	    [archive] + [core/stage] packages (extract, stage dependencies)
//	         ↓
//	    [core/build] package (run cargo doc, classify the outcome)
//	         ↓
//	    [core/ingest] package (record the release in [store])
//	         ↓
//	    [storage] (upload rustdoc output) / [server] (read API)
//
// # Quick Start
//
// Build documentation for one crate version:
//
//	import (
//	    "context"
//	    "github.com/docyard/docyard/pkg/core/builder"
//	    "github.com/docyard/docyard/pkg/integrations/artifacts"
//	)
//
//	b := builder.New(builder.Options{
//	    IndexDir:       "/srv/docyard/index",
//	    WorkDir:        "/srv/docyard/work",
//	    SourcesDir:     "/srv/docyard/sources",
//	    LogsDir:        "/srv/docyard/logs",
//	    DestinationDir: "/srv/docyard/docs",
//	    Fetcher:        artifacts.NewClient("", nil),
//	})
//	if err := b.BuildPackage(context.Background(), "serde", "1.0.219"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Main Packages
//
// ## Core Domain Logic
//
// [core/index] - Registry index records. Parses the newline-JSON index files,
// resolves exact versions and prefix patterns, and walks the index tree.
//
// [core/manifest] - Cargo manifest handling. Reads crate metadata from
// Cargo.toml and rewrites manifests so staged path dependencies resolve.
//
// [core/stage] - Dependency staging. Lays out a crate's dependencies on disk
// before a build so cargo resolves them locally.
//
// [core/build] - Build execution. Cleans the workspace, extracts the crate,
// invokes cargo doc, and classifies the outcome from the log and the target
// directory.
//
// [core/builder] - Orchestration. Ties index, fetch, stage, build, upload,
// and ingest together for single builds and whole-index builds.
//
// [core/ingest] - Metadata ingestion. Records crates, releases, build
// results, and owners in the store inside a single transaction.
//
// ## External Integrations
//
// [integrations] - Shared HTTP client with typed errors and retry support.
//
// [integrations/registry] - crates.io API client for release metadata
// (publish dates, yanked flags, owners). Never cached; ingestion must see
// live registry state.
//
// [integrations/artifacts] - Archive downloads from static.crates.io with
// file-based caching of the immutable .crate payloads.
//
// ## Persistence and Transport
//
// [store] - PostgreSQL-backed metadata store: crates, releases, owners, and
// the append-only version log. [store/storetest] provides an in-memory
// SQLite stand-in for tests.
//
// [storage] - S3 uploads of rendered rustdoc trees.
//
// [queue] - Build job queue with in-process and Redis implementations.
//
// [server] - Read-only HTTP API over the store (crate metadata, release
// lists, queue depth).
//
// ## Supporting Packages
//
// [archive] - tar.gz extraction with path traversal protection.
//
// [render] - Dependency graphs from the registry index, rendered to DOT,
// SVG, or JSON via Graphviz.
//
// [httputil] - File-based caching and retry with exponential backoff.
//
// [errors] - Coded errors shared across packages; codes map to HTTP status
// and user-facing messages.
//
// [buildinfo] - Version information stamped at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/core/...               # Domain logic only
//	go test -run Example                 # Examples only
//
// [core]: https://pkg.go.dev/github.com/docyard/docyard/pkg/core
// [core/index]: https://pkg.go.dev/github.com/docyard/docyard/pkg/core/index
// [core/manifest]: https://pkg.go.dev/github.com/docyard/docyard/pkg/core/manifest
// [core/stage]: https://pkg.go.dev/github.com/docyard/docyard/pkg/core/stage
// [core/build]: https://pkg.go.dev/github.com/docyard/docyard/pkg/core/build
// [core/builder]: https://pkg.go.dev/github.com/docyard/docyard/pkg/core/builder
// [core/ingest]: https://pkg.go.dev/github.com/docyard/docyard/pkg/core/ingest
// [integrations]: https://pkg.go.dev/github.com/docyard/docyard/pkg/integrations
// [integrations/registry]: https://pkg.go.dev/github.com/docyard/docyard/pkg/integrations/registry
// [integrations/artifacts]: https://pkg.go.dev/github.com/docyard/docyard/pkg/integrations/artifacts
// [store]: https://pkg.go.dev/github.com/docyard/docyard/pkg/store
// [store/storetest]: https://pkg.go.dev/github.com/docyard/docyard/pkg/store/storetest
// [storage]: https://pkg.go.dev/github.com/docyard/docyard/pkg/storage
// [queue]: https://pkg.go.dev/github.com/docyard/docyard/pkg/queue
// [server]: https://pkg.go.dev/github.com/docyard/docyard/pkg/server
// [archive]: https://pkg.go.dev/github.com/docyard/docyard/pkg/archive
// [render]: https://pkg.go.dev/github.com/docyard/docyard/pkg/render
// [httputil]: https://pkg.go.dev/github.com/docyard/docyard/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/docyard/docyard/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/docyard/docyard/pkg/buildinfo
package pkg
