// Package ingest reconciles one package version's complete metadata into
// the relational store.
//
// # Inputs
//
// [Ingestor.RegisterRelease] gathers three kinds of input before touching
// the database:
//
//   - Manifest data (target name, dependency pairs, module documentation,
//     readme, license and friends) from the synced source tree under
//     {SourcesDir}/{name}/{version}/, or from a freshly fetched and
//     extracted archive that is deleted again right after reading.
//   - Release metadata (publish time, yanked flag, download count) and the
//     owners list from the registry API, always live.
//   - Build evidence from the filesystem: the build log under LogsDir and
//     the rendered documentation under DestinationDir decide the tri-state
//     build status, and the presence of the primary build target's
//     directory decides the rustdoc status.
//
// # Writes
//
// All writes happen inside a single [store.Store.WithTx] transaction: crate
// upsert, release upsert keyed by (crate, version), keyword/author/owner
// rows deduplicated by their natural keys with insert-or-ignore links, and
// an append of the version string to the crate's known-versions list. A
// failure anywhere rolls the whole ingestion back; re-running with the same
// inputs is always safe.
//
// # Tolerated irregularities
//
// Author strings that do not match the permissive `Name <email>` pattern
// and registry owners with an empty login are skipped without error. These
// are the only inputs the ingestor drops silently.
package ingest
