// Package builder orchestrates the documentation pipeline for whole
// packages: it resolves a version against the mirrored index, runs the
// build executor, and persists everything later stages depend on.
//
// # Outputs per build
//
//   - {LogsDir}/{name}/{name}-{version}.log — combined tool output,
//     written on success and failure alike
//   - {DestinationDir}/{name}/{version}/ — the rendered documentation,
//     copied only on success
//   - {SourcesDir}/{name}/{version}/ — the package source tree without
//     target/, so metadata ingestion never has to re-download
//
// # World builds
//
// BuildWorld walks the entire index and processes the latest version of
// every package. A broken package costs one log line and a failure count,
// not the run: only context cancellation stops the walk.
package builder
