// Package store persists crate and release metadata in a relational
// database.
//
// # Layout
//
// One crates row per package name, carrying an append-only JSON list of
// known version strings. One releases row per (crate, version) pair with the
// full per-version metadata. Keywords, authors and owners live in their own
// tables, deduplicated by a natural key (slug for keywords and authors,
// login for owners) and joined to releases or crates through link tables
// with a uniqueness constraint on each pair.
//
// # Write protocol
//
// All writes of one ingestion happen inside a single transaction via
// [Store.WithTx]. Entity upserts are select-or-insert and return the row id;
// link inserts are insert-or-ignore on the pair constraint, so re-ingesting
// a release never produces duplicate relationships.
//
// # Drivers
//
// Production connects to PostgreSQL through the pgx stdlib driver
// ([Open]). Statements stick to placeholders numbered in order of first use
// so they also run unchanged on the SQLite driver the tests use (see
// [github.com/docyard/docyard/pkg/store/storetest]).
package store
