// Package index resolves packages from a mirrored registry index tree.
//
// # Overview
//
// A registry index is a directory tree with one file per package. Each file
// holds newline-delimited JSON: one object per published version, appended
// chronologically, with required string fields "name" and "vers". This
// package locates those files and parses them into [Record] values whose
// version lists are ordered newest first.
//
// # Lookup
//
// [Find] walks the tree depth-first for a file whose base name equals the
// package name, skipping version-control metadata (any path containing
// ".git") and the registry's own config.json:
//
//	path, err := index.Find("serde", "/srv/crates.io-index")
//	rec, err := index.Load(path)
//
// # Version selection
//
// [Record.VersionIndex] matches an exact version string.
// [Record.VersionWithPrefix] resolves a version requirement: "*" means the
// latest version, anything else matches the newest version that literally
// starts with the requirement. The match is lexical on purpose: "1.2" can
// select "1.20.0". [Record.CanonicalName] formats the "{name}-{version}"
// identifier used for archives and build directories.
//
// # Whole-index traversal
//
// [Walk] visits every package file in the tree with the same skip rules,
// which is how whole-index builds enumerate their work.
package index
