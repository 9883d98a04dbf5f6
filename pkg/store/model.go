package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned by read queries when no row matches.
var ErrNotFound = errors.New("not found")

// Crate is one row of the crates table.
type Crate struct {
	ID       int64
	Name     string
	Versions []string // Known version strings, first-seen order
}

// Release is one row of the releases table, keyed by (CrateID, Version).
// Pointer fields are nullable columns; nil round-trips as SQL NULL.
type Release struct {
	ID              int64
	CrateID         int64
	Version         string
	ReleaseTime     *time.Time
	Dependencies    [][2]string // (name, version requirement) pairs
	Yanked          *bool
	BuildStatus     int
	RustdocStatus   int
	TestStatus      int
	License         *string
	Repository      *string
	Homepage        *string
	Description     *string
	DescriptionLong *string // Module-level documentation text
	Readme          *string
	Authors         []string // Raw author strings as declared in the manifest
	Keywords        []string
	HaveExamples    bool
	Downloads       *int
}

// ReleaseSummary is the per-version slice of a release used in listings.
type ReleaseSummary struct {
	Version       string
	ReleaseTime   *time.Time
	BuildStatus   int
	RustdocStatus int
	Yanked        *bool
	Downloads     *int
}

// RecentRelease is one row of the cross-crate recency feed: a release
// together with the name of the crate it belongs to.
type RecentRelease struct {
	Crate       string
	Version     string
	ReleaseTime *time.Time
	BuildStatus int
}

// Owner is one registry owner as stored in the owners table. Login is the
// natural key; Slug is derived from the display name.
type Owner struct {
	Login  string
	Slug   string
	Avatar string
	Name   string
	Email  string
}
