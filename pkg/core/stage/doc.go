// Package stage materializes local path dependencies before a build.
//
// Published package archives cannot include the source of their path
// dependencies; the manifest only records where the build expects them
// (path) and which published version is equivalent (version). [Stage]
// closes that gap: it resolves each path+version entry against the mirrored
// index, downloads and extracts the matching archive, and moves the tree to
// the declared location inside the package directory, recursively.
//
// Entries with a path but no version have no registry equivalent to fetch,
// so they are left exactly as published.
package stage
