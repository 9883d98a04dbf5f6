// Package buildinfo records the version stamped into the binary at build time.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/docyard/docyard/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/docyard/docyard/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/docyard/docyard/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// UserAgent identifies this build to the registry and artifact hosts.
// crates.io asks automated clients to send a contact URL with every request.
func UserAgent() string {
	return fmt.Sprintf("docyard %s (https://github.com/docyard/docyard)", Version)
}
