package integrations

import (
	"errors"
	"net/http"
	"time"

	"github.com/docyard/docyard/pkg/buildinfo"
)

const httpTimeout = 10 * time.Second

// UserAgent identifies docyard to the registry and artifact hosts, as asked
// for by the crates.io crawler policy.
var UserAgent = buildinfo.UserAgent()

var (
	// ErrNotFound is returned when a package or resource doesn't exist upstream.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for registry
// metadata requests. Archive downloads use their own client with a longer
// timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}
