// Package integrations provides HTTP clients for the upstream services
// docyard talks to.
//
// # Overview
//
// This package contains the shared plumbing; each upstream service has its
// own subpackage:
//
//   - [registry]: registry metadata API (versions, owners)
//   - [artifacts]: versioned package archive downloads
//
// # Client Pattern
//
// Both clients follow a consistent pattern:
//
//	reg := registry.NewClient("")                  // "" = default API root
//	versions, err := reg.Versions(ctx, "serde")
//
// Clients handle:
//   - HTTP requests with typed status mapping (404, 429, 5xx)
//   - Retryable-error classification for transient failures
//   - API-specific parsing
//
// Clients classify retryability but do not retry; resilience belongs to
// callers (see [httputil.Retry]).
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by both
// subpackages: default headers, JSON decoding, raw body streaming, and the
// status-code-to-error mapping ([ErrNotFound], [ErrNetwork], rate limits).
//
// [registry]: github.com/docyard/docyard/pkg/integrations/registry
// [artifacts]: github.com/docyard/docyard/pkg/integrations/artifacts
// [httputil.Retry]: github.com/docyard/docyard/pkg/httputil.Retry
package integrations
