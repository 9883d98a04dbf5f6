// Package httputil provides HTTP utilities shared by the registry and
// artifact clients.
//
// # Overview
//
// This package provides infrastructure used by every HTTP client in the
// project:
//
//   - [Cache]: File-based caching for immutable payloads
//   - [Retry]: Automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores entries in the filesystem (~/.cache/docyard/) with
// configurable TTL. It is intended for immutable payloads such as crate
// archives, where a version's contents never change once published.
// Registry metadata (version lists, owner lists) is deliberately never
// cached: ingestion must observe the live registry state.
//
// Usage:
//
//	cache, err := httputil.NewCache("", 0)
//	archives := cache.Namespace("archive:")
//	var data []byte
//	if ok, _ := archives.Get("serde-1.0.0", &data); !ok {
//	    data = fetchArchive()
//	    archives.Set("serde-1.0.0", data)
//	}
//
// Cache keys should be namespaced by payload kind to avoid collisions.
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Wrap transient errors in [RetryableError] so Retry knows to try again:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return fetchOnce()
//	})
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Cache directory: ~/.cache/docyard/
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `docyard cache clear` or by deleting the
// cache directory.
package httputil
