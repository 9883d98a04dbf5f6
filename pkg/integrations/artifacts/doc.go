// Package artifacts downloads versioned package archives from the artifact
// store.
//
// # Overview
//
// Published packages live as gzip+tar archives at
// "{host}/{name}/{name}-{version}.crate". This package fetches them into a
// working directory for the stager, the build executor, and the ingestor.
//
// # Usage
//
//	client := artifacts.NewClient("", nil) // "" = static.crates.io, nil = no cache
//	path, err := client.FetchArchive(ctx, "serde", "1.0.0", workDir)
//
// # Caching
//
// Archives are immutable once published, so [NewClient] accepts an optional
// [httputil.Cache]: hits skip the network entirely, misses populate the
// cache after download. This is safe precisely because the payloads cannot
// change; registry metadata gets no such treatment.
//
// # Transport
//
// Downloads run through a dedicated HTTP client with a five-minute timeout
// and a DNS-caching dialer (rs/dnscache), since bulk builds fetch thousands
// of archives from the same host.
//
// [httputil.Cache]: github.com/docyard/docyard/pkg/httputil.Cache
package artifacts
