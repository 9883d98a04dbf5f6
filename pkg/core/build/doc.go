// Package build runs the documentation tool against one fetched package
// version and captures everything the tool printed.
//
// # Step chain
//
// [Executor.Build] works through a fixed, fail-fast sequence inside its
// configured workdir:
//
//  1. Clean leftovers of the same "{name}-{version}" target.
//  2. Fetch the archive through an [artifacts.Fetcher].
//  3. Extract it and verify the expected package directory appeared.
//  4. Stage local-path dependencies with [stage.Stage].
//  5. Invoke "cargo doc --no-deps --verbose" inside the package directory.
//
// The combined stdout+stderr text of the invocation is returned in both the
// success and the failure case, so callers can persist the build log either
// way. A failed build leaves the extracted tree in place for inspection.
//
// # Tool invocation
//
// Commands run through the [Runner] seam. The default [ExecRunner] executes
// the real tool with the working directory pinned per command, so concurrent
// executors with distinct workdirs never interfere with each other.
package build
