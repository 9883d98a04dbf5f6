package build

import (
	"context"
	"os"
	"path/filepath"

	"github.com/docyard/docyard/pkg/archive"
	"github.com/docyard/docyard/pkg/core/index"
	"github.com/docyard/docyard/pkg/core/stage"
	"github.com/docyard/docyard/pkg/errors"
	"github.com/docyard/docyard/pkg/integrations/artifacts"
)

// Documentation builds always run the same tool invocation, from inside the
// package directory.
var docCommand = []string{"cargo", "doc", "--no-deps", "--verbose"}

// Options configures an Executor.
type Options struct {
	IndexDir string               // Root of the mirrored registry index
	WorkDir  string               // Per-build scratch directory
	Fetcher  artifacts.Fetcher    // Archive downloads
	Runner   Runner               // Tool invocation (default: ExecRunner)
	Logger   func(string, ...any) // Progress callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{Logger: opts.Logger}
	}
	return opts
}

// Executor builds the documentation of one package version through a
// sequential fail-fast step chain: clean, fetch, extract, stage, invoke,
// classify. Every path it touches lives under Options.WorkDir.
type Executor struct {
	opts Options
}

// New creates an Executor. Two executors may run concurrently iff their
// WorkDirs differ: within one WorkDir the "{name}-{version}" namespace
// serializes builds of the same target.
func New(opts Options) *Executor {
	return &Executor{opts: opts.WithDefaults()}
}

// Build documents the version at position vi of rec and returns the build
// tool's combined output. On failure the captured output is still returned
// alongside the typed error, and the extracted tree is left in the workdir
// for inspection; the only cleanup is the initial clean step.
//
// Step failures carry their own codes: FILESYSTEM (clean), FETCH_FAILED,
// ARCHIVE (extract), the stager's typed errors, and COMMAND_FAILED for a
// build tool that could not run or exited non-zero.
func (e *Executor) Build(ctx context.Context, rec *index.Record, vi int) (string, error) {
	canonical := rec.CanonicalName(vi)
	pkgDir := filepath.Join(e.opts.WorkDir, canonical)
	archivePath := filepath.Join(e.opts.WorkDir, canonical+".crate")

	e.opts.Logger("building %s", canonical)

	// Clean: leftovers from a previous run of the same target.
	if err := os.RemoveAll(pkgDir); err != nil {
		return "", errors.Wrap(errors.ErrCodeFilesystem, err, "clean %s", pkgDir)
	}
	if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
		return "", errors.Wrap(errors.ErrCodeFilesystem, err, "clean %s", archivePath)
	}

	fetched, err := e.opts.Fetcher.FetchArchive(ctx, rec.Name, rec.Versions[vi], e.opts.WorkDir)
	if err != nil {
		return "", err
	}

	if err := archive.Extract(fetched, e.opts.WorkDir); err != nil {
		return "", err
	}
	if _, err := os.Stat(pkgDir); err != nil {
		return "", errors.New(errors.ErrCodeArchive, "archive for %s did not contain %s/", rec.Name, canonical)
	}

	err = stage.Stage(ctx, pkgDir, stage.Options{
		IndexDir: e.opts.IndexDir,
		WorkDir:  e.opts.WorkDir,
		Fetcher:  e.opts.Fetcher,
		Logger:   e.opts.Logger,
	})
	if err != nil {
		return "", err
	}

	output, err := e.opts.Runner.Run(ctx, pkgDir, docCommand[0], docCommand[1:]...)
	if err != nil {
		return output, errors.Wrap(errors.ErrCodeCommand, err, "documentation build failed for %s", canonical)
	}
	return output, nil
}
