package stage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/docyard/docyard/pkg/archive"
	"github.com/docyard/docyard/pkg/core/index"
	"github.com/docyard/docyard/pkg/core/manifest"
	"github.com/docyard/docyard/pkg/errors"
	"github.com/docyard/docyard/pkg/integrations/artifacts"
)

// DefaultMaxDepth bounds how deeply nested path dependencies may stage
// their own path dependencies.
const DefaultMaxDepth = 50

// Options configures a staging run.
type Options struct {
	IndexDir string               // Root of the mirrored registry index
	WorkDir  string               // Scratch directory for fetched archives
	Fetcher  artifacts.Fetcher    // Archive downloads
	MaxDepth int                  // Maximum nesting depth (default: 50)
	Logger   func(string, ...any) // Progress callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Stage places every local path dependency of the extracted package at
// pkgDir, so the build tool can compile against them without network
// access.
//
// For each [dependencies] entry declaring both a path and a version, Stage
// resolves the dependency's index record, prefix-matches the version, fetches
// and extracts its archive in the workdir, moves the extracted tree to the
// declared path under pkgDir, and then stages that dependency's own path
// dependencies the same way. The archive file and extraction directory do
// not outlive the run. Entries declaring a path without a version are left
// untouched; registry-only entries are the build tool's concern.
//
// Each step fails with its own typed error (INDEX_FILE_NOT_FOUND,
// VERSION_NOT_FOUND, FETCH_FAILED, ARCHIVE, FILESYSTEM, MANIFEST) and the
// first failure aborts the whole invocation.
func Stage(ctx context.Context, pkgDir string, opts Options) error {
	opts = opts.WithDefaults()
	return stageTree(ctx, pkgDir, opts, opts.MaxDepth)
}

func stageTree(ctx context.Context, pkgDir string, opts Options, depth int) error {
	if depth <= 0 {
		return errors.New(errors.ErrCodeManifest, "path dependency nesting exceeds %d levels under %s", opts.MaxDepth, pkgDir)
	}

	deps, err := manifest.LocalDependencies(pkgDir)
	if err != nil {
		return err
	}

	for _, dep := range deps {
		if dep.Version == "" {
			opts.Logger("leaving %s in place: path dependency without version", dep.Name)
			continue
		}
		if err := stageOne(ctx, pkgDir, dep, opts, depth); err != nil {
			return err
		}
	}
	return nil
}

func stageOne(ctx context.Context, pkgDir string, dep manifest.LocalDep, opts Options, depth int) error {
	target, err := depTarget(pkgDir, dep)
	if err != nil {
		return err
	}

	indexPath, err := index.Find(dep.Name, opts.IndexDir)
	if err != nil {
		return err
	}
	rec, err := index.Load(indexPath)
	if err != nil {
		return err
	}
	vi, ok := rec.VersionWithPrefix(dep.Version)
	if !ok {
		return errors.New(errors.ErrCodeVersionNotFound, "no published version of %s matches %q", dep.Name, dep.Version)
	}
	canonical := rec.CanonicalName(vi)
	opts.Logger("staging %s into %s", canonical, dep.Path)

	archivePath, err := opts.Fetcher.FetchArchive(ctx, rec.Name, rec.Versions[vi], opts.WorkDir)
	if err != nil {
		return err
	}
	if err := archive.Extract(archivePath, opts.WorkDir); err != nil {
		return err
	}

	extracted := filepath.Join(opts.WorkDir, canonical)
	if _, err := os.Stat(extracted); err != nil {
		return errors.New(errors.ErrCodeArchive, "archive for %s did not contain %s/", dep.Name, canonical)
	}

	if err := relocate(extracted, target); err != nil {
		return err
	}

	// The staged dependency may declare path dependencies of its own.
	if err := stageTree(ctx, target, opts, depth-1); err != nil {
		return err
	}

	if err := os.Remove(archivePath); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "remove archive %s", archivePath)
	}
	return nil
}

// depTarget resolves the declared relative path against the package dir and
// rejects paths that would escape it: staging must never touch anything
// outside the package build tree.
func depTarget(pkgDir string, dep manifest.LocalDep) (string, error) {
	target := filepath.Join(pkgDir, filepath.FromSlash(dep.Path))
	rel, err := filepath.Rel(pkgDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New(errors.ErrCodeManifest, "path dependency %s escapes the package directory: %s", dep.Name, dep.Path)
	}
	return target, nil
}

// relocate moves the extracted tree to the declared target path, replacing
// whatever placeholder the published archive shipped there.
func relocate(extracted, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", filepath.Dir(target))
	}
	if err := os.RemoveAll(target); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "clear %s", target)
	}
	if err := os.Rename(extracted, target); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "move %s to %s", extracted, target)
	}
	return nil
}
