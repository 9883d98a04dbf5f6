package builder

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/docyard/docyard/pkg/core/build"
	"github.com/docyard/docyard/pkg/core/index"
	"github.com/docyard/docyard/pkg/core/ingest"
	"github.com/docyard/docyard/pkg/errors"
	"github.com/docyard/docyard/pkg/integrations/artifacts"
	"github.com/docyard/docyard/pkg/store"
)

// Uploader pushes a built documentation tree to remote storage.
// *storage.Uploader satisfies it.
type Uploader interface {
	UploadDir(ctx context.Context, dir, prefix string) error
}

// Options configures a Builder.
type Options struct {
	IndexDir       string // Root of the mirrored registry index
	WorkDir        string // Per-build scratch directory
	SourcesDir     string // Synced source trees: {SourcesDir}/{name}/{version}/
	LogsDir        string // Build logs: {LogsDir}/{name}/{name}-{version}.log
	DestinationDir string // Rendered documentation: {DestinationDir}/{name}/{version}/

	Fetcher  artifacts.Fetcher
	Registry ingest.Registry
	Store    *store.Store // Optional; ingestion is skipped when nil
	Uploader Uploader     // Optional; documentation upload after a successful build
	Runner   build.Runner // Optional; defaults to the real build tool

	SkipExisting bool // Skip versions whose destination directory already exists
	Logger       func(string, ...any)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Builder drives the full per-package pipeline: resolve, build, persist the
// log and documentation, sync sources, and optionally upload and ingest.
type Builder struct {
	opts Options
	ing  *ingest.Ingestor
}

// New creates a Builder.
func New(opts Options) *Builder {
	b := &Builder{opts: opts.WithDefaults()}
	if b.opts.Store != nil {
		b.ing = ingest.New(ingest.Options{
			SourcesDir:     b.opts.SourcesDir,
			WorkDir:        b.opts.WorkDir,
			LogsDir:        b.opts.LogsDir,
			DestinationDir: b.opts.DestinationDir,
			Fetcher:        b.opts.Fetcher,
			Registry:       b.opts.Registry,
			Store:          b.opts.Store,
			Logger:         b.opts.Logger,
		})
	}
	return b
}

// BuildPackage builds documentation for one package. version may be an
// exact version, a prefix, or empty for the latest release. The combined
// build log is written to {LogsDir}/{name}/{name}-{version}.log whether the
// build succeeded or not; on success the rendered documentation is copied
// to the destination, the source tree is synced for later ingests, and the
// documentation is uploaded when an uploader is configured.
func (b *Builder) BuildPackage(ctx context.Context, name, version string) error {
	rec, vi, err := b.resolve(name, version)
	if err != nil {
		return err
	}
	return b.buildVersion(ctx, rec, vi)
}

// BuildWorld builds and ingests the latest version of every package in the
// index, returning how many packages were documented and how many failed.
// Per-package failures are logged and counted but never abort the walk;
// only index traversal errors and context cancellation do.
func (b *Builder) BuildWorld(ctx context.Context) (built, failed int, err error) {
	err = index.Walk(b.opts.IndexDir, func(file string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := index.Load(file)
		if err != nil {
			failed++
			b.opts.Logger("skipping %s: %v", filepath.Base(file), err)
			return nil
		}
		vi, ok := rec.VersionWithPrefix("*")
		if !ok {
			b.opts.Logger("%s has no published versions", rec.Name)
			return nil
		}
		if err := b.buildVersion(ctx, rec, vi); err != nil {
			failed++
			b.opts.Logger("build of %s failed: %v", rec.CanonicalName(vi), err)
			return nil
		}
		if err := b.Ingest(ctx, rec.Name, rec.Versions[vi]); err != nil {
			failed++
			b.opts.Logger("ingest of %s failed: %v", rec.CanonicalName(vi), err)
			return nil
		}
		built++
		return nil
	})
	if err != nil {
		return built, failed, err
	}
	b.opts.Logger("world build finished: %d built, %d failed", built, failed)
	return built, failed, nil
}

// Ingest records one version's metadata in the store. It is a no-op when
// the builder has no store configured.
func (b *Builder) Ingest(ctx context.Context, name, version string) error {
	if b.ing == nil {
		return nil
	}
	return b.ing.RegisterRelease(ctx, name, version)
}

func (b *Builder) resolve(name, version string) (*index.Record, int, error) {
	file, err := index.Find(name, b.opts.IndexDir)
	if err != nil {
		return nil, 0, err
	}
	rec, err := index.Load(file)
	if err != nil {
		return nil, 0, err
	}
	if version == "" {
		version = "*"
	}
	vi, ok := rec.VersionWithPrefix(version)
	if !ok {
		return nil, 0, errors.New(errors.ErrCodeVersionNotFound,
			"no published version of %s matches %q", name, version)
	}
	return rec, vi, nil
}

func (b *Builder) buildVersion(ctx context.Context, rec *index.Record, vi int) error {
	version := rec.Versions[vi]
	canonical := rec.CanonicalName(vi)
	destDir := filepath.Join(b.opts.DestinationDir, rec.Name, version)

	if b.opts.SkipExisting && exists(destDir) {
		b.opts.Logger("%s already documented, skipping", canonical)
		return nil
	}

	exec := build.New(build.Options{
		IndexDir: b.opts.IndexDir,
		WorkDir:  b.opts.WorkDir,
		Fetcher:  b.opts.Fetcher,
		Runner:   b.opts.Runner,
		Logger:   b.opts.Logger,
	})
	output, buildErr := exec.Build(ctx, rec, vi)

	if err := b.writeLog(rec.Name, version, output, buildErr); err != nil {
		return err
	}
	if buildErr != nil {
		return buildErr
	}

	pkgDir := filepath.Join(b.opts.WorkDir, canonical)
	docDir := filepath.Join(pkgDir, "target", "doc")
	if !exists(docDir) {
		return errors.New(errors.ErrCodeFilesystem,
			"build of %s produced no documentation under %s", canonical, docDir)
	}
	if err := copyTree(docDir, destDir); err != nil {
		return err
	}
	if err := b.syncSources(pkgDir, rec.Name, version); err != nil {
		return err
	}

	if b.opts.Uploader != nil {
		if err := b.opts.Uploader.UploadDir(ctx, destDir, path.Join(rec.Name, version)); err != nil {
			return err
		}
	}
	b.opts.Logger("documented %s", canonical)
	return nil
}

// writeLog persists the captured build output. The log is written on both
// outcomes so the ingest heuristic can tell "tried and failed" from "never
// tried"; a failure before the tool ran records the error text instead.
func (b *Builder) writeLog(name, version, output string, buildErr error) error {
	logPath := filepath.Join(b.opts.LogsDir, name, name+"-"+version+".log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create log dir for %s", name)
	}
	content := output
	if buildErr != nil {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		content += "error: " + buildErr.Error() + "\n"
	}
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "write build log %s", logPath)
	}
	return nil
}

// syncSources replaces the synced copy of the package sources, leaving out
// the target/ build directory.
func (b *Builder) syncSources(pkgDir, name, version string) error {
	dest := filepath.Join(b.opts.SourcesDir, name, version)
	if err := os.RemoveAll(dest); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "replace synced sources %s", dest)
	}
	return copyTree(pkgDir, dest, "target")
}

// copyTree copies a directory tree. Directories named in skip are left out
// when they sit directly under src. Regular files only; everything else is
// ignored.
func copyTree(src, dst string, skip ...string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrap(errors.ErrCodeFilesystem, err, "walk %s", p)
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return errors.Wrap(errors.ErrCodeFilesystem, err, "walk %s", p)
		}
		if rel == "." {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", dst)
			}
			return nil
		}
		if d.IsDir() {
			if slices.Contains(skip, rel) {
				return fs.SkipDir
			}
			if err := os.MkdirAll(filepath.Join(dst, rel), 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", rel)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return errors.Wrap(errors.ErrCodeFilesystem, err, "stat %s", p)
		}
		return copyFile(p, filepath.Join(dst, rel), info.Mode().Perm())
	})
}

func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "open %s", src)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.Wrap(errors.ErrCodeFilesystem, err, "copy %s", dst)
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "close %s", dst)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
