package cli

import (
	"github.com/spf13/cobra"

	"github.com/docyard/docyard/pkg/core/builder"
	"github.com/docyard/docyard/pkg/core/index"
	derrors "github.com/docyard/docyard/pkg/errors"
	"github.com/docyard/docyard/pkg/httputil"
	"github.com/docyard/docyard/pkg/integrations/artifacts"
	"github.com/docyard/docyard/pkg/integrations/registry"
	"github.com/docyard/docyard/pkg/storage"
	"github.com/docyard/docyard/pkg/store"
)

// buildDeps bundles everything a build-driving command needs: the wired
// builder, the resolved directory layout, and a close function releasing
// the database connection.
type buildDeps struct {
	builder *builder.Builder
	paths   paths
	close   func()
}

// newBuildDeps wires a builder from flags and environment. The database
// (DOCYARD_DATABASE_URL) and the documentation bucket (DOCYARD_S3_BUCKET)
// are optional; without them builds still run, they just skip ingestion and
// upload. logf receives the builder's progress messages.
func newBuildDeps(cmd *cobra.Command, skipExisting, noCache bool, logf func(string, ...any)) (*buildDeps, error) {
	ctx := cmd.Context()

	p, err := resolvePaths(dataDirFlag(cmd))
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeFilesystem, err, "resolve data directory")
	}

	var archiveCache *httputil.Cache
	if !noCache {
		dir, err := cacheDir()
		if err != nil {
			return nil, derrors.Wrap(derrors.ErrCodeFilesystem, err, "resolve cache directory")
		}
		// Crate archives are immutable, so cached copies never expire.
		if archiveCache, err = httputil.NewCache(dir, 0); err != nil {
			return nil, derrors.Wrap(derrors.ErrCodeFilesystem, err, "create archive cache")
		}
	}
	fetcher := artifacts.NewClient(envOr("ARTIFACT_HOST", ""), archiveCache)
	reg := registry.NewClient(envOr("REGISTRY_API", ""))

	var st *store.Store
	closeStore := func() {}
	if dsn := envOr("DATABASE_URL", ""); dsn != "" {
		if st, err = store.Open(dsn); err != nil {
			return nil, err
		}
		closeStore = func() { _ = st.Close() }
	} else {
		logf("no database configured, metadata ingestion disabled")
	}

	var uploader builder.Uploader
	if bucket := envOr("S3_BUCKET", ""); bucket != "" {
		endpoint := envOr("S3_ENDPOINT", "")
		up, err := storage.New(ctx, storage.Options{
			Bucket:       bucket,
			Region:       envOr("S3_REGION", ""),
			Endpoint:     endpoint,
			UsePathStyle: endpoint != "",
			Logger:       logf,
		})
		if err != nil {
			closeStore()
			return nil, err
		}
		uploader = up
	}

	b := builder.New(builder.Options{
		IndexDir:       p.Index,
		WorkDir:        p.Work,
		SourcesDir:     p.Sources,
		LogsDir:        p.Logs,
		DestinationDir: p.Docs,
		Fetcher:        fetcher,
		Registry:       reg,
		Store:          st,
		Uploader:       uploader,
		SkipExisting:   skipExisting,
		Logger:         logf,
	})
	return &buildDeps{builder: b, paths: p, close: closeStore}, nil
}

// resolveVersion expands an optional version prefix into the exact version
// string recorded in the index. An empty version means the latest release.
func resolveVersion(indexDir, name, version string) (string, error) {
	file, err := index.Find(name, indexDir)
	if err != nil {
		return "", err
	}
	rec, err := index.Load(file)
	if err != nil {
		return "", err
	}
	if version == "" {
		version = "*"
	}
	vi, ok := rec.VersionWithPrefix(version)
	if !ok {
		return "", derrors.New(derrors.ErrCodeVersionNotFound,
			"no published version of %s matches %q", name, version)
	}
	return rec.Versions[vi], nil
}

// statusLabel turns a tri-state build status into a short human label.
func statusLabel(status int) string {
	switch {
	case status > 0:
		return "built"
	case status < 0:
		return "failed"
	default:
		return "not built"
	}
}
