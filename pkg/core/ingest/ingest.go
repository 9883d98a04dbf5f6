package ingest

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/docyard/docyard/pkg/archive"
	"github.com/docyard/docyard/pkg/core/manifest"
	"github.com/docyard/docyard/pkg/errors"
	"github.com/docyard/docyard/pkg/integrations/artifacts"
	"github.com/docyard/docyard/pkg/integrations/registry"
	"github.com/docyard/docyard/pkg/store"
	"github.com/gosimple/slug"
)

// Registry is the slice of the registry metadata API the ingestor reads.
// *registry.Client satisfies it.
type Registry interface {
	Versions(ctx context.Context, name string) ([]registry.VersionMeta, error)
	Owners(ctx context.Context, name string) ([]registry.Owner, error)
}

// Options configures an Ingestor.
type Options struct {
	SourcesDir     string            // Synced source copies: {SourcesDir}/{name}/{version}/
	WorkDir        string            // Scratch dir for fetch+extract when no synced copy exists
	LogsDir        string            // Build logs: {LogsDir}/{name}/{name}-{version}.log
	DestinationDir string            // Rendered documentation: {DestinationDir}/{name}/{version}/
	Fetcher        artifacts.Fetcher // Archive downloads
	Registry       Registry          // Registry metadata API
	Store          *store.Store
	Logger         func(string, ...any) // Progress callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Ingestor reconciles the complete metadata of one package version into the
// store. Re-running it with unchanged external inputs leaves the database in
// the same state.
type Ingestor struct {
	opts Options
}

// New creates an Ingestor.
func New(opts Options) *Ingestor {
	return &Ingestor{opts: opts.WithDefaults()}
}

// Matches `Name <email>` with the email part optional. Kept permissive on
// purpose: anything before the first angle bracket is the name.
var authorPattern = regexp.MustCompile(`^([^><]+)<*(.*?)>*$`)

// RegisterRelease ingests one (name, version) pair: manifest data from a
// synced or freshly fetched source tree, release metadata and owners from
// the registry API, and build/rustdoc status from on-disk build evidence.
// All database writes happen in one transaction.
//
// Malformed author strings and registry owners without a login are skipped
// silently, and re-linking an existing relationship is a no-op. Every other
// failure aborts the call with a typed error and no database changes.
func (ing *Ingestor) RegisterRelease(ctx context.Context, name, version string) error {
	ing.opts.Logger("ingesting %s-%s", name, version)

	info, err := ing.manifestInfo(ctx, name, version)
	if err != nil {
		return err
	}
	meta, err := ing.releaseMeta(ctx, name, version)
	if err != nil {
		return err
	}
	owners, err := ing.opts.Registry.Owners(ctx, name)
	if err != nil {
		return err
	}
	buildStatus, rustdocStatus := ing.buildEvidence(name, version, info.TargetName)

	deps := make([][2]string, 0, len(info.Dependencies))
	for _, d := range info.Dependencies {
		deps = append(deps, [2]string{d.Name, d.Req})
	}

	rel := &store.Release{
		Version:         info.Version,
		ReleaseTime:     meta.releaseTime,
		Dependencies:    deps,
		Yanked:          meta.yanked,
		BuildStatus:     buildStatus,
		RustdocStatus:   rustdocStatus,
		TestStatus:      0, // test runs are not recorded
		License:         info.License,
		Repository:      info.Repository,
		Homepage:        info.Homepage,
		Description:     info.Description,
		DescriptionLong: info.Rustdoc,
		Readme:          info.Readme,
		Authors:         info.Authors,
		Keywords:        info.Keywords,
		HaveExamples:    info.HaveExamples,
		Downloads:       meta.downloads,
	}

	return ing.opts.Store.WithTx(ctx, func(tx *store.Tx) error {
		crateID, err := tx.EnsureCrate(ctx, name)
		if err != nil {
			return err
		}
		rel.CrateID = crateID
		releaseID, err := tx.UpsertRelease(ctx, rel)
		if err != nil {
			return err
		}

		for _, keyword := range info.Keywords {
			kid, err := tx.EnsureKeyword(ctx, keyword, slug.Make(keyword))
			if err != nil {
				return err
			}
			if err := tx.LinkKeyword(ctx, releaseID, kid); err != nil {
				return err
			}
		}

		for _, raw := range info.Authors {
			authorName, authorEmail, ok := parseAuthor(raw)
			if !ok {
				ing.opts.Logger("skipping unparseable author %q", raw)
				continue
			}
			aid, err := tx.EnsureAuthor(ctx, authorName, authorEmail, slug.Make(authorName))
			if err != nil {
				return err
			}
			if err := tx.LinkAuthor(ctx, releaseID, aid); err != nil {
				return err
			}
		}

		for _, o := range owners {
			if o.Login == "" {
				continue
			}
			oid, err := tx.EnsureOwner(ctx, store.Owner{
				Login:  o.Login,
				Slug:   slug.Make(o.Name),
				Avatar: o.Avatar,
				Name:   o.Name,
				Email:  o.Email,
			})
			if err != nil {
				return err
			}
			if err := tx.LinkOwner(ctx, crateID, oid); err != nil {
				return err
			}
		}

		return tx.AppendVersion(ctx, crateID, version)
	})
}

// manifestInfo reads the version's manifest from the synced source tree when
// one exists, and otherwise fetches and extracts the archive into the
// workdir, reads it, and removes both again.
func (ing *Ingestor) manifestInfo(ctx context.Context, name, version string) (*manifest.Info, error) {
	synced := filepath.Join(ing.opts.SourcesDir, name, version)
	if _, err := os.Stat(synced); err == nil {
		ing.opts.Logger("reading synced sources for %s-%s", name, version)
		return manifest.Load(synced)
	}

	ing.opts.Logger("fetching sources for %s-%s", name, version)
	archivePath, err := ing.opts.Fetcher.FetchArchive(ctx, name, version, ing.opts.WorkDir)
	if err != nil {
		return nil, err
	}
	if err := archive.Extract(archivePath, ing.opts.WorkDir); err != nil {
		return nil, err
	}
	dir := filepath.Join(ing.opts.WorkDir, name+"-"+version)
	info, err := manifest.Load(dir)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(archivePath); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "remove %s", archivePath)
	}
	if err := os.RemoveAll(dir); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "remove %s", dir)
	}
	return info, nil
}

type releaseMeta struct {
	releaseTime *time.Time
	yanked      *bool
	downloads   *int
}

// releaseMeta looks the exact version up in the registry's version array.
// A version the registry does not know leaves all fields unset.
func (ing *Ingestor) releaseMeta(ctx context.Context, name, version string) (releaseMeta, error) {
	versions, err := ing.opts.Registry.Versions(ctx, name)
	if err != nil {
		return releaseMeta{}, err
	}
	var meta releaseMeta
	for _, v := range versions {
		if v.Num != version {
			continue
		}
		meta.releaseTime = v.CreatedAt
		yanked := v.Yanked
		meta.yanked = &yanked
		downloads := v.Downloads
		meta.downloads = &downloads
		break
	}
	return meta, nil
}

// buildEvidence classifies the build outcome from filesystem evidence: a
// build log plus a documentation directory means success, a log alone means
// failure, neither means the version was never tried. The rustdoc flag
// reports whether documentation for the primary build target exists.
func (ing *Ingestor) buildEvidence(name, version, targetName string) (buildStatus, rustdocStatus int) {
	logPath := filepath.Join(ing.opts.LogsDir, name, name+"-"+version+".log")
	docPath := filepath.Join(ing.opts.DestinationDir, name, version)

	haveLog := exists(logPath)
	haveDoc := exists(docPath)
	switch {
	case haveLog && haveDoc:
		buildStatus = 1
	case haveLog && !haveDoc:
		buildStatus = -1
	}
	if exists(filepath.Join(docPath, targetName)) {
		rustdocStatus = 1
	}
	return buildStatus, rustdocStatus
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func parseAuthor(raw string) (name, email string, ok bool) {
	m := authorPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}
