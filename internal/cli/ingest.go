package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docyard/docyard/pkg/core/ingest"
	derrors "github.com/docyard/docyard/pkg/errors"
	"github.com/docyard/docyard/pkg/httputil"
	"github.com/docyard/docyard/pkg/integrations/artifacts"
	"github.com/docyard/docyard/pkg/integrations/registry"
	"github.com/docyard/docyard/pkg/store"
)

// newIngestCmd creates the ingest command for recording metadata without
// building.
func newIngestCmd() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "ingest <crate> [version]",
		Short: "Record release metadata without building",
		Long: `Ingest the metadata of a published crate version into the database.

The manifest is read from the synced sources of an earlier build when they
exist, and otherwise from a freshly fetched archive. Release and owner data
come from the registry API, and the build status is classified from the
on-disk build log and documentation. All writes happen in one transaction.

Requires DOCYARD_DATABASE_URL.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := ""
			if len(args) == 2 {
				version = args[1]
			}
			return runIngest(cmd, args[0], version, noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the archive download cache")

	return cmd
}

func runIngest(cmd *cobra.Command, name, version string, noCache bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	dsn := envOr("DATABASE_URL", "")
	if dsn == "" {
		return derrors.New(derrors.ErrCodeInvalidInput, "ingest needs a database (set DOCYARD_DATABASE_URL)")
	}
	st, err := store.Open(dsn)
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := resolvePaths(dataDirFlag(cmd))
	if err != nil {
		return derrors.Wrap(derrors.ErrCodeFilesystem, err, "resolve data directory")
	}
	resolved, err := resolveVersion(p.Index, name, version)
	if err != nil {
		return err
	}

	var archiveCache *httputil.Cache
	if !noCache {
		dir, err := cacheDir()
		if err == nil {
			archiveCache, _ = httputil.NewCache(dir, 0)
		}
	}

	ing := ingest.New(ingest.Options{
		SourcesDir:     p.Sources,
		WorkDir:        p.Work,
		LogsDir:        p.Logs,
		DestinationDir: p.Docs,
		Fetcher:        artifacts.NewClient(envOr("ARTIFACT_HOST", ""), archiveCache),
		Registry:       registry.NewClient(envOr("REGISTRY_API", "")),
		Store:          st,
		Logger:         logger.Debugf,
	})

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Ingesting %s-%s...", name, resolved))
	spinner.Start()
	if err := ing.RegisterRelease(ctx, name, resolved); err != nil {
		spinner.StopWithError(fmt.Sprintf("Ingest of %s-%s failed", name, resolved))
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Ingested %s-%s", name, resolved))

	rel, err := st.GetRelease(ctx, name, resolved)
	if err != nil {
		return err
	}
	printNewline()
	printKeyValue("Crate", name)
	printKeyValue("Version", rel.Version)
	printKeyValue("Build", statusLabel(rel.BuildStatus))
	printKeyValue("Rustdoc", statusLabel(rel.RustdocStatus))
	if rel.License != nil {
		printKeyValue("License", *rel.License)
	}
	return nil
}
