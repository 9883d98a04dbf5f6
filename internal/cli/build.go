package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

// newBuildCmd creates the build command for documenting one crate version.
func newBuildCmd() *cobra.Command {
	var (
		skipExisting bool
		noCache      bool
	)

	cmd := &cobra.Command{
		Use:   "build <crate> [version]",
		Short: "Build documentation for one crate version",
		Long: `Build rustdoc documentation for a published crate version.

The version may be exact ("1.0.219"), a prefix ("1.0"), or omitted to build
the latest release. The build log is kept whether the build succeeds or not;
a successful build leaves the rendered documentation and a synced copy of
the sources under the data directory.

When DOCYARD_DATABASE_URL is set the release metadata is ingested after the
build, and when DOCYARD_S3_BUCKET is set the documentation is uploaded.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := ""
			if len(args) == 2 {
				version = args[1]
			}
			return runBuild(cmd, args[0], version, skipExisting, noCache)
		},
	}

	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "skip the build when the documentation already exists")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the archive download cache")

	return cmd
}

// runBuild resolves the version, runs the build pipeline, and ingests the
// release when a database is configured.
func runBuild(cmd *cobra.Command, name, version string, skipExisting, noCache bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	deps, err := newBuildDeps(cmd, skipExisting, noCache, logger.Debugf)
	if err != nil {
		return err
	}
	defer deps.close()

	resolved, err := resolveVersion(deps.paths.Index, name, version)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Building %s-%s...", name, resolved))
	spinner.Start()

	if err := deps.builder.BuildPackage(ctx, name, resolved); err != nil {
		spinner.StopWithError(fmt.Sprintf("Build of %s-%s failed", name, resolved))
		printDetail("Log: %s", filepath.Join(deps.paths.Logs, name, name+"-"+resolved+".log"))
		return err
	}
	if err := deps.builder.Ingest(ctx, name, resolved); err != nil {
		spinner.StopWithError(fmt.Sprintf("Metadata ingest of %s-%s failed", name, resolved))
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Documented %s-%s", name, resolved))

	printFile(filepath.Join(deps.paths.Docs, name, resolved))
	printNextStep("Browse the metadata", appName+" serve")
	return nil
}
