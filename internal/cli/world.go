package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newWorldCmd creates the world command for documenting the whole index.
func newWorldCmd() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "world",
		Short: "Build documentation for every crate in the index",
		Long: `Walk the mirrored registry index and build the latest version of every
crate it lists. Versions that already have documentation are skipped, and a
crate that fails to build costs a log entry, not the run.

Per-crate progress is logged; run with --verbose for the full build output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorld(cmd, noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the archive download cache")

	return cmd
}

func runWorld(cmd *cobra.Command, noCache bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	// World builds always skip versions that are already documented, so an
	// interrupted run picks up where it left off.
	deps, err := newBuildDeps(cmd, true, noCache, logger.Infof)
	if err != nil {
		return err
	}
	defer deps.close()

	prog := newProgress(logger)
	built, failed, err := deps.builder.BuildWorld(ctx)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("World build finished: %d crate(s) documented", built))

	if failed > 0 {
		printWarning("%d crate(s) failed; see the build logs under %s", failed, deps.paths.Logs)
		return nil
	}
	printSuccess("All crates documented")
	return nil
}
