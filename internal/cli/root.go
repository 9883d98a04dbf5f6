package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/docyard/docyard/pkg/buildinfo"
)

// Execute runs the docyard CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The given context bounds every command; cancelling it (for example from a
// signal handler) stops long-running builds and workers.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd builds the command tree and wires logging.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func newRootCmd() *cobra.Command {
	var (
		verbose bool
		dataDir string
	)

	root := &cobra.Command{
		Use:          appName,
		Short:        "Docyard builds and serves crate documentation",
		Long:         `Docyard builds rustdoc documentation for published crate versions from a mirrored registry index, records build results and release metadata in a relational store, and serves the results over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\n", appName, buildinfo.Version, buildinfo.Commit, buildinfo.Date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "root directory for index, sources, logs and docs (default $DOCYARD_DATA_DIR)")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newWorldCmd())
	root.AddCommand(newIngestCmd())
	root.AddCommand(newQueueCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newCompletionCmd())

	return root
}
