package cli

import (
	"os"

	"github.com/spf13/cobra"

	derrors "github.com/docyard/docyard/pkg/errors"
	"github.com/docyard/docyard/pkg/render"
)

// newGraphCmd creates the graph command for dependency graph rendering.
func newGraphCmd() *cobra.Command {
	var (
		format string
		depth  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "graph <crate> [version]",
		Short: "Render a crate's dependency graph",
		Long: `Resolve the dependency graph of a crate version against the local index
and render it as Graphviz DOT, JSON, or SVG.

Requirements that cannot be resolved against the index (missing index files,
range requirements) appear as unresolved leaf nodes.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := ""
			if len(args) == 2 {
				version = args[1]
			}
			return runGraph(cmd, args[0], version, format, depth, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot, json, svg")
	cmd.Flags().IntVar(&depth, "depth", 0, "maximum resolution depth (0 = unlimited)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func runGraph(cmd *cobra.Command, name, version, format string, depth int, output string) error {
	ctx := cmd.Context()

	p, err := resolvePaths(dataDirFlag(cmd))
	if err != nil {
		return derrors.Wrap(derrors.ErrCodeFilesystem, err, "resolve data directory")
	}

	g, err := render.FromIndex(p.Index, name, version, depth)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "dot":
		data = []byte(render.ToDOT(g))
	case "json":
		if data, err = render.ToJSON(g); err != nil {
			return err
		}
	case "svg":
		spinner := newSpinnerWithContext(ctx, "Rendering graph...")
		spinner.Start()
		data, err = render.RenderSVG(ctx, render.ToDOT(g))
		spinner.Stop()
		if err != nil {
			return err
		}
	default:
		return derrors.New(derrors.ErrCodeInvalidInput, "unknown format %q (want dot, json, or svg)", format)
	}

	if output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return derrors.Wrap(derrors.ErrCodeFilesystem, err, "write %s", output)
	}
	printStats(len(g.Nodes()), len(g.Edges()))
	printFile(output)
	return nil
}
