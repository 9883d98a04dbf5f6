// Package render turns index dependency data into viewable graphs.
//
// [FromIndex] walks a package's dependency entries breadth-first,
// resolving each requirement against the dependency's own index record;
// requirements that cannot be resolved stay in the graph as dashed leaf
// nodes rather than failing the traversal. [ToDOT] emits Graphviz DOT,
// [RenderSVG] renders it in-process, and [ToJSON] exports the raw graph
// for other tooling.
//
//	g, err := render.FromIndex(indexDir, "tokio", "", 2)
//	svg, err := render.RenderSVG(ctx, render.ToDOT(g))
package render
