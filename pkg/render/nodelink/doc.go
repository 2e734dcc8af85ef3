// Package nodelink renders a flow diagram as a Graphviz node-link graph.
//
// Instead of the fixed two-column geometry of [flow.Build], Graphviz places
// the nodes. Sources stay on the left rank and targets on the right
// (rankdir=LR), and edge thickness follows the same stroke-width rule as
// the SVG diagram so the two views stay comparable.
//
//	dot := nodelink.ToDOT(layout, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: node labels include the node value and unit
//   - Hover: the named edge is drawn at highlight opacity, others dimmed
//
// # Dependencies
//
// [RenderSVG] uses [github.com/goccy/go-graphviz] to lay out and render
// in-process, so no Graphviz installation is required.
//
// [flow.Build]: github.com/matzehuels/qadash/pkg/render/flow.Build
package nodelink
