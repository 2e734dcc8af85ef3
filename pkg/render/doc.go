// Package render groups the qadash chart renderers.
//
// [flow] computes the two-column flow diagram, [heatmap] the error grid,
// and [sink] turns either into SVG or JSON. [nodelink] re-expresses the
// flow as a Graphviz digraph. The [hover] package holds the hover state
// shared by both interactive charts.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any rendered SVG using the external
// rsvg-convert tool from librsvg:
//
//	svg := sink.RenderFlowSVG(layout)
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// [flow]: github.com/matzehuels/qadash/pkg/render/flow
// [heatmap]: github.com/matzehuels/qadash/pkg/render/heatmap
// [sink]: github.com/matzehuels/qadash/pkg/render/sink
// [nodelink]: github.com/matzehuels/qadash/pkg/render/nodelink
// [hover]: github.com/matzehuels/qadash/pkg/render/hover
package render
