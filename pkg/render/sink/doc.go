// Package sink turns computed layouts into output formats.
//
// # SVG Output
//
// [RenderFlowSVG] draws a flow diagram: curved edges first, then node
// boxes with their captions, then the column headings. [RenderHeatmapSVG]
// draws the error grid with a legend.
//
//	svg := sink.RenderFlowSVG(layout,
//	    sink.WithHover("NON_VIOLATING-ARABIC"),
//	    sink.WithInteraction(),
//	)
//
// # SVG Options
//
//   - [WithHover]: Render with one element already highlighted
//   - [WithInteraction]: Embed CSS and script that re-apply hover emphasis
//     in the browser using the same opacity constants as the layout
//   - [WithTitle]: Add a title line above the diagram
//
// # JSON Output
//
// [RenderJSON] serializes any layout with indentation.
package sink
