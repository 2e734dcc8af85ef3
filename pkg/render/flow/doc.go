// Package flow computes geometry for two-column flow (Sankey) diagrams.
//
// # Overview
//
// A flow diagram has a column of source nodes on the left, a column of
// target nodes on the right, and weighted edges between them. Each edge
// is drawn as a symmetric cubic S-curve whose stroke width encodes its
// value. This package produces positions, curve geometry and visual
// attributes; the [sink] package turns them into SVG.
//
// # Layout
//
// Nodes are stacked in caller order, never re-sorted:
//
//	y = baseOffsetY + index*rowSpacing
//
// There is no collision resolution and no dynamic height. Edges attach at
// the vertical midpoint of each fixed-size node box. Edges that reference
// an unknown node are dropped without error.
//
//	l := flow.Build(diagram, flow.WithGeometry(flow.DefaultGeometry()))
//	for _, e := range l.Scene(flow.HoverState{}) {
//	    fmt.Println(e.ID, e.Path.D(), e.StrokeWidth, e.Opacity)
//	}
//
// # Visual encoding
//
// Stroke width is proportional to value/total with a visibility floor.
// Opacity has three levels: a baseline when nothing is hovered, and a
// highlight/dim pair when one edge is hovered. See [Style].
//
// [sink]: github.com/matzehuels/qadash/pkg/render/sink
package flow
