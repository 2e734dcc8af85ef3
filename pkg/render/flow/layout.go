package flow

import (
	"fmt"
	"strconv"
)

// Geometry fixes the column positions and box sizes of a diagram.
type Geometry struct {
	LeftX         float64 `json:"left_x" toml:"left_x"`
	RightX        float64 `json:"right_x" toml:"right_x"`
	NodeWidth     float64 `json:"node_width" toml:"node_width"`
	NodeHeight    float64 `json:"node_height" toml:"node_height"`
	RowSpacing    float64 `json:"row_spacing" toml:"row_spacing"`
	SourceOffsetY float64 `json:"source_offset_y" toml:"source_offset_y"`
	TargetOffsetY float64 `json:"target_offset_y" toml:"target_offset_y"`
	ViewWidth     float64 `json:"view_width" toml:"view_width"`
	ViewHeight    float64 `json:"view_height" toml:"view_height"`
}

// DefaultGeometry returns the 800x500 two-column arrangement: 120x40
// boxes at x=50 and x=650, rows 60 apart, the target column raised 20px.
func DefaultGeometry() Geometry {
	return Geometry{
		LeftX:         50,
		RightX:        650,
		NodeWidth:     120,
		NodeHeight:    40,
		RowSpacing:    60,
		SourceOffsetY: 50,
		TargetOffsetY: 30,
		ViewWidth:     800,
		ViewHeight:    500,
	}
}

// ColumnPositions places nodes in one column. Every node gets x = columnX
// and y = baseOffsetY + index*rowSpacing, in input order.
func ColumnPositions(nodes []Node, columnX, baseOffsetY, rowSpacing float64) []LayoutNode {
	out := make([]LayoutNode, len(nodes))
	for i, n := range nodes {
		out[i] = LayoutNode{
			Node: n,
			X:    columnX,
			Y:    baseOffsetY + float64(i)*rowSpacing,
		}
	}
	return out
}

// LayoutEdge is an edge whose endpoints both resolved to positioned nodes.
type LayoutEdge struct {
	Edge
	ID    string `json:"id"`
	Path  Path   `json:"path"`
	Color string `json:"color"`
	Title string `json:"title"`
}

// Layout is the renderable geometry of a diagram.
type Layout struct {
	Geometry Geometry     `json:"geometry"`
	Style    Style        `json:"style"`
	Total    float64      `json:"total"`
	Unit     string       `json:"unit,omitempty"`
	Sources  []LayoutNode `json:"sources"`
	Targets  []LayoutNode `json:"targets"`
	Edges    []LayoutEdge `json:"edges"`
	Dropped  int          `json:"dropped,omitempty"` // edges with a missing endpoint

	SourceHeading string `json:"source_heading,omitempty"`
	TargetHeading string `json:"target_heading,omitempty"`
}

// Option configures [Build].
type Option func(*builder)

type builder struct {
	geometry Geometry
	style    Style
}

// WithGeometry overrides [DefaultGeometry].
func WithGeometry(g Geometry) Option { return func(b *builder) { b.geometry = g } }

// WithStyle overrides [DefaultStyle].
func WithStyle(s Style) Option { return func(b *builder) { b.style = s } }

// Build positions both columns and resolves every edge whose endpoints
// exist. Edges referencing an unknown node are counted in Dropped and
// otherwise ignored. Build has no error conditions.
func Build(d Diagram, opts ...Option) Layout {
	b := builder{geometry: DefaultGeometry(), style: DefaultStyle()}
	for _, opt := range opts {
		opt(&b)
	}
	g := b.geometry

	l := Layout{
		Geometry:      g,
		Style:         b.style,
		Total:         d.Total,
		Unit:          d.Unit,
		Sources:       ColumnPositions(d.Sources, g.LeftX, g.SourceOffsetY, g.RowSpacing),
		Targets:       ColumnPositions(d.Targets, g.RightX, g.TargetOffsetY, g.RowSpacing),
		SourceHeading: d.SourceHeading,
		TargetHeading: d.TargetHeading,
	}

	srcIdx := indexByID(l.Sources)
	dstIdx := indexByID(l.Targets)

	l.Edges = make([]LayoutEdge, 0, len(d.Edges))
	for _, e := range d.Edges {
		si, okS := srcIdx[e.Source]
		di, okD := dstIdx[e.Target]
		if !okS || !okD {
			l.Dropped++
			continue
		}
		src, dst := l.Sources[si], l.Targets[di]
		l.Edges = append(l.Edges, LayoutEdge{
			Edge:  e,
			ID:    e.ID(),
			Path:  EdgePath(src, dst, g.NodeWidth, g.NodeHeight),
			Color: src.Color,
			Title: edgeTitle(src, dst, e.Value, d.Unit),
		})
	}
	return l
}

// indexByID maps node IDs to their index. The first occurrence of a
// duplicate ID wins.
func indexByID(nodes []LayoutNode) map[string]int {
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, dup := idx[n.ID]; !dup {
			idx[n.ID] = i
		}
	}
	return idx
}

func edgeTitle(src, dst LayoutNode, value float64, unit string) string {
	t := fmt.Sprintf("%s → %s: %s", src.DisplayLabel(), dst.DisplayLabel(), FormatValue(value))
	if unit != "" {
		t += " " + unit
	}
	return t
}

// FormatValue renders a flow value without trailing zeros.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// EdgeScene is a layout edge with visuals resolved for one hover state.
type EdgeScene struct {
	LayoutEdge
	Visuals
}

// Scene resolves visuals for every rendered edge under hover.
// Edge order matches [Layout.Edges].
func (l Layout) Scene(hover HoverState) []EdgeScene {
	out := make([]EdgeScene, len(l.Edges))
	for i, e := range l.Edges {
		out[i] = EdgeScene{LayoutEdge: e, Visuals: l.Style.Resolve(e.Edge, l.Total, hover)}
	}
	return out
}

// HasEdge reports whether id names a rendered edge.
func (l Layout) HasEdge(id string) bool {
	for _, e := range l.Edges {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Empty reports whether there is nothing to draw.
func (l Layout) Empty() bool {
	return len(l.Sources) == 0 && len(l.Targets) == 0
}
