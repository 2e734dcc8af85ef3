package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/qadash/pkg/render/flow"
)

// Options configures node-link diagram generation.
type Options struct {
	// Detailed adds the node value to every label.
	Detailed bool

	// Hover highlights one edge by ID. Empty means idle.
	Hover string
}

// penScale converts SVG stroke widths to Graphviz points.
const penScale = 0.25

// ToDOT converts a flow layout to Graphviz DOT source. Dropped edges are
// absent from the layout and therefore from the graph.
func ToDOT(l flow.Layout, opts Options) string {
	var hov flow.HoverState
	if opts.Hover != "" {
		hov.Enter(opts.Hover)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontcolor=white, fontname=\"Helvetica\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("  ranksep=3;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	writeRank(&buf, "sources", "src:", l.Sources, l.Unit, opts.Detailed)
	writeRank(&buf, "targets", "dst:", l.Targets, l.Unit, opts.Detailed)

	buf.WriteString("\n")
	for _, e := range l.Scene(hov) {
		attrs := []string{
			fmt.Sprintf("penwidth=%s", fmtFloat(math.Max(1, e.StrokeWidth*penScale))),
			fmt.Sprintf("color=%q", withAlpha(e.Color, e.Opacity)),
			fmt.Sprintf("tooltip=%q", e.Title),
			fmt.Sprintf("id=%q", "edge-"+e.ID),
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", "src:"+e.Source, "dst:"+e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// writeRank emits one column as a same-rank subgraph. Node names are
// prefixed so a source and target sharing an ID stay distinct.
func writeRank(buf *bytes.Buffer, name, prefix string, nodes []flow.LayoutNode, unit string, detailed bool) {
	fmt.Fprintf(buf, "  subgraph %s {\n    rank=same;\n", name)
	for _, n := range nodes {
		fmt.Fprintf(buf, "    %q [label=%q, fillcolor=%q];\n", prefix+n.ID, fmtLabel(n, unit, detailed), n.Color)
	}
	buf.WriteString("  }\n")
}

func fmtLabel(n flow.LayoutNode, unit string, detailed bool) string {
	label := n.DisplayLabel()
	if !detailed {
		return label
	}
	v := flow.FormatValue(n.Value)
	if unit != "" {
		v += " " + unit
	}
	return label + "\n" + v
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// withAlpha appends an alpha channel to #rrggbb colors. Other color names
// pass through unchanged.
func withAlpha(color string, opacity float64) string {
	if !hexColorRe.MatchString(color) {
		return color
	}
	a := int(math.Round(math.Max(0, math.Min(1, opacity)) * 255))
	return fmt.Sprintf("%s%02x", color, a)
}

// RenderSVG lays out and renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz pt-sized root element with a
// unitless one so the graph scales like the other charts.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
