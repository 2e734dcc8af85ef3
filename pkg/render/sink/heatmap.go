package sink

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/qadash/pkg/render/heatmap"
)

// HeatmapPalette holds one fill per intensity level, lightest first.
var HeatmapPalette = [heatmap.Levels]string{
	"#f4f4f5", // empty
	"#fee2e2",
	"#fecaca",
	"#fca5a5",
	"#f87171",
	"#ef4444",
}

const (
	ringColor   = "#2563eb"
	legendH     = 40.0
	cellRadius  = 4.0
	headerAngle = -45.0
)

var legendEntries = []struct {
	level int
	label string
}{
	{0, "0"}, {2, "Low"}, {4, "Medium"}, {5, "High"},
}

const heatmapInteractionCSS = `
    .heat-cell { cursor: pointer; }
    .heat-cell rect { transition: stroke-width 0.15s ease; }
    .heat-cell:hover rect, .heat-cell.hovered rect { stroke: ` + ringColor + `; stroke-width: 2; }`

const heatmapInteractionJS = `
    (function () {
      document.querySelectorAll('.heat-cell').forEach(function (c) {
        c.addEventListener('mouseenter', function () { c.classList.add('hovered'); });
        c.addEventListener('mouseleave', function () { c.classList.remove('hovered'); });
      });
    })();`

// RenderHeatmapSVG renders l as a standalone SVG document with a legend.
func RenderHeatmapSVG(l heatmap.Layout, opts ...SVGOption) []byte {
	c := newSVGConfig(opts...)

	var hov heatmap.HoverState
	if c.hoverCell != nil {
		hov.Enter(heatmap.Key{Market: c.hoverCell.market, Category: c.hoverCell.category})
	}

	offsetY := 0.0
	if c.title != "" {
		offsetY = titleMargin
	}

	var buf bytes.Buffer
	openSVG(&buf, l.Width, l.Height+legendH+offsetY)
	if c.interactive {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", heatmapInteractionCSS)
	}
	if c.title != "" {
		renderTitle(&buf, c.title)
	}

	fmt.Fprintf(&buf, `  <g transform="translate(0, %.1f)">`+"\n", offsetY)
	renderHeatmapHeaders(&buf, l)
	renderHeatmapRows(&buf, l)
	renderHeatmapCells(&buf, l, hov)
	renderHeatmapLegend(&buf, l)
	buf.WriteString("  </g>\n")

	if c.interactive {
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", heatmapInteractionJS)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderHeatmapHeaders(buf *bytes.Buffer, l heatmap.Layout) {
	for _, col := range l.Columns {
		fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" transform="rotate(%.0f %.2f %.2f)" font-size="11" font-weight="600" fill="#18181b">%s</text>`+"\n",
			col.X, col.Y, headerAngle, col.X, col.Y, EscapeXML(col.Label))
	}
}

func renderHeatmapRows(buf *bytes.Buffer, l heatmap.Layout) {
	for _, row := range l.Rows {
		fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" dominant-baseline="middle" font-size="13" font-weight="500" fill="#18181b">%s</text>`+"\n",
			row.X, row.Y, EscapeXML(row.Label))
	}
}

func renderHeatmapCells(buf *bytes.Buffer, l heatmap.Layout, hov heatmap.HoverState) {
	for _, cell := range l.Cells {
		class := "heat-cell"
		stroke := ""
		if hov.Is(cell.Key()) {
			class += " hovered"
			stroke = fmt.Sprintf(` stroke="%s" stroke-width="2"`, ringColor)
		}
		fmt.Fprintf(buf, `    <g class="%s" data-market="%s" data-category="%s">`+"\n",
			class, EscapeXML(cell.Market), EscapeXML(cell.Category))
		fmt.Fprintf(buf, `      <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.0f" fill="%s"%s/>`+"\n",
			cell.X, cell.Y, cell.W, cell.H, cellRadius, HeatmapPalette[cell.Level], stroke)
		fmt.Fprintf(buf, "      <title>%s • %s: %d errors</title>\n",
			EscapeXML(cell.Market), EscapeXML(heatmap.HeaderLabel(cell.Category)), cell.Count)
		if cell.Label != "" {
			fmt.Fprintf(buf, `      <text x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="middle" font-size="13" font-weight="bold" fill="#18181b">%s</text>`+"\n",
				cell.X+cell.W/2, cell.Y+cell.H/2, cell.Label)
		}
		buf.WriteString("    </g>\n")
	}
}

func renderHeatmapLegend(buf *bytes.Buffer, l heatmap.Layout) {
	y := l.Height + legendH/2
	fmt.Fprintf(buf, `    <text x="0" y="%.2f" dominant-baseline="middle" font-size="11" fill="#71717a">Error Intensity:</text>`+"\n", y)
	x := 100.0
	for _, e := range legendEntries {
		fmt.Fprintf(buf, `    <rect x="%.2f" y="%.2f" width="32" height="16" rx="3" fill="%s"/>`+"\n", x, y-8, HeatmapPalette[e.level])
		fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" dominant-baseline="middle" font-size="11" fill="#71717a">%s</text>`+"\n", x+38, y, e.label)
		x += 100
	}
}
