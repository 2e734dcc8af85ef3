package sink

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/qadash/pkg/render/flow"
)

const flowInteractionCSS = `
    .flow-edge { cursor: pointer; pointer-events: stroke; transition: opacity 0.3s ease; }
    .flow-node rect { transition: opacity 0.2s ease; }
    .flow-node:hover rect { opacity: 0.8; }
    .flow-label { pointer-events: none; }`

// flowInteractionJS mirrors flow.Style.Opacity: baseline when idle, one
// highlighted edge and the rest dimmed while hovering.
const flowInteractionJS = `
    (function () {
      var edges = document.querySelectorAll('.flow-edge');
      function apply(id) {
        edges.forEach(function (e) {
          var o = id === null ? %[1]g : (e.dataset.edge === id ? %[2]g : %[3]g);
          e.setAttribute('opacity', o);
        });
      }
      edges.forEach(function (e) {
        e.addEventListener('mouseenter', function () { apply(e.dataset.edge); });
        e.addEventListener('mouseleave', function () { apply(null); });
      });
    })();`

const (
	nodeCornerRadius = 8.0
	headingOffsetY   = 25.0
)

// RenderFlowSVG renders l as a standalone SVG document. An empty layout
// renders an empty canvas of the configured size.
func RenderFlowSVG(l flow.Layout, opts ...SVGOption) []byte {
	c := newSVGConfig(opts...)

	var hov flow.HoverState
	if c.hover != "" {
		hov.Enter(c.hover)
	}

	g := l.Geometry
	offsetY := 0.0
	if c.title != "" {
		offsetY = titleMargin
	}

	var buf bytes.Buffer
	openSVG(&buf, g.ViewWidth, g.ViewHeight+offsetY)
	if c.interactive {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", flowInteractionCSS)
	}
	if c.title != "" {
		renderTitle(&buf, c.title)
	}

	fmt.Fprintf(&buf, `  <g transform="translate(0, %.1f)">`+"\n", offsetY)
	renderFlowEdges(&buf, l.Scene(hov))
	renderFlowColumn(&buf, l.Sources, g, l.Unit, true)
	renderFlowColumn(&buf, l.Targets, g, l.Unit, false)
	renderFlowHeadings(&buf, l)
	buf.WriteString("  </g>\n")

	if c.interactive {
		js := fmt.Sprintf(flowInteractionJS, l.Style.BaselineOpacity, l.Style.HighlightOpacity, l.Style.DimOpacity)
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", js)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderFlowEdges(buf *bytes.Buffer, scene []flow.EdgeScene) {
	for _, e := range scene {
		id := EscapeXML(e.ID)
		fmt.Fprintf(buf, `    <path id="edge-%s" class="flow-edge" data-edge="%s" d="%s" fill="none" stroke="%s" stroke-width="%.2f" opacity="%g">`,
			id, id, e.Path.D(), EscapeXML(e.Color), e.StrokeWidth, e.Opacity)
		fmt.Fprintf(buf, "<title>%s</title></path>\n", EscapeXML(e.Title))
	}
}

func renderFlowColumn(buf *bytes.Buffer, nodes []flow.LayoutNode, g flow.Geometry, unit string, truncate bool) {
	for _, n := range nodes {
		label := n.DisplayLabel()
		if truncate {
			label = flow.TruncateLabel(label)
		}
		caption := flow.FormatValue(n.Value)
		if unit != "" {
			caption += " " + unit
		}
		cx := n.X + g.NodeWidth/2
		cy := n.Y + g.NodeHeight/2

		fmt.Fprintf(buf, `    <g class="flow-node" id="node-%s">`+"\n", EscapeXML(n.ID))
		fmt.Fprintf(buf, `      <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.0f" fill="%s"/>`+"\n",
			n.X, n.Y, g.NodeWidth, g.NodeHeight, nodeCornerRadius, EscapeXML(n.Color))
		fmt.Fprintf(buf, `      <text class="flow-label" x="%.2f" y="%.2f" text-anchor="middle" fill="white" font-size="11" font-weight="600">%s</text>`+"\n",
			cx, cy-5, EscapeXML(label))
		fmt.Fprintf(buf, `      <text class="flow-label" x="%.2f" y="%.2f" text-anchor="middle" fill="white" font-size="13" font-weight="bold">%s</text>`+"\n",
			cx, cy+10, EscapeXML(caption))
		buf.WriteString("    </g>\n")
	}
}

func renderFlowHeadings(buf *bytes.Buffer, l flow.Layout) {
	g := l.Geometry
	heading := func(x float64, text string) {
		if text == "" {
			return
		}
		fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" text-anchor="middle" font-size="14" font-weight="bold" fill="#71717a">%s</text>`+"\n",
			x+g.NodeWidth/2, headingOffsetY, EscapeXML(text))
	}
	heading(g.LeftX, l.SourceHeading)
	heading(g.RightX, l.TargetHeading)
}
