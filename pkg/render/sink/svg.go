package sink

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgConfig)

type svgConfig struct {
	hover       string
	hoverCell   *cellRef
	interactive bool
	title       string
}

type cellRef struct{ market, category string }

// WithHover renders the flow edge with this id highlighted.
func WithHover(edgeID string) SVGOption { return func(c *svgConfig) { c.hover = edgeID } }

// WithHoverCell renders the heatmap cell (market, category) highlighted.
func WithHoverCell(market, category string) SVGOption {
	return func(c *svgConfig) { c.hoverCell = &cellRef{market, category} }
}

// WithInteraction embeds pointer handlers for client-side hover.
func WithInteraction() SVGOption { return func(c *svgConfig) { c.interactive = true } }

// WithTitle adds a heading above the diagram.
func WithTitle(s string) SVGOption { return func(c *svgConfig) { c.title = s } }

func newSVGConfig(opts ...SVGOption) svgConfig {
	var c svgConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

const titleMargin = 32.0 // vertical space reserved for WithTitle

func openSVG(buf *bytes.Buffer, width, height float64) {
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" font-family="Inter, sans-serif">`+"\n",
		width, height, width, height)
}

func renderTitle(buf *bytes.Buffer, title string) {
	fmt.Fprintf(buf, `  <text x="0" y="20" font-size="16" font-weight="bold" fill="#18181b">%s</text>`+"\n", EscapeXML(title))
}

// EscapeXML escapes s for use in SVG text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// RenderJSON serializes v with two-space indentation.
func RenderJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
