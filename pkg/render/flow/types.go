package flow

import "github.com/matzehuels/qadash/pkg/render/hover"

// Node is a labeled category positioned in one of the two columns.
type Node struct {
	ID    string  `json:"id" toml:"id"`
	Label string  `json:"label" toml:"label"`
	Value float64 `json:"value" toml:"value"`
	Color string  `json:"color" toml:"color"` // any SVG paint token, passed through
}

// DisplayLabel returns the label, falling back to the ID.
func (n Node) DisplayLabel() string {
	if n.Label == "" {
		return n.ID
	}
	return n.Label
}

// Edge is a weighted connection from a source node to a target node.
type Edge struct {
	Source string  `json:"source" toml:"source"`
	Target string  `json:"target" toml:"target"`
	Value  float64 `json:"value" toml:"value"`
}

// ID returns the hover identifier "<source>-<target>".
func (e Edge) ID() string { return e.Source + "-" + e.Target }

// Diagram is the caller-supplied input to [Build].
type Diagram struct {
	Title   string `json:"title,omitempty" toml:"title"`
	Sources []Node `json:"sources" toml:"sources"`
	Targets []Node `json:"targets" toml:"targets"`
	Edges   []Edge `json:"edges" toml:"edges"`

	// Total is the flow value that maps to full stroke scale. It is
	// supplied by the caller; zero degrades every edge to the minimum width.
	Total float64 `json:"total" toml:"total"`

	// Unit labels values in node captions and edge titles (e.g. "errors").
	Unit string `json:"unit,omitempty" toml:"unit"`

	SourceHeading string `json:"source_heading,omitempty" toml:"source_heading"`
	TargetHeading string `json:"target_heading,omitempty" toml:"target_heading"`
}

// SumEdges returns the sum of all edge values. Callers that have no
// externally known total can pass this as [Diagram.Total].
func SumEdges(edges []Edge) float64 {
	var sum float64
	for _, e := range edges {
		sum += e.Value
	}
	return sum
}

// LayoutNode is a Node with the top-left corner of its box.
// It is valid only for the layout that produced it.
type LayoutNode struct {
	Node
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HoverState identifies at most one highlighted edge by [Edge.ID].
type HoverState = hover.State[string]
