package flow

import "fmt"

// Point is a 2D coordinate in diagram space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path is a cubic Bézier curve from Start to End.
type Path struct {
	Start Point `json:"start"`
	C1    Point `json:"c1"`
	C2    Point `json:"c2"`
	End   Point `json:"end"`
}

// EdgePath returns the S-curve from the right-middle of src's box to the
// left-middle of dst's box. Both control points share the x midway between
// the two column origins, so the curve is symmetric regardless of the
// vertical distance between the boxes.
func EdgePath(src, dst LayoutNode, nodeWidth, nodeHeight float64) Path {
	srcMidY := src.Y + nodeHeight/2
	dstMidY := dst.Y + nodeHeight/2
	midX := (src.X + dst.X) / 2

	return Path{
		Start: Point{src.X + nodeWidth, srcMidY},
		C1:    Point{midX, srcMidY},
		C2:    Point{midX, dstMidY},
		End:   Point{dst.X, dstMidY},
	}
}

// D returns the SVG path data for p.
func (p Path) D() string {
	return fmt.Sprintf("M %.2f %.2f C %.2f %.2f, %.2f %.2f, %.2f %.2f",
		p.Start.X, p.Start.Y, p.C1.X, p.C1.Y, p.C2.X, p.C2.Y, p.End.X, p.End.Y)
}
