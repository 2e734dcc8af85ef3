package flow

import "math"

// Style holds the visual-encoding constants. Whatever the values, one
// hovered edge is emphasized, the rest are de-emphasized, and no edge
// becomes invisible.
type Style struct {
	MinStrokeWidth   float64 `json:"min_stroke_width" toml:"min_stroke_width"`
	StrokeScale      float64 `json:"stroke_scale" toml:"stroke_scale"`
	BaselineOpacity  float64 `json:"baseline_opacity" toml:"baseline_opacity"`
	HighlightOpacity float64 `json:"highlight_opacity" toml:"highlight_opacity"`
	DimOpacity       float64 `json:"dim_opacity" toml:"dim_opacity"`
}

// DefaultStyle returns the standard encoding: a 2px floor, 100px at full
// flow, and opacities 0.3 (idle), 0.7 (hovered) and 0.1 (others).
func DefaultStyle() Style {
	return Style{
		MinStrokeWidth:   2,
		StrokeScale:      100,
		BaselineOpacity:  0.3,
		HighlightOpacity: 0.7,
		DimOpacity:       0.1,
	}
}

// Visuals are the derived rendering attributes of one edge.
type Visuals struct {
	StrokeWidth float64 `json:"stroke_width"`
	Opacity     float64 `json:"opacity"`
}

// StrokeWidth returns max(MinStrokeWidth, value/total*StrokeScale).
// A non-positive total or a NaN result yields MinStrokeWidth. An infinite
// result is clamped to the largest finite width, so width never falls as
// value grows.
func (s Style) StrokeWidth(value, total float64) float64 {
	if total <= 0 {
		return s.MinStrokeWidth
	}
	w := value * s.StrokeScale / total
	switch {
	case math.IsNaN(w) || math.IsInf(w, -1):
		return s.MinStrokeWidth
	case math.IsInf(w, 1):
		return math.MaxFloat64
	}
	return math.Max(s.MinStrokeWidth, w)
}

// Opacity returns the opacity of the edge with the given id under hover.
func (s Style) Opacity(id string, hover HoverState) float64 {
	if !hover.Active() {
		return s.BaselineOpacity
	}
	if hover.Is(id) {
		return s.HighlightOpacity
	}
	return s.DimOpacity
}

// Resolve derives stroke width and opacity for e.
func (s Style) Resolve(e Edge, total float64, hover HoverState) Visuals {
	return Visuals{
		StrokeWidth: s.StrokeWidth(e.Value, total),
		Opacity:     s.Opacity(e.ID(), hover),
	}
}
