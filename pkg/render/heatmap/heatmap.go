// Package heatmap lays out a market-by-category error grid.
//
// Rows and columns keep caller order. A cell missing from the input reads
// as zero. Each cell is bucketed into one of six intensity levels relative
// to the grid maximum (see [Level]); hovering a cell rings it without
// affecting any other cell.
package heatmap

import (
	"strconv"
	"strings"

	"github.com/matzehuels/qadash/pkg/render/hover"
)

// Cell is one observed count.
type Cell struct {
	Market   string `json:"market" toml:"market"`
	Category string `json:"category" toml:"category"`
	Count    int    `json:"count" toml:"count"`
}

// Key identifies a cell for hover purposes.
type Key struct {
	Market   string `json:"market"`
	Category string `json:"category"`
}

// HoverState identifies at most one highlighted cell.
type HoverState = hover.State[Key]

// Grid is the caller-supplied input to [Build].
type Grid struct {
	Title      string   `json:"title,omitempty" toml:"title"`
	Markets    []string `json:"markets" toml:"markets"`
	Categories []string `json:"categories" toml:"categories"`
	Cells      []Cell   `json:"cells" toml:"cells"`

	// Max is the count mapped to full intensity. Zero means "use the
	// largest count in Cells".
	Max int `json:"max,omitempty" toml:"max"`
}

// Count returns the count at (market, category), or zero.
// When a pair appears more than once the first entry wins.
func (g Grid) Count(market, category string) int {
	for _, c := range g.Cells {
		if c.Market == market && c.Category == category {
			return c.Count
		}
	}
	return 0
}

// MaxCount returns the largest count in the grid, or zero.
func (g Grid) MaxCount() int {
	m := 0
	for _, c := range g.Cells {
		m = max(m, c.Count)
	}
	return m
}

// Levels is the number of intensity buckets, including the empty bucket 0.
const Levels = 6

// Level buckets count into 0..5. Zero (or negative) counts are level 0;
// otherwise the ratio count/max, capped at 1, is split at 0.2, 0.4, 0.6
// and 0.8. A non-positive max puts every non-zero count at the top level.
func Level(count, maxCount int) int {
	if count <= 0 {
		return 0
	}
	if maxCount <= 0 {
		return Levels - 1
	}
	r := min(float64(count)/float64(maxCount), 1)
	switch {
	case r < 0.2:
		return 1
	case r < 0.4:
		return 2
	case r < 0.6:
		return 3
	case r < 0.8:
		return 4
	default:
		return 5
	}
}

// HeaderLabel converts a category identifier to display text.
func HeaderLabel(category string) string {
	return strings.ReplaceAll(category, "_", " ")
}

// Geometry fixes the grid cell sizes and margins.
type Geometry struct {
	LabelWidth   float64 `json:"label_width" toml:"label_width"`
	HeaderHeight float64 `json:"header_height" toml:"header_height"`
	CellWidth    float64 `json:"cell_width" toml:"cell_width"`
	CellHeight   float64 `json:"cell_height" toml:"cell_height"`
	Gap          float64 `json:"gap" toml:"gap"`
}

// DefaultGeometry returns 100x48 cells beside a 160px label column.
func DefaultGeometry() Geometry {
	return Geometry{
		LabelWidth:   160,
		HeaderHeight: 110,
		CellWidth:    100,
		CellHeight:   48,
		Gap:          4,
	}
}

// LayoutCell is a positioned, bucketed cell.
type LayoutCell struct {
	Cell
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Level int     `json:"level"`
	Label string  `json:"label"` // empty for zero counts
}

// Key returns the hover key of c.
func (c LayoutCell) Key() Key { return Key{Market: c.Market, Category: c.Category} }

// Axis is a positioned row or column label.
type Axis struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Layout is the renderable heatmap.
type Layout struct {
	Geometry Geometry     `json:"geometry"`
	Max      int          `json:"max"`
	Rows     []Axis       `json:"rows"`
	Columns  []Axis       `json:"columns"`
	Cells    []LayoutCell `json:"cells"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
}

// Option configures [Build].
type Option func(*Geometry)

// WithGeometry overrides [DefaultGeometry].
func WithGeometry(g Geometry) Option { return func(dst *Geometry) { *dst = g } }

// Build positions every market × category pair, row-major.
func Build(g Grid, opts ...Option) Layout {
	geo := DefaultGeometry()
	for _, opt := range opts {
		opt(&geo)
	}

	maxCount := g.Max
	if maxCount <= 0 {
		maxCount = g.MaxCount()
	}

	pitchX := geo.CellWidth + geo.Gap
	pitchY := geo.CellHeight + geo.Gap

	l := Layout{
		Geometry: geo,
		Max:      maxCount,
		Rows:     make([]Axis, len(g.Markets)),
		Columns:  make([]Axis, len(g.Categories)),
		Cells:    make([]LayoutCell, 0, len(g.Markets)*len(g.Categories)),
		Width:    geo.LabelWidth + float64(len(g.Categories))*pitchX,
		Height:   geo.HeaderHeight + float64(len(g.Markets))*pitchY,
	}

	for j, cat := range g.Categories {
		l.Columns[j] = Axis{
			ID:    cat,
			Label: HeaderLabel(cat),
			X:     geo.LabelWidth + float64(j)*pitchX + geo.CellWidth/2,
			Y:     geo.HeaderHeight - geo.Gap*2,
		}
	}

	for i, market := range g.Markets {
		y := geo.HeaderHeight + float64(i)*pitchY
		l.Rows[i] = Axis{ID: market, Label: market, X: 0, Y: y + geo.CellHeight/2}

		for j, cat := range g.Categories {
			count := g.Count(market, cat)
			lc := LayoutCell{
				Cell:  Cell{Market: market, Category: cat, Count: count},
				X:     geo.LabelWidth + float64(j)*pitchX,
				Y:     y,
				W:     geo.CellWidth,
				H:     geo.CellHeight,
				Level: Level(count, maxCount),
			}
			if count > 0 {
				lc.Label = strconv.Itoa(count)
			}
			l.Cells = append(l.Cells, lc)
		}
	}
	return l
}

// Cell returns the layout cell for key.
func (l Layout) Cell(key Key) (LayoutCell, bool) {
	for _, c := range l.Cells {
		if c.Key() == key {
			return c, true
		}
	}
	return LayoutCell{}, false
}

// Empty reports whether there is nothing to draw.
func (l Layout) Empty() bool { return len(l.Cells) == 0 }
