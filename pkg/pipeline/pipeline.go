// Package pipeline runs the dataset → layout → artifact pipeline shared by
// the CLI and the dashboard server.
//
// # Architecture
//
//  1. Layout: build the flow, heatmap or node-link layout from a
//     [report.Dataset]
//  2. Render: produce every requested format (SVG, JSON, DOT, PNG, PDF)
//  3. Cache: artifacts are stored under a key derived from the dataset
//     hash and the render options
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, ds, pipeline.Options{
//	    Chart:   pipeline.ChartFlow,
//	    Formats: []string{"svg", "json"},
//	    Hover:   "NON_VIOLATING-ARABIC",
//	})
//	svg := result.Artifacts["svg"]
//
// # Hover
//
// For the flow and node-link charts, Hover is an edge ID
// ("<source>-<target>"). For the heatmap it is "<market>/<category>".
// A hover that names nothing in the layout is rejected with
// errors.ErrCodeInvalidHover.
//
// [report.Dataset]: github.com/matzehuels/qadash/pkg/report.Dataset
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qadash/pkg/cache"
	"github.com/matzehuels/qadash/pkg/errors"
	"github.com/matzehuels/qadash/pkg/render/heatmap"
)

// Chart names.
const (
	ChartFlow     = "flow"
	ChartHeatmap  = "heatmap"
	ChartNodelink = "nodelink"
)

// Format names.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// DefaultChart is rendered when Options.Chart is empty.
const DefaultChart = ChartFlow

// DefaultScale is the PNG scale factor.
const DefaultScale = 2.0

// chartFormats lists the formats each chart supports.
var chartFormats = map[string][]string{
	ChartFlow:     {FormatSVG, FormatJSON, FormatPNG, FormatPDF},
	ChartHeatmap:  {FormatSVG, FormatJSON, FormatPNG, FormatPDF},
	ChartNodelink: {FormatSVG, FormatDOT, FormatPNG, FormatPDF},
}

// Charts returns the supported chart names in display order.
func Charts() []string { return []string{ChartFlow, ChartHeatmap, ChartNodelink} }

// Formats returns the formats chart supports, or nil for an unknown chart.
func Formats(chart string) []string { return slices.Clone(chartFormats[chart]) }

// ContentType returns the media type of format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// ValidateChart checks that chart is known.
func ValidateChart(chart string) error {
	if _, ok := chartFormats[chart]; !ok {
		return errors.New(errors.ErrCodeInvalidChart,
			"invalid chart: %q (must be one of: %s)", chart, strings.Join(Charts(), ", "))
	}
	return nil
}

// ValidateFormat checks that chart can be rendered as format.
func ValidateFormat(chart, format string) error {
	if err := ValidateChart(chart); err != nil {
		return err
	}
	if !slices.Contains(chartFormats[chart], format) {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format %q for %s chart (must be one of: %s)", format, chart, strings.Join(chartFormats[chart], ", "))
	}
	return nil
}

// ValidateFormats checks every format against chart.
func ValidateFormats(chart string, formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(chart, f); err != nil {
			return err
		}
	}
	return nil
}

// ParseCellKey parses a heatmap hover of the form "<market>/<category>".
func ParseCellKey(s string) (heatmap.Key, error) {
	market, category, ok := strings.Cut(s, "/")
	if !ok || market == "" || category == "" {
		return heatmap.Key{}, errors.New(errors.ErrCodeInvalidHover,
			"invalid heatmap hover %q (want MARKET/CATEGORY)", s)
	}
	return heatmap.Key{Market: market, Category: category}, nil
}

// Options configures one pipeline run.
type Options struct {
	Chart       string   `json:"chart"`
	Formats     []string `json:"formats,omitempty"`
	Hover       string   `json:"hover,omitempty"`
	Interactive bool     `json:"interactive,omitempty"` // embed client-side hover script in SVG
	Detailed    bool     `json:"detailed,omitempty"`    // node-link labels include values
	Title       string   `json:"title,omitempty"`
	Scale       float64  `json:"scale,omitempty"` // PNG only
	Refresh     bool     `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the chart, formats and scale and fills in
// defaults. It is idempotent. Hover is checked later against the layout.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Chart == "" {
		o.Chart = DefaultChart
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Chart, o.Formats); err != nil {
		return err
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must not be negative")
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Chart == ChartHeatmap && o.Hover != "" {
		if _, err := ParseCellKey(o.Hover); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ArtifactKeyOpts returns the cache-key options for one format.
func (o Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Chart:       o.Chart,
		Format:      format,
		Hover:       o.Hover,
		Interactive: o.Interactive,
		Title:       o.Title,
	}
	if o.Chart == ChartNodelink {
		k.Detailed = o.Detailed
	}
	if format == FormatPNG {
		k.Format = fmt.Sprintf("%s@%.2f", format, o.Scale)
	}
	return k
}

// Result holds the outputs of a pipeline run.
type Result struct {
	Chart       string
	DatasetHash string

	// Artifacts holds rendered bytes keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats holds timing and size information.
type Stats struct {
	Elements   int // nodes plus edges, or heatmap cells
	Dropped    int // flow edges with a missing endpoint
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo records which artifacts came from the cache.
type CacheInfo struct {
	Hits   []string // formats served from cache
	Misses []string // formats rendered in this run
}

// RenderHit reports whether every artifact came from the cache.
func (c CacheInfo) RenderHit() bool { return len(c.Misses) == 0 && len(c.Hits) > 0 }
