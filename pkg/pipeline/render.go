package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/qadash/pkg/errors"
	"github.com/matzehuels/qadash/pkg/observability"
	"github.com/matzehuels/qadash/pkg/render"
	"github.com/matzehuels/qadash/pkg/render/flow"
	"github.com/matzehuels/qadash/pkg/render/heatmap"
	"github.com/matzehuels/qadash/pkg/render/nodelink"
	"github.com/matzehuels/qadash/pkg/render/sink"
	"github.com/matzehuels/qadash/pkg/report"
)

// FlowDocument is the JSON artifact of the flow chart: the layout plus
// edge visuals resolved for the requested hover.
type FlowDocument struct {
	Layout flow.Layout      `json:"layout"`
	Hover  string           `json:"hover,omitempty"`
	Scene  []flow.EdgeScene `json:"scene"`
}

// HeatmapDocument is the JSON artifact of the heatmap chart.
type HeatmapDocument struct {
	Layout heatmap.Layout `json:"layout"`
	Hover  *heatmap.Key   `json:"hover,omitempty"`
}

// Render produces every format in opts.Formats without consulting a cache.
func Render(ctx context.Context, ds *report.Dataset, opts Options) (map[string][]byte, Stats, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, Stats{}, err
	}

	switch opts.Chart {
	case ChartHeatmap:
		return renderHeatmap(ctx, ds, opts)
	case ChartNodelink:
		return renderNodelink(ctx, ds, opts)
	default:
		return renderFlow(ctx, ds, opts)
	}
}

func renderFlow(ctx context.Context, ds *report.Dataset, opts Options) (map[string][]byte, Stats, error) {
	var stats Stats
	hooks := observability.Pipeline()

	start := time.Now()
	hooks.OnLayoutStart(ctx, opts.Chart, len(ds.Flow.Sources)+len(ds.Flow.Targets)+len(ds.Flow.Edges))
	l := BuildFlow(ds)
	err := checkFlowHover(l, opts.Hover)
	stats.LayoutTime = time.Since(start)
	hooks.OnLayoutComplete(ctx, opts.Chart, stats.LayoutTime, err)
	if err != nil {
		return nil, stats, err
	}
	stats.Elements = len(l.Sources) + len(l.Targets) + len(l.Edges)
	stats.Dropped = l.Dropped
	if l.Dropped > 0 {
		opts.Logger.Warn("dropped flow edges with unknown endpoints", "count", l.Dropped)
	}

	svg := func() ([]byte, error) {
		return sink.RenderFlowSVG(l, svgOptions(opts, sink.WithHover(opts.Hover))...), nil
	}
	jsonDoc := func() ([]byte, error) {
		var hov flow.HoverState
		if opts.Hover != "" {
			hov.Enter(opts.Hover)
		}
		return sink.RenderJSON(FlowDocument{Layout: l, Hover: opts.Hover, Scene: l.Scene(hov)})
	}

	artifacts, err := renderFormats(ctx, opts, &stats, svg, jsonDoc, nil)
	return artifacts, stats, err
}

func checkFlowHover(l flow.Layout, hover string) error {
	if hover != "" && !l.HasEdge(hover) {
		return errors.New(errors.ErrCodeInvalidHover, "unknown edge %q", hover)
	}
	return nil
}

func renderHeatmap(ctx context.Context, ds *report.Dataset, opts Options) (map[string][]byte, Stats, error) {
	var stats Stats
	hooks := observability.Pipeline()

	start := time.Now()
	hooks.OnLayoutStart(ctx, opts.Chart, len(ds.Heatmap.Markets)*len(ds.Heatmap.Categories))
	l := BuildHeatmap(ds)

	var key *heatmap.Key
	var err error
	if opts.Hover != "" {
		var k heatmap.Key
		if k, err = ParseCellKey(opts.Hover); err == nil {
			if _, ok := l.Cell(k); !ok {
				err = errors.New(errors.ErrCodeInvalidHover, "unknown cell %q", opts.Hover)
			}
			key = &k
		}
	}
	stats.LayoutTime = time.Since(start)
	hooks.OnLayoutComplete(ctx, opts.Chart, stats.LayoutTime, err)
	if err != nil {
		return nil, stats, err
	}
	stats.Elements = len(l.Cells)

	svg := func() ([]byte, error) {
		var extra []sink.SVGOption
		if key != nil {
			extra = append(extra, sink.WithHoverCell(key.Market, key.Category))
		}
		return sink.RenderHeatmapSVG(l, svgOptions(opts, extra...)...), nil
	}
	jsonDoc := func() ([]byte, error) {
		return sink.RenderJSON(HeatmapDocument{Layout: l, Hover: key})
	}

	artifacts, err := renderFormats(ctx, opts, &stats, svg, jsonDoc, nil)
	return artifacts, stats, err
}

func renderNodelink(ctx context.Context, ds *report.Dataset, opts Options) (map[string][]byte, Stats, error) {
	var stats Stats
	hooks := observability.Pipeline()

	start := time.Now()
	hooks.OnLayoutStart(ctx, opts.Chart, len(ds.Flow.Sources)+len(ds.Flow.Targets)+len(ds.Flow.Edges))
	l := BuildFlow(ds)
	err := checkFlowHover(l, opts.Hover)
	stats.LayoutTime = time.Since(start)
	hooks.OnLayoutComplete(ctx, opts.Chart, stats.LayoutTime, err)
	if err != nil {
		return nil, stats, err
	}
	stats.Elements = len(l.Sources) + len(l.Targets) + len(l.Edges)
	stats.Dropped = l.Dropped

	dot := nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed, Hover: opts.Hover})

	svg := func() ([]byte, error) {
		data, err := nodelink.RenderSVG(ctx, dot)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "graphviz")
		}
		return data, nil
	}
	dotDoc := func() ([]byte, error) { return []byte(dot), nil }

	artifacts, err := renderFormats(ctx, opts, &stats, svg, nil, dotDoc)
	return artifacts, stats, err
}

// svgOptions returns the SVG options shared by every chart.
func svgOptions(opts Options, extra ...sink.SVGOption) []sink.SVGOption {
	var out []sink.SVGOption
	if opts.Interactive {
		out = append(out, sink.WithInteraction())
	}
	if opts.Title != "" {
		out = append(out, sink.WithTitle(opts.Title))
	}
	return append(out, extra...)
}

// renderFormats renders each requested format. The SVG is produced at
// most once and reused for PNG and PDF conversion.
func renderFormats(ctx context.Context, opts Options, stats *Stats,
	svgFn, jsonFn, dotFn func() ([]byte, error),
) (map[string][]byte, error) {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, opts.Chart, opts.Formats)

	var svg []byte
	lazySVG := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = svgFn()
		return svg, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var err error
	for _, format := range opts.Formats {
		var data []byte
		switch format {
		case FormatSVG:
			data, err = lazySVG()
		case FormatJSON:
			data, err = jsonFn()
		case FormatDOT:
			data, err = dotFn()
		case FormatPNG:
			if data, err = lazySVG(); err == nil {
				data, err = render.ToPNG(ctx, data, opts.Scale)
			}
		case FormatPDF:
			if data, err = lazySVG(); err == nil {
				data, err = render.ToPDF(ctx, data)
			}
		}
		if err != nil {
			err = fmt.Errorf("render %s: %w", format, err)
			break
		}
		artifacts[format] = data
	}

	stats.RenderTime = time.Since(start)
	hooks.OnRenderComplete(ctx, opts.Chart, opts.Formats, stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}
