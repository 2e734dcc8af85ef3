// Package pkg holds the qadash libraries.
//
// # Overview
//
// qadash draws a moderation accuracy report as an error-flow (Sankey)
// diagram, an error heatmap and a market status table. All report numbers
// arrive through a [report.Dataset]; the rendering packages only see the
// parts they draw.
//
// # Architecture
//
//	report.Dataset (TOML)
//	       ↓
//	render/flow, render/heatmap   (pure layout + hover visuals)
//	       ↓
//	render/sink, render/nodelink  (SVG, JSON, DOT; PNG/PDF via rsvg-convert)
//	       ↓
//	pipeline.Runner               (validation, caching, hooks)
//
// # Quick Start
//
//	ds, _ := report.Default()
//	l := flow.Build(ds.Flow)
//
//	var hover flow.HoverState
//	hover.Enter("NON_VIOLATING-ARABIC")
//	svg := sink.RenderFlowSVG(l, sink.WithHover("NON_VIOLATING-ARABIC"))
//
// Or through the cached pipeline shared with the CLI and the server:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	res, err := runner.Execute(ctx, ds, pipeline.Options{
//	    Chart:   pipeline.ChartHeatmap,
//	    Formats: []string{"svg", "json"},
//	    Hover:   "ARABIC/HATE_SPEECH",
//	})
//
// # Main Packages
//
// [render/flow] computes column positions, Bézier edge paths and the
// stroke width and opacity of every edge under a hover state.
//
// [render/heatmap] buckets market × category error counts into intensity
// levels and positions the grid.
//
// [render/hover] is the two-state hover cell both charts share.
//
// [report] decodes, validates and summarizes datasets.
//
// [cache] stores rendered artifacts in files or Redis.
//
// [observability] lets the host program watch layout, render, cache and
// HTTP events.
//
// [report.Dataset]: https://pkg.go.dev/github.com/matzehuels/qadash/pkg/report#Dataset
// [render/flow]: https://pkg.go.dev/github.com/matzehuels/qadash/pkg/render/flow
// [render/heatmap]: https://pkg.go.dev/github.com/matzehuels/qadash/pkg/render/heatmap
// [render/hover]: https://pkg.go.dev/github.com/matzehuels/qadash/pkg/render/hover
// [report]: https://pkg.go.dev/github.com/matzehuels/qadash/pkg/report
// [cache]: https://pkg.go.dev/github.com/matzehuels/qadash/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/qadash/pkg/observability
package pkg
