package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qadash/pkg/pipeline"
	"github.com/matzehuels/qadash/pkg/render"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	chart       string
	formats     []string
	output      string // file, base path for several formats, or "-" for stdout
	hover       string
	interactive bool
	detailed    bool
	title       string
	scale       float64
	noCache     bool
	refresh     bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{chart: pipeline.DefaultChart, scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a chart to files",
		Long: `Render the error-flow diagram, the error heatmap or the node-link view.

Hover names an edge ("SOURCE-TARGET") for flow and nodelink charts, or a
cell ("MARKET/CATEGORY") for the heatmap.`,
		Example: `  qadash render -c flow -f svg,json -o report
  qadash render -c flow --hover NON_VIOLATING-ARABIC -o hovered.svg
  qadash render -c heatmap --hover ARABIC/HATE_SPEECH -f png
  qadash render -c nodelink -f dot -o -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.chart, opts.formats); err != nil {
				return err
			}
			if opts.output == "-" && len(opts.formats) != 1 {
				return fmt.Errorf("--output - needs exactly one format, got %d", len(opts.formats))
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.chart, "chart", "c", opts.chart, "chart: "+strings.Join(pipeline.Charts(), ", "))
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, png, pdf (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file, base path for several formats, or "-" for stdout`)
	cmd.Flags().StringVar(&opts.hover, "hover", "", "highlight one edge or heatmap cell")
	cmd.Flags().BoolVar(&opts.interactive, "interactive", false, "embed the client-side hover script in SVG output")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include values in node-link labels")
	cmd.Flags().StringVar(&opts.title, "title", "", "title drawn above the chart")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")

	_ = cmd.RegisterFlagCompletionFunc("chart", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return pipeline.Charts(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *CLI) runRender(ctx context.Context, stdout io.Writer, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	ds, source, err := c.loadDataset(ctx)
	if err != nil {
		return err
	}
	logger.Debugf("Loaded dataset %s (%d markets, %d flow edges)", source, len(ds.Markets), len(ds.Flow.Edges))

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer c.closeRunner(runner)

	prog := newProgress(logger)
	var spin *Spinner
	if slices.Contains(opts.formats, pipeline.FormatPNG) || slices.Contains(opts.formats, pipeline.FormatPDF) {
		spin = newSpinnerWithContext(ctx, "Converting with "+render.ConverterBinary+"...")
		spin.Start()
	}
	res, err := runner.Execute(ctx, ds, pipeline.Options{
		Chart:       opts.chart,
		Formats:     opts.formats,
		Hover:       opts.hover,
		Interactive: opts.interactive,
		Detailed:    opts.detailed,
		Title:       opts.title,
		Scale:       opts.scale,
		Refresh:     opts.refresh,
		Logger:      logger,
	})
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %s", opts.chart))

	if opts.output == "-" {
		_, err := stdout.Write(res.Artifacts[opts.formats[0]])
		return err
	}

	for _, path := range outputPaths(opts.output, opts.chart, opts.formats) {
		format := strings.TrimPrefix(filepath.Ext(path), ".")
		if err := writeOutput(path, res.Artifacts[format]); err != nil {
			return err
		}
		printFile(path)
	}
	if res.Stats.Dropped > 0 {
		printWarning("%d flow edges reference unknown nodes and were skipped", res.Stats.Dropped)
	}
	printStats(res.Stats.Elements, res.Stats.Dropped, res.CacheInfo.RenderHit())
	return nil
}

// outputPaths derives one file per format. A single format with an
// explicit output path writes exactly that path; otherwise the output
// (without a known format extension) is a base path, defaulting to the
// chart name.
func outputPaths(output, chart string, formats []string) []string {
	if output != "" && len(formats) == 1 && filepath.Ext(output) == "."+formats[0] {
		return []string{output}
	}
	base := output
	if base == "" {
		base = chart
	}
	if ext := strings.TrimPrefix(filepath.Ext(base), "."); slices.Contains(pipeline.Formats(chart), ext) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	paths := make([]string, len(formats))
	for i, f := range formats {
		paths[i] = base + "." + f
	}
	return paths
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
