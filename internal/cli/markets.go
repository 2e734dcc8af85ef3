package cli

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qadash/pkg/errors"
	"github.com/matzehuels/qadash/pkg/pipeline"
	"github.com/matzehuels/qadash/pkg/report"
)

// Market sort orders.
const (
	sortDataset  = "dataset"
	sortAccuracy = "accuracy"
	sortErrors   = "errors"
	sortName     = "name"
)

func (c *CLI) marketsCommand() *cobra.Command {
	var status, sortBy string

	cmd := &cobra.Command{
		Use:   "markets [name]",
		Short: "Show the market status table, or one market's detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := c.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				d, ok := report.MarketDetail(ds, args[0])
				if !ok {
					return errors.New(errors.ErrCodeNotFound, "market %q not found", args[0])
				}
				renderDetail(cmd.OutOrStdout(), d)
				return nil
			}
			rows, err := filterRows(report.Rows(ds), status)
			if err != nil {
				return err
			}
			if err := sortRows(rows, sortBy); err != nil {
				return err
			}
			renderMarketTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only show excellent, on-track, at-risk or critical markets")
	cmd.Flags().StringVar(&sortBy, "sort", sortDataset, "sort by: dataset, accuracy, errors, name")
	return cmd
}

func filterRows(rows []report.MarketRow, status string) ([]report.MarketRow, error) {
	if status == "" {
		return rows, nil
	}
	want, ok := report.ParseStatus(status)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"invalid status %q (must be one of: excellent, on-track, at-risk, critical)", status)
	}
	return slices.DeleteFunc(rows, func(r report.MarketRow) bool {
		return r.Status != want
	}), nil
}

// sortRows orders rows in place. Accuracy sorts worst first, errors
// sorts most first.
func sortRows(rows []report.MarketRow, by string) error {
	switch by {
	case sortDataset, "":
	case sortAccuracy:
		slices.SortStableFunc(rows, func(a, b report.MarketRow) int { return cmp.Compare(a.VGVHSAccuracy, b.VGVHSAccuracy) })
	case sortErrors:
		slices.SortStableFunc(rows, func(a, b report.MarketRow) int { return cmp.Compare(b.Incorrect, a.Incorrect) })
	case sortName:
		slices.SortStableFunc(rows, func(a, b report.MarketRow) int { return cmp.Compare(a.Name, b.Name) })
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid sort %q (must be one of: dataset, accuracy, errors, name)", by)
	}
	return nil
}

func renderMarketTable(w io.Writer, rows []report.MarketRow) {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{
			r.Name,
			fmt.Sprintf("%.2f%%", r.VGAccuracy),
			fmt.Sprintf("%.2f%%", r.VHSAccuracy),
			fmt.Sprintf("%.2f%%", r.VGVHSAccuracy),
			fmt.Sprintf("%d", r.Samples),
			fmt.Sprintf("%d", r.Incorrect),
			fmt.Sprintf("%.1f%%", r.ErrorRate),
			statusIcon(r.Status) + " " + r.Status.Label(),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Market", "VG", "VHS", "VG+VHS", "Samples", "Incorrect", "Error rate", "Status").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col > 0 && col < 7 {
				base = base.Align(lipgloss.Right)
			}
			if col == 7 && row < len(rows) {
				return base.Inherit(statusStyle(rows[row].Status))
			}
			return base
		})

	fmt.Fprintln(w, t.Render())
}

func renderDetail(w io.Writer, d report.Detail) {
	fmt.Fprintln(w, StyleTitle.Render(d.Name)+"  "+statusStyle(d.Status).Render(statusIcon(d.Status)+" "+d.Status.Label()))
	fmt.Fprintln(w)
	printKeyValue(w, "VG+VHS", StyleNumber.Render(fmt.Sprintf("%.2f%%", d.VGVHSAccuracy)))
	printKeyValue(w, "VG", fmt.Sprintf("%.2f%%", d.VGAccuracy))
	printKeyValue(w, "VHS", fmt.Sprintf("%.2f%%", d.VHSAccuracy))
	printKeyValue(w, "Samples", fmt.Sprintf("%d", d.Samples))
	printKeyValue(w, "Incorrect", fmt.Sprintf("%d (%.1f%%)", d.Incorrect, d.ErrorRate))

	samples := fmt.Sprintf("%.2f", d.AvgSamples)
	if d.LowSample {
		samples += " " + StyleWarning.Render(iconWarning+" low sample size")
	}
	printKeyValue(w, "Avg samples", samples)
	if len(d.Weeks) > 0 {
		trend := trendStyle(d.Trend.Direction).Render(fmt.Sprintf("%s (%+.2f pp)", d.Trend.Direction, d.Trend.Improvement))
		printKeyValue(w, "Trend", trend)
		printKeyValue(w, "Weekly", d.Sparkline+" "+StyleDim.Render(weekList(d.Weeks)))
	}
	printKeyValue(w, "Non-violating", fmt.Sprintf("%d of %d flagged", d.NonViolatingErrors, d.HeatmapErrors))

	if len(d.HighSeverity) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styleHeader.Render(fmt.Sprintf("High severity (%d)", d.HighSeverityCount)))
		for _, e := range d.HighSeverity {
			fmt.Fprintf(w, "  %s %s %s\n", StyleCritical.Render(iconError), e.Category, StyleDim.Render(fmt.Sprintf("(%d)", e.Count)))
		}
	}

	if len(d.TopErrors) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleHeader.Render("Top error categories"))
	for i, e := range d.TopErrors {
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, e.Category, StyleDim.Render(fmt.Sprintf("(%d)", e.Count)))
	}
}

func weekList(weeks []report.TrendPoint) string {
	parts := make([]string, len(weeks))
	for i, p := range weeks {
		parts[i] = fmt.Sprintf("%s %.2f%%", p.Label, p.Accuracy)
	}
	return strings.Join(parts, ", ")
}

func (c *CLI) summaryCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the headline metrics of the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ds, _, err := c.loadDataset(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				runner, err := c.newRunner(ctx, false)
				if err != nil {
					return err
				}
				defer c.closeRunner(runner)
				data, err := runner.Summary(ctx, ds)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(w, string(data))
				return err
			}
			renderDigest(w, pipeline.NewDigest(ds))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the JSON digest")
	return cmd
}

func renderDigest(w io.Writer, d pipeline.Digest) {
	fmt.Fprintln(w, StyleTitle.Render(d.Title))
	fmt.Fprintln(w, StyleDim.Render(d.Period))
	fmt.Fprintln(w)

	o := d.Overview
	printKeyValue(w, "Accuracy", StyleNumber.Render(fmt.Sprintf("%.2f%%", o.Accuracy)))
	if d.Target > 0 {
		printKeyValue(w, "Target", fmt.Sprintf("%.2f%% (gap %.2f pp)", d.Target, o.GapToTarget))
	}
	printKeyValue(w, "Samples", fmt.Sprintf("%d", o.Samples))
	printKeyValue(w, "Errors", fmt.Sprintf("%d", o.Errors))
	printKeyValue(w, "Markets at risk", fmt.Sprintf("%d of %d", o.MarketsAtRisk, o.Markets))

	trend := fmt.Sprintf("%s (%+.2f pp)", d.Trend.Direction, d.Trend.Improvement)
	printKeyValue(w, "Trend", trendStyle(d.Trend.Direction).Render(trend))
	thresholds := fmt.Sprintf("on track ≥ %.0f%%, at risk ≥ %.0f%%", d.Thresholds.OnTrack, d.Thresholds.AtRisk)
	if d.Thresholds.Excellent > 0 {
		thresholds = fmt.Sprintf("excellent ≥ %.0f%%, ", d.Thresholds.Excellent) + thresholds
	}
	printKeyValue(w, "Thresholds", thresholds)

	if len(d.Issues) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleHeader.Render("Critical issues"))
	for _, is := range d.Issues {
		fmt.Fprintf(w, "  %d. %s %s\n", is.Rank, is.Category, StyleDim.Render(fmt.Sprintf("(%d, %.2f%%)", is.Total, is.Share)))
	}
}
