package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qadash/pkg/errors"
	"github.com/matzehuels/qadash/pkg/report"
)

func (c *CLI) issuesCommand() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "issues",
		Short: "Rank the high-severity error categories across markets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.New(errors.ErrCodeInvalidInput, "invalid limit %d (must be 0 or more)", limit)
			}
			ds, _, err := c.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			issues := report.CriticalIssues(ds, limit)
			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(issues)
			}
			if len(issues) == 0 {
				printInfo("No critical issues")
				return nil
			}
			renderIssues(w, issues)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", report.CriticalIssueLimit, "number of issues to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the issues as JSON")
	return cmd
}

func renderIssues(w io.Writer, issues []report.Issue) {
	data := make([][]string, len(issues))
	for i, is := range issues {
		data[i] = []string{
			fmt.Sprintf("%d", is.Rank),
			is.Category,
			is.Severity.Label(),
			fmt.Sprintf("%d", is.Total),
			fmt.Sprintf("%.2f%%", is.Share),
			marketCounts(is.Markets),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Category", "Severity", "Errors", "Share", "Worst markets").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			switch col {
			case 0, 3, 4:
				return base.Align(lipgloss.Right)
			case 2:
				if row < len(issues) && issues[row].Severity == report.SeverityExtremelyHigh {
					return base.Inherit(StyleCritical)
				}
				return base.Inherit(StyleWarning)
			}
			return base
		})

	fmt.Fprintln(w, t.Render())
}

func marketCounts(ms []report.MarketCount) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = fmt.Sprintf("%s (%d)", m.Market, m.Count)
	}
	return strings.Join(parts, ", ")
}
