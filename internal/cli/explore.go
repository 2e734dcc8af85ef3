package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qadash/pkg/pipeline"
	"github.com/matzehuels/qadash/pkg/render/flow"
)

var (
	exploreSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	exploreDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

func (c *CLI) exploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Browse flow edges and their hover visuals in the terminal",
		Long: `Explore lists every edge of the error-flow diagram. Moving the cursor
hovers an edge and shows the stroke width and opacity each edge would be
drawn with. Press enter to print the render command for the hovered edge.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := c.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			m := newExploreModel(pipeline.BuildFlow(ds))
			if len(m.edges) == 0 {
				printInfo("The flow diagram has no edges")
				return nil
			}

			final, err := tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithOutput(cmd.OutOrStdout())).Run()
			if err != nil {
				return err
			}
			if fm, ok := final.(exploreModel); ok && fm.chosen != "" {
				printNextStep("Render this hover", fmt.Sprintf("qadash render -c flow --hover %s -o %s.svg", fm.chosen, fm.chosen))
			}
			return nil
		},
	}
}

// exploreModel is a bubbletea model. Cursor movement drives the same
// hover state the SVG renderer uses; "esc" clears it.
type exploreModel struct {
	layout flow.Layout
	edges  []flow.LayoutEdge
	cursor int
	offset int
	height int
	hover  flow.HoverState
	chosen string
}

func newExploreModel(l flow.Layout) exploreModel {
	m := exploreModel{layout: l, edges: l.Edges, height: 12}
	if len(m.edges) > 0 {
		m.hover.Enter(m.edges[0].ID)
	}
	return m
}

func (m exploreModel) Init() tea.Cmd { return nil }

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.hover.Leave()
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			m.enterCursor()
		case "down", "j":
			if m.cursor < len(m.edges)-1 {
				m.cursor++
			}
			m.enterCursor()
		case "enter":
			if id, ok := m.hover.Current(); ok {
				m.chosen = id
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
	}
	m.scroll()
	return m, nil
}

func (m *exploreModel) enterCursor() {
	if len(m.edges) > 0 {
		m.hover.Enter(m.edges[m.cursor].ID)
	}
}

func (m *exploreModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Error flow"))
	b.WriteString("\n")
	b.WriteString(exploreDimStyle.Render("↑/↓ hover  esc clear  ⏎ render  q quit"))
	b.WriteString("\n\n")

	scene := m.layout.Scene(m.hover)
	end := min(m.offset+m.height, len(scene))

	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		e := scene[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			flow.TruncateLabel(m.sourceLabel(e.Source)),
			m.targetLabel(e.Target),
			flow.FormatValue(e.Value),
			fmt.Sprintf("%.2f", e.StrokeWidth),
			fmt.Sprintf("%.1f", e.Opacity),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Source", "Target", "Value", "Width", "Opacity").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.offset + row
			if idx >= len(scene) {
				return lipgloss.NewStyle()
			}
			if m.hover.Is(scene[idx].ID) {
				return exploreSelectedStyle
			}
			if m.hover.Active() {
				return exploreDimStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")

	status := "idle"
	if id, ok := m.hover.Current(); ok {
		status = "hover " + id
	}
	b.WriteString(exploreDimStyle.Render(fmt.Sprintf("  [%d/%d] %s", m.cursor+1, len(m.edges), status)))
	if m.layout.Dropped > 0 {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render(fmt.Sprintf("  %d edges dropped (unknown nodes)", m.layout.Dropped)))
	}
	return b.String()
}

func (m exploreModel) sourceLabel(id string) string {
	for _, n := range m.layout.Sources {
		if n.ID == id {
			return n.DisplayLabel()
		}
	}
	return id
}

func (m exploreModel) targetLabel(id string) string {
	for _, n := range m.layout.Targets {
		if n.ID == id {
			return n.DisplayLabel()
		}
	}
	return id
}
