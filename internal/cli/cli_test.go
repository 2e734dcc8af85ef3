package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/qadash/pkg/errors"
	"github.com/matzehuels/qadash/pkg/observability"
	"github.com/matzehuels/qadash/pkg/pipeline"
	"github.com/matzehuels/qadash/pkg/report"
)

// runCLI executes args against a fresh root command with isolated config
// and cache directories, returning command output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	prev := statusOut
	statusOut = io.Discard
	t.Cleanup(func() {
		statusOut = prev
		observability.Reset()
	})

	var logs, out bytes.Buffer
	root := New(&logs, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&logs)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"render", "markets", "summary", "issues", "explore", "serve", "cache", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRenderWritesFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "report")
	if _, err := runCLI(t, "render", "-c", "flow", "-f", "svg,json", "-o", base, "--hover", "NON_VIOLATING-ARABIC"); err != nil {
		t.Fatalf("render error: %v", err)
	}

	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte(`id="edge-NON_VIOLATING-ARABIC"`)) {
		t.Error("rendered SVG missing hovered edge")
	}
	data, err := os.ReadFile(base + ".json")
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Error("rendered JSON is invalid")
	}
}

func TestRenderStdout(t *testing.T) {
	out, err := runCLI(t, "render", "-c", "nodelink", "-f", "dot", "-o", "-", "--no-cache")
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !strings.HasPrefix(out, "digraph G {") {
		t.Errorf("stdout starts %q", out[:min(len(out), 20)])
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad chart", []string{"render", "-c", "pie"}},
		{"bad format", []string{"render", "-c", "flow", "-f", "dot"}},
		{"unknown hover", []string{"render", "--hover", "NOPE-NOPE", "--no-cache"}},
		{"stdout with two formats", []string{"render", "-f", "svg,json", "-o", "-"}},
		{"missing dataset", []string{"render", "--data", "/nonexistent/report.toml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRenderCustomDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.toml")
	body := `
title = "Tiny"
period = "W1"

[[markets]]
name = "ARABIC"
vg_accuracy = 90.0
vhs_accuracy = 90.0
vg_vhs_accuracy = 90.0
samples = 10
incorrect = 1

[flow]
[[flow.sources]]
id = "HATE_SPEECH"
value = 3
color = "#ef4444"
[[flow.targets]]
id = "ARABIC"
value = 3
color = "#3b82f6"
[[flow.edges]]
source = "HATE_SPEECH"
target = "ARABIC"
value = 3
[[flow.edges]]
source = "GHOST"
target = "ARABIC"
value = 1
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := runCLI(t, "--data", path, "render", "-f", "svg", "-o", "-", "--no-cache")
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if got := strings.Count(out, `class="flow-edge"`); got != 1 {
		t.Errorf("flow edges = %d, want 1 (dangling edge dropped)", got)
	}
}

func TestMarketsCommand(t *testing.T) {
	out, err := runCLI(t, "markets", "--status", "critical", "--sort", "accuracy")
	if err != nil {
		t.Fatalf("markets error: %v", err)
	}
	for _, want := range []string{"ARABIC", "GERMAN", "INDONESIAN", "CHINESE_MANDARIN", "Critical"} {
		if !strings.Contains(out, want) {
			t.Errorf("markets output missing %q", want)
		}
	}
	if strings.Contains(out, "MALAY") {
		t.Error("critical filter should exclude MALAY")
	}
	if strings.Index(out, "ARABIC") > strings.Index(out, "GERMAN") {
		t.Error("accuracy sort should list ARABIC before GERMAN")
	}

	if _, err := runCLI(t, "markets", "--status", "fine"); err == nil {
		t.Error("invalid status should fail")
	}
	if _, err := runCLI(t, "markets", "--sort", "color"); err == nil {
		t.Error("invalid sort should fail")
	}
}

func TestMarketsDetail(t *testing.T) {
	out, err := runCLI(t, "markets", "ARABIC")
	if err != nil {
		t.Fatalf("markets ARABIC error: %v", err)
	}
	for _, want := range []string{
		"ARABIC", "Critical", "Top error categories", "1. NON_VIOLATING", "(36)",
		"improving (+6.29 pp)", "119.00", "36 of 49 flagged",
		"High severity (3)", "DOI_SUPPORT_TERRORISM (3)", "Week 4",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("detail output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "low sample size") {
		t.Error("ARABIC averages enough samples")
	}

	out, err = runCLI(t, "markets", "HUNGARIAN")
	if err != nil {
		t.Fatalf("markets HUNGARIAN error: %v", err)
	}
	for _, want := range []string{"volatile", "low sample size"} {
		if !strings.Contains(out, want) {
			t.Errorf("HUNGARIAN detail missing %q:\n%s", want, out)
		}
	}

	_, err = runCLI(t, "markets", "KLINGON")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown market error = %v, want NOT_FOUND", err)
	}
}

func TestIssuesCommand(t *testing.T) {
	out, err := runCLI(t, "issues")
	if err != nil {
		t.Fatalf("issues error: %v", err)
	}
	for _, want := range []string{"DOI_SUPPORT_TERRORISM", "Extremely High", "INDONESIAN (4), ARABIC (3), PAKISTAN_OTHERS (3)", "PROSTITUTION", "7.03%"} {
		if !strings.Contains(out, want) {
			t.Errorf("issues output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "DOI_SUPPORT_TERRORISM") > strings.Index(out, "PROSTITUTION") {
		t.Error("issues should rank DOI_SUPPORT_TERRORISM first")
	}

	out, err = runCLI(t, "issues", "--limit", "1", "--json")
	if err != nil {
		t.Fatalf("issues --json error: %v", err)
	}
	var issues []report.Issue
	if err := json.Unmarshal([]byte(out), &issues); err != nil {
		t.Fatalf("issues --json output: %v", err)
	}
	if len(issues) != 1 || issues[0].Total != 23 || issues[0].Severity != report.SeverityExtremelyHigh {
		t.Errorf("issues = %+v", issues)
	}

	_, err = runCLI(t, "issues", "--limit", "-1")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("negative limit error = %v, want INVALID_INPUT", err)
	}
}

func TestStatusFilterExcellent(t *testing.T) {
	rows := []report.MarketRow{
		{Market: report.Market{Name: "A"}, Status: report.StatusExcellent},
		{Market: report.Market{Name: "B"}, Status: report.StatusOnTrack},
	}
	got, err := filterRows(rows, "excellent")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "A" {
		t.Errorf("filterRows(excellent) = %+v", got)
	}
	if statusIcon(report.StatusExcellent) != iconSuccess {
		t.Error("excellent markets should share the success icon")
	}
}

func TestSortRows(t *testing.T) {
	rows := []report.MarketRow{
		{Market: report.Market{Name: "B", VGVHSAccuracy: 90, Incorrect: 1}},
		{Market: report.Market{Name: "A", VGVHSAccuracy: 80, Incorrect: 5}},
		{Market: report.Market{Name: "C", VGVHSAccuracy: 85, Incorrect: 3}},
	}
	tests := []struct {
		by   string
		want string
	}{
		{sortDataset, "BAC"},
		{sortAccuracy, "ACB"},
		{sortErrors, "ACB"},
		{sortName, "ABC"},
	}
	for _, tt := range tests {
		t.Run(tt.by, func(t *testing.T) {
			r := append([]report.MarketRow(nil), rows...)
			if err := sortRows(r, tt.by); err != nil {
				t.Fatal(err)
			}
			var got string
			for _, row := range r {
				got += row.Name
			}
			if got != tt.want {
				t.Errorf("order = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSummaryCommand(t *testing.T) {
	out, err := runCLI(t, "summary")
	if err != nil {
		t.Fatalf("summary error: %v", err)
	}
	for _, want := range []string{"VG+VHS Market Accuracy", "1088", "140", "of 11", "Critical issues", "1. DOI_SUPPORT_TERRORISM"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "summary", "--json")
	if err != nil {
		t.Fatalf("summary --json error: %v", err)
	}
	var d pipeline.Digest
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("summary --json output: %v", err)
	}
	if d.Overview.Samples != 1088 {
		t.Errorf("samples = %d", d.Overview.Samples)
	}
	if len(d.Issues) != 2 {
		t.Errorf("critical issues = %d, want 2", len(d.Issues))
	}
}

func TestCacheCommands(t *testing.T) {
	out, err := runCLI(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), appName) {
		t.Errorf("cache path = %q", out)
	}

	if _, err := runCLI(t, "cache", "clear"); err != nil {
		t.Errorf("cache clear on empty cache: %v", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	out, err := runCLI(t, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "qadash") {
		t.Error("bash completion should mention the program name")
	}
}

func exploreTestModel(t *testing.T) exploreModel {
	t.Helper()
	ds, err := report.Default()
	if err != nil {
		t.Fatal(err)
	}
	return newExploreModel(pipeline.BuildFlow(ds))
}

func press(m exploreModel, msg tea.KeyMsg) (exploreModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(exploreModel), cmd
}

func TestExploreModelHover(t *testing.T) {
	m := exploreTestModel(t)
	first, second := m.edges[0].ID, m.edges[1].ID

	if id, ok := m.hover.Current(); !ok || id != first {
		t.Fatalf("initial hover = %q, %v; want %q", id, ok, first)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if !m.hover.Is(second) || m.cursor != 1 {
		t.Errorf("after down: cursor=%d hover=%v", m.cursor, m.hover)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	if !m.hover.Is(first) {
		t.Error("k should move the hover back up")
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("cursor moved above first edge: %d", m.cursor)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.hover.Active() {
		t.Error("esc should clear the hover")
	}

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.chosen != "" {
		t.Error("enter while idle should do nothing")
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.chosen != second || cmd == nil {
		t.Errorf("enter chose %q, want %q with quit", m.chosen, second)
	}
}

func TestExploreModelView(t *testing.T) {
	m := exploreTestModel(t)
	view := m.View()
	for _, want := range []string{"Error flow", "Opacity", "0.7", "0.1", "hover " + m.edges[0].ID} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	view = m.View()
	if !strings.Contains(view, "0.3") {
		t.Error("idle view should show baseline opacity")
	}
	if !strings.Contains(view, "] idle") {
		t.Error("idle view should say idle")
	}
}

func TestExploreModelScroll(t *testing.T) {
	m := exploreTestModel(t)
	m.height = 5
	for range 10 {
		m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.cursor != 10 || m.offset != 6 {
		t.Errorf("cursor=%d offset=%d, want 10 and 6", m.cursor, m.offset)
	}
}
