package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/qadash/pkg/cache"
	"github.com/matzehuels/qadash/pkg/errors"
	"github.com/matzehuels/qadash/pkg/render/flow"
	"github.com/matzehuels/qadash/pkg/report"
)

func defaultDataset(t *testing.T) *report.Dataset {
	t.Helper()
	ds, err := report.Default()
	if err != nil {
		t.Fatalf("report.Default() error: %v", err)
	}
	return ds
}

// memCache is an in-memory cache.Cache that counts writes.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	return d, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	m.sets++
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) Close() error { return nil }

var _ cache.Cache = (*memCache)(nil)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		chart, format string
		wantCode      errors.Code
	}{
		{"flow", "svg", ""},
		{"flow", "json", ""},
		{"flow", "png", ""},
		{"flow", "dot", errors.ErrCodeInvalidFormat},
		{"heatmap", "json", ""},
		{"nodelink", "dot", ""},
		{"nodelink", "json", errors.ErrCodeInvalidFormat},
		{"flow", "SVG", errors.ErrCodeInvalidFormat}, // case-sensitive
		{"pie", "svg", errors.ErrCodeInvalidChart},
		{"", "svg", errors.ErrCodeInvalidChart},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.chart, tt.format)
		if got := errors.GetCode(err); got != tt.wantCode {
			t.Errorf("ValidateFormat(%q, %q) code = %q, want %q", tt.chart, tt.format, got, tt.wantCode)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats("flow", []string{"svg", "json"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats("flow", []string{"svg", "dot"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats("flow", nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if o.Chart != ChartFlow {
		t.Errorf("Chart = %q, want flow", o.Chart)
	}
	if len(o.Formats) != 1 || o.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", o.Formats)
	}
	if o.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", o.Scale, DefaultScale)
	}
	if o.Logger == nil {
		t.Error("Logger not defaulted")
	}

	bad := Options{Scale: -1}
	if err := bad.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("negative scale error = %v", err)
	}
}

func TestParseCellKey(t *testing.T) {
	k, err := ParseCellKey("ARABIC/PROFANITY")
	if err != nil {
		t.Fatalf("ParseCellKey error: %v", err)
	}
	if k.Market != "ARABIC" || k.Category != "PROFANITY" {
		t.Errorf("ParseCellKey = %+v", k)
	}
	for _, bad := range []string{"", "ARABIC", "/PROFANITY", "ARABIC/"} {
		if _, err := ParseCellKey(bad); !errors.Is(err, errors.ErrCodeInvalidHover) {
			t.Errorf("ParseCellKey(%q) error = %v, want INVALID_HOVER", bad, err)
		}
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	o := Options{Chart: ChartFlow, Detailed: true, Scale: 2}
	if o.ArtifactKeyOpts(FormatSVG).Detailed {
		t.Error("Detailed should only affect nodelink keys")
	}
	if got := o.ArtifactKeyOpts(FormatPNG).Format; got != "png@2.00" {
		t.Errorf("PNG key format = %q", got)
	}
}

func TestContentType(t *testing.T) {
	if got := ContentType(FormatSVG); got != "image/svg+xml" {
		t.Errorf("ContentType(svg) = %q", got)
	}
	if got := ContentType("bin"); got != "application/octet-stream" {
		t.Errorf("ContentType(bin) = %q", got)
	}
}

func TestBuildFlowPartialOverrides(t *testing.T) {
	tests := []struct {
		name     string
		override string
	}{
		{"style", "\n[flow_style]\ndim_opacity = 0.05\n"},
		{"geometry", "\n[flow_geometry]\nright_x = 600.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := string(report.DefaultBytes()) + tt.override
			ds, err := report.Decode(strings.NewReader(doc))
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			l := BuildFlow(ds)
			if l.Geometry.NodeWidth <= 0 || l.Geometry.NodeHeight <= 0 || l.Geometry.RowSpacing <= 0 {
				t.Errorf("geometry collapsed: %+v", l.Geometry)
			}

			var hover flow.HoverState
			hover.Enter(l.Edges[0].ID)
			for _, h := range []flow.HoverState{{}, hover} {
				for _, e := range l.Scene(h) {
					if e.StrokeWidth < 2 || e.Opacity <= 0 {
						t.Fatalf("edge %s invisible: width=%v opacity=%v", e.ID, e.StrokeWidth, e.Opacity)
					}
				}
			}
		})
	}
}

func TestRenderFlow(t *testing.T) {
	ds := defaultDataset(t)
	artifacts, stats, err := Render(context.Background(), ds, Options{
		Chart:   ChartFlow,
		Formats: []string{FormatSVG, FormatJSON},
		Hover:   "NON_VIOLATING-ARABIC",
	})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	svg := string(artifacts[FormatSVG])
	if !strings.Contains(svg, `data-edge="NON_VIOLATING-ARABIC"`) {
		t.Error("svg missing hovered edge")
	}
	if got := strings.Count(svg, `opacity="0.7"`); got != 1 {
		t.Errorf("highlighted edges = %d, want 1", got)
	}

	var doc FlowDocument
	if err := json.Unmarshal(artifacts[FormatJSON], &doc); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if doc.Hover != "NON_VIOLATING-ARABIC" {
		t.Errorf("doc.Hover = %q", doc.Hover)
	}
	if len(doc.Scene) != len(ds.Flow.Edges) {
		t.Errorf("scene edges = %d, want %d", len(doc.Scene), len(ds.Flow.Edges))
	}
	if stats.Elements == 0 {
		t.Error("stats.Elements not set")
	}
}

func TestRenderFlowUnknownHover(t *testing.T) {
	_, _, err := Render(context.Background(), defaultDataset(t), Options{Chart: ChartFlow, Hover: "NOPE-NOPE"})
	if !errors.Is(err, errors.ErrCodeInvalidHover) {
		t.Errorf("error = %v, want INVALID_HOVER", err)
	}
}

func TestRenderHeatmap(t *testing.T) {
	artifacts, stats, err := Render(context.Background(), defaultDataset(t), Options{
		Chart:   ChartHeatmap,
		Formats: []string{FormatSVG, FormatJSON},
		Hover:   "ARABIC/NON_VIOLATING",
	})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if stats.Elements != 66 {
		t.Errorf("cells = %d, want 66", stats.Elements)
	}
	if got := strings.Count(string(artifacts[FormatSVG]), `class="heat-cell hovered"`); got != 1 {
		t.Errorf("hovered cells = %d, want 1", got)
	}

	var doc HeatmapDocument
	if err := json.Unmarshal(artifacts[FormatJSON], &doc); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if doc.Hover == nil || doc.Hover.Market != "ARABIC" {
		t.Errorf("doc.Hover = %+v", doc.Hover)
	}
}

func TestRenderHeatmapUnknownCell(t *testing.T) {
	_, _, err := Render(context.Background(), defaultDataset(t), Options{Chart: ChartHeatmap, Hover: "MARS/SPAM"})
	if !errors.Is(err, errors.ErrCodeInvalidHover) {
		t.Errorf("error = %v, want INVALID_HOVER", err)
	}
}

func TestRenderNodelinkDOT(t *testing.T) {
	artifacts, _, err := Render(context.Background(), defaultDataset(t), Options{
		Chart:   ChartNodelink,
		Formats: []string{FormatDOT},
	})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.HasPrefix(string(artifacts[FormatDOT]), "digraph G {") {
		t.Error("dot artifact is not a digraph")
	}
}

func TestRunnerExecuteCaches(t *testing.T) {
	ctx := context.Background()
	mc := newMemCache()
	r := NewRunner(mc, nil, nil)
	ds := defaultDataset(t)
	opts := Options{Chart: ChartFlow, Formats: []string{FormatSVG, FormatJSON}}

	first, err := r.Execute(ctx, ds, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if first.CacheInfo.RenderHit() {
		t.Error("first run should render")
	}
	if len(first.CacheInfo.Misses) != 2 || mc.sets != 2 {
		t.Errorf("misses = %v sets = %d, want 2 and 2", first.CacheInfo.Misses, mc.sets)
	}

	second, err := r.Execute(ctx, ds, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !second.CacheInfo.RenderHit() {
		t.Errorf("second run should hit cache: %+v", second.CacheInfo)
	}
	if string(second.Artifacts[FormatSVG]) != string(first.Artifacts[FormatSVG]) {
		t.Error("cached svg differs")
	}

	// A different hover is a different artifact.
	third, err := r.Execute(ctx, ds, Options{Chart: ChartFlow, Hover: "NON_VIOLATING-ARABIC"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if third.CacheInfo.RenderHit() {
		t.Error("hover change should miss")
	}

	refreshed, err := r.Execute(ctx, ds, Options{Chart: ChartFlow, Formats: []string{FormatSVG}, Refresh: true})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if refreshed.CacheInfo.RenderHit() {
		t.Error("refresh should bypass cache")
	}
}

func TestRunnerExecuteDatasetChangeMisses(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(newMemCache(), nil, nil)
	ds := defaultDataset(t)

	if _, err := r.Execute(ctx, ds, Options{}); err != nil {
		t.Fatal(err)
	}
	ds.Flow.Edges[0].Value++
	res, err := r.Execute(ctx, ds, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.RenderHit() {
		t.Error("edited dataset served from cache")
	}
}

func TestRunnerExecuteErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()

	if _, err := r.Execute(ctx, nil, Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil dataset error = %v", err)
	}
	if _, err := r.Execute(ctx, defaultDataset(t), Options{Chart: "pie"}); !errors.Is(err, errors.ErrCodeInvalidChart) {
		t.Errorf("bad chart error = %v", err)
	}

	bad := defaultDataset(t)
	bad.Flow.Edges[0].Value = -1
	if _, err := r.Execute(ctx, bad, Options{}); !errors.Is(err, errors.ErrCodeInvalidDataset) {
		t.Errorf("invalid dataset error = %v", err)
	}
}

func TestRunnerSummary(t *testing.T) {
	ctx := context.Background()
	mc := newMemCache()
	r := NewRunner(mc, nil, nil)

	data, err := r.Summary(ctx, defaultDataset(t))
	if err != nil {
		t.Fatalf("Summary() error: %v", err)
	}
	var d Digest
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if d.Overview.Samples != 1088 || d.Overview.Errors != 140 {
		t.Errorf("overview = %+v", d.Overview)
	}
	if len(d.Markets) != 11 {
		t.Errorf("markets = %d, want 11", len(d.Markets))
	}
	if len(d.Issues) != 2 || d.Issues[0].Category != "DOI_SUPPORT_TERRORISM" {
		t.Errorf("critical issues = %+v", d.Issues)
	}
	if mc.sets != 1 {
		t.Errorf("sets = %d, want 1", mc.sets)
	}

	if _, err := r.Summary(ctx, defaultDataset(t)); err != nil {
		t.Fatal(err)
	}
	if mc.sets != 1 {
		t.Error("second Summary should hit cache")
	}
}
