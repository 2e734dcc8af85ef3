package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/qadash/pkg/errors"
	"github.com/matzehuels/qadash/pkg/render/flow"
)

//go:embed default.toml
var defaultTOML []byte

// DefaultBytes returns the raw embedded default dataset.
func DefaultBytes() []byte { return bytes.Clone(defaultTOML) }

// Default decodes the embedded default dataset.
func Default() (*Dataset, error) {
	return Decode(bytes.NewReader(defaultTOML))
}

// Load reads and validates a TOML dataset from path.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "dataset %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Decode reads a TOML dataset, applies defaults and validates it.
//
// Thresholds, flow geometry and flow style start from their defaults, so
// a document only lists the keys it overrides. A flow total that is
// absent from the document becomes the sum of all edge values. An
// explicit total of 0 is kept, and degrades every edge to minimum width.
func Decode(r io.Reader) (*Dataset, error) {
	geometry, style := flow.DefaultGeometry(), flow.DefaultStyle()
	ds := Dataset{
		Thresholds:   DefaultThresholds(),
		FlowGeometry: &geometry,
		FlowStyle:    &style,
	}
	md, err := toml.NewDecoder(r).Decode(&ds)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "decode dataset")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidDataset, "unknown keys: %s", strings.Join(keys, ", "))
	}

	if !md.IsDefined("flow_geometry") {
		ds.FlowGeometry = nil
	}
	if !md.IsDefined("flow_style") {
		ds.FlowStyle = nil
	}
	if !md.IsDefined("flow", "total") {
		ds.Flow.Total = flow.SumEdges(ds.Flow.Edges)
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Encode writes ds as TOML.
func Encode(w io.Writer, ds *Dataset) error {
	if err := toml.NewEncoder(w).Encode(ds); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode dataset")
	}
	return nil
}

// Validate reports structural problems. Edges that reference unknown
// nodes are not problems; the flow layout drops them.
func (ds *Dataset) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	t := ds.Thresholds
	if t.AtRisk > t.OnTrack {
		add("thresholds: at_risk %.2f above on_track %.2f", t.AtRisk, t.OnTrack)
	}
	if t.Excellent != 0 && t.Excellent < t.OnTrack {
		add("thresholds: excellent %.2f below on_track %.2f", t.Excellent, t.OnTrack)
	}
	if t.LowSample < 0 {
		add("thresholds: negative low_sample")
	}

	seen := make(map[string]bool, len(ds.Markets))
	for _, m := range ds.Markets {
		switch {
		case m.Name == "":
			add("market with empty name")
		case seen[m.Name]:
			add("duplicate market %q", m.Name)
		}
		seen[m.Name] = true
		if m.Samples < 0 || m.Incorrect < 0 {
			add("market %q: negative counts", m.Name)
		}
		if m.Incorrect > m.Samples {
			add("market %q: %d incorrect of %d samples", m.Name, m.Incorrect, m.Samples)
		}
		for _, a := range []float64{m.VGAccuracy, m.VHSAccuracy, m.VGVHSAccuracy} {
			if !(a >= 0 && a <= 100) {
				add("market %q: accuracy %.2f outside 0-100", m.Name, a)
				break
			}
		}
		for _, w := range m.Weeks {
			if !(w.Accuracy >= 0 && w.Accuracy <= 100) || w.Samples < 0 || w.Errors < 0 {
				add("market %q: week %q out of range", m.Name, w.Label)
			}
		}
	}

	checkColumn := func(column string, nodes []flow.Node) {
		ids := make(map[string]bool, len(nodes))
		for _, n := range nodes {
			if ids[n.ID] {
				add("flow %s: duplicate node id %q", column, n.ID)
			}
			ids[n.ID] = true
			if !finite(n.Value) || n.Value < 0 {
				add("flow %s: node %q has invalid value", column, n.ID)
			}
		}
	}
	checkColumn("sources", ds.Flow.Sources)
	checkColumn("targets", ds.Flow.Targets)

	// Hover addresses edges by "<source>-<target>", so two distinct pairs
	// must not format to the same id.
	edgeIDs := make(map[string]flow.Edge, len(ds.Flow.Edges))
	for _, e := range ds.Flow.Edges {
		if !finite(e.Value) || e.Value < 0 {
			add("flow edge %s has invalid value", e.ID())
		}
		if prev, ok := edgeIDs[e.ID()]; ok {
			if prev.Source == e.Source && prev.Target == e.Target {
				add("flow edge %s listed twice", e.ID())
			} else {
				add("flow edges %s->%s and %s->%s share id %q", prev.Source, prev.Target, e.Source, e.Target, e.ID())
			}
			continue
		}
		edgeIDs[e.ID()] = e
	}
	if !finite(ds.Flow.Total) || ds.Flow.Total < 0 {
		add("flow total is invalid")
	}

	if g := ds.FlowGeometry; g != nil {
		if g.NodeWidth <= 0 || g.NodeHeight <= 0 || g.RowSpacing <= 0 {
			add("flow_geometry: node size and row spacing must be positive")
		}
		if g.ViewWidth <= 0 || g.ViewHeight <= 0 {
			add("flow_geometry: view size must be positive")
		}
	}
	if s := ds.FlowStyle; s != nil {
		if !(s.MinStrokeWidth > 0) || !(s.StrokeScale > 0) {
			add("flow_style: min_stroke_width and stroke_scale must be positive")
		}
		for _, o := range []float64{s.BaselineOpacity, s.HighlightOpacity, s.DimOpacity} {
			if !(o > 0 && o <= 1) {
				add("flow_style: opacity %.2f outside (0, 1]", o)
				break
			}
		}
		if s.DimOpacity >= s.HighlightOpacity {
			add("flow_style: dim_opacity %.2f not below highlight_opacity %.2f", s.DimOpacity, s.HighlightOpacity)
		}
	}

	for _, c := range ds.Heatmap.Cells {
		if c.Count < 0 {
			add("heatmap %s/%s: negative count", c.Market, c.Category)
		}
	}
	for category, sev := range ds.Severity {
		if !sev.Valid() {
			add("severity %s: unknown level %q", category, sev)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	slices.Sort(problems)
	return errors.New(errors.ErrCodeInvalidDataset, "%s", strings.Join(problems, "; "))
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
