// Package report defines the injected dataset behind every chart and the
// derived overview metrics.
//
// A [Dataset] is plain data, decoded from TOML. Rendering packages never
// embed report numbers; they receive a Dataset (or one of its parts) from
// the caller. [Default] returns the embedded January-2026 report.
//
// # Status classification
//
// Markets are classified against [Thresholds]:
//
//	accuracy >= Excellent → StatusExcellent (when Excellent is set)
//	accuracy >= OnTrack   → StatusOnTrack
//	accuracy >= AtRisk    → StatusAtRisk
//	otherwise             → StatusCritical
//
// The thresholds are part of the dataset because historical reports
// disagree on the on-track cutoff.
package report

import (
	"math"

	"github.com/matzehuels/qadash/pkg/render/flow"
	"github.com/matzehuels/qadash/pkg/render/heatmap"
)

// Dataset is one reporting period.
type Dataset struct {
	Title          string         `json:"title" toml:"title"`
	Period         string         `json:"period" toml:"period"`
	AccuracyTarget float64        `json:"accuracy_target" toml:"accuracy_target"`
	Thresholds     Thresholds     `json:"thresholds" toml:"thresholds"`
	Markets        []Market       `json:"markets" toml:"markets"`
	Trend          []TrendPoint   `json:"trend" toml:"trend"`
	Flow           flow.Diagram   `json:"flow" toml:"flow"`
	Heatmap        heatmap.Grid   `json:"heatmap" toml:"heatmap"`
	FlowGeometry   *flow.Geometry `json:"flow_geometry,omitempty" toml:"flow_geometry"`
	FlowStyle      *flow.Style    `json:"flow_style,omitempty" toml:"flow_style"`

	// Severity rates error categories by policy impact. Categories it
	// does not list are unrated.
	Severity map[string]Severity `json:"severity,omitempty" toml:"severity"`
}

// Market is one market's accuracy for the period.
type Market struct {
	Name          string  `json:"name" toml:"name"`
	VGAccuracy    float64 `json:"vg_accuracy" toml:"vg_accuracy"`
	VHSAccuracy   float64 `json:"vhs_accuracy" toml:"vhs_accuracy"`
	VGVHSAccuracy float64 `json:"vg_vhs_accuracy" toml:"vg_vhs_accuracy"`
	Samples       int     `json:"samples" toml:"samples"`
	Incorrect     int     `json:"incorrect" toml:"incorrect"`

	// Weeks is the market's weekly series, oldest first.
	Weeks []TrendPoint `json:"weeks,omitempty" toml:"weeks"`
}

// ErrorRate returns incorrect/samples as a percentage, or 0 without samples.
func (m Market) ErrorRate() float64 {
	if m.Samples <= 0 {
		return 0
	}
	return float64(m.Incorrect) / float64(m.Samples) * 100
}

// TrendPoint is one week of a trend.
type TrendPoint struct {
	Label    string  `json:"label" toml:"label"`
	Accuracy float64 `json:"accuracy" toml:"accuracy"`
	Samples  int     `json:"samples" toml:"samples"`
	Errors   int     `json:"errors" toml:"errors"`
}

// Status is a market's standing against the thresholds.
type Status string

const (
	StatusExcellent Status = "excellent"
	StatusOnTrack   Status = "on-track"
	StatusAtRisk    Status = "at-risk"
	StatusCritical  Status = "critical"
)

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusExcellent, StatusOnTrack, StatusAtRisk, StatusCritical:
		return st, true
	}
	return "", false
}

// Label returns the display text of s.
func (s Status) Label() string {
	switch s {
	case StatusExcellent:
		return "Excellent"
	case StatusOnTrack:
		return "On Track"
	case StatusAtRisk:
		return "At Risk"
	default:
		return "Critical"
	}
}

// Thresholds are the status cutoffs. Accuracy cutoffs are in percent; an
// Excellent of zero disables that tier.
type Thresholds struct {
	Excellent float64 `json:"excellent" toml:"excellent"`
	OnTrack   float64 `json:"on_track" toml:"on_track"`
	AtRisk    float64 `json:"at_risk" toml:"at_risk"`

	// LowSample is the average weekly sample count below which a market's
	// accuracy is flagged as statistically weak.
	LowSample float64 `json:"low_sample" toml:"low_sample"`
}

// DefaultThresholds returns the 90/85 cutoffs of the executive summary,
// excellent at the 95% target and the 90-sample floor.
func DefaultThresholds() Thresholds {
	return Thresholds{Excellent: 95, OnTrack: 90, AtRisk: 85, LowSample: 90}
}

// Classify returns the status of accuracy.
func (t Thresholds) Classify(accuracy float64) Status {
	switch {
	case t.Excellent > 0 && accuracy >= t.Excellent:
		return StatusExcellent
	case accuracy >= t.OnTrack:
		return StatusOnTrack
	case accuracy >= t.AtRisk:
		return StatusAtRisk
	default:
		return StatusCritical
	}
}

// Overview holds the headline metrics of a dataset.
type Overview struct {
	Accuracy      float64 `json:"accuracy"`
	Samples       int     `json:"samples"`
	Errors        int     `json:"errors"`
	Markets       int     `json:"markets"`
	MarketsAtRisk int     `json:"markets_at_risk"`
	GapToTarget   float64 `json:"gap_to_target"` // target minus accuracy, in percentage points
}

// Summary computes the overview. Accuracy is sample-weighted across
// markets; MarketsAtRisk counts markets whose combined accuracy is below
// the at-risk threshold.
func Summary(ds *Dataset) Overview {
	var o Overview
	o.Markets = len(ds.Markets)
	for _, m := range ds.Markets {
		o.Samples += m.Samples
		o.Errors += m.Incorrect
		if m.VGVHSAccuracy < ds.Thresholds.AtRisk {
			o.MarketsAtRisk++
		}
	}
	if o.Samples > 0 {
		o.Accuracy = float64(o.Samples-o.Errors) / float64(o.Samples) * 100
	}
	if ds.AccuracyTarget > 0 {
		o.GapToTarget = round2(ds.AccuracyTarget - o.Accuracy)
	}
	return o
}

// MarketRow is a market with its derived status.
type MarketRow struct {
	Market
	Status    Status  `json:"status"`
	ErrorRate float64 `json:"error_rate"`
}

// Rows returns every market with status and error rate, in dataset order.
func Rows(ds *Dataset) []MarketRow {
	rows := make([]MarketRow, len(ds.Markets))
	for i, m := range ds.Markets {
		rows[i] = MarketRow{
			Market:    m,
			Status:    ds.Thresholds.Classify(m.VGVHSAccuracy),
			ErrorRate: m.ErrorRate(),
		}
	}
	return rows
}

// Market looks up a market by name.
func (ds *Dataset) Market(name string) (Market, bool) {
	for _, m := range ds.Markets {
		if m.Name == name {
			return m, true
		}
	}
	return Market{}, false
}

// Direction describes how the trend moved over the period.
type Direction string

const (
	Improving Direction = "improving"
	Declining Direction = "declining"
	Volatile  Direction = "volatile"
	Stable    Direction = "stable"
)

// Trend bands, in percentage points.
const (
	stableBand   = 0.5 // net or weekly moves below this are noise
	volatileBand = 4.0 // a reversing series with a smaller net move is volatile
)

// TrendSummary is the first-to-last movement of a trend.
type TrendSummary struct {
	Direction   Direction `json:"direction"`
	Improvement float64   `json:"improvement"`
	First       float64   `json:"first"`
	Last        float64   `json:"last"`
	Swing       float64   `json:"swing"` // largest single-step move
}

// Trend summarizes points. Fewer than two points is stable. A series
// whose steps rise and fall by more than the noise band is volatile
// unless its net move is at least 4 points.
func Trend(points []TrendPoint) TrendSummary {
	if len(points) < 2 {
		s := TrendSummary{Direction: Stable}
		if len(points) == 1 {
			s.First, s.Last = points[0].Accuracy, points[0].Accuracy
		}
		return s
	}
	first, last := points[0].Accuracy, points[len(points)-1].Accuracy
	s := TrendSummary{First: first, Last: last, Improvement: round2(last - first)}
	var rose, fell bool
	for i := 1; i < len(points); i++ {
		step := points[i].Accuracy - points[i-1].Accuracy
		s.Swing = max(s.Swing, round2(math.Abs(step)))
		rose = rose || step >= stableBand
		fell = fell || step <= -stableBand
	}
	switch {
	case rose && fell && math.Abs(s.Improvement) < volatileBand:
		s.Direction = Volatile
	case s.Improvement >= stableBand:
		s.Direction = Improving
	case s.Improvement <= -stableBand:
		s.Direction = Declining
	default:
		s.Direction = Stable
	}
	return s
}

// Sparkline draws values as a row of block characters scaled between
// the series minimum and maximum. A flat series draws at mid height.
func Sparkline(points []TrendPoint) string {
	const blocks = "▁▂▃▄▅▆▇█"
	runes := []rune(blocks)
	if len(points) == 0 {
		return ""
	}
	lo, hi := points[0].Accuracy, points[0].Accuracy
	for _, p := range points[1:] {
		lo, hi = min(lo, p.Accuracy), max(hi, p.Accuracy)
	}
	out := make([]rune, len(points))
	for i, p := range points {
		idx := len(runes) / 2
		if hi > lo {
			idx = int(math.Round((p.Accuracy - lo) / (hi - lo) * float64(len(runes)-1)))
		}
		out[i] = runes[idx]
	}
	return string(out)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
