package report

import (
	"cmp"
	"slices"
)

// TopErrorLimit is the number of categories listed in a market detail.
const TopErrorLimit = 3

// NonViolating is the category of content flagged although it broke no
// policy.
const NonViolating = "NON_VIOLATING"

// CategoryCount is one error category of a market.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Detail is the drill-down view of one market. The weekly series travels
// in the embedded market's Weeks.
type Detail struct {
	MarketRow
	Trend              TrendSummary    `json:"trend"`
	Sparkline          string          `json:"sparkline"`
	AvgSamples         float64         `json:"avg_samples"`
	LowSample          bool            `json:"low_sample"`
	TopErrors          []CategoryCount `json:"top_errors"`
	HighSeverity       []CategoryCount `json:"high_severity"`
	HighSeverityCount  int             `json:"high_severity_count"`
	NonViolatingErrors int             `json:"non_violating_errors"`
	HeatmapErrors      int             `json:"heatmap_errors"` // sum of the market's heatmap cells
}

// MarketDetail returns the detail of the named market.
//
// Top errors and high-severity categories come from the heatmap grid,
// largest count first; ties keep the grid's category order and zero
// counts are omitted. The trend and average sample size come from the
// market's weekly series, falling back to the period sample count when
// the market has no weeks.
func MarketDetail(ds *Dataset, name string) (Detail, bool) {
	m, ok := ds.Market(name)
	if !ok {
		return Detail{}, false
	}
	d := Detail{
		MarketRow: MarketRow{
			Market:    m,
			Status:    ds.Thresholds.Classify(m.VGVHSAccuracy),
			ErrorRate: m.ErrorRate(),
		},
		Trend:        Trend(m.Weeks),
		Sparkline:    Sparkline(m.Weeks),
		AvgSamples:   float64(m.Samples),
		TopErrors:    []CategoryCount{},
		HighSeverity: []CategoryCount{},
	}
	if len(m.Weeks) > 0 {
		var n int
		for _, w := range m.Weeks {
			n += w.Samples
		}
		d.AvgSamples = round2(float64(n) / float64(len(m.Weeks)))
	}
	d.LowSample = d.AvgSamples < ds.Thresholds.LowSample

	var counts []CategoryCount
	for _, c := range ds.Heatmap.Categories {
		n := ds.Heatmap.Count(name, c)
		d.HeatmapErrors += n
		if n == 0 {
			continue
		}
		counts = append(counts, CategoryCount{Category: c, Count: n})
		if c == NonViolating {
			d.NonViolatingErrors = n
		}
		if ds.Severity[c].Critical() {
			d.HighSeverity = append(d.HighSeverity, CategoryCount{Category: c, Count: n})
			d.HighSeverityCount += n
		}
	}
	byCount := func(a, b CategoryCount) int { return cmp.Compare(b.Count, a.Count) }
	slices.SortStableFunc(counts, byCount)
	slices.SortStableFunc(d.HighSeverity, byCount)
	if len(counts) > TopErrorLimit {
		counts = counts[:TopErrorLimit]
	}
	d.TopErrors = append(d.TopErrors, counts...)
	return d, true
}
