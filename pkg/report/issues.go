package report

import (
	"cmp"
	"slices"
)

// Severity is the policy impact of an error category.
type Severity string

const (
	SeverityExtremelyHigh Severity = "extremely-high"
	SeverityVeryHigh      Severity = "very-high"
	SeverityHigh          Severity = "high"
	SeverityMedium        Severity = "medium"
	SeverityLow           Severity = "low"
)

// Valid reports whether s is a known level.
func (s Severity) Valid() bool {
	switch s {
	case SeverityExtremelyHigh, SeverityVeryHigh, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Critical reports whether s counts as high severity (very high or above).
func (s Severity) Critical() bool {
	return s == SeverityExtremelyHigh || s == SeverityVeryHigh
}

// Label returns the display text of s, or "Unrated".
func (s Severity) Label() string {
	switch s {
	case SeverityExtremelyHigh:
		return "Extremely High"
	case SeverityVeryHigh:
		return "Very High"
	case SeverityHigh:
		return "High"
	case SeverityMedium:
		return "Medium"
	case SeverityLow:
		return "Low"
	}
	return "Unrated"
}

// Issue limits.
const (
	CriticalIssueLimit = 5 // issues listed by default
	IssueMarketLimit   = 3 // worst markets named per issue
)

// MarketCount is one market's share of an error category.
type MarketCount struct {
	Market string `json:"market"`
	Count  int    `json:"count"`
}

// Issue is one ranked error category.
type Issue struct {
	Rank     int           `json:"rank"`
	Category string        `json:"category"`
	Total    int           `json:"total"`
	Share    float64       `json:"share"` // percent of all heatmap errors
	Severity Severity      `json:"severity,omitempty"`
	Markets  []MarketCount `json:"markets"`
}

// CriticalIssues ranks the heatmap's high-severity categories by total
// count across markets, largest first, and names the markets where each
// is worst. When the dataset rates no categories every category is a
// candidate. Ties keep the grid order and zero totals are omitted. A
// limit of zero or less returns every issue.
func CriticalIssues(ds *Dataset, limit int) []Issue {
	g := ds.Heatmap
	var all int
	for _, m := range g.Markets {
		for _, c := range g.Categories {
			all += g.Count(m, c)
		}
	}

	issues := []Issue{}
	for _, c := range g.Categories {
		sev := ds.Severity[c]
		if len(ds.Severity) > 0 && !sev.Critical() {
			continue
		}
		is := Issue{Category: c, Severity: sev, Markets: []MarketCount{}}
		for _, m := range g.Markets {
			if n := g.Count(m, c); n > 0 {
				is.Total += n
				is.Markets = append(is.Markets, MarketCount{Market: m, Count: n})
			}
		}
		if is.Total == 0 {
			continue
		}
		slices.SortStableFunc(is.Markets, func(a, b MarketCount) int { return cmp.Compare(b.Count, a.Count) })
		if len(is.Markets) > IssueMarketLimit {
			is.Markets = is.Markets[:IssueMarketLimit]
		}
		if all > 0 {
			is.Share = round2(float64(is.Total) / float64(all) * 100)
		}
		issues = append(issues, is)
	}

	slices.SortStableFunc(issues, func(a, b Issue) int { return cmp.Compare(b.Total, a.Total) })
	if limit > 0 && len(issues) > limit {
		issues = issues[:limit]
	}
	for i := range issues {
		issues[i].Rank = i + 1
	}
	return issues
}
