package analytics

import (
	"sort"

	"enforcement-analytics/internal/domain/event"
)

// RankKey selects the primary ranking value.
type RankKey string

const (
	RankByScore   RankKey = "score"   // composite VPI/CRI score
	RankByCrashes RankKey = "crashes" // accident-hotspot mode
	RankByTickets RankKey = "tickets" // violation-hotspot mode
)

// RankOptions shape one ranking run.
type RankOptions struct {
	Key   RankKey
	Topic event.Topic // weights and ticket counts for score/tickets modes
	TopN  int

	// Severities restricts crash counting and eligibility to the given
	// classes (empty means all).
	Severities []event.Severity

	// ActiveOnly drops sites whose primary value is zero. Hotspot modes
	// set it; recommendation mode keeps zero-score sites visible.
	ActiveOnly bool
}

// RankedSite is one row of a ranking: the metrics plus a dense 1-based rank
// and the trend against the baseline window. TrendPct is nil when the
// baseline value is zero, which is reported distinctly from a flat 0%.
type RankedSite struct {
	Rank int `json:"rank"`
	SiteMetrics
	TrendPct *float64 `json:"trend_pct,omitempty"`
}

// BaselineStats carry the prior window's aggregation for trend computation.
type BaselineStats struct {
	Window PeriodWindow
	Sites  map[string]*SiteStats
}

// NewBaselineStats indexes an aggregation result by site id.
func NewBaselineStats(window PeriodWindow, result AggregateResult) *BaselineStats {
	sites := make(map[string]*SiteStats, len(result.Sites))
	for _, s := range result.Sites {
		sites[s.Site.ID] = s
	}
	return &BaselineStats{Window: window, Sites: sites}
}

// Rank orders sites by the chosen key and returns at most TopN rows.
//
// Ordering is total and reproducible: primary value descending, then crash
// count descending, then site id ascending. Ranks are dense and 1-based, so
// equal primary values share a rank. Zero qualifying sites yield an empty
// slice, not an error.
func Rank(current []*SiteStats, window PeriodWindow, baseline *BaselineStats, opts RankOptions, w Weights) []RankedSite {
	if opts.TopN <= 0 {
		return nil
	}

	type row struct {
		metrics SiteMetrics
		primary float64
		crashes int
		stats   *SiteStats
	}

	rows := make([]row, 0, len(current))
	for _, stats := range current {
		if !matchesSeverities(stats, opts.Severities) {
			continue
		}
		m := ComputeMetrics(stats, opts.Topic, window, w)
		primary := primaryValue(m, stats, opts)
		if opts.ActiveOnly && primary == 0 {
			continue
		}
		rows = append(rows, row{metrics: m, primary: primary, crashes: m.CrashCount, stats: stats})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].primary != rows[j].primary {
			return rows[i].primary > rows[j].primary
		}
		if rows[i].crashes != rows[j].crashes {
			return rows[i].crashes > rows[j].crashes
		}
		return rows[i].metrics.Site.ID < rows[j].metrics.Site.ID
	})

	if len(rows) > opts.TopN {
		rows = rows[:opts.TopN]
	}

	ranked := make([]RankedSite, 0, len(rows))
	rank := 0
	prev := 0.0
	for i, r := range rows {
		if i == 0 || r.primary != prev {
			rank++
			prev = r.primary
		}
		ranked = append(ranked, RankedSite{
			Rank:        rank,
			SiteMetrics: r.metrics,
			TrendPct:    trendAgainst(baseline, r.metrics.Site.ID, r.primary, opts, w),
		})
	}
	return ranked
}

func trendAgainst(baseline *BaselineStats, siteID string, current float64, opts RankOptions, w Weights) *float64 {
	if baseline == nil {
		return nil
	}
	base, ok := baseline.Sites[siteID]
	if !ok {
		return nil
	}
	baseMetrics := ComputeMetrics(base, opts.Topic, baseline.Window, w)
	return TrendPct(current, primaryValue(baseMetrics, base, opts))
}

// TrendPct returns (current-baseline)/baseline×100 rounded to one decimal,
// or nil when the baseline is zero. Never NaN or Inf.
func TrendPct(current, baseline float64) *float64 {
	if baseline == 0 {
		return nil
	}
	pct := round1((current - baseline) / baseline * 100)
	return &pct
}

func primaryValue(m SiteMetrics, stats *SiteStats, opts RankOptions) float64 {
	switch opts.Key {
	case RankByCrashes:
		return float64(crashValue(stats, opts.Severities))
	case RankByTickets:
		return float64(m.TicketCount)
	default:
		return m.Score
	}
}

func crashValue(stats *SiteStats, severities []event.Severity) int {
	if len(severities) == 0 {
		return stats.CrashCount
	}
	total := 0
	for _, sev := range severities {
		total += stats.CrashesBySeverity[sev]
	}
	return total
}

func matchesSeverities(stats *SiteStats, severities []event.Severity) bool {
	if len(severities) == 0 {
		return true
	}
	for _, sev := range severities {
		if stats.CrashesBySeverity[sev] > 0 {
			return true
		}
	}
	return false
}
