package analytics

import (
	"fmt"
	"sort"
	"strings"

	"enforcement-analytics/internal/domain/event"
)

// SummaryInput carries the record sets BuildSummary aggregates. The caller
// resolves the windows and loads the data; everything here is pure.
type SummaryInput struct {
	Year  int
	Month int

	// Current holds the report month, PriorYear the same month one year
	// earlier, Trailing the six calendar months ending at the report month.
	Current   []event.Record
	PriorYear []event.Record
	Trailing  []event.Record

	// TopN bounds the hotspot lists (5 when unset).
	TopN int
}

type ReportPeriod struct {
	Year   int          `json:"year"`
	Month  int          `json:"month"`
	Window PeriodWindow `json:"window"`
}

// StatComparison compares one measure against the prior-year month.
type StatComparison struct {
	Current   int     `json:"current"`
	LastYear  int     `json:"last_year"`
	Change    int     `json:"change"`
	ChangePct float64 `json:"change_pct"`
}

type OverallStats struct {
	Accidents StatComparison `json:"accidents"`
	Tickets   StatComparison `json:"tickets"`
	Injuries  StatComparison `json:"injuries"`
	Deaths    StatComparison `json:"deaths"`
}

type TrendPoint struct {
	Month     string `json:"month"`
	Accidents int    `json:"accidents"`
	Tickets   int    `json:"tickets"`
}

type HotspotItem struct {
	Rank       int      `json:"rank"`
	Location   string   `json:"location"`
	District   string   `json:"district"`
	Count      int      `json:"count"`
	TrendPct   *float64 `json:"trend_pct,omitempty"`
	MajorCause string   `json:"major_cause,omitempty"`
}

// ReportSummary is the aggregation handed to the report writer. It contains
// no row-level data, only monthly counts and ranked locations.
type ReportSummary struct {
	Period            ReportPeriod  `json:"period"`
	OverallStats      OverallStats  `json:"overall_stats"`
	Trends            []TrendPoint  `json:"trends"`
	AccidentHotspots  []HotspotItem `json:"accident_hotspots"`
	ViolationHotspots []HotspotItem `json:"violation_hotspots"`
	FocusDistricts    []string      `json:"focus_districts"`
	FocusCauses       []string      `json:"focus_causes"`
}

const trendMonths = 6

// BuildSummary aggregates a calendar month into the report contract:
// prior-year comparisons for accidents, tickets, injuries (A1+A2) and
// deaths (A1), the trailing six-month trend, the Top-N injury-accident and
// violation hotspots, and the districts and causes that grew the most.
func BuildSummary(in SummaryInput) (ReportSummary, error) {
	window, err := ResolveMonth(in.Year, in.Month)
	if err != nil {
		return ReportSummary{}, err
	}

	topN := in.TopN
	if topN <= 0 {
		topN = 5
	}

	current := filterWindow(in.Current, window)

	// The prior-year month can be unresolvable only for year 1; the prior
	// slice just stays empty then.
	var prior []event.Record
	if priorWindow, perr := ResolveMonth(in.Year-1, in.Month); perr == nil {
		prior = filterWindow(in.PriorYear, priorWindow)
	}

	summary := ReportSummary{
		Period: ReportPeriod{Year: in.Year, Month: in.Month, Window: window},
		OverallStats: OverallStats{
			Accidents: compareCounts(countKind(current, event.KindCrash), countKind(prior, event.KindCrash)),
			Tickets:   compareCounts(countKind(current, event.KindTicket), countKind(prior, event.KindTicket)),
			Injuries:  compareCounts(countInjury(current), countInjury(prior)),
			Deaths:    compareCounts(countSeverity(current, event.SeverityA1), countSeverity(prior, event.SeverityA1)),
		},
		Trends:            trendSeries(in.Trailing, in.Year, in.Month),
		AccidentHotspots:  topHotspots(current, prior, topN, isInjuryCrash, "A1+A2"),
		ViolationHotspots: topHotspots(current, prior, topN, isTicket, "全部違規"),
		FocusDistricts:    focusDistricts(current, prior),
		FocusCauses:       focusCauses(current, prior),
	}
	return summary, nil
}

func compareCounts(curr, last int) StatComparison {
	c := StatComparison{Current: curr, LastYear: last, Change: curr - last}
	if last > 0 {
		c.ChangePct = round1(float64(c.Change) / float64(last) * 100)
	}
	return c
}

func trendSeries(records []event.Record, year, month int) []TrendPoint {
	points := make([]TrendPoint, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		y, m := year, month-i
		for m <= 0 {
			m += 12
			y--
		}
		p := TrendPoint{Month: fmt.Sprintf("%d-%02d", y, m)}
		for _, r := range records {
			if r.OccurredAt.Year() != y || int(r.OccurredAt.Month()) != m {
				continue
			}
			switch r.Kind {
			case event.KindCrash:
				p.Accidents++
			case event.KindTicket:
				p.Tickets++
			}
		}
		points = append(points, p)
	}
	return points
}

// topHotspots ranks (district, location) pairs by matching-record count.
// Records without a location description cannot be ranked and are skipped.
func topHotspots(current, prior []event.Record, topN int, match func(event.Record) bool, cause string) []HotspotItem {
	type key struct{ district, location string }
	count := func(records []event.Record) map[key]int {
		m := make(map[key]int)
		for _, r := range records {
			if !match(r) {
				continue
			}
			k := key{strings.TrimSpace(r.District), strings.TrimSpace(r.LocationDesc)}
			if k.location == "" {
				continue
			}
			m[k]++
		}
		return m
	}

	counts := count(current)
	priorCounts := count(prior)

	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		if keys[i].district != keys[j].district {
			return keys[i].district < keys[j].district
		}
		return keys[i].location < keys[j].location
	})
	if len(keys) > topN {
		keys = keys[:topN]
	}

	items := make([]HotspotItem, 0, len(keys))
	for i, k := range keys {
		items = append(items, HotspotItem{
			Rank:       i + 1,
			Location:   k.location,
			District:   k.district,
			Count:      counts[k],
			TrendPct:   TrendPct(float64(counts[k]), float64(priorCounts[k])),
			MajorCause: cause,
		})
	}
	return items
}

// focusDistricts lists up to three districts whose accident count grew the
// most against the prior year.
func focusDistricts(current, prior []event.Record) []string {
	curr := make(map[string]int)
	last := make(map[string]int)
	for _, r := range current {
		if r.Kind == event.KindCrash && r.District != "" {
			curr[r.District]++
		}
	}
	for _, r := range prior {
		if r.Kind == event.KindCrash && r.District != "" {
			last[r.District]++
		}
	}
	return topIncreases(curr, last, 3)
}

// focusCauses lists up to three growing categories: crash causes plus the
// ticket topics, so the report writer sees both sides.
func focusCauses(current, prior []event.Record) []string {
	return topIncreases(causeCounts(current), causeCounts(prior), 3)
}

func causeCounts(records []event.Record) map[string]int {
	m := make(map[string]int)
	for _, r := range records {
		switch r.Kind {
		case event.KindCrash:
			if cause := strings.TrimSpace(r.Cause); cause != "" {
				m[cause]++
			}
		case event.KindTicket:
			for _, t := range []event.Topic{event.TopicDUI, event.TopicRedLight, event.TopicDangerousDriving} {
				if r.MatchesTopic(t) {
					m[string(t)]++
				}
			}
		}
	}
	return m
}

func topIncreases(curr, last map[string]int, topN int) []string {
	type delta struct {
		name     string
		increase int
	}
	deltas := make([]delta, 0, len(curr))
	for name, c := range curr {
		if inc := c - last[name]; inc > 0 {
			deltas = append(deltas, delta{name, inc})
		}
	}
	sort.Slice(deltas, func(i, j int) bool {
		if deltas[i].increase != deltas[j].increase {
			return deltas[i].increase > deltas[j].increase
		}
		return deltas[i].name < deltas[j].name
	})
	if len(deltas) > topN {
		deltas = deltas[:topN]
	}
	names := make([]string, 0, len(deltas))
	for _, d := range deltas {
		names = append(names, d.name)
	}
	return names
}

func filterWindow(records []event.Record, window PeriodWindow) []event.Record {
	out := make([]event.Record, 0, len(records))
	for _, r := range records {
		if window.Contains(r.OccurredAt) {
			out = append(out, r)
		}
	}
	return out
}

func countKind(records []event.Record, kind event.Kind) int {
	n := 0
	for _, r := range records {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

func countSeverity(records []event.Record, sev event.Severity) int {
	n := 0
	for _, r := range records {
		if r.Kind == event.KindCrash && r.Severity == sev {
			n++
		}
	}
	return n
}

func countInjury(records []event.Record) int {
	n := 0
	for _, r := range records {
		if isInjuryCrash(r) {
			n++
		}
	}
	return n
}

func isInjuryCrash(r event.Record) bool {
	return r.Kind == event.KindCrash && (r.Severity == event.SeverityA1 || r.Severity == event.SeverityA2)
}

func isTicket(r event.Record) bool {
	return r.Kind == event.KindTicket
}
