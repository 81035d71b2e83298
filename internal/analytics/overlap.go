package analytics

import (
	"enforcement-analytics/internal/domain/event"
	"enforcement-analytics/internal/geo"
)

// OverlapRate returns how much of the accident hotspot set the enforcement
// hotspot set covers: |A∩E| / |A| × 100, rounded to one decimal. The
// accident set is the reference because the question being answered is "how
// well does enforcement cover accident hotspots". Empty accident set → 0.
func OverlapRate(accident, enforcement []RankedSite) float64 {
	if len(accident) == 0 {
		return 0
	}
	ids := make(map[string]struct{}, len(enforcement))
	for _, s := range enforcement {
		ids[s.Site.ID] = struct{}{}
	}
	shared := 0
	for _, s := range accident {
		if _, ok := ids[s.Site.ID]; ok {
			shared++
		}
	}
	return round1(float64(shared) / float64(len(accident)) * 100)
}

// DisplacementSignal is the rule-evaluation outcome of a displacement check.
// Advisory text is rendered separately by the presentation layer.
type DisplacementSignal string

const (
	DisplacementSuspected DisplacementSignal = "DISPLACEMENT_SUSPECTED"
	NoSignal              DisplacementSignal = "NO_SIGNAL"
	InsufficientData      DisplacementSignal = "INSUFFICIENT_DATA"
)

type DisplacementOptions struct {
	// CoreK is how many of the current accident ranking form the core
	// partition; callers default it to the request's top-N.
	CoreK int
	// BufferMeters bounds the buffer partition around core centroids.
	BufferMeters float64
	// Severities restricts which crashes count, matching the ranking.
	Severities []event.Severity
}

// DisplacementResult compares accident activity in the core hotspot
// partition and its surrounding buffer against the baseline window.
type DisplacementResult struct {
	CoreSites       []string `json:"core_sites"`
	BufferSites     []string `json:"buffer_sites"`
	CoreChangePct   *float64 `json:"core_change_pct,omitempty"`
	BufferChangePct *float64 `json:"buffer_change_pct,omitempty"`

	Signal DisplacementSignal `json:"signal"`
}

// Displacement partitions the current sites into core (Top-K by accident
// count) and buffer (within BufferMeters of a core centroid, not core) and
// compares each partition's accident total against the baseline.
//
// The signal is DISPLACEMENT_SUSPECTED when core activity fell while buffer
// activity rose, INSUFFICIENT_DATA when a baseline partition is empty or no
// core site carries coordinates, NO_SIGNAL otherwise.
func Displacement(current []*SiteStats, window PeriodWindow, baseline *BaselineStats, opts DisplacementOptions, w Weights) DisplacementResult {
	var result DisplacementResult
	result.Signal = InsufficientData

	if opts.CoreK <= 0 || baseline == nil {
		return result
	}

	core := Rank(current, window, nil, RankOptions{
		Key:        RankByCrashes,
		TopN:       opts.CoreK,
		Severities: opts.Severities,
		ActiveOnly: true,
	}, w)
	if len(core) == 0 {
		return result
	}

	coreIDs := make(map[string]struct{}, len(core))
	var centroids []geo.Point
	for _, c := range core {
		coreIDs[c.Site.ID] = struct{}{}
		result.CoreSites = append(result.CoreSites, c.Site.ID)
		if c.Site.Lat != nil {
			centroids = append(centroids, geo.Point{Lat: *c.Site.Lat, Lng: *c.Site.Lng})
		}
	}
	if len(centroids) == 0 {
		return result
	}

	byID := make(map[string]*SiteStats, len(current))
	for _, s := range current {
		byID[s.Site.ID] = s
	}

	for _, s := range current {
		if _, isCore := coreIDs[s.Site.ID]; isCore || s.Site.Lat == nil {
			continue
		}
		p := geo.Point{Lat: *s.Site.Lat, Lng: *s.Site.Lng}
		for _, c := range centroids {
			if geo.Distance(c, p) <= opts.BufferMeters {
				result.BufferSites = append(result.BufferSites, s.Site.ID)
				break
			}
		}
	}

	coreCur := partitionCrashes(result.CoreSites, byID, opts.Severities)
	bufCur := partitionCrashes(result.BufferSites, byID, opts.Severities)
	coreBase := partitionCrashesBaseline(result.CoreSites, baseline, opts.Severities)
	bufBase := partitionCrashesBaseline(result.BufferSites, baseline, opts.Severities)

	result.CoreChangePct = TrendPct(float64(coreCur), float64(coreBase))
	result.BufferChangePct = TrendPct(float64(bufCur), float64(bufBase))

	if result.CoreChangePct == nil || result.BufferChangePct == nil {
		return result
	}
	if *result.CoreChangePct < 0 && *result.BufferChangePct > 0 {
		result.Signal = DisplacementSuspected
	} else {
		result.Signal = NoSignal
	}
	return result
}

func partitionCrashes(ids []string, byID map[string]*SiteStats, severities []event.Severity) int {
	total := 0
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			total += crashValue(s, severities)
		}
	}
	return total
}

func partitionCrashesBaseline(ids []string, baseline *BaselineStats, severities []event.Severity) int {
	total := 0
	for _, id := range ids {
		if s, ok := baseline.Sites[id]; ok {
			total += crashValue(s, severities)
		}
	}
	return total
}
