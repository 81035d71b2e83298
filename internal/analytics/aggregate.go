package analytics

import (
	"fmt"
	"sort"
	"strings"

	"enforcement-analytics/internal/domain/event"
	"enforcement-analytics/internal/geo"
)

// Site is a stable aggregation point: records sharing a district and a
// location description, optionally split by coordinate distance.
type Site struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	District string   `json:"district"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
}

// SiteStats are the raw per-site counters the metric engine works from.
type SiteStats struct {
	Site              Site
	TicketCount       int
	TicketsByTopic    map[event.Topic]int
	CrashCount        int
	CrashesBySeverity map[event.Severity]int
	ElderlyTickets    int
	ElderlyCrashes    int

	// ViolationDays counts distinct citation dates; ViolationDaysByTopic
	// counts them per topic so a topic ranking reports topic days.
	ViolationDays        int
	ViolationDaysByTopic map[event.Topic]int

	ticketDates        map[string]struct{}
	ticketDatesByTopic map[event.Topic]map[string]struct{}
}

// AggregateOptions control site resolution.
type AggregateOptions struct {
	// RadiusMeters > 0 splits records that share a (district, location)
	// key but sit farther apart than this distance into separate sites.
	// 0 keeps the plain composite key.
	RadiusMeters float64
	// ShiftID restricts aggregation to a single shift when set.
	ShiftID string
}

// Unlocated accounts for records that could not be assigned a site. They are
// excluded from aggregation but always reported, never silently dropped.
type Unlocated struct {
	MissingDistrict int `json:"missing_district"`
	MissingLocation int `json:"missing_location"`
}

func (u Unlocated) Total() int {
	return u.MissingDistrict + u.MissingLocation
}

type AggregateResult struct {
	// Sites is ordered by site id for reproducible downstream output.
	Sites      []*SiteStats
	Unlocated  Unlocated
	Considered int
}

// ByID returns the stats for a site id, nil when absent.
func (r AggregateResult) ByID(id string) *SiteStats {
	for _, s := range r.Sites {
		if s.Site.ID == id {
			return s
		}
	}
	return nil
}

// Aggregate groups the records of one window into sites.
//
// Records are first put in canonical order (timestamp, then latitude, then
// longitude) so that greedy radius clustering is deterministic regardless of
// input order: each record joins the first existing cluster of its
// (district, location) key whose first-seen coordinates are within the
// radius, otherwise it opens a new one. Records without coordinates join the
// key's first cluster. Records outside the window or missing district or
// location are excluded; the latter two are counted in Unlocated.
func Aggregate(records []event.Record, window PeriodWindow, opts AggregateOptions) AggregateResult {
	var result AggregateResult

	eligible := make([]event.Record, 0, len(records))
	for _, r := range records {
		if !window.Contains(r.OccurredAt) {
			continue
		}
		if opts.ShiftID != "" && recordShift(r) != opts.ShiftID {
			continue
		}
		if strings.TrimSpace(r.District) == "" {
			result.Unlocated.MissingDistrict++
			continue
		}
		if strings.TrimSpace(r.LocationDesc) == "" {
			result.Unlocated.MissingLocation++
			continue
		}
		eligible = append(eligible, r)
	}

	sort.Slice(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.Before(b.OccurredAt)
		}
		alat, blat := coordOrZero(a.Latitude), coordOrZero(b.Latitude)
		if alat != blat {
			return alat < blat
		}
		return coordOrZero(a.Longitude) < coordOrZero(b.Longitude)
	})

	clusters := make(map[string][]*SiteStats)
	for i := range eligible {
		r := eligible[i]
		key := compositeKey(r.District, r.LocationDesc)
		stats := resolveCluster(clusters, key, r, opts.RadiusMeters)
		addRecord(stats, r)
		result.Considered++
	}

	for _, group := range clusters {
		for _, stats := range group {
			stats.ViolationDays = len(stats.ticketDates)
			stats.ViolationDaysByTopic = make(map[event.Topic]int, len(stats.ticketDatesByTopic))
			for topic, dates := range stats.ticketDatesByTopic {
				stats.ViolationDaysByTopic[topic] = len(dates)
			}
			result.Sites = append(result.Sites, stats)
		}
	}
	sort.Slice(result.Sites, func(i, j int) bool {
		return result.Sites[i].Site.ID < result.Sites[j].Site.ID
	})

	return result
}

func resolveCluster(clusters map[string][]*SiteStats, key string, r event.Record, radius float64) *SiteStats {
	group := clusters[key]

	point, hasPoint := recordPoint(r)
	if radius > 0 && hasPoint {
		for _, c := range group {
			if c.Site.Lat == nil {
				continue
			}
			centroid := geo.Point{Lat: *c.Site.Lat, Lng: *c.Site.Lng}
			if geo.Distance(centroid, point) <= radius {
				return c
			}
		}
	} else if len(group) > 0 {
		return group[0]
	}

	stats := newSiteStats(key, r, len(group))
	clusters[key] = append(group, stats)
	return stats
}

func newSiteStats(key string, r event.Record, existing int) *SiteStats {
	id := key
	if existing > 0 {
		id = fmt.Sprintf("%s#%d", key, existing+1)
	}
	site := Site{
		ID:       id,
		Name:     strings.TrimSpace(r.LocationDesc),
		District: strings.TrimSpace(r.District),
	}
	if p, ok := recordPoint(r); ok {
		lat, lng := p.Lat, p.Lng
		site.Lat, site.Lng = &lat, &lng
	}
	return &SiteStats{
		Site:               site,
		TicketsByTopic:     make(map[event.Topic]int),
		CrashesBySeverity:  make(map[event.Severity]int),
		ticketDates:        make(map[string]struct{}),
		ticketDatesByTopic: make(map[event.Topic]map[string]struct{}),
	}
}

func addRecord(stats *SiteStats, r event.Record) {
	switch r.Kind {
	case event.KindTicket:
		date := r.OccurredAt.Format("2006-01-02")
		stats.TicketCount++
		for _, t := range []event.Topic{event.TopicDUI, event.TopicRedLight, event.TopicDangerousDriving, event.TopicOther} {
			if !r.MatchesTopic(t) {
				continue
			}
			stats.TicketsByTopic[t]++
			if stats.ticketDatesByTopic[t] == nil {
				stats.ticketDatesByTopic[t] = make(map[string]struct{})
			}
			stats.ticketDatesByTopic[t][date] = struct{}{}
		}
		if r.Elderly {
			stats.ElderlyTickets++
		}
		stats.ticketDates[date] = struct{}{}
	case event.KindCrash:
		stats.CrashCount++
		stats.CrashesBySeverity[r.Severity]++
		if r.Elderly {
			stats.ElderlyCrashes++
		}
	}
}

func recordShift(r event.Record) string {
	if r.ShiftID != "" {
		return r.ShiftID
	}
	return event.DeriveShift(r.OccurredAt)
}

func recordPoint(r event.Record) (geo.Point, bool) {
	if !r.HasCoordinates() {
		return geo.Point{}, false
	}
	p := geo.Point{Lat: *r.Latitude, Lng: *r.Longitude}
	if !p.Valid() {
		return geo.Point{}, false
	}
	return p, true
}

func coordOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func compositeKey(district, location string) string {
	return strings.TrimSpace(district) + "|" + strings.TrimSpace(location)
}
