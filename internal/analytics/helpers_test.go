package analytics

import (
	"testing"
	"time"

	"enforcement-analytics/internal/domain/event"
)

func at(y int, m time.Month, d, hh int) time.Time {
	return time.Date(y, m, d, hh, 0, 0, 0, time.UTC)
}

func mustMonth(t *testing.T, year, month int) PeriodWindow {
	t.Helper()
	w, err := ResolveMonth(year, month)
	if err != nil {
		t.Fatalf("ResolveMonth(%d, %d): %v", year, month, err)
	}
	return w
}

func crashAt(ts time.Time, district, location string, sev event.Severity) event.Record {
	return event.Record{
		Kind:         event.KindCrash,
		OccurredAt:   ts,
		District:     district,
		LocationDesc: location,
		Severity:     sev,
	}
}

func ticketAt(ts time.Time, district, location string, topics ...event.Topic) event.Record {
	r := event.Record{
		Kind:         event.KindTicket,
		OccurredAt:   ts,
		District:     district,
		LocationDesc: location,
	}
	for _, topic := range topics {
		switch topic {
		case event.TopicDUI:
			r.TopicDUI = true
		case event.TopicRedLight:
			r.TopicRedLight = true
		case event.TopicDangerousDriving:
			r.TopicDangerous = true
		}
	}
	return r
}

func located(r event.Record, lat, lng float64) event.Record {
	r.Latitude, r.Longitude = &lat, &lng
	return r
}

// siteStats builds a bare site for ranker and displacement tests that do not
// go through Aggregate.
func siteStats(id, district, name string, crashes, tickets int) *SiteStats {
	return &SiteStats{
		Site:              Site{ID: id, Name: name, District: district},
		TicketCount:       tickets,
		TicketsByTopic:    make(map[event.Topic]int),
		CrashCount:        crashes,
		CrashesBySeverity: map[event.Severity]int{event.SeverityA3: crashes},
		ticketDates:       make(map[string]struct{}),
	}
}

func placeSite(s *SiteStats, lat, lng float64) *SiteStats {
	s.Site.Lat, s.Site.Lng = &lat, &lng
	return s
}
