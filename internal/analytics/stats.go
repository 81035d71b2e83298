package analytics

import (
	"enforcement-analytics/internal/domain/event"
)

type TopicCounts struct {
	DUI              int `json:"dui"`
	RedLight         int `json:"red_light"`
	DangerousDriving int `json:"dangerous_driving"`
}

func (c *TopicCounts) add(r event.Record) {
	if r.MatchesTopic(event.TopicDUI) {
		c.DUI++
	}
	if r.MatchesTopic(event.TopicRedLight) {
		c.RedLight++
	}
	if r.MatchesTopic(event.TopicDangerousDriving) {
		c.DangerousDriving++
	}
}

// KindOverview totals one record kind, with the elderly share broken out
// for the road-safety program views.
type KindOverview struct {
	Total             int     `json:"total"`
	Elderly           int     `json:"elderly"`
	ElderlyPercentage float64 `json:"elderly_percentage"`
}

type Overview struct {
	Window  PeriodWindow `json:"period"`
	Tickets KindOverview `json:"tickets"`
	Crashes KindOverview `json:"crashes"`
	Topics  TopicCounts  `json:"topics"`
}

// ComputeOverview totals a window. It never divides by zero; empty windows
// produce zero percentages.
func ComputeOverview(records []event.Record, window PeriodWindow) Overview {
	o := Overview{Window: window}
	for _, r := range records {
		if !window.Contains(r.OccurredAt) {
			continue
		}
		switch r.Kind {
		case event.KindTicket:
			o.Tickets.Total++
			if r.Elderly {
				o.Tickets.Elderly++
			}
			o.Topics.add(r)
		case event.KindCrash:
			o.Crashes.Total++
			if r.Elderly {
				o.Crashes.Elderly++
			}
		}
	}
	o.Tickets.ElderlyPercentage = share(o.Tickets.Elderly, o.Tickets.Total)
	o.Crashes.ElderlyPercentage = share(o.Crashes.Elderly, o.Crashes.Total)
	return o
}

type MonthSnapshot struct {
	Year    int         `json:"year"`
	Tickets int         `json:"tickets"`
	Crashes int         `json:"crashes"`
	Topics  TopicCounts `json:"topics"`
}

type MonthlyComparison struct {
	TicketsChange float64 `json:"tickets_change"`
	CrashesChange float64 `json:"crashes_change"`
	TicketsTrend  string  `json:"tickets_trend"`
	CrashesTrend  string  `json:"crashes_trend"`
}

type MonthlyStats struct {
	Year       int               `json:"year"`
	Month      int               `json:"month"`
	Current    MonthSnapshot     `json:"current"`
	LastYear   MonthSnapshot     `json:"last_year"`
	Comparison MonthlyComparison `json:"comparison"`
}

// ComputeMonthlyStats compares a calendar month against the same month one
// year earlier. Change percentages are 0 when the prior month has no data.
func ComputeMonthlyStats(year, month int, current, prior []event.Record) (MonthlyStats, error) {
	window, err := ResolveMonth(year, month)
	if err != nil {
		return MonthlyStats{}, err
	}

	stats := MonthlyStats{
		Year:    year,
		Month:   month,
		Current: monthSnapshot(current, window, year),
	}

	if priorWindow, perr := ResolveMonth(year-1, month); perr == nil {
		stats.LastYear = monthSnapshot(prior, priorWindow, year-1)
	} else {
		stats.LastYear = MonthSnapshot{Year: year - 1}
	}

	stats.Comparison = MonthlyComparison{
		TicketsChange: changePct(stats.Current.Tickets, stats.LastYear.Tickets),
		CrashesChange: changePct(stats.Current.Crashes, stats.LastYear.Crashes),
	}
	stats.Comparison.TicketsTrend = trendLabel(stats.Comparison.TicketsChange)
	stats.Comparison.CrashesTrend = trendLabel(stats.Comparison.CrashesChange)
	return stats, nil
}

func monthSnapshot(records []event.Record, window PeriodWindow, year int) MonthSnapshot {
	s := MonthSnapshot{Year: year}
	for _, r := range records {
		if !window.Contains(r.OccurredAt) {
			continue
		}
		switch r.Kind {
		case event.KindTicket:
			s.Tickets++
			s.Topics.add(r)
		case event.KindCrash:
			s.Crashes++
		}
	}
	return s
}

func share(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

func changePct(curr, last int) float64 {
	if last <= 0 {
		return 0
	}
	return round1(float64(curr-last) / float64(last) * 100)
}

func trendLabel(change float64) string {
	switch {
	case change > 0:
		return "上升"
	case change < 0:
		return "下降"
	default:
		return "持平"
	}
}
