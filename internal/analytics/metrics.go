package analytics

import (
	"math"

	"enforcement-analytics/internal/domain/event"
)

// Weights are the scoring constants. They are injected at construction and
// treated as immutable so concurrent requests and tests always see the same
// values; callers wanting different weights build a new value.
type Weights struct {
	Topic    map[event.Topic]float64
	Severity map[event.Severity]float64
	Alpha    map[event.Topic]float64 // VPI share of the composite score
	Beta     map[event.Topic]float64 // CRI share of the composite score
}

// DefaultWeights returns the production scoring table.
func DefaultWeights() Weights {
	return Weights{
		Topic: map[event.Topic]float64{
			event.TopicDUI:              10.0,
			event.TopicRedLight:         2.0,
			event.TopicDangerousDriving: 1.5,
		},
		Severity: map[event.Severity]float64{
			event.SeverityA1: 5,
			event.SeverityA2: 3,
			event.SeverityA3: 1,
		},
		Alpha: map[event.Topic]float64{
			event.TopicDUI:              0.7,
			event.TopicRedLight:         0.6,
			event.TopicDangerousDriving: 0.5,
		},
		Beta: map[event.Topic]float64{
			event.TopicDUI:              0.3,
			event.TopicRedLight:         0.4,
			event.TopicDangerousDriving: 0.5,
		},
	}
}

// TopicWeight returns the VPI multiplier for a topic, 1.0 when unlisted.
func (w Weights) TopicWeight(t event.Topic) float64 {
	if v, ok := w.Topic[t]; ok {
		return v
	}
	return 1.0
}

// SeverityWeight returns the CRI multiplier for a crash severity class.
func (w Weights) SeverityWeight(s event.Severity) float64 {
	if v, ok := w.Severity[s]; ok {
		return v
	}
	return 0
}

// ScoreWeights returns the (alpha, beta) pair for a topic, (0.5, 0.5) when
// unlisted.
func (w Weights) ScoreWeights(t event.Topic) (alpha, beta float64) {
	alpha, okA := w.Alpha[t]
	beta, okB := w.Beta[t]
	if !okA || !okB {
		return 0.5, 0.5
	}
	return alpha, beta
}

// SiteMetrics are the per-site, per-topic figures a ranking works over.
// Values are recomputed per request and never persisted.
type SiteMetrics struct {
	Site          Site        `json:"site"`
	Topic         event.Topic `json:"topic,omitempty"`
	TicketCount   int         `json:"ticket_count"`
	CrashCount    int         `json:"crash_count"`
	CrashA1       int         `json:"crash_a1"`
	CrashA2       int         `json:"crash_a2"`
	CrashA3       int         `json:"crash_a3"`
	ViolationDays int         `json:"violation_days"`
	AvgPerDay     float64     `json:"avg_tickets_per_day"`
	VPI           float64     `json:"vpi"`
	CRI           float64     `json:"cri"`
	Score         float64     `json:"score"`
}

// ComputeMetrics derives VPI, CRI and the composite score for one site.
//
//	VPI   = ticket_count(topic) × topic_weight
//	CRI   = crash_count × avg_severity_weight (0 when there are no crashes)
//	Score = α·VPI + β·CRI
//
// With an empty topic the ticket count covers all topics at weight 1.0.
// Zero-activity sites legitimately score 0; inclusion is the ranker's call.
func ComputeMetrics(stats *SiteStats, topic event.Topic, window PeriodWindow, w Weights) SiteMetrics {
	tickets := stats.TicketCount
	violationDays := stats.ViolationDays
	if topic != "" {
		tickets = stats.TicketsByTopic[topic]
		violationDays = stats.ViolationDaysByTopic[topic]
	}

	vpi := float64(tickets) * w.TopicWeight(topic)

	severitySum := 0.0
	for sev, count := range stats.CrashesBySeverity {
		severitySum += w.SeverityWeight(sev) * float64(count)
	}
	cri := 0.0
	if stats.CrashCount > 0 {
		// crash_count × (severity_sum / crash_count); written out so the
		// zero-crash guard is explicit.
		cri = severitySum
	}

	alpha, beta := w.ScoreWeights(topic)

	avgPerDay := 0.0
	if days := window.Days(); days > 0 {
		avgPerDay = float64(tickets) / float64(days)
	}

	return SiteMetrics{
		Site:          stats.Site,
		Topic:         topic,
		TicketCount:   tickets,
		CrashCount:    stats.CrashCount,
		CrashA1:       stats.CrashesBySeverity[event.SeverityA1],
		CrashA2:       stats.CrashesBySeverity[event.SeverityA2],
		CrashA3:       stats.CrashesBySeverity[event.SeverityA3],
		ViolationDays: violationDays,
		AvgPerDay:     round2(avgPerDay),
		VPI:           round2(vpi),
		CRI:           round2(cri),
		Score:         round2(alpha*vpi + beta*cri),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
