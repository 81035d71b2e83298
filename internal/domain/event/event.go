// Package event defines the de-identified traffic event vocabulary shared by
// the analytics core and the collaborator layers. Records are immutable once
// ingested; everything downstream only reads them.
package event

import "time"

type Kind string

const (
	KindCrash  Kind = "crash"
	KindTicket Kind = "ticket"
)

// Topic is an enforcement topic a ticket can be classified under.
type Topic string

const (
	TopicDUI              Topic = "DUI"
	TopicRedLight         Topic = "RED_LIGHT"
	TopicDangerousDriving Topic = "DANGEROUS_DRIVING"
	TopicOther            Topic = "OTHER"
)

func ParseTopic(raw string) (Topic, bool) {
	switch Topic(raw) {
	case TopicDUI, TopicRedLight, TopicDangerousDriving, TopicOther:
		return Topic(raw), true
	}
	return "", false
}

// Severity is the crash severity class: A1 fatal, A2 injury, A3 property
// damage only.
type Severity string

const (
	SeverityA1 Severity = "A1"
	SeverityA2 Severity = "A2"
	SeverityA3 Severity = "A3"
)

func ParseSeverity(raw string) (Severity, bool) {
	switch Severity(raw) {
	case SeverityA1, SeverityA2, SeverityA3:
		return Severity(raw), true
	}
	return "", false
}

// Record is a single de-identified crash or ticket. Tickets carry topic flags
// rather than a single class: one citation can fall under several enforcement
// topics at once (a DUI stop that also ran a red light counts for both).
type Record struct {
	Kind         Kind      `json:"kind"`
	OccurredAt   time.Time `json:"occurred_at"`
	ShiftID      string    `json:"shift_id"`
	District     string    `json:"district"`
	LocationDesc string    `json:"location_desc"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`

	// Crash fields.
	Severity Severity `json:"severity,omitempty"`
	Cause    string   `json:"cause,omitempty"`

	// Ticket fields.
	TopicDUI       bool `json:"topic_dui,omitempty"`
	TopicRedLight  bool `json:"topic_red_light,omitempty"`
	TopicDangerous bool `json:"topic_dangerous,omitempty"`

	// Demographic buckets (already bucketed upstream, never raw ages).
	AgeGroup string `json:"age_group,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Elderly  bool   `json:"elderly,omitempty"`
}

func (r Record) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// MatchesTopic reports whether a ticket record falls under the given topic.
// TopicOther matches tickets carrying no specific topic flag. Crash records
// never match a ticket topic.
func (r Record) MatchesTopic(t Topic) bool {
	if r.Kind != KindTicket {
		return false
	}
	switch t {
	case TopicDUI:
		return r.TopicDUI
	case TopicRedLight:
		return r.TopicRedLight
	case TopicDangerousDriving:
		return r.TopicDangerous
	case TopicOther:
		return !r.TopicDUI && !r.TopicRedLight && !r.TopicDangerous
	}
	return false
}
