package analytics

import (
	"fmt"
	"sort"
	"strings"

	"enforcement-analytics/internal/domain/event"
)

type ShiftBucket struct {
	ShiftID    string `json:"shift_id"`
	TimeRange  string `json:"time_range"`
	PeriodName string `json:"period_name"`
	Accidents  int    `json:"accidents"`
	Violations int    `json:"violations"`
}

type ShiftDistribution struct {
	District string        `json:"district,omitempty"`
	Shifts   []ShiftBucket `json:"shifts"`

	// PeakShifts names up to three shifts with the most accidents.
	PeakShifts []string `json:"peak_shifts"`
	Suggestion string   `json:"enforcement_suggestion"`
	Rationale  string   `json:"rationale,omitempty"`
}

// ComputeShiftDistribution buckets a window into the twelve two-hour shifts
// and flags the accident peaks. All twelve buckets are always present, in
// shift order, so the series plots directly.
func ComputeShiftDistribution(records []event.Record, window PeriodWindow, district string) ShiftDistribution {
	district = strings.TrimSpace(district)

	accidents := make(map[string]int)
	violations := make(map[string]int)
	for _, r := range records {
		if !window.Contains(r.OccurredAt) {
			continue
		}
		if district != "" && strings.TrimSpace(r.District) != district {
			continue
		}
		shift := recordShift(r)
		switch r.Kind {
		case event.KindCrash:
			accidents[shift]++
		case event.KindTicket:
			violations[shift]++
		}
	}

	dist := ShiftDistribution{District: district}
	for _, id := range event.AllShiftIDs() {
		dist.Shifts = append(dist.Shifts, ShiftBucket{
			ShiftID:    id,
			TimeRange:  event.ShiftTimeRange(id),
			PeriodName: event.ShiftPeriodName(id),
			Accidents:  accidents[id],
			Violations: violations[id],
		})
	}

	peaks := make([]ShiftBucket, len(dist.Shifts))
	copy(peaks, dist.Shifts)
	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].Accidents != peaks[j].Accidents {
			return peaks[i].Accidents > peaks[j].Accidents
		}
		return peaks[i].ShiftID < peaks[j].ShiftID
	})
	var ranges []string
	for _, p := range peaks {
		if p.Accidents == 0 || len(dist.PeakShifts) == 3 {
			break
		}
		dist.PeakShifts = append(dist.PeakShifts, p.ShiftID)
		if len(ranges) < 2 {
			ranges = append(ranges, p.TimeRange)
		}
	}

	if len(dist.PeakShifts) == 0 {
		dist.Suggestion = "無明顯高峰時段"
	} else {
		dist.Suggestion = fmt.Sprintf("建議在%s加強取締", strings.Join(ranges, "、"))
		dist.Rationale = "該時段事故發生率較高"
	}
	return dist
}
