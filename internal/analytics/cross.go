package analytics

import (
	"sort"
	"strings"

	"enforcement-analytics/internal/domain/event"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// CrossOptions configure the shift × district gap analysis. Thresholds and
// the violation weight come from configuration so they are visible to
// callers rather than buried as constants.
type CrossOptions struct {
	// District restricts the analysis to one district when set.
	District string
	// ViolationWeight scales violation counts before the gap is taken;
	// raw citation volumes dwarf accident counts, so the default config
	// normalizes with 0.1.
	ViolationWeight float64
	// HighThreshold and MediumThreshold classify the gap into priorities.
	HighThreshold   float64
	MediumThreshold float64
	// TopK bounds the high-priority recommendation list.
	TopK int
}

// ShiftCombination is one (district, shift) row of the analysis.
type ShiftCombination struct {
	District   string   `json:"district"`
	ShiftID    string   `json:"shift_id"`
	TimeRange  string   `json:"time_range"`
	Accidents  int      `json:"accidents"`
	Violations int      `json:"violations"`
	Gap        float64  `json:"enforcement_gap"`
	Priority   Priority `json:"priority"`
}

type CrossSummary struct {
	TotalCombinations int `json:"total_combinations"`
	High              int `json:"high_priority_count"`
	Medium            int `json:"medium_priority_count"`
	Low               int `json:"low_priority_count"`
}

type CrossResult struct {
	Combinations    []ShiftCombination `json:"combinations"`
	Summary         CrossSummary       `json:"summary"`
	Recommendations []ShiftCombination `json:"recommendations"`

	// SkippedNoDistrict counts records that could not be attributed.
	SkippedNoDistrict int `json:"skipped_no_district,omitempty"`
}

// CrossAnalyze tabulates accidents and violations per (district, shift) and
// flags enforcement gaps.
//
//	gap = accidents − violations × weight
//
// Rows are emitted for combinations with at least one accident; a pure
// violation surplus is not an enforcement gap. Priority is HIGH above the
// high threshold or whenever accidents occurred with zero enforcement,
// MEDIUM above the medium threshold, LOW otherwise. Output is ordered gap
// descending with (district, shift) as the tie-break.
func CrossAnalyze(records []event.Record, window PeriodWindow, opts CrossOptions) CrossResult {
	var result CrossResult

	type cell struct {
		accidents  int
		violations int
	}
	cells := make(map[string]map[string]*cell)

	for _, r := range records {
		if !window.Contains(r.OccurredAt) {
			continue
		}
		district := strings.TrimSpace(r.District)
		if district == "" {
			result.SkippedNoDistrict++
			continue
		}
		if opts.District != "" && district != opts.District {
			continue
		}
		shift := recordShift(r)
		if cells[district] == nil {
			cells[district] = make(map[string]*cell)
		}
		c := cells[district][shift]
		if c == nil {
			c = &cell{}
			cells[district][shift] = c
		}
		switch r.Kind {
		case event.KindCrash:
			c.accidents++
		case event.KindTicket:
			c.violations++
		}
	}

	for district, shifts := range cells {
		for shift, c := range shifts {
			if c.accidents == 0 {
				continue
			}
			gap := round1(float64(c.accidents) - float64(c.violations)*opts.ViolationWeight)

			priority := PriorityLow
			switch {
			case gap > opts.HighThreshold || c.violations == 0:
				priority = PriorityHigh
			case gap > opts.MediumThreshold:
				priority = PriorityMedium
			}

			result.Combinations = append(result.Combinations, ShiftCombination{
				District:   district,
				ShiftID:    shift,
				TimeRange:  event.ShiftTimeRange(shift),
				Accidents:  c.accidents,
				Violations: c.violations,
				Gap:        gap,
				Priority:   priority,
			})
		}
	}

	sort.Slice(result.Combinations, func(i, j int) bool {
		a, b := result.Combinations[i], result.Combinations[j]
		if a.Gap != b.Gap {
			return a.Gap > b.Gap
		}
		if a.District != b.District {
			return a.District < b.District
		}
		return a.ShiftID < b.ShiftID
	})

	result.Summary.TotalCombinations = len(result.Combinations)
	for _, c := range result.Combinations {
		switch c.Priority {
		case PriorityHigh:
			result.Summary.High++
		case PriorityMedium:
			result.Summary.Medium++
		case PriorityLow:
			result.Summary.Low++
		}
	}

	for _, c := range result.Combinations {
		if c.Priority != PriorityHigh {
			continue
		}
		if opts.TopK > 0 && len(result.Recommendations) >= opts.TopK {
			break
		}
		result.Recommendations = append(result.Recommendations, c)
	}

	return result
}
