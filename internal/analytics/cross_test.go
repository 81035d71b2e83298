package analytics

import (
	"testing"
	"time"

	"enforcement-analytics/internal/domain/event"
)

func defaultCrossOptions() CrossOptions {
	return CrossOptions{
		ViolationWeight: 0.1,
		HighThreshold:   5,
		MediumThreshold: 2,
		TopK:            5,
	}
}

func crossFixture(t *testing.T) ([]event.Record, PeriodWindow) {
	t.Helper()
	var records []event.Record
	add := func(n int, district string, hour int, kind event.Kind) {
		for i := 0; i < n; i++ {
			ts := at(2024, time.March, 1+i%20, hour)
			if kind == event.KindCrash {
				records = append(records, crashAt(ts, district, "路口", event.SeverityA2))
			} else {
				records = append(records, ticketAt(ts, district, "路口"))
			}
		}
	}

	// 東區 shift 05: gap 8 − 20×0.1 = 6.0 → HIGH
	add(8, "東區", 8, event.KindCrash)
	add(20, "東區", 8, event.KindTicket)
	// 中西區 shift 02: 3 accidents, zero enforcement → HIGH regardless of gap
	add(3, "中西區", 2, event.KindCrash)
	// 北區 shift 03: gap 4 − 10×0.1 = 3.0 → MEDIUM
	add(4, "北區", 4, event.KindCrash)
	add(10, "北區", 4, event.KindTicket)
	// 南區 shift 07: gap 2 − 10×0.1 = 1.0 → LOW
	add(2, "南區", 12, event.KindCrash)
	add(10, "南區", 12, event.KindTicket)
	// 安平區 shift 01: violations only, never a combination row
	add(15, "安平區", 0, event.KindTicket)

	return records, mustMonth(t, 2024, 3)
}

func TestCrossAnalyze(t *testing.T) {
	records, window := crossFixture(t)

	result := CrossAnalyze(records, window, defaultCrossOptions())

	if got := len(result.Combinations); got != 4 {
		t.Fatalf("combinations = %d, want 4", got)
	}

	want := []struct {
		district string
		shift    string
		gap      float64
		priority Priority
	}{
		{"東區", "05", 6.0, PriorityHigh},
		{"中西區", "02", 3.0, PriorityHigh}, // ties on gap sort by district
		{"北區", "03", 3.0, PriorityMedium},
		{"南區", "07", 1.0, PriorityLow},
	}
	for i, w := range want {
		c := result.Combinations[i]
		if c.District != w.district || c.ShiftID != w.shift {
			t.Errorf("row %d: got (%s, %s), want (%s, %s)", i, c.District, c.ShiftID, w.district, w.shift)
		}
		if c.Gap != w.gap {
			t.Errorf("row %d: gap = %v, want %v", i, c.Gap, w.gap)
		}
		if c.Priority != w.priority {
			t.Errorf("row %d: priority = %s, want %s", i, c.Priority, w.priority)
		}
	}

	if result.Summary.TotalCombinations != 4 || result.Summary.High != 2 || result.Summary.Medium != 1 || result.Summary.Low != 1 {
		t.Errorf("summary = %+v", result.Summary)
	}

	if len(result.Recommendations) != 2 {
		t.Fatalf("recommendations = %d, want the 2 HIGH rows", len(result.Recommendations))
	}
	for _, rec := range result.Recommendations {
		if rec.Priority != PriorityHigh {
			t.Errorf("recommended %s/%s has priority %s", rec.District, rec.ShiftID, rec.Priority)
		}
	}
}

func TestCrossAnalyzeTieBreakIsDistrictThenShift(t *testing.T) {
	window := mustMonth(t, 2024, 3)
	// Same district, two shifts with identical gaps.
	records := []event.Record{
		crashAt(at(2024, time.March, 1, 2), "東區", "", event.SeverityA3),
		crashAt(at(2024, time.March, 1, 8), "東區", "", event.SeverityA3),
	}

	result := CrossAnalyze(records, window, defaultCrossOptions())

	if len(result.Combinations) != 2 {
		t.Fatalf("combinations = %d, want 2", len(result.Combinations))
	}
	if result.Combinations[0].ShiftID != "02" || result.Combinations[1].ShiftID != "05" {
		t.Errorf("order = %s, %s; want 02, 05", result.Combinations[0].ShiftID, result.Combinations[1].ShiftID)
	}
}

func TestCrossAnalyzeDistrictFilter(t *testing.T) {
	records, window := crossFixture(t)
	opts := defaultCrossOptions()
	opts.District = "東區"

	result := CrossAnalyze(records, window, opts)

	if len(result.Combinations) != 1 || result.Combinations[0].District != "東區" {
		t.Fatalf("combinations = %+v, want only 東區", result.Combinations)
	}
}

func TestCrossAnalyzeSkipsRecordsWithoutDistrict(t *testing.T) {
	window := mustMonth(t, 2024, 3)
	records := []event.Record{
		crashAt(at(2024, time.March, 1, 8), "", "某路", event.SeverityA2),
		crashAt(at(2024, time.March, 1, 8), "  ", "某路", event.SeverityA2),
		crashAt(at(2024, time.March, 1, 8), "東區", "某路", event.SeverityA2),
	}

	result := CrossAnalyze(records, window, defaultCrossOptions())

	if result.SkippedNoDistrict != 2 {
		t.Errorf("skipped = %d, want 2", result.SkippedNoDistrict)
	}
	if len(result.Combinations) != 1 || result.Combinations[0].Accidents != 1 {
		t.Errorf("combinations = %+v", result.Combinations)
	}
}

func TestCrossAnalyzeTopKBoundsRecommendations(t *testing.T) {
	records, window := crossFixture(t)
	opts := defaultCrossOptions()
	opts.TopK = 1

	result := CrossAnalyze(records, window, opts)

	if len(result.Recommendations) != 1 {
		t.Fatalf("recommendations = %d, want 1", len(result.Recommendations))
	}
	if result.Recommendations[0].District != "東區" {
		t.Errorf("top recommendation = %s, want the largest gap", result.Recommendations[0].District)
	}
}

func TestCrossAnalyzeTimeRangeLabels(t *testing.T) {
	window := mustMonth(t, 2024, 3)
	records := []event.Record{
		crashAt(at(2024, time.March, 1, 23), "東區", "", event.SeverityA3),
	}

	result := CrossAnalyze(records, window, defaultCrossOptions())

	if len(result.Combinations) != 1 {
		t.Fatalf("combinations = %d, want 1", len(result.Combinations))
	}
	c := result.Combinations[0]
	if c.ShiftID != "12" || c.TimeRange != "22:00-24:00" {
		t.Errorf("got shift %s range %s, want 12 / 22:00-24:00", c.ShiftID, c.TimeRange)
	}
}
