package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enforcement-analytics/internal/domain/event"
)

func TestBuildSummaryComparisons(t *testing.T) {
	current := []event.Record{
		crashAt(at(2024, time.June, 1, 9), "東區", "a", event.SeverityA1),
		crashAt(at(2024, time.June, 2, 9), "東區", "a", event.SeverityA2),
		crashAt(at(2024, time.June, 3, 9), "東區", "a", event.SeverityA3),
		ticketAt(at(2024, time.June, 4, 9), "東區", "a"),
		ticketAt(at(2024, time.June, 5, 9), "東區", "a"),
		ticketAt(at(2024, time.June, 6, 9), "東區", "a"),
		ticketAt(at(2024, time.June, 7, 9), "東區", "a"),
	}
	priorYear := []event.Record{
		crashAt(at(2023, time.June, 1, 9), "東區", "a", event.SeverityA1),
		crashAt(at(2023, time.June, 2, 9), "東區", "a", event.SeverityA3),
		ticketAt(at(2023, time.June, 3, 9), "東區", "a"),
		ticketAt(at(2023, time.June, 4, 9), "東區", "a"),
	}

	summary, err := BuildSummary(SummaryInput{
		Year: 2024, Month: 6,
		Current:   current,
		PriorYear: priorYear,
	})
	require.NoError(t, err)

	assert.Equal(t, 2024, summary.Period.Year)
	assert.Equal(t, 6, summary.Period.Month)

	assert.Equal(t, StatComparison{Current: 3, LastYear: 2, Change: 1, ChangePct: 50.0}, summary.OverallStats.Accidents)
	assert.Equal(t, StatComparison{Current: 4, LastYear: 2, Change: 2, ChangePct: 100.0}, summary.OverallStats.Tickets)
	// Injuries count A1+A2, deaths A1 only.
	assert.Equal(t, StatComparison{Current: 2, LastYear: 1, Change: 1, ChangePct: 100.0}, summary.OverallStats.Injuries)
	assert.Equal(t, StatComparison{Current: 1, LastYear: 1, Change: 0, ChangePct: 0.0}, summary.OverallStats.Deaths)
}

func TestBuildSummaryZeroBaselinePct(t *testing.T) {
	summary, err := BuildSummary(SummaryInput{
		Year: 2024, Month: 6,
		Current: []event.Record{crashAt(at(2024, time.June, 1, 9), "東區", "a", event.SeverityA2)},
	})
	require.NoError(t, err)
	assert.Equal(t, StatComparison{Current: 1, LastYear: 0, Change: 1, ChangePct: 0}, summary.OverallStats.Accidents)
}

func TestBuildSummaryTrendSeries(t *testing.T) {
	trailing := []event.Record{
		crashAt(at(2024, time.January, 5, 9), "東區", "a", event.SeverityA2),
		crashAt(at(2024, time.March, 5, 9), "東區", "a", event.SeverityA2),
		crashAt(at(2024, time.March, 6, 9), "東區", "a", event.SeverityA2),
		ticketAt(at(2024, time.June, 5, 9), "東區", "a"),
	}

	summary, err := BuildSummary(SummaryInput{Year: 2024, Month: 6, Trailing: trailing})
	require.NoError(t, err)

	require.Len(t, summary.Trends, 6)
	assert.Equal(t, "2024-01", summary.Trends[0].Month)
	assert.Equal(t, "2024-06", summary.Trends[5].Month)
	assert.Equal(t, 1, summary.Trends[0].Accidents)
	assert.Equal(t, 2, summary.Trends[2].Accidents)
	assert.Equal(t, 1, summary.Trends[5].Tickets)
	assert.Zero(t, summary.Trends[1].Accidents)
}

func TestBuildSummaryTrendSeriesCrossesYear(t *testing.T) {
	summary, err := BuildSummary(SummaryInput{Year: 2024, Month: 2})
	require.NoError(t, err)

	require.Len(t, summary.Trends, 6)
	assert.Equal(t, "2023-09", summary.Trends[0].Month)
	assert.Equal(t, "2024-02", summary.Trends[5].Month)
}

func TestBuildSummaryHotspots(t *testing.T) {
	var current []event.Record
	// Three injury crashes at the leading site, one at the runner-up plus
	// property-damage noise that must not count.
	for i := 0; i < 3; i++ {
		current = append(current, crashAt(at(2024, time.June, 1+i, 9), "東區", "中華東路", event.SeverityA2))
	}
	current = append(current, crashAt(at(2024, time.June, 10, 9), "北區", "公園路", event.SeverityA1))
	for i := 0; i < 5; i++ {
		current = append(current, crashAt(at(2024, time.June, 11+i, 9), "北區", "公園路", event.SeverityA3))
	}
	// Violation side.
	for i := 0; i < 4; i++ {
		current = append(current, ticketAt(at(2024, time.June, 1+i, 9), "南區", "金華路", event.TopicDUI))
	}
	// Location-less record cannot be ranked.
	current = append(current, crashAt(at(2024, time.June, 20, 9), "東區", "", event.SeverityA2))

	priorYear := []event.Record{
		crashAt(at(2023, time.June, 2, 9), "東區", "中華東路", event.SeverityA2),
		crashAt(at(2023, time.June, 3, 9), "東區", "中華東路", event.SeverityA1),
	}

	summary, err := BuildSummary(SummaryInput{
		Year: 2024, Month: 6,
		Current:   current,
		PriorYear: priorYear,
		TopN:      5,
	})
	require.NoError(t, err)

	require.Len(t, summary.AccidentHotspots, 2)
	top := summary.AccidentHotspots[0]
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, "中華東路", top.Location)
	assert.Equal(t, "東區", top.District)
	assert.Equal(t, 3, top.Count)
	assert.Equal(t, "A1+A2", top.MajorCause)
	require.NotNil(t, top.TrendPct)
	assert.InDelta(t, 50.0, *top.TrendPct, 1e-9, "3 injury crashes vs 2 last year")

	second := summary.AccidentHotspots[1]
	assert.Equal(t, "公園路", second.Location)
	assert.Equal(t, 1, second.Count, "A3 crashes stay out of the injury ranking")
	assert.Nil(t, second.TrendPct, "no prior-year activity at this site")

	require.Len(t, summary.ViolationHotspots, 1)
	assert.Equal(t, "金華路", summary.ViolationHotspots[0].Location)
	assert.Equal(t, 4, summary.ViolationHotspots[0].Count)
	assert.Equal(t, "全部違規", summary.ViolationHotspots[0].MajorCause)
}

func TestBuildSummaryFocusLists(t *testing.T) {
	var current, priorYear []event.Record
	addCrash := func(list *[]event.Record, y int, m time.Month, n int, district, cause string) {
		for i := 0; i < n; i++ {
			r := crashAt(at(y, m, 1+i, 9), district, "x", event.SeverityA2)
			r.Cause = cause
			*list = append(*list, r)
		}
	}

	addCrash(&current, 2024, time.June, 5, "東區", "未注意車前狀態")
	addCrash(&current, 2024, time.June, 3, "南區", "酒後駕車")
	addCrash(&priorYear, 2023, time.June, 2, "東區", "未注意車前狀態")
	addCrash(&priorYear, 2023, time.June, 3, "南區", "酒後駕車")

	for i := 0; i < 6; i++ {
		current = append(current, ticketAt(at(2024, time.June, 1+i, 9), "北區", "y", event.TopicDUI))
	}
	for i := 0; i < 2; i++ {
		priorYear = append(priorYear, ticketAt(at(2023, time.June, 1+i, 9), "北區", "y", event.TopicDUI))
	}

	summary, err := BuildSummary(SummaryInput{
		Year: 2024, Month: 6,
		Current:   current,
		PriorYear: priorYear,
	})
	require.NoError(t, err)

	// 東區 grew by 3 accidents, 南區 held steady.
	assert.Equal(t, []string{"東區"}, summary.FocusDistricts)
	// DUI citations grew by 4, the leading crash cause by 3.
	assert.Equal(t, []string{"DUI", "未注意車前狀態"}, summary.FocusCauses)
}

func TestBuildSummaryInvalidMonth(t *testing.T) {
	_, err := BuildSummary(SummaryInput{Year: 2024, Month: 0})
	assert.True(t, errors.Is(err, ErrInvalidPeriod))
}
