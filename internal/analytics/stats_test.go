package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enforcement-analytics/internal/domain/event"
)

func elderly(r event.Record) event.Record {
	r.Elderly = true
	return r
}

func TestComputeOverview(t *testing.T) {
	window := mustMonth(t, 2024, 6)
	records := []event.Record{
		elderly(ticketAt(at(2024, time.June, 1, 9), "東區", "a", event.TopicDUI)),
		elderly(ticketAt(at(2024, time.June, 2, 9), "東區", "a")),
		ticketAt(at(2024, time.June, 3, 9), "北區", "b", event.TopicDUI, event.TopicRedLight),
		ticketAt(at(2024, time.June, 4, 9), "北區", "b", event.TopicDangerousDriving),
		elderly(crashAt(at(2024, time.June, 5, 9), "東區", "a", event.SeverityA2)),
		crashAt(at(2024, time.June, 6, 9), "北區", "b", event.SeverityA3),
		// Outside the window, must not count.
		ticketAt(at(2024, time.July, 1, 9), "東區", "a", event.TopicDUI),
	}

	o := ComputeOverview(records, window)

	assert.Equal(t, 4, o.Tickets.Total)
	assert.Equal(t, 2, o.Tickets.Elderly)
	assert.InDelta(t, 50.0, o.Tickets.ElderlyPercentage, 1e-9)

	assert.Equal(t, 2, o.Crashes.Total)
	assert.Equal(t, 1, o.Crashes.Elderly)
	assert.InDelta(t, 50.0, o.Crashes.ElderlyPercentage, 1e-9)

	assert.Equal(t, 2, o.Topics.DUI)
	assert.Equal(t, 1, o.Topics.RedLight)
	assert.Equal(t, 1, o.Topics.DangerousDriving)
}

func TestComputeOverviewEmpty(t *testing.T) {
	o := ComputeOverview(nil, mustMonth(t, 2024, 6))
	assert.Zero(t, o.Tickets.ElderlyPercentage)
	assert.Zero(t, o.Crashes.ElderlyPercentage)
}

func TestComputeMonthlyStats(t *testing.T) {
	var current, prior []event.Record
	for i := 0; i < 6; i++ {
		current = append(current, ticketAt(at(2024, time.June, 1+i, 9), "東區", "a", event.TopicDUI))
	}
	for i := 0; i < 3; i++ {
		current = append(current, crashAt(at(2024, time.June, 10+i, 9), "東區", "a", event.SeverityA2))
	}
	for i := 0; i < 4; i++ {
		prior = append(prior, ticketAt(at(2023, time.June, 1+i, 9), "東區", "a"))
	}
	for i := 0; i < 6; i++ {
		prior = append(prior, crashAt(at(2023, time.June, 10+i, 9), "東區", "a", event.SeverityA3))
	}

	stats, err := ComputeMonthlyStats(2024, 6, current, prior)
	require.NoError(t, err)

	assert.Equal(t, 6, stats.Current.Tickets)
	assert.Equal(t, 3, stats.Current.Crashes)
	assert.Equal(t, 6, stats.Current.Topics.DUI)
	assert.Equal(t, 2023, stats.LastYear.Year)
	assert.Equal(t, 4, stats.LastYear.Tickets)
	assert.Equal(t, 6, stats.LastYear.Crashes)

	assert.InDelta(t, 50.0, stats.Comparison.TicketsChange, 1e-9)
	assert.InDelta(t, -50.0, stats.Comparison.CrashesChange, 1e-9)
	assert.Equal(t, "上升", stats.Comparison.TicketsTrend)
	assert.Equal(t, "下降", stats.Comparison.CrashesTrend)
}

func TestComputeMonthlyStatsZeroBaseline(t *testing.T) {
	current := []event.Record{ticketAt(at(2024, time.June, 1, 9), "東區", "a")}

	stats, err := ComputeMonthlyStats(2024, 6, current, nil)
	require.NoError(t, err)

	assert.Zero(t, stats.Comparison.TicketsChange, "no baseline reports 0 change")
	assert.Equal(t, "持平", stats.Comparison.TicketsTrend)
}

func TestComputeMonthlyStatsInvalidMonth(t *testing.T) {
	_, err := ComputeMonthlyStats(2024, 13, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidPeriod))
}
