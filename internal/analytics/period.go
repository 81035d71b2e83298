// Package analytics implements the enforcement-site scoring core: period
// resolution, site aggregation, VPI/CRI/Score metrics, hotspot ranking,
// overlap and displacement analysis, shift cross analysis and the monthly
// report summary. Everything in this package is pure computation over
// record slices; data access stays with the callers.
package analytics

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod rejects malformed analysis windows before any data is
// touched.
var ErrInvalidPeriod = errors.New("invalid period")

// PeriodWindow is an inclusive date range. Start and End are midnight
// timestamps in the window's location.
type PeriodWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the inclusive day count of the window. Bounds are compared as
// calendar dates so the count is stable across DST transitions.
func (w PeriodWindow) Days() int {
	start := time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(w.End.Year(), w.End.Month(), w.End.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours()/24) + 1
}

// Contains reports whether the timestamp falls on a date inside the window.
func (w PeriodWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End.AddDate(0, 0, 1))
}

func (w PeriodWindow) Label() string {
	return fmt.Sprintf("%s ~ %s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}

// CalendarMonth reports whether the window covers exactly one calendar month.
func (w PeriodWindow) CalendarMonth() (year int, month time.Month, ok bool) {
	if w.Start.Day() != 1 {
		return 0, 0, false
	}
	if !w.End.Equal(w.Start.AddDate(0, 1, -1)) {
		return 0, 0, false
	}
	return w.Start.Year(), w.Start.Month(), true
}

// BaselinePolicy selects how a comparison window is derived.
type BaselinePolicy string

const (
	// BaselinePriorYear shifts the window back one year; calendar-month
	// windows map to the same month of the previous year.
	BaselinePriorYear BaselinePolicy = "prior_year_same_period"
	// BaselinePriorPeriod shifts to the immediately preceding window of
	// equal length; calendar-month windows map to the previous month.
	BaselinePriorPeriod BaselinePolicy = "prior_period"
)

// ResolveDays returns the window covering the given number of days back from
// ref, inclusive of both bounds: [ref-days, ref].
func ResolveDays(ref time.Time, days int) (PeriodWindow, error) {
	if days <= 0 {
		return PeriodWindow{}, fmt.Errorf("%w: days must be positive, got %d", ErrInvalidPeriod, days)
	}
	end := truncateToDate(ref)
	return PeriodWindow{Start: end.AddDate(0, 0, -days), End: end}, nil
}

// ResolveMonth returns the full calendar month as a window.
func ResolveMonth(year, month int) (PeriodWindow, error) {
	if month < 1 || month > 12 {
		return PeriodWindow{}, fmt.Errorf("%w: month must be in 1..12, got %d", ErrInvalidPeriod, month)
	}
	if year < 1 {
		return PeriodWindow{}, fmt.Errorf("%w: year must be positive, got %d", ErrInvalidPeriod, year)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return PeriodWindow{Start: start, End: start.AddDate(0, 1, -1)}, nil
}

// Baseline derives the comparison window for a policy.
func Baseline(w PeriodWindow, policy BaselinePolicy) (PeriodWindow, error) {
	if w.End.Before(w.Start) {
		return PeriodWindow{}, fmt.Errorf("%w: end before start", ErrInvalidPeriod)
	}

	switch policy {
	case BaselinePriorYear:
		if year, month, ok := w.CalendarMonth(); ok {
			return ResolveMonth(year-1, int(month))
		}
		return PeriodWindow{
			Start: w.Start.AddDate(-1, 0, 0),
			End:   w.End.AddDate(-1, 0, 0),
		}, nil

	case BaselinePriorPeriod:
		if year, month, ok := w.CalendarMonth(); ok {
			prev := time.Date(year, month, 1, 0, 0, 0, 0, w.Start.Location()).AddDate(0, -1, 0)
			return ResolveMonth(prev.Year(), int(prev.Month()))
		}
		end := w.Start.AddDate(0, 0, -1)
		return PeriodWindow{
			Start: end.AddDate(0, 0, -(w.Days() - 1)),
			End:   end,
		}, nil
	}

	return PeriodWindow{}, fmt.Errorf("%w: unknown baseline policy %q", ErrInvalidPeriod, policy)
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
