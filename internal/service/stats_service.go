package service

import (
	"context"
	"fmt"
	"time"

	"enforcement-analytics/internal/analytics"
	"enforcement-analytics/internal/domain/event"
	"enforcement-analytics/internal/repository"
)

const summaryTrailingMonths = 6

// StatsOverview aggregates one calendar month. Year and month default to the
// latest month with data so a dashboard works without parameters.
func (s *AnalyticsService) StatsOverview(ctx context.Context, year, month int) (*OverviewResponse, error) {
	year, month, err := s.resolveMonthDefaults(ctx, year, month)
	if err != nil {
		return nil, err
	}
	window, err := analytics.ResolveMonth(year, month)
	if err != nil {
		return nil, err
	}

	records, err := s.store.LoadEvents(ctx, window.Start, window.End, repository.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}

	resp := &OverviewResponse{
		Year:     year,
		Month:    month,
		Overview: analytics.ComputeOverview(records, window),
		Note:     privacyNote,
	}
	if len(records) == 0 {
		resp.Note = noDataNote
	}
	return resp, nil
}

// MonthlyStats compares one calendar month against the same month a year
// earlier.
func (s *AnalyticsService) MonthlyStats(ctx context.Context, year, month int) (*MonthlyResponse, error) {
	year, month, err := s.resolveMonthDefaults(ctx, year, month)
	if err != nil {
		return nil, err
	}
	window, err := analytics.ResolveMonth(year, month)
	if err != nil {
		return nil, err
	}

	current, err := s.store.LoadEvents(ctx, window.Start, window.End, repository.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading current month: %w", err)
	}

	var priorRecords []event.Record
	if priorWindow, perr := analytics.ResolveMonth(year-1, month); perr == nil {
		priorRecords, err = s.store.LoadEvents(ctx, priorWindow.Start, priorWindow.End, repository.EventFilter{})
		if err != nil {
			return nil, fmt.Errorf("loading prior-year month: %w", err)
		}
	}

	stats, err := analytics.ComputeMonthlyStats(year, month, current, priorRecords)
	if err != nil {
		return nil, err
	}
	return &MonthlyResponse{MonthlyStats: stats, Note: privacyNote}, nil
}

// MonthlySummary builds the monthly report aggregation: prior-year
// comparisons, six-month trend, hotspot lists and focus recommendations.
func (s *AnalyticsService) MonthlySummary(ctx context.Context, year, month, topN int) (*ReportResponse, error) {
	year, month, err := s.resolveMonthDefaults(ctx, year, month)
	if err != nil {
		return nil, err
	}
	window, err := analytics.ResolveMonth(year, month)
	if err != nil {
		return nil, err
	}

	// One load covers both the report month and the six-month trend.
	trailingStart := window.Start.AddDate(0, -(summaryTrailingMonths - 1), 0)
	trailing, err := s.store.LoadEvents(ctx, trailingStart, window.End, repository.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading trailing months: %w", err)
	}

	var priorRecords []event.Record
	if priorWindow, perr := analytics.ResolveMonth(year-1, month); perr == nil {
		priorRecords, err = s.store.LoadEvents(ctx, priorWindow.Start, priorWindow.End, repository.EventFilter{})
		if err != nil {
			return nil, fmt.Errorf("loading prior-year month: %w", err)
		}
	}

	summary, err := analytics.BuildSummary(analytics.SummaryInput{
		Year:      year,
		Month:     month,
		Current:   trailing,
		PriorYear: priorRecords,
		Trailing:  trailing,
		TopN:      s.clampTopN(topN),
	})
	if err != nil {
		return nil, err
	}

	return &ReportResponse{
		Summary:     summary,
		GeneratedAt: s.now(),
		Note:        privacyNote,
	}, nil
}

// resolveMonthDefaults fills missing year/month from the latest event date,
// falling back to the wall clock on an empty store.
func (s *AnalyticsService) resolveMonthDefaults(ctx context.Context, year, month int) (int, int, error) {
	if year != 0 && month != 0 {
		return year, month, nil
	}
	anchor := s.now()
	maxDate, err := s.store.MaxEventDate(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("resolving data horizon: %w", err)
	}
	if maxDate != nil && maxDate.Before(anchor) {
		anchor = *maxDate
	}
	if year == 0 {
		year = anchor.Year()
	}
	if month == 0 {
		month = int(anchor.Month())
	}
	return year, month, nil
}

type OverviewResponse struct {
	Year     int                `json:"year"`
	Month    int                `json:"month"`
	Overview analytics.Overview `json:"overview"`
	Note     string             `json:"note,omitempty"`
}

type MonthlyResponse struct {
	analytics.MonthlyStats
	Note string `json:"note,omitempty"`
}

type ReportResponse struct {
	Summary     analytics.ReportSummary `json:"summary"`
	GeneratedAt time.Time               `json:"generated_at"`
	Note        string                  `json:"note,omitempty"`
}
