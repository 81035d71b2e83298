// Package importer reads de-identified crash and ticket workbooks into event
// records. Sheets arrive with a header row whose position and column names
// vary between exports, so both are detected rather than assumed.
package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"enforcement-analytics/internal/domain/event"
	"enforcement-analytics/internal/utils"
)

type Kind string

const (
	KindCrash  Kind = "crash"
	KindTicket Kind = "ticket"
)

func ParseKind(raw string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindCrash:
		return KindCrash, true
	case KindTicket:
		return KindTicket, true
	}
	return "", false
}

// Skip reasons reported in Summary.Skipped.
const (
	SkipEmptyRow         = "empty_row"
	SkipInvalidTimestamp = "invalid_timestamp"
	SkipMissingDistrict  = "missing_district"
)

// Summary accounts for every data row of an imported sheet: each row is
// either imported or counted under a skip reason, never silently dropped.
type Summary struct {
	Imported   int            `json:"imported"`
	Skipped    map[string]int `json:"skipped"`
	RangeStart *time.Time     `json:"range_start,omitempty"`
	RangeEnd   *time.Time     `json:"range_end,omitempty"`
}

func (s *Summary) observe(t time.Time) {
	if s.RangeStart == nil || t.Before(*s.RangeStart) {
		start := t
		s.RangeStart = &start
	}
	if s.RangeEnd == nil || t.After(*s.RangeEnd) {
		end := t
		s.RangeEnd = &end
	}
}

// Logical fields a sheet can carry; resolveColumns maps them to indexes.
const (
	colTime     = "time"
	colDistrict = "district"
	colLocation = "location"
	colSeverity = "severity"
	colCause    = "cause"
	colClause   = "clause"
	colAge      = "age"
	colGender   = "gender"
	colLat      = "lat"
	colLng      = "lng"
)

var columnAliases = map[string][]string{
	colTime:     {"發生時間", "違規時間", "違規時間(出)", "occurred_at", "time"},
	colDistrict: {"行政區", "發生區域", "district"},
	colLocation: {"地點", "發生地點", "違規地點", "location_desc", "location"},
	colSeverity: {"事故類別", "交通事故類別", "severity"},
	colCause:    {"肇事原因", "肇事主要原因", "cause"},
	colClause:   {"違規條款", "違規條款1", "violation_clause", "clause"},
	colAge:      {"年齡組", "年齡", "age_group", "age"},
	colGender:   {"性別", "gender"},
	colLat:      {"緯度", "latitude", "lat"},
	colLng:      {"經度", "longitude", "lng"},
}

// headerScanRows limits how deep into the sheet the header is searched;
// exports sometimes lead with title or legend rows.
const headerScanRows = 10

// ReadWorkbook parses the first sheet of an xlsx upload into event records
// of the given kind. Rows failing validation are counted in the summary.
func ReadWorkbook(r io.Reader, kind Kind) ([]event.Record, *Summary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	cols, headerIdx, ok := findHeader(rows)
	if !ok {
		return nil, nil, errors.New("no header row with a timestamp column found")
	}

	summary := &Summary{Skipped: map[string]int{}}
	var records []event.Record
	for _, row := range rows[headerIdx+1:] {
		rec, reason := parseRow(row, cols, kind)
		if reason != "" {
			summary.Skipped[reason]++
			continue
		}
		records = append(records, rec)
		summary.Imported++
		summary.observe(rec.OccurredAt)
	}
	return records, summary, nil
}

func findHeader(rows [][]string) (map[string]int, int, bool) {
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		cols := resolveColumns(rows[i])
		if _, ok := cols[colTime]; ok {
			return cols, i, true
		}
	}
	return nil, 0, false
}

// resolveColumns maps logical fields to cell indexes. When several header
// cells alias the same field, the leftmost one wins.
func resolveColumns(header []string) map[string]int {
	cols := make(map[string]int)
	for idx, raw := range header {
		name := normalizeHeader(raw)
		if name == "" {
			continue
		}
		for field, aliases := range columnAliases {
			if _, taken := cols[field]; taken {
				continue
			}
			for _, alias := range aliases {
				if name == alias {
					cols[field] = idx
					break
				}
			}
		}
	}
	return cols
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\n", "")
	h = strings.ReplaceAll(h, " ", "")
	h = strings.ReplaceAll(h, "　", "")
	return strings.ToLower(h)
}

func parseRow(row []string, cols map[string]int, kind Kind) (event.Record, string) {
	if blankRow(row) {
		return event.Record{}, SkipEmptyRow
	}
	ts, ok := ParseEventTime(cell(row, cols, colTime))
	if !ok {
		return event.Record{}, SkipInvalidTimestamp
	}
	district := utils.NormalizeDistrict(cell(row, cols, colDistrict))
	if district == "" {
		return event.Record{}, SkipMissingDistrict
	}

	rec := event.Record{
		OccurredAt:   ts,
		ShiftID:      event.DeriveShift(ts),
		District:     district,
		LocationDesc: utils.NormalizeLocation(cell(row, cols, colLocation)),
		Latitude:     coordinate(cell(row, cols, colLat)),
		Longitude:    coordinate(cell(row, cols, colLng)),
		Gender:       strings.TrimSpace(cell(row, cols, colGender)),
	}
	rec.AgeGroup, rec.Elderly = classifyAge(cell(row, cols, colAge))

	switch kind {
	case KindCrash:
		rec.Kind = event.KindCrash
		rec.Severity = parseSeverity(cell(row, cols, colSeverity))
		rec.Cause = strings.TrimSpace(cell(row, cols, colCause))
	case KindTicket:
		rec.Kind = event.KindTicket
		flags := ClassifyViolation(cell(row, cols, colClause))
		rec.TopicDUI = flags.DUI
		rec.TopicRedLight = flags.RedLight
		rec.TopicDangerous = flags.Dangerous
	}

	// A lone latitude or longitude is useless downstream; keep pairs only.
	if rec.Latitude == nil || rec.Longitude == nil {
		rec.Latitude, rec.Longitude = nil, nil
	}
	return rec, ""
}

// parseSeverity defaults unknown crash classes to A3 (property damage only)
// rather than rejecting the row.
func parseSeverity(raw string) event.Severity {
	if sev, ok := event.ParseSeverity(strings.ToUpper(strings.TrimSpace(raw))); ok {
		return sev
	}
	return event.SeverityA3
}

// classifyAge accepts either an already-bucketed age group or a raw age and
// returns the bucket plus the elderly flag (65 and over).
func classifyAge(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "未知", false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		age := int(f)
		switch {
		case age < 18:
			return "<18", false
		case age < 25:
			return "18-24", false
		case age < 45:
			return "25-44", false
		case age < 65:
			return "45-64", false
		default:
			return "65+", true
		}
	}
	switch raw {
	case "<18", "18-24", "25-44", "45-64":
		return raw, false
	case "65+":
		return raw, true
	}
	return "未知", false
}

// coordinate parses a lat/lng cell; zero is a placeholder, not a position.
func coordinate(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v == 0 {
		return nil
	}
	return &v
}

func cell(row []string, cols map[string]int, field string) string {
	idx, ok := cols[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
