package importer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Gregorian layouts accepted in timestamp cells, most specific first.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// rocPattern matches Republic-of-China calendar timestamps such as
// "114/01/08 09:30:00" or "114-1-8". ROC years run two or three digits,
// which keeps the pattern from swallowing Gregorian dates.
var rocPattern = regexp.MustCompile(`^(\d{2,3})[/-](\d{1,2})[/-](\d{1,2})(?:[ T](\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)

// ParseEventTime parses a workbook timestamp cell. Gregorian layouts are
// tried first; anything matching the ROC shape is shifted by 1911 years.
func ParseEventTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	m := rocPattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	year := cellInt(m[1]) + 1911
	month := cellInt(m[2])
	day := cellInt(m[3])
	t := time.Date(year, time.Month(month), day, cellInt(m[4]), cellInt(m[5]), cellInt(m[6]), 0, time.UTC)
	// time.Date normalises out-of-range components; reject rows where that
	// happened so "114/13/40" does not silently become a different date.
	if int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func cellInt(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
