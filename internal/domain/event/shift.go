package event

import (
	"fmt"
	"time"
)

// ShiftCount is the number of fixed two-hour enforcement shifts in a day.
// Shift n covers hours [2(n-1), 2n); shifts "01".."12" partition the day, so
// every timestamp maps to exactly one shift.
const ShiftCount = 12

// DeriveShift returns the zero-padded shift id ("01".."12") for a timestamp.
func DeriveShift(t time.Time) string {
	return fmt.Sprintf("%02d", t.Hour()/2+1)
}

// ShiftStartHour returns the starting hour of a shift, or false for an
// unknown id.
func ShiftStartHour(id string) (int, bool) {
	n, ok := shiftNumber(id)
	if !ok {
		return 0, false
	}
	return (n - 1) * 2, true
}

// ShiftTimeRange renders the window a shift covers, e.g. "08:00-10:00".
// The last shift renders "22:00-24:00" so ranges always read start<end.
func ShiftTimeRange(id string) string {
	start, ok := ShiftStartHour(id)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%02d:00-%02d:00", start, start+2)
}

// ShiftPeriodName returns the colloquial day-period label used in reports.
func ShiftPeriodName(id string) string {
	start, ok := ShiftStartHour(id)
	if !ok {
		return ""
	}
	switch {
	case start < 4:
		return "深夜"
	case start < 8:
		return "清晨"
	case start < 12:
		return "上午"
	case start < 16:
		return "下午"
	case start < 20:
		return "傍晚"
	default:
		return "夜間"
	}
}

func ValidShiftID(id string) bool {
	_, ok := shiftNumber(id)
	return ok
}

// AllShiftIDs returns the shift ids in order, "01" through "12".
func AllShiftIDs() []string {
	ids := make([]string, ShiftCount)
	for i := range ids {
		ids[i] = fmt.Sprintf("%02d", i+1)
	}
	return ids
}

func shiftNumber(id string) (int, bool) {
	if len(id) != 2 {
		return 0, false
	}
	n := 0
	for _, c := range id {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if n < 1 || n > ShiftCount {
		return 0, false
	}
	return n, true
}
