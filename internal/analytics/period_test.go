package analytics

import (
	"errors"
	"testing"
	"time"
)

func TestResolveDays(t *testing.T) {
	w, err := ResolveDays(at(2024, time.March, 31, 0), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := w.Start; !got.Equal(at(2024, time.March, 1, 0)) {
		t.Errorf("start = %v, want 2024-03-01", got)
	}
	if got := w.End; !got.Equal(at(2024, time.March, 31, 0)) {
		t.Errorf("end = %v, want 2024-03-31", got)
	}
	if got := w.Days(); got != 31 {
		t.Errorf("days = %d, want 31", got)
	}
}

func TestResolveDaysRejectsNonPositive(t *testing.T) {
	for _, days := range []int{0, -1, -365} {
		if _, err := ResolveDays(at(2024, time.March, 31, 0), days); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("days=%d: err = %v, want ErrInvalidPeriod", days, err)
		}
	}
}

func TestResolveMonth(t *testing.T) {
	w, err := ResolveMonth(2024, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.End.Equal(at(2024, time.February, 29, 0)) {
		t.Errorf("end = %v, want leap-year 2024-02-29", w.End)
	}
	if got := w.Days(); got != 29 {
		t.Errorf("days = %d, want 29", got)
	}

	for _, tc := range []struct{ year, month int }{
		{2024, 0}, {2024, 13}, {0, 6}, {-1, 6},
	} {
		if _, err := ResolveMonth(tc.year, tc.month); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("ResolveMonth(%d, %d): err = %v, want ErrInvalidPeriod", tc.year, tc.month, err)
		}
	}
}

func TestWindowContains(t *testing.T) {
	w := mustMonth(t, 2024, 3)

	tests := []struct {
		ts   time.Time
		want bool
	}{
		{at(2024, time.March, 1, 0), true},
		{at(2024, time.March, 15, 12), true},
		{at(2024, time.March, 31, 23), true}, // end date is inclusive
		{at(2024, time.April, 1, 0), false},
		{at(2024, time.February, 29, 23), false},
	}
	for _, tc := range tests {
		if got := w.Contains(tc.ts); got != tc.want {
			t.Errorf("Contains(%v) = %v, want %v", tc.ts, got, tc.want)
		}
	}
}

func TestCalendarMonth(t *testing.T) {
	year, month, ok := mustMonth(t, 2024, 7).CalendarMonth()
	if !ok || year != 2024 || month != time.July {
		t.Errorf("got (%d, %v, %v), want (2024, July, true)", year, month, ok)
	}

	w, err := ResolveDays(at(2024, time.July, 15, 0), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, ok := w.CalendarMonth(); ok {
		t.Error("mid-month rolling window reported as calendar month")
	}

	// A rolling window anchored on the last day of the month lines up with
	// the calendar month exactly and is treated as one.
	w, err = ResolveDays(at(2024, time.July, 31, 0), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if year, month, ok := w.CalendarMonth(); !ok || year != 2024 || month != time.July {
		t.Errorf("got (%d, %v, %v), want aligned window detected as July 2024", year, month, ok)
	}
}

func TestBaselinePriorYear(t *testing.T) {
	// Calendar months map to the same month of the previous year, even
	// when the day count differs (leap February).
	base, err := Baseline(mustMonth(t, 2024, 2), BaselinePriorYear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !base.Start.Equal(at(2023, time.February, 1, 0)) || !base.End.Equal(at(2023, time.February, 28, 0)) {
		t.Errorf("baseline = %s, want 2023-02-01 ~ 2023-02-28", base.Label())
	}

	w, err := ResolveDays(at(2024, time.March, 15, 0), 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	base, err = Baseline(w, BaselinePriorYear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !base.Start.Equal(at(2023, time.March, 1, 0)) || !base.End.Equal(at(2023, time.March, 15, 0)) {
		t.Errorf("baseline = %s, want 2023-03-01 ~ 2023-03-15", base.Label())
	}
}

func TestBaselinePriorPeriod(t *testing.T) {
	// January maps to December of the previous year.
	base, err := Baseline(mustMonth(t, 2024, 1), BaselinePriorPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !base.Start.Equal(at(2023, time.December, 1, 0)) || !base.End.Equal(at(2023, time.December, 31, 0)) {
		t.Errorf("baseline = %s, want 2023-12-01 ~ 2023-12-31", base.Label())
	}

	// Arbitrary windows shift back by their own length.
	w := PeriodWindow{Start: at(2024, time.March, 10, 0), End: at(2024, time.March, 16, 0)}
	base, err = Baseline(w, BaselinePriorPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !base.Start.Equal(at(2024, time.March, 3, 0)) || !base.End.Equal(at(2024, time.March, 9, 0)) {
		t.Errorf("baseline = %s, want 2024-03-03 ~ 2024-03-09", base.Label())
	}
	if got := base.Days(); got != w.Days() {
		t.Errorf("baseline days = %d, want %d", got, w.Days())
	}
}

func TestBaselineUnknownPolicy(t *testing.T) {
	if _, err := Baseline(mustMonth(t, 2024, 1), BaselinePolicy("quarterly")); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("err = %v, want ErrInvalidPeriod", err)
	}
}
