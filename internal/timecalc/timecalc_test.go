package timecalc_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Tiliavir/shift-tracker/internal/timecalc"
)

func stamp(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := timecalc.ParseStamp(s)
	if err != nil {
		t.Fatalf("ParseStamp(%q): %v", s, err)
	}
	return ts
}

func TestParseStamp(t *testing.T) {
	want := time.Date(2025, 1, 1, 8, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"2025-01-01T08:30",
		"2025-01-01T08:30:00",
		"2025-01-01T08:30:00.000000",
		"2025-01-01 08:30",
		"2025-01-01 08:30:00",
	} {
		got, err := timecalc.ParseStamp(in)
		if err != nil {
			t.Errorf("ParseStamp(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseStamp(%q) = %v, want %v", in, got, want)
		}
	}

	for _, in := range []string{"", "yesterday", "2025-13-01T08:00", "08:30"} {
		if _, err := timecalc.ParseStamp(in); !errors.Is(err, timecalc.ErrMalformedStamp) {
			t.Errorf("ParseStamp(%q) error = %v, want ErrMalformedStamp", in, err)
		}
	}
}

func TestTrimKeepsWallClock(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	in := time.Date(2025, 6, 7, 14, 31, 45, 123456789, loc)
	got := timecalc.Trim(in)
	if timecalc.FormatStamp(got) != "2025-06-07T14:31" {
		t.Errorf("Trim = %s, want 2025-06-07T14:31", timecalc.FormatStamp(got))
	}
	if got.Second() != 0 || got.Nanosecond() != 0 {
		t.Errorf("Trim left seconds: %v", got)
	}
	if timecalc.NowStamp(in) != "2025-06-07T14:31" {
		t.Errorf("NowStamp = %s", timecalc.NowStamp(in))
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		start, end string
		h, m       int
	}{
		{"2025-01-01T08:00", "2025-01-01T08:00", 0, 0},
		{"2025-01-01T08:00", "2025-01-01T12:00", 4, 0},
		{"2025-01-01T08:15", "2025-01-01T09:00", 0, 45},
		{"2025-01-01T22:30", "2025-01-02T06:45", 8, 15},
		{"2025-01-01T08:00:00", "2025-01-01T08:01:59", 0, 1},
	}
	for _, tt := range tests {
		h, m, err := timecalc.Duration(stamp(t, tt.start), stamp(t, tt.end))
		if err != nil {
			t.Errorf("Duration(%s, %s): %v", tt.start, tt.end, err)
			continue
		}
		if h != tt.h || m != tt.m {
			t.Errorf("Duration(%s, %s) = (%d, %d), want (%d, %d)", tt.start, tt.end, h, m, tt.h, tt.m)
		}
	}

	_, _, err := timecalc.Duration(stamp(t, "2025-01-01T12:00"), stamp(t, "2025-01-01T08:00"))
	if !errors.Is(err, timecalc.ErrInvalidInterval) {
		t.Errorf("Duration with end < start: error = %v, want ErrInvalidInterval", err)
	}
}

func TestDurationMonotonicInEnd(t *testing.T) {
	start := stamp(t, "2025-01-01T08:00")
	prev := -1
	for i := 0; i <= 600; i += 7 {
		mins, err := timecalc.Minutes(start, start.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatal(err)
		}
		if mins < prev {
			t.Fatalf("Minutes decreased: %d after %d", mins, prev)
		}
		prev = mins
	}
}

func TestFormatShiftDuration(t *testing.T) {
	start := stamp(t, "2025-01-01T08:00")
	end := stamp(t, "2025-01-01T12:30")
	if got := timecalc.FormatShiftDuration(start, end, false); got != "Worked 4 hours and 30 minutes (from 08:00 to 12:30)" {
		t.Errorf("FormatShiftDuration = %q", got)
	}
	if got := timecalc.FormatShiftDuration(start, end, true); got != "Working 4 hours and 30 minutes (from 08:00 to 12:30)" {
		t.Errorf("FormatShiftDuration ongoing = %q", got)
	}
}

func TestIsOverlapping(t *testing.T) {
	tests := []struct {
		name         string
		aStart, aEnd string
		bStart, bEnd string
		want         bool
	}{
		{"partial", "2025-01-01T08:00", "2025-01-01T12:00", "2025-01-01T10:00", "2025-01-01T14:00", true},
		{"contained", "2025-01-01T08:00", "2025-01-01T17:00", "2025-01-01T10:00", "2025-01-01T11:00", true},
		{"identical", "2025-01-01T08:00", "2025-01-01T12:00", "2025-01-01T08:00", "2025-01-01T12:00", true},
		{"back to back", "2025-01-01T08:00", "2025-01-01T12:00", "2025-01-01T12:00", "2025-01-01T13:00", false},
		{"disjoint", "2025-01-01T08:00", "2025-01-01T09:00", "2025-01-01T13:00", "2025-01-01T17:00", false},
	}
	for _, tt := range tests {
		a1, a2 := stamp(t, tt.aStart), stamp(t, tt.aEnd)
		b1, b2 := stamp(t, tt.bStart), stamp(t, tt.bEnd)
		if got := timecalc.IsOverlapping(a1, a2, b1, b2); got != tt.want {
			t.Errorf("%s: IsOverlapping = %v, want %v", tt.name, got, tt.want)
		}
		if timecalc.IsOverlapping(a1, a2, b1, b2) != timecalc.IsOverlapping(b1, b2, a1, a2) {
			t.Errorf("%s: IsOverlapping is not symmetric", tt.name)
		}
	}

	open := time.Time{}
	a1, a2 := stamp(t, "2025-01-01T08:00"), stamp(t, "2025-01-01T12:00")
	if timecalc.IsOverlapping(a1, a2, a1, open) || timecalc.IsOverlapping(a1, open, a1, a2) {
		t.Error("an interval without an end must never overlap")
	}
}

func TestParseInterval(t *testing.T) {
	if _, _, err := timecalc.ParseInterval("2025-01-01T08:00", "2025-01-01T09:00"); err != nil {
		t.Errorf("ParseInterval valid: %v", err)
	}
	if _, _, err := timecalc.ParseInterval("2025-01-01T08:00", "2025-01-01T08:00"); !errors.Is(err, timecalc.ErrInvalidInterval) {
		t.Errorf("ParseInterval empty: error = %v, want ErrInvalidInterval", err)
	}
	if _, _, err := timecalc.ParseInterval("nope", "2025-01-01T08:00"); !errors.Is(err, timecalc.ErrMalformedStamp) {
		t.Errorf("ParseInterval malformed: error = %v, want ErrMalformedStamp", err)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{45, "45s"},
		{60, "1m"},
		{90, "1m"},
		{3600, "1h 0m"},
		{3661, "1h 1m"},
		{5400, "1h 30m"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDuration(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{30, "30s"},
		{59, "59s"},
		{60, "1m 0s"},
		{90, "1m 30s"},
		{3600, "1h 0m 0s"},
		{3661, "1h 1m 1s"},
		{7322, "2h 2m 2s"},
	}
	for _, tt := range tests {
		got := timecalc.FormatElapsed(time.Duration(tt.seconds) * time.Second)
		if got != tt.want {
			t.Errorf("FormatElapsed(%ds) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	if got := timecalc.FormatMinutes(425); got != "7:05" {
		t.Errorf("FormatMinutes(425) = %q, want 7:05", got)
	}
}

func TestWeekRange(t *testing.T) {
	// 2026-02-27 is a Friday (week 9).
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	monday, sunday := timecalc.WeekRange(fri)

	wantMonday := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	wantSunday := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)

	if !monday.Equal(wantMonday) {
		t.Errorf("WeekRange monday = %v, want %v", monday, wantMonday)
	}
	if !sunday.Equal(wantSunday) {
		t.Errorf("WeekRange sunday = %v, want %v", sunday, wantSunday)
	}
}

func TestMonthRange(t *testing.T) {
	first, last := timecalc.MonthRange(time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC))
	if !first.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("MonthRange first = %v", first)
	}
	if !last.Equal(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("MonthRange last = %v", last)
	}
}

func TestISOWeekLabel(t *testing.T) {
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	got := timecalc.ISOWeekLabel(fri)
	if got != "2026-W09" {
		t.Errorf("ISOWeekLabel = %q, want %q", got, "2026-W09")
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	b := time.Date(2026, 2, 27, 23, 59, 59, 0, time.UTC)
	c := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	if !timecalc.SameDay(a, b) {
		t.Error("SameDay: expected same day for a and b")
	}
	if timecalc.SameDay(a, c) {
		t.Error("SameDay: expected different day for a and c")
	}
}
