package timecalc

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// StampLayout is the persisted form of every timestamp: naive local time,
// minute precision.
const StampLayout = "2006-01-02T15:04"

var (
	// ErrInvalidInterval is returned when an interval ends before (or, for
	// shifts, at) its start.
	ErrInvalidInterval = errors.New("invalid interval")
	// ErrMalformedStamp is returned when a timestamp cannot be parsed.
	ErrMalformedStamp = errors.New("malformed timestamp")
)

// Accepted input layouts. Seconds and fractional seconds appear in files
// written by older clients; the space separator comes from the request form.
var stampLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// ParseStamp parses a naive ISO-8601 timestamp. The result carries the wall
// clock in a UTC container; no zone conversion is applied.
func ParseStamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range stampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedStamp, s)
}

// FormatStamp renders t in StampLayout.
func FormatStamp(t time.Time) string {
	return t.Format(StampLayout)
}

// Trim drops seconds and sub-seconds and strips the zone, keeping the wall
// clock of t.
func Trim(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// NowStamp returns the trimmed current time in StampLayout.
func NowStamp(now time.Time) string {
	return FormatStamp(Trim(now))
}

// Duration returns the elapsed whole minutes between start and end, split
// into hours and minutes.
func Duration(start, end time.Time) (hours, minutes int, err error) {
	if end.Before(start) {
		return 0, 0, fmt.Errorf("%w: %s is before %s", ErrInvalidInterval, FormatStamp(end), FormatStamp(start))
	}
	total := int(end.Sub(start) / time.Minute)
	return total / 60, total % 60, nil
}

// Minutes returns the elapsed whole minutes between start and end.
func Minutes(start, end time.Time) (int, error) {
	h, m, err := Duration(start, end)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// FormatShiftDuration describes a shift, e.g.
// "Worked 4 hours and 0 minutes (from 08:00 to 12:00)".
func FormatShiftDuration(start, end time.Time, ongoing bool) string {
	h, m, err := Duration(start, end)
	if err != nil {
		h, m = 0, 0
	}
	verb := "Worked"
	if ongoing {
		verb = "Working"
	}
	return fmt.Sprintf("%s %d hours and %d minutes (from %s to %s)",
		verb, h, m, start.Format("15:04"), end.Format("15:04"))
}

// IsOverlapping reports whether [aStart, aEnd) and [bStart, bEnd) share any
// instant. A zero end means the interval is not closed and never overlaps.
// Back-to-back intervals do not overlap.
func IsOverlapping(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.IsZero() || bEnd.IsZero() {
		return false
	}
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ParseInterval parses a start/end pair and requires end to be strictly
// after start.
func ParseInterval(start, end string) (time.Time, time.Time, error) {
	s, err := ParseStamp(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := ParseStamp(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !e.After(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s is not after %s", ErrInvalidInterval, end, start)
	}
	return s, e, nil
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	return formatHMS(seconds, false)
}

// FormatElapsed is FormatDuration down to the second, e.g. "1h 40m 5s",
// for running shifts.
func FormatElapsed(d time.Duration) string {
	return formatHMS(int64(d/time.Second), true)
}

func formatHMS(seconds int64, withSeconds bool) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0 && withSeconds:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0 && withSeconds:
		return fmt.Sprintf("%dm %ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatMinutes formats a minute count as "H:MM".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, ..., Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := StartOfDay(t.AddDate(0, 0, -(wd - 1)))
	sunday := EndOfDay(monday.AddDate(0, 0, 6))
	return monday, sunday
}

// MonthRange returns the first and last day of the month containing t.
func MonthRange(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := EndOfDay(first.AddDate(0, 1, -1))
	return first, last
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
