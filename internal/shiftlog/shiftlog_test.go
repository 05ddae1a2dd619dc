package shiftlog_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/shiftlog"
	"github.com/Tiliavir/shift-tracker/internal/timecalc"
)

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := timecalc.ParseStamp(s)
	if err != nil {
		t.Fatalf("ParseStamp(%q): %v", s, err)
	}
	return ts
}

func closed(task, in, out string) model.ShiftRecord {
	return model.ShiftRecord{Task: task, Location: "Site1", ClockIn: in, ClockOut: model.StringPtr(out)}
}

func openCount(l *shiftlog.Log) int {
	n := 0
	for _, r := range l.Records() {
		if r.Open() {
			n++
		}
	}
	return n
}

func TestClockInClockOut(t *testing.T) {
	l := shiftlog.New(nil)
	in, err := l.ClockIn("Paint", "Site1", at(t, "2025-01-01T08:00"))
	if err != nil {
		t.Fatalf("ClockIn: %v", err)
	}
	if in.ClockIn != "2025-01-01T08:00" || !in.Open() || in.ID == "" {
		t.Errorf("ClockIn record = %+v", in)
	}
	if !l.IsClockedIn() {
		t.Error("IsClockedIn should be true after ClockIn")
	}

	out, err := l.ClockOut(at(t, "2025-01-01T12:00"))
	if err != nil {
		t.Fatalf("ClockOut: %v", err)
	}
	if out.ClockOut == nil || *out.ClockOut != "2025-01-01T12:00" {
		t.Errorf("ClockOut record = %+v", out)
	}
	if l.IsClockedIn() {
		t.Error("IsClockedIn should be false after ClockOut")
	}

	start, end, ok := shiftlog.Interval(out)
	if !ok {
		t.Fatal("Interval: closed record should parse")
	}
	h, m, err := timecalc.Duration(start, end)
	if err != nil || h != 4 || m != 0 {
		t.Errorf("Duration = (%d, %d, %v), want (4, 0, nil)", h, m, err)
	}
}

func TestClockInTrimsSeconds(t *testing.T) {
	l := shiftlog.New(nil)
	rec, err := l.ClockIn("Paint", "Site1", time.Date(2025, 1, 1, 8, 0, 42, 999, time.Local))
	if err != nil {
		t.Fatal(err)
	}
	if rec.ClockIn != "2025-01-01T08:00" {
		t.Errorf("ClockIn = %q, want 2025-01-01T08:00", rec.ClockIn)
	}
}

func TestClockInTwiceFails(t *testing.T) {
	l := shiftlog.New(nil)
	if _, err := l.ClockIn("Paint", "Site1", at(t, "2025-01-01T09:00")); err != nil {
		t.Fatal(err)
	}
	_, err := l.ClockIn("Paint", "Site1", at(t, "2025-01-01T09:30"))
	if !errors.Is(err, shiftlog.ErrAlreadyClockedIn) {
		t.Errorf("second ClockIn error = %v, want ErrAlreadyClockedIn", err)
	}
	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1", l.Len())
	}
}

func TestClockOutWithoutShift(t *testing.T) {
	l := shiftlog.New([]model.ShiftRecord{closed("Paint", "2025-01-01T08:00", "2025-01-01T12:00")})
	if _, err := l.ClockOut(at(t, "2025-01-01T13:00")); !errors.Is(err, shiftlog.ErrNotClockedIn) {
		t.Errorf("ClockOut error = %v, want ErrNotClockedIn", err)
	}
}

func TestClockOutSameMinute(t *testing.T) {
	l := shiftlog.New(nil)
	if _, err := l.ClockIn("Paint", "Site1", at(t, "2025-01-01T08:00")); err != nil {
		t.Fatal(err)
	}
	_, err := l.ClockOut(time.Date(2025, 1, 1, 8, 0, 30, 0, time.UTC))
	if !errors.Is(err, timecalc.ErrInvalidInterval) {
		t.Errorf("ClockOut error = %v, want ErrInvalidInterval", err)
	}
	if !l.IsClockedIn() {
		t.Error("failed ClockOut must leave the shift open")
	}
}

func TestClockOutFindsOpenShiftNotLast(t *testing.T) {
	open := model.ShiftRecord{Task: "Paint", Location: "Site1", ClockIn: "2025-01-02T08:00"}
	l := shiftlog.New([]model.ShiftRecord{
		open,
		closed("Sand", "2025-01-01T08:00", "2025-01-01T12:00"),
	})
	if !l.IsClockedIn() {
		t.Fatal("IsClockedIn should see an open shift that is not last")
	}
	if _, err := l.ClockIn("Paint", "Site1", at(t, "2025-01-02T09:00")); !errors.Is(err, shiftlog.ErrAlreadyClockedIn) {
		t.Errorf("ClockIn error = %v, want ErrAlreadyClockedIn", err)
	}
	rec, err := l.ClockOut(at(t, "2025-01-02T10:00"))
	if err != nil {
		t.Fatal(err)
	}
	if rec.ClockIn != "2025-01-02T08:00" {
		t.Errorf("ClockOut closed %q, want the 2025-01-02T08:00 shift", rec.ClockIn)
	}
}

func TestAtMostOneOpenShift(t *testing.T) {
	l := shiftlog.New(nil)
	now := at(t, "2025-01-01T06:00")
	// Alternate valid and invalid calls; the invariant must hold after each.
	for i := 0; i < 40; i++ {
		now = now.Add(17 * time.Minute)
		if i%3 == 0 {
			_, _ = l.ClockOut(now)
		} else {
			_, _ = l.ClockIn("Paint", "Site1", now)
		}
		if n := openCount(l); n > 1 {
			t.Fatalf("after step %d: %d open shifts", i, n)
		}
	}
}

func TestEdit(t *testing.T) {
	l := shiftlog.New([]model.ShiftRecord{
		closed("Paint", "2025-01-01T08:00", "2025-01-01T12:00"),
		closed("Sand", "2025-01-01T13:00", "2025-01-01T17:00"),
	})
	second := l.Records()[1]

	overlapping := shiftlog.Fields{Task: "Sand", Location: "Site1", ClockIn: "2025-01-01T11:00", ClockOut: model.StringPtr("2025-01-01T17:00")}
	if _, err := l.Edit(second.ID, overlapping, false); !errors.Is(err, shiftlog.ErrOverlap) {
		t.Errorf("Edit error = %v, want ErrOverlap", err)
	}
	if got := l.Records()[1].ClockIn; got != "2025-01-01T13:00" {
		t.Errorf("rejected edit changed the record: clock_in = %s", got)
	}

	rec, err := l.Edit(second.ID, overlapping, true)
	if err != nil {
		t.Fatalf("forced Edit: %v", err)
	}
	if rec.ClockIn != "2025-01-01T11:00" || rec.ID != second.ID {
		t.Errorf("forced Edit = %+v", rec)
	}
	if got := l.Records()[1]; !got.SameShift(rec) {
		t.Errorf("Edit should replace in place, got %+v", got)
	}
}

func TestEditValidatesEvenWhenForced(t *testing.T) {
	l := shiftlog.New([]model.ShiftRecord{
		{Task: "Paint", Location: "Site1", ClockIn: "2025-01-02T08:00"},
		closed("Sand", "2025-01-01T08:00", "2025-01-01T12:00"),
	})
	id := l.Records()[1].ID

	tests := []struct {
		name string
		f    shiftlog.Fields
		want error
	}{
		{"backwards", shiftlog.Fields{ClockIn: "2025-01-01T12:00", ClockOut: model.StringPtr("2025-01-01T08:00")}, timecalc.ErrInvalidInterval},
		{"empty", shiftlog.Fields{ClockIn: "2025-01-01T12:00", ClockOut: model.StringPtr("2025-01-01T12:00")}, timecalc.ErrInvalidInterval},
		{"malformed", shiftlog.Fields{ClockIn: "noon"}, timecalc.ErrMalformedStamp},
		{"second open shift", shiftlog.Fields{ClockIn: "2025-01-01T08:00"}, shiftlog.ErrAlreadyClockedIn},
	}
	for _, tt := range tests {
		if _, err := l.Edit(id, tt.f, true); !errors.Is(err, tt.want) {
			t.Errorf("%s: Edit error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestEndAndDelete(t *testing.T) {
	l := shiftlog.New([]model.ShiftRecord{
		closed("Paint", "2025-01-01T08:00", "2025-01-01T12:00"),
		{Task: "Sand", Location: "Site1", ClockIn: "2025-01-02T08:00"},
	})
	recs := l.Records()

	if _, err := l.End(recs[0].ID, at(t, "2025-01-02T09:00")); !errors.Is(err, shiftlog.ErrNotClockedIn) {
		t.Errorf("End on closed shift error = %v, want ErrNotClockedIn", err)
	}
	ended, err := l.End(recs[1].ID, at(t, "2025-01-02T16:30"))
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if *ended.ClockOut != "2025-01-02T16:30" {
		t.Errorf("End clock_out = %s", *ended.ClockOut)
	}

	if _, err := l.Delete(recs[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if l.Len() != 1 {
		t.Errorf("Len after Delete = %d, want 1", l.Len())
	}
	if _, err := l.Delete(recs[0].ID); !errors.Is(err, shiftlog.ErrRecordNotFound) {
		t.Errorf("second Delete error = %v, want ErrRecordNotFound", err)
	}
}

func TestResolve(t *testing.T) {
	l := shiftlog.New([]model.ShiftRecord{
		closed("Paint", "2025-01-01T08:00", "2025-01-01T12:00"),
		closed("Sand", "2025-01-01T13:00", "2025-01-01T17:00"),
		closed("Sand", "2025-01-01T13:00", "2025-01-01T15:00"),
	})

	rec, err := l.Resolve("1")
	if err != nil || rec.Task != "Paint" {
		t.Errorf("Resolve(1) = %+v, %v", rec, err)
	}
	rec, err = l.Resolve("2025-01-01 08:00")
	if err != nil || rec.Task != "Paint" {
		t.Errorf("Resolve(stamp) = %+v, %v", rec, err)
	}
	if _, err := l.Resolve("4"); !errors.Is(err, shiftlog.ErrRecordNotFound) {
		t.Errorf("Resolve(4) error = %v, want ErrRecordNotFound", err)
	}
	if _, err := l.Resolve("2025-01-01T13:00"); !errors.Is(err, shiftlog.ErrAmbiguousRef) {
		t.Errorf("Resolve(duplicate stamp) error = %v, want ErrAmbiguousRef", err)
	}
}

func TestReplace(t *testing.T) {
	l := shiftlog.New([]model.ShiftRecord{
		closed("Paint", "2025-01-01T08:00", "2025-01-01T12:00"),
		closed("Sand", "2025-01-01T13:00", "2025-01-01T17:00"),
	})
	first := l.Records()[0]
	removed := l.Replace([]string{first.ID}, closed("Plaster", "2025-01-01T10:00", "2025-01-01T12:30"))
	if len(removed) != 1 || removed[0].ID != first.ID {
		t.Fatalf("Replace removed %+v", removed)
	}
	recs := l.Records()
	if len(recs) != 2 || recs[0].Task != "Sand" || recs[1].Task != "Plaster" {
		t.Errorf("Replace result = %+v", recs)
	}
	if recs[1].ID == "" {
		t.Error("Replace should assign an ID to the new record")
	}
}
