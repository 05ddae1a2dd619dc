// Package shiftlog holds one employee's shift records and enforces the
// clock-in/clock-out rules on them.
//
// Records are kept in insertion order, which is not necessarily
// chronological: manual edits change timestamps without moving records.
// At most one record may be open (no clock-out) at any time.
package shiftlog

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/timecalc"
)

var (
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNotClockedIn     = errors.New("not clocked in")
	ErrRecordNotFound   = errors.New("shift not found")
	ErrOverlap          = errors.New("shift overlaps another shift")
	ErrAmbiguousRef     = errors.New("shift reference matches more than one shift")
)

// Log is an employee's ordered shift records.
type Log struct {
	records []model.ShiftRecord
}

// New wraps records, assigning IDs to any record that lacks one. The slice
// is copied.
func New(records []model.ShiftRecord) *Log {
	rs := append([]model.ShiftRecord(nil), records...)
	model.AssignShiftIDs(rs)
	return &Log{records: rs}
}

// Records returns a copy of the records in insertion order.
func (l *Log) Records() []model.ShiftRecord {
	out := make([]model.ShiftRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Log) Len() int {
	return len(l.records)
}

// IsClockedIn reports whether any record is open.
//
// Older clients only looked at the last record; scanning all of them also
// catches an open shift that an edit moved away from the end.
func (l *Log) IsClockedIn() bool {
	_, ok := l.Current()
	return ok
}

// Current returns the most recently inserted open record.
func (l *Log) Current() (model.ShiftRecord, bool) {
	if i := l.lastOpen(); i >= 0 {
		return l.records[i], true
	}
	return model.ShiftRecord{}, false
}

func (l *Log) lastOpen() int {
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].Open() {
			return i
		}
	}
	return -1
}

// ClockIn opens a new shift at now, trimmed to the minute.
func (l *Log) ClockIn(task, location string, now time.Time) (model.ShiftRecord, error) {
	if cur, ok := l.Current(); ok {
		return model.ShiftRecord{}, fmt.Errorf("%w since %s", ErrAlreadyClockedIn, cur.ClockIn)
	}
	rec := model.ShiftRecord{
		ID:       model.NewID(),
		Task:     task,
		Location: location,
		ClockIn:  timecalc.NowStamp(now),
	}
	l.records = append(l.records, rec)
	return rec, nil
}

// ClockOut closes the most recent open shift at now, trimmed to the minute.
func (l *Log) ClockOut(now time.Time) (model.ShiftRecord, error) {
	i := l.lastOpen()
	if i < 0 {
		return model.ShiftRecord{}, ErrNotClockedIn
	}
	if err := l.close(i, now); err != nil {
		return model.ShiftRecord{}, err
	}
	return l.records[i], nil
}

// End closes the open shift with the given ID at now.
func (l *Log) End(id string, now time.Time) (model.ShiftRecord, error) {
	i, err := l.index(id)
	if err != nil {
		return model.ShiftRecord{}, err
	}
	if !l.records[i].Open() {
		return model.ShiftRecord{}, fmt.Errorf("shift %s already ended: %w", l.records[i].ClockIn, ErrNotClockedIn)
	}
	if err := l.close(i, now); err != nil {
		return model.ShiftRecord{}, err
	}
	return l.records[i], nil
}

func (l *Log) close(i int, now time.Time) error {
	out := timecalc.NowStamp(now)
	if _, _, err := timecalc.ParseInterval(l.records[i].ClockIn, out); err != nil {
		return fmt.Errorf("clocking out of shift started %s: %w", l.records[i].ClockIn, err)
	}
	l.records[i].ClockOut = &out
	return nil
}

// Fields are the editable parts of a shift. A nil ClockOut leaves the
// shift open.
type Fields struct {
	Task     string
	Location string
	ClockIn  string
	ClockOut *string
}

// Edit replaces the fields of the record with the given ID in place.
//
// Timestamps must parse and clock-out must be after clock-in, and the edit
// may not leave two shifts open. Unless force is set the edited interval may
// not overlap any other closed shift; force is the administrative override.
func (l *Log) Edit(id string, f Fields, force bool) (model.ShiftRecord, error) {
	i, err := l.index(id)
	if err != nil {
		return model.ShiftRecord{}, err
	}

	in, err := timecalc.ParseStamp(f.ClockIn)
	if err != nil {
		return model.ShiftRecord{}, err
	}
	rec := model.ShiftRecord{
		ID:       id,
		Task:     f.Task,
		Location: f.Location,
		ClockIn:  timecalc.FormatStamp(in),
	}

	var out time.Time
	if f.ClockOut != nil && *f.ClockOut != "" {
		_, out, err = timecalc.ParseInterval(f.ClockIn, *f.ClockOut)
		if err != nil {
			return model.ShiftRecord{}, err
		}
		s := timecalc.FormatStamp(out)
		rec.ClockOut = &s
	} else {
		for j, other := range l.records {
			if j != i && other.Open() {
				return model.ShiftRecord{}, fmt.Errorf("%w since %s", ErrAlreadyClockedIn, other.ClockIn)
			}
		}
	}

	if !force && rec.ClockOut != nil {
		for j, other := range l.records {
			if j == i {
				continue
			}
			oIn, oOut, ok := Interval(other)
			if ok && timecalc.IsOverlapping(in, out, oIn, oOut) {
				return model.ShiftRecord{}, fmt.Errorf("%w (%s to %s)", ErrOverlap, other.ClockIn, *other.ClockOut)
			}
		}
	}

	l.records[i] = rec
	return rec, nil
}

// Delete removes the record with the given ID.
func (l *Log) Delete(id string) (model.ShiftRecord, error) {
	i, err := l.index(id)
	if err != nil {
		return model.ShiftRecord{}, err
	}
	rec := l.records[i]
	l.records = append(l.records[:i], l.records[i+1:]...)
	return rec, nil
}

// Replace removes the records with the given IDs and appends rec. It
// returns the removed records in log order.
func (l *Log) Replace(ids []string, rec model.ShiftRecord) []model.ShiftRecord {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	if rec.ID == "" {
		rec.ID = model.NewID()
	}

	var removed []model.ShiftRecord
	kept := l.records[:0:0]
	for _, r := range l.records {
		if drop[r.ID] {
			removed = append(removed, r)
			continue
		}
		kept = append(kept, r)
	}
	l.records = append(kept, rec)
	return removed
}

// Get returns the record with the given ID.
func (l *Log) Get(id string) (model.ShiftRecord, error) {
	i, err := l.index(id)
	if err != nil {
		return model.ShiftRecord{}, err
	}
	return l.records[i], nil
}

// Resolve maps a user-facing reference to a record. A reference is either a
// 1-based position in the log or a clock-in timestamp.
func (l *Log) Resolve(ref string) (model.ShiftRecord, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(l.records) {
			return model.ShiftRecord{}, fmt.Errorf("%w: no shift #%d", ErrRecordNotFound, n)
		}
		return l.records[n-1], nil
	}

	want, err := timecalc.ParseStamp(ref)
	if err != nil {
		return model.ShiftRecord{}, fmt.Errorf("%w: %q", ErrRecordNotFound, ref)
	}
	var found []model.ShiftRecord
	for _, r := range l.records {
		if r.ClockIn == ref {
			found = append(found, r)
			continue
		}
		if in, err := timecalc.ParseStamp(r.ClockIn); err == nil && in.Equal(want) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return model.ShiftRecord{}, fmt.Errorf("%w: no shift clocked in at %s", ErrRecordNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return model.ShiftRecord{}, fmt.Errorf("%w: %d shifts clocked in at %s", ErrAmbiguousRef, len(found), ref)
	}
}

func (l *Log) index(id string) (int, error) {
	for i, r := range l.records {
		if r.ID == id {
			return i, nil
		}
	}
	return -1, ErrRecordNotFound
}

// Interval parses a closed record's clock-in and clock-out. ok is false for
// open records and for records whose timestamps do not parse.
func Interval(r model.ShiftRecord) (in, out time.Time, ok bool) {
	if r.ClockOut == nil {
		return time.Time{}, time.Time{}, false
	}
	in, err := timecalc.ParseStamp(r.ClockIn)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	out, err = timecalc.ParseStamp(*r.ClockOut)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return in, out, true
}
