package model

import "github.com/google/uuid"

// ShiftRecord is a single clock-in/clock-out pair in an employee's log.
//
// Timestamps are kept exactly as persisted so that legacy or malformed
// values survive a load/save cycle untouched; use timecalc.ParseStamp to
// interpret them. ID is assigned in memory and never written to disk.
type ShiftRecord struct {
	ID       string  `json:"-"`
	Task     string  `json:"task"`
	Location string  `json:"location"`
	ClockIn  string  `json:"clock_in"`
	ClockOut *string `json:"clock_out"`
}

// Open reports whether the shift has not been clocked out yet.
func (r ShiftRecord) Open() bool {
	return r.ClockOut == nil
}

// SameShift reports whether r and o describe the same shift, ignoring IDs.
func (r ShiftRecord) SameShift(o ShiftRecord) bool {
	if r.Task != o.Task || r.Location != o.Location || r.ClockIn != o.ClockIn {
		return false
	}
	if r.ClockOut == nil || o.ClockOut == nil {
		return r.ClockOut == nil && o.ClockOut == nil
	}
	return *r.ClockOut == *o.ClockOut
}

// NewID returns a fresh synthetic identifier for records and requests.
func NewID() string {
	return uuid.NewString()
}

// AssignShiftIDs gives every record without an ID a new one, in place.
func AssignShiftIDs(records []ShiftRecord) {
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = NewID()
		}
	}
}

// StringPtr is a small helper for optional timestamps.
func StringPtr(s string) *string {
	return &s
}
