// Package reconcile merges approved edit requests into shift logs.
//
// Finalizing is destructive: shifts overlapping the requested interval are
// dropped, not archived, and the request leaves its queue.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/requests"
	"github.com/Tiliavir/shift-tracker/internal/shiftlog"
	"github.com/Tiliavir/shift-tracker/internal/timecalc"
)

var (
	ErrNotApproved       = errors.New("request is not approved")
	ErrMalformedInterval = errors.New("request interval is malformed")
)

// Result describes what Finalize changed.
type Result struct {
	// Record is the shift now standing for the request.
	Record model.ShiftRecord
	// Removed are the conflicting shifts that were dropped, in log order.
	Removed []model.ShiftRecord
	// AlreadyApplied is set when the log already held Record, in which case
	// nothing was appended.
	AlreadyApplied bool
	// Dequeued is the number of queue entries removed for the request.
	Dequeued int
}

// Conflicts returns the request's replacement record and the records of log
// that overlap it. Records that are open or whose timestamps do not parse
// never conflict. A record identical to the replacement is reported through
// present rather than as a conflict.
func Conflicts(req model.EditRequest, log *shiftlog.Log) (rec model.ShiftRecord, conflicts []model.ShiftRecord, present bool, err error) {
	if !req.Status.Is(model.StatusApproved) {
		return model.ShiftRecord{}, nil, false, fmt.Errorf("%w: status is %q", ErrNotApproved, req.Status)
	}
	start, end, err := timecalc.ParseInterval(req.RequestedStart, req.RequestedEnd)
	if err != nil {
		return model.ShiftRecord{}, nil, false, fmt.Errorf("%w: %v", ErrMalformedInterval, err)
	}

	rec = model.ShiftRecord{
		Task:     req.Task,
		Location: req.Location,
		ClockIn:  timecalc.FormatStamp(start),
		ClockOut: model.StringPtr(timecalc.FormatStamp(end)),
	}
	for _, r := range log.Records() {
		if !present && r.SameShift(rec) {
			present = true
			rec.ID = r.ID
			continue
		}
		in, out, ok := shiftlog.Interval(r)
		if ok && timecalc.IsOverlapping(in, out, start, end) {
			conflicts = append(conflicts, r)
		}
	}
	return rec, conflicts, present, nil
}

// Finalize applies an approved request to log and removes it from queue.
// queue may be nil when the caller persists the queue separately.
//
// Running Finalize again with the same request against the resulting log
// finds no conflicts and appends nothing.
func Finalize(req model.EditRequest, log *shiftlog.Log, queue *requests.Queue) (Result, error) {
	rec, conflicts, present, err := Conflicts(req, log)
	if err != nil {
		return Result{}, err
	}

	ids := make([]string, len(conflicts))
	for i, c := range conflicts {
		ids[i] = c.ID
	}

	res := Result{AlreadyApplied: present}
	if present {
		for _, id := range ids {
			if _, err := log.Delete(id); err != nil {
				return Result{}, err
			}
		}
		res.Removed = conflicts
		res.Record = rec
	} else {
		rec.ID = model.NewID()
		res.Removed = log.Replace(ids, rec)
		res.Record = rec
	}

	if queue != nil {
		res.Dequeued = queue.Remove(req)
	}
	return res, nil
}
