package reconcile_test

import (
	"errors"
	"testing"

	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/reconcile"
	"github.com/Tiliavir/shift-tracker/internal/requests"
	"github.com/Tiliavir/shift-tracker/internal/shiftlog"
)

func closed(task, in, out string) model.ShiftRecord {
	return model.ShiftRecord{Task: task, Location: "Site1", ClockIn: in, ClockOut: model.StringPtr(out)}
}

func approved(start, end string) model.EditRequest {
	return model.EditRequest{
		Task:           "Paint",
		Location:       "Site1",
		Company:        "Acme",
		RequestedStart: start,
		RequestedEnd:   end,
		Status:         model.StatusApproved,
	}
}

// queued puts req into a fresh queue and returns it with its assigned ID.
func queued(req model.EditRequest) (*requests.Queue, model.EditRequest) {
	q := requests.New([]model.EditRequest{req})
	return q, q.Requests()[0]
}

func TestFinalizeReplacesOverlap(t *testing.T) {
	log := shiftlog.New([]model.ShiftRecord{closed("Sand", "2025-01-01T08:00", "2025-01-01T12:00")})
	q, req := queued(approved("2025-01-01T10:00", "2025-01-01T14:00"))

	res, err := reconcile.Finalize(req, log, q)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(res.Removed) != 1 || res.Removed[0].ClockIn != "2025-01-01T08:00" {
		t.Errorf("Removed = %+v", res.Removed)
	}
	recs := log.Records()
	if len(recs) != 1 || recs[0].ClockIn != "2025-01-01T10:00" || *recs[0].ClockOut != "2025-01-01T14:00" {
		t.Errorf("log = %+v", recs)
	}
	if res.Dequeued != 1 || q.Len() != 0 {
		t.Errorf("request not dequeued: Dequeued=%d Len=%d", res.Dequeued, q.Len())
	}
}

func TestFinalizeBackToBack(t *testing.T) {
	log := shiftlog.New([]model.ShiftRecord{
		closed("Sand", "2025-01-01T08:00", "2025-01-01T12:00"),
		closed("Sand", "2025-01-01T13:00", "2025-01-01T17:00"),
	})
	res, err := reconcile.Finalize(approved("2025-01-01T12:00", "2025-01-01T13:00"), log, nil)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(res.Removed) != 0 {
		t.Errorf("Removed = %+v, want none", res.Removed)
	}
	recs := log.Records()
	if len(recs) != 3 || recs[2].ClockIn != "2025-01-01T12:00" {
		t.Errorf("new record should be appended last: %+v", recs)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	log := shiftlog.New([]model.ShiftRecord{
		closed("Sand", "2025-01-01T08:00", "2025-01-01T12:00"),
		closed("Sand", "2025-01-01T15:00", "2025-01-01T16:00"),
	})
	req := approved("2025-01-01T10:00", "2025-01-01T14:00")
	if _, err := reconcile.Finalize(req, log, nil); err != nil {
		t.Fatal(err)
	}
	before := log.Records()

	res, err := reconcile.Finalize(req, log, nil)
	if err != nil {
		t.Fatalf("second Finalize: %v", err)
	}
	if len(res.Removed) != 0 || !res.AlreadyApplied {
		t.Errorf("second Finalize = %+v, want no conflicts and AlreadyApplied", res)
	}
	after := log.Records()
	if len(after) != len(before) {
		t.Fatalf("second Finalize changed the log: %d -> %d records", len(before), len(after))
	}
	for i := range before {
		if !before[i].SameShift(after[i]) {
			t.Errorf("record %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestFinalizeKeepsUnparseableAndOpen(t *testing.T) {
	log := shiftlog.New([]model.ShiftRecord{
		{Task: "Paint", Location: "Site1", ClockIn: "2025-01-01T09:00"},
		closed("Paint", "garbage", "2025-01-01T11:00"),
		closed("Paint", "2025-01-01T09:00", "2025-01-01T11:00"),
	})
	res, err := reconcile.Finalize(approved("2025-01-01T08:00", "2025-01-01T12:00"), log, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Removed) != 1 || res.Removed[0].ClockIn != "2025-01-01T09:00" {
		t.Errorf("Removed = %+v", res.Removed)
	}
	if log.Len() != 3 {
		t.Errorf("Len = %d, want 3 (open, malformed, new)", log.Len())
	}
}

func TestFinalizePreconditions(t *testing.T) {
	recs := []model.ShiftRecord{closed("Sand", "2025-01-01T08:00", "2025-01-01T12:00")}

	pending := approved("2025-01-01T10:00", "2025-01-01T14:00")
	pending.Status = model.StatusPending
	tests := []struct {
		name string
		req  model.EditRequest
		want error
	}{
		{"pending", pending, reconcile.ErrNotApproved},
		{"backwards", approved("2025-01-01T14:00", "2025-01-01T10:00"), reconcile.ErrMalformedInterval},
		{"unparseable", approved("2025-01-01T10:00", "later"), reconcile.ErrMalformedInterval},
	}
	for _, tt := range tests {
		log := shiftlog.New(recs)
		q, req := queued(tt.req)
		if _, err := reconcile.Finalize(req, log, q); !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
		if log.Len() != 1 || q.Len() != 1 {
			t.Errorf("%s: failed Finalize changed state", tt.name)
		}
	}
}

func TestFinalizeLegacyCapitalisedStatus(t *testing.T) {
	req := approved("2025-01-01T10:00", "2025-01-01T14:00")
	req.Status = "Approved"
	if _, err := reconcile.Finalize(req, shiftlog.New(nil), nil); err != nil {
		t.Errorf("Finalize with status Approved: %v", err)
	}
}
