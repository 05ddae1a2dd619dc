package requests_test

import (
	"errors"
	"testing"

	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/requests"
)

func submission(start, end string) requests.Submission {
	return requests.Submission{
		Task:     "Paint",
		Location: "Site1",
		Company:  "Acme",
		Start:    start,
		End:      end,
		Reason:   "forgot to clock in",
	}
}

func TestSubmit(t *testing.T) {
	q := requests.New(nil)
	req, err := q.Submit(submission("2025-01-01 10:00", "2025-01-01 14:00"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if req.Status != model.StatusPending {
		t.Errorf("Status = %q, want pending", req.Status)
	}
	if req.RequestedStart != "2025-01-01T10:00" || req.RequestedEnd != "2025-01-01T14:00" {
		t.Errorf("stamps not canonical: %s %s", req.RequestedStart, req.RequestedEnd)
	}
	if req.ID == "" || q.Len() != 1 {
		t.Errorf("request not queued: %+v", req)
	}
}

func TestSubmitRejects(t *testing.T) {
	tests := []struct {
		name string
		s    requests.Submission
		want error
	}{
		{"end before start", submission("2025-01-01T14:00", "2025-01-01T10:00"), requests.ErrInvalidRange},
		{"empty range", submission("2025-01-01T10:00", "2025-01-01T10:00"), requests.ErrInvalidRange},
	}
	for _, tt := range tests {
		q := requests.New(nil)
		if _, err := q.Submit(tt.s); !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
		if q.Len() != 0 {
			t.Errorf("%s: rejected request was queued", tt.name)
		}
	}

	missing := submission("2025-01-01T10:00", "2025-01-01T14:00")
	missing.Task = ""
	if _, err := requests.New(nil).Submit(missing); err == nil {
		t.Error("Submit without task should fail")
	}
	bad := submission("tomorrow", "2025-01-01T14:00")
	if _, err := requests.New(nil).Submit(bad); err == nil {
		t.Error("Submit with malformed start should fail")
	}
}

func TestSetStatusIsPermissive(t *testing.T) {
	q := requests.New(nil)
	req, err := q.Submit(submission("2025-01-01T10:00", "2025-01-01T14:00"))
	if err != nil {
		t.Fatal(err)
	}
	for _, st := range []string{"approved", "pending", "Rejected", "approved"} {
		got, err := q.SetStatus(req.ID, st)
		if err != nil {
			t.Fatalf("SetStatus(%s): %v", st, err)
		}
		if !got.Status.Is(model.RequestStatus(st)) {
			t.Errorf("SetStatus(%s) = %s", st, got.Status)
		}
	}
	if _, err := q.SetStatus(req.ID, "done"); !errors.Is(err, requests.ErrInvalidStatus) {
		t.Errorf("SetStatus(done) error = %v, want ErrInvalidStatus", err)
	}
	if _, err := q.SetStatus("missing", "approved"); !errors.Is(err, requests.ErrRequestNotFound) {
		t.Errorf("SetStatus(missing) error = %v, want ErrRequestNotFound", err)
	}
}

func TestUpdateKeepsStatus(t *testing.T) {
	q := requests.New(nil)
	req, _ := q.Submit(submission("2025-01-01T10:00", "2025-01-01T14:00"))
	if _, err := q.SetStatus(req.ID, "approved"); err != nil {
		t.Fatal(err)
	}
	upd, err := q.Update(req.ID, submission("2025-01-01T09:00", "2025-01-01T13:00"))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if upd.Status != model.StatusApproved || upd.RequestedStart != "2025-01-01T09:00" {
		t.Errorf("Update = %+v", upd)
	}
	if _, err := q.Update(req.ID, submission("2025-01-01T13:00", "2025-01-01T09:00")); !errors.Is(err, requests.ErrInvalidRange) {
		t.Errorf("Update backwards error = %v, want ErrInvalidRange", err)
	}
}

func TestRemove(t *testing.T) {
	legacy := []model.EditRequest{
		{Task: "Paint", RequestedStart: "2025-01-01T10:00", RequestedEnd: "2025-01-01T14:00", Status: "pending"},
		{Task: "Sand", RequestedStart: "2025-01-01T10:00", RequestedEnd: "2025-01-01T14:00", Status: "pending"},
		{Task: "Wire", RequestedStart: "2025-01-02T10:00", RequestedEnd: "2025-01-02T14:00", Status: "Rejected"},
	}

	q := requests.New(legacy)
	first := q.Requests()[0]
	if n := q.Remove(first); n != 1 {
		t.Errorf("Remove by ID removed %d, want 1", n)
	}

	q = requests.New(legacy)
	if n := q.Remove(model.EditRequest{RequestedStart: "2025-01-01T10:00", RequestedEnd: "2025-01-01T14:00"}); n != 2 {
		t.Errorf("Remove by range removed %d, want 2", n)
	}

	q = requests.New(legacy)
	if n := q.RemoveWithStatus(model.StatusRejected); n != 1 || q.Len() != 2 {
		t.Errorf("RemoveWithStatus removed %d, left %d", n, q.Len())
	}
}

func TestResolve(t *testing.T) {
	q := requests.New([]model.EditRequest{
		{Task: "Paint", RequestedStart: "2025-01-01T10:00", RequestedEnd: "2025-01-01T14:00", Status: "pending"},
		{Task: "Sand", RequestedStart: "2025-01-02T10:00", RequestedEnd: "2025-01-02T14:00", Status: "pending"},
	})
	if r, err := q.Resolve("2"); err != nil || r.Task != "Sand" {
		t.Errorf("Resolve(2) = %+v, %v", r, err)
	}
	if r, err := q.Resolve("2025-01-01 10:00/2025-01-01 14:00"); err != nil || r.Task != "Paint" {
		t.Errorf("Resolve(range) = %+v, %v", r, err)
	}
	for _, ref := range []string{"0", "3", "2025-01-03T10:00/2025-01-03T11:00", "nonsense"} {
		if _, err := q.Resolve(ref); !errors.Is(err, requests.ErrRequestNotFound) {
			t.Errorf("Resolve(%q) error = %v, want ErrRequestNotFound", ref, err)
		}
	}
}
