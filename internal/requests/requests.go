// Package requests is the per-employee queue of retroactive shift-edit
// requests awaiting review.
package requests

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/timecalc"
)

var (
	ErrInvalidRange    = errors.New("request end must be after start")
	ErrInvalidStatus   = errors.New("invalid request status")
	ErrRequestNotFound = errors.New("request not found")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Submission is what an employee fills in to ask for a shift change.
type Submission struct {
	Task     string `validate:"required"`
	Location string `validate:"required"`
	Company  string `validate:"required"`
	Start    string `validate:"required"`
	End      string `validate:"required"`
	Reason   string
}

// toRequest validates s and returns the request it describes with
// canonical timestamps.
func (s Submission) toRequest() (model.EditRequest, error) {
	if err := validate.Struct(s); err != nil {
		return model.EditRequest{}, fmt.Errorf("incomplete request: %w", err)
	}
	start, end, err := timecalc.ParseInterval(s.Start, s.End)
	if err != nil {
		if errors.Is(err, timecalc.ErrInvalidInterval) {
			return model.EditRequest{}, fmt.Errorf("%w: %s to %s", ErrInvalidRange, s.Start, s.End)
		}
		return model.EditRequest{}, err
	}
	return model.EditRequest{
		Task:           s.Task,
		Location:       s.Location,
		Company:        s.Company,
		RequestedStart: timecalc.FormatStamp(start),
		RequestedEnd:   timecalc.FormatStamp(end),
		Reason:         strings.TrimSpace(s.Reason),
	}, nil
}

// Queue is an ordered list of edit requests.
type Queue struct {
	reqs []model.EditRequest
}

// New wraps a copy of reqs, assigning IDs where missing.
func New(reqs []model.EditRequest) *Queue {
	rs := append([]model.EditRequest(nil), reqs...)
	model.AssignRequestIDs(rs)
	return &Queue{reqs: rs}
}

// Requests returns a copy of the queue in submission order.
func (q *Queue) Requests() []model.EditRequest {
	out := make([]model.EditRequest, len(q.reqs))
	copy(out, q.reqs)
	return out
}

func (q *Queue) Len() int {
	return len(q.reqs)
}

// WithStatus returns the requests currently in status st.
func (q *Queue) WithStatus(st model.RequestStatus) []model.EditRequest {
	var out []model.EditRequest
	for _, r := range q.reqs {
		if r.Status.Is(st) {
			out = append(out, r)
		}
	}
	return out
}

// Submit appends a new pending request.
func (q *Queue) Submit(s Submission) (model.EditRequest, error) {
	req, err := s.toRequest()
	if err != nil {
		return model.EditRequest{}, err
	}
	req.ID = model.NewID()
	req.Status = model.StatusPending
	q.reqs = append(q.reqs, req)
	return req, nil
}

// SetStatus moves a request to status. Any of the three statuses may
// follow any other; anything else is rejected.
func (q *Queue) SetStatus(id, status string) (model.EditRequest, error) {
	st, err := model.ParseStatus(status)
	if err != nil {
		return model.EditRequest{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	i, err := q.index(id)
	if err != nil {
		return model.EditRequest{}, err
	}
	q.reqs[i].Status = st
	return q.reqs[i], nil
}

// Update replaces the fields of a request, keeping its status.
func (q *Queue) Update(id string, s Submission) (model.EditRequest, error) {
	i, err := q.index(id)
	if err != nil {
		return model.EditRequest{}, err
	}
	req, err := s.toRequest()
	if err != nil {
		return model.EditRequest{}, err
	}
	req.ID = id
	req.Status = q.reqs[i].Status
	q.reqs[i] = req
	return req, nil
}

// Remove deletes req from the queue and returns how many entries went.
// Requests carrying an ID are matched by ID; otherwise every request with
// the same requested start and end is removed.
func (q *Queue) Remove(req model.EditRequest) int {
	kept := q.reqs[:0:0]
	for _, r := range q.reqs {
		var match bool
		if req.ID != "" {
			match = r.ID == req.ID
		} else {
			match = r.SameRange(req)
		}
		if !match {
			kept = append(kept, r)
		}
	}
	n := len(q.reqs) - len(kept)
	q.reqs = kept
	return n
}

// RemoveWithStatus drops every request in status st.
func (q *Queue) RemoveWithStatus(st model.RequestStatus) int {
	kept := q.reqs[:0:0]
	for _, r := range q.reqs {
		if !r.Status.Is(st) {
			kept = append(kept, r)
		}
	}
	n := len(q.reqs) - len(kept)
	q.reqs = kept
	return n
}

// Get returns the request with the given ID.
func (q *Queue) Get(id string) (model.EditRequest, error) {
	i, err := q.index(id)
	if err != nil {
		return model.EditRequest{}, err
	}
	return q.reqs[i], nil
}

// Resolve maps a user-facing reference to a request. A reference is a
// 1-based position in the queue or "start/end".
func (q *Queue) Resolve(ref string) (model.EditRequest, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(q.reqs) {
			return model.EditRequest{}, fmt.Errorf("%w: no request #%d", ErrRequestNotFound, n)
		}
		return q.reqs[n-1], nil
	}

	start, end, ok := strings.Cut(ref, "/")
	if !ok {
		return model.EditRequest{}, fmt.Errorf("%w: %q is neither a number nor start/end", ErrRequestNotFound, ref)
	}
	s, e, err := timecalc.ParseInterval(start, end)
	if err != nil {
		return model.EditRequest{}, fmt.Errorf("%w: %v", ErrRequestNotFound, err)
	}
	for _, r := range q.reqs {
		rs, re, err := timecalc.ParseInterval(r.RequestedStart, r.RequestedEnd)
		if err == nil && rs.Equal(s) && re.Equal(e) {
			return r, nil
		}
	}
	return model.EditRequest{}, fmt.Errorf("%w: %s", ErrRequestNotFound, ref)
}

func (q *Queue) index(id string) (int, error) {
	for i, r := range q.reqs {
		if r.ID == id {
			return i, nil
		}
	}
	return -1, ErrRequestNotFound
}
