package model

import (
	"fmt"
	"strings"
)

// RequestStatus is the review state of an EditRequest.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// ParseStatus normalises s (case-insensitive) into a RequestStatus.
func ParseStatus(s string) (RequestStatus, error) {
	switch st := RequestStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown request status %q", s)
}

// Is compares the status case-insensitively; stored files may carry
// "Approved" as well as "approved".
func (s RequestStatus) Is(other RequestStatus) bool {
	return strings.EqualFold(string(s), string(other))
}

// EditRequest asks a reviewer to replace part of an employee's shift log
// with the requested interval.
type EditRequest struct {
	ID             string        `json:"-"`
	Task           string        `json:"task"`
	Location       string        `json:"location"`
	Company        string        `json:"company"`
	RequestedStart string        `json:"requested_start"`
	RequestedEnd   string        `json:"requested_end"`
	Reason         string        `json:"reason"`
	Status         RequestStatus `json:"status"`
}

// SameRange reports whether r and o share the legacy identity pair.
func (r EditRequest) SameRange(o EditRequest) bool {
	return r.RequestedStart == o.RequestedStart && r.RequestedEnd == o.RequestedEnd
}

// AssignRequestIDs gives every request without an ID a new one, in place.
func AssignRequestIDs(reqs []EditRequest) {
	for i := range reqs {
		if reqs[i].ID == "" {
			reqs[i].ID = NewID()
		}
	}
}
