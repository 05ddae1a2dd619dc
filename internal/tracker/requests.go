package tracker

import (
	"context"

	"go.uber.org/zap"

	"github.com/Tiliavir/shift-tracker/internal/catalog"
	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/reconcile"
	"github.com/Tiliavir/shift-tracker/internal/requests"
	"github.com/Tiliavir/shift-tracker/internal/shiftlog"
	"github.com/Tiliavir/shift-tracker/internal/storage"
)

func (s *Service) updateQueue(ctx context.Context, emp model.Employee, fn func(*requests.Queue) error) error {
	return s.withLock(ctx, storage.EmployeeLock(emp.Company, emp.ID), func() error {
		reqs, err := s.repo.LoadRequests(ctx, emp.Company, emp.ID)
		if err != nil {
			return err
		}
		q := requests.New(reqs)
		if err := fn(q); err != nil {
			return err
		}
		return s.repo.SaveRequests(ctx, emp.Company, emp.ID, q.Requests())
	})
}

// Requests returns emp's request queue.
func (s *Service) Requests(ctx context.Context, emp model.Employee) (*requests.Queue, error) {
	reqs, err := s.repo.LoadRequests(ctx, emp.Company, emp.ID)
	if err != nil {
		return nil, err
	}
	return requests.New(reqs), nil
}

// Queued is a request together with the employee it belongs to and its
// 1-based position in that employee's queue.
type Queued struct {
	Employee model.Employee
	Position int
	Request  model.EditRequest
}

// AllRequests lists the requests of every stored queue, optionally only
// those in status. Queues of employees missing from users.json are
// reported with just ID and company.
func (s *Service) AllRequests(ctx context.Context, status model.RequestStatus) ([]Queued, error) {
	keys, err := s.repo.ListRequestQueues(ctx)
	if err != nil {
		return nil, err
	}
	emps, err := s.repo.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	byID := map[string]model.Employee{}
	for _, e := range emps {
		byID[e.Company+"/"+e.ID] = e
	}

	var out []Queued
	for _, k := range keys {
		emp, ok := byID[k.Company+"/"+k.EmployeeID]
		if !ok {
			emp = model.Employee{ID: k.EmployeeID, Company: k.Company}
		}
		reqs, err := s.repo.LoadRequests(ctx, k.Company, k.EmployeeID)
		if err != nil {
			s.log.Warn("skipping unreadable request queue", zap.String("employee", k.EmployeeID), zap.Error(err))
			continue
		}
		for i, r := range reqs {
			if status == "" || r.Status.Is(status) {
				out = append(out, Queued{Employee: emp, Position: i + 1, Request: r})
			}
		}
	}
	return out, nil
}

// SubmitRequest queues a pending request for emp. An empty company defaults
// to emp's; the task must exist in the catalog.
func (s *Service) SubmitRequest(ctx context.Context, emp model.Employee, sub requests.Submission) (model.EditRequest, error) {
	if sub.Company == "" {
		sub.Company = emp.Company
	}
	if err := s.validateTask(ctx, sub); err != nil {
		return model.EditRequest{}, err
	}
	var req model.EditRequest
	err := s.updateQueue(ctx, emp, func(q *requests.Queue) error {
		var err error
		req, err = q.Submit(sub)
		return err
	})
	if err != nil {
		return model.EditRequest{}, err
	}
	s.log.Info("request submitted", zap.String("employee", emp.ID),
		zap.String("start", req.RequestedStart), zap.String("end", req.RequestedEnd))
	return req, nil
}

// ImportRequests queues subs as pending requests, skipping those whose
// interval is already queued and those that do not validate. It returns the
// requests added. Imported tasks are not checked against the catalog.
func (s *Service) ImportRequests(ctx context.Context, emp model.Employee, subs []requests.Submission) ([]model.EditRequest, error) {
	var added []model.EditRequest
	err := s.updateQueue(ctx, emp, func(q *requests.Queue) error {
		for _, sub := range subs {
			if sub.Company == "" {
				sub.Company = emp.Company
			}
			if _, err := q.Resolve(sub.Start + "/" + sub.End); err == nil {
				continue
			}
			req, err := q.Submit(sub)
			if err != nil {
				s.log.Warn("skipping invalid import", zap.String("start", sub.Start), zap.String("end", sub.End), zap.Error(err))
				continue
			}
			added = append(added, req)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("requests imported", zap.String("employee", emp.ID), zap.Int("added", len(added)), zap.Int("offered", len(subs)))
	return added, nil
}

// SetRequestStatus moves the request ref points at to status.
func (s *Service) SetRequestStatus(ctx context.Context, emp model.Employee, ref, status string) (model.EditRequest, error) {
	var req model.EditRequest
	err := s.updateQueue(ctx, emp, func(q *requests.Queue) error {
		cur, err := q.Resolve(ref)
		if err != nil {
			return err
		}
		req, err = q.SetStatus(cur.ID, status)
		return err
	})
	if err != nil {
		return model.EditRequest{}, err
	}
	s.log.Info("request status changed", zap.String("employee", emp.ID), zap.String("status", string(req.Status)))
	return req, nil
}

// UpdateRequest replaces the fields of the request ref points at.
func (s *Service) UpdateRequest(ctx context.Context, emp model.Employee, ref string, sub requests.Submission) (model.EditRequest, error) {
	if sub.Company == "" {
		sub.Company = emp.Company
	}
	if err := s.validateTask(ctx, sub); err != nil {
		return model.EditRequest{}, err
	}
	var req model.EditRequest
	err := s.updateQueue(ctx, emp, func(q *requests.Queue) error {
		cur, err := q.Resolve(ref)
		if err != nil {
			return err
		}
		req, err = q.Update(cur.ID, sub)
		return err
	})
	return req, err
}

// RemoveRequest deletes the request ref points at.
func (s *Service) RemoveRequest(ctx context.Context, emp model.Employee, ref string) (model.EditRequest, error) {
	var req model.EditRequest
	err := s.updateQueue(ctx, emp, func(q *requests.Queue) error {
		var err error
		req, err = q.Resolve(ref)
		if err != nil {
			return err
		}
		q.Remove(req)
		return nil
	})
	return req, err
}

// RemoveRejected drops every rejected request of emp.
func (s *Service) RemoveRejected(ctx context.Context, emp model.Employee) (int, error) {
	var n int
	err := s.updateQueue(ctx, emp, func(q *requests.Queue) error {
		n = q.RemoveWithStatus(model.StatusRejected)
		return nil
	})
	return n, err
}

// PreviewFinalize reports what Finalize would do without changing anything.
func (s *Service) PreviewFinalize(ctx context.Context, emp model.Employee, ref string) (model.ShiftRecord, []model.ShiftRecord, error) {
	q, err := s.Requests(ctx, emp)
	if err != nil {
		return model.ShiftRecord{}, nil, err
	}
	req, err := q.Resolve(ref)
	if err != nil {
		return model.ShiftRecord{}, nil, err
	}
	l, err := s.Shifts(ctx, emp)
	if err != nil {
		return model.ShiftRecord{}, nil, err
	}
	rec, conflicts, _, err := reconcile.Conflicts(req, l)
	return rec, conflicts, err
}

// Finalize merges the approved request ref points at into emp's shift log
// and removes it from the queue. The log is saved before the queue, so a
// failure in between leaves the request queued; finalizing it again is
// harmless.
func (s *Service) Finalize(ctx context.Context, emp model.Employee, ref string) (reconcile.Result, error) {
	var res reconcile.Result
	err := s.withLock(ctx, storage.EmployeeLock(emp.Company, emp.ID), func() error {
		reqs, err := s.repo.LoadRequests(ctx, emp.Company, emp.ID)
		if err != nil {
			return err
		}
		q := requests.New(reqs)
		req, err := q.Resolve(ref)
		if err != nil {
			return err
		}
		recs, err := s.repo.LoadShiftLog(ctx, emp.Company, emp.ID)
		if err != nil {
			return err
		}
		l := shiftlog.New(recs)

		res, err = reconcile.Finalize(req, l, q)
		if err != nil {
			return err
		}
		if err := s.repo.SaveShiftLog(ctx, emp.Company, emp.ID, l.Records()); err != nil {
			return err
		}
		return s.repo.SaveRequests(ctx, emp.Company, emp.ID, q.Requests())
	})
	if err != nil {
		return reconcile.Result{}, err
	}

	removed := make([]string, 0, len(res.Removed))
	for _, r := range res.Removed {
		out := ""
		if r.ClockOut != nil {
			out = *r.ClockOut
		}
		removed = append(removed, r.ClockIn+" to "+out)
	}
	s.log.Info("request finalized",
		zap.String("employee", emp.ID),
		zap.String("clock_in", res.Record.ClockIn),
		zap.Int("conflicts", len(res.Removed)),
		zap.Strings("removed", removed),
	)
	return res, nil
}

func (s *Service) validateTask(ctx context.Context, sub requests.Submission) error {
	cfg, err := s.repo.LoadCatalog(ctx)
	if err != nil {
		return err
	}
	return catalog.New(cfg).Validate(sub.Company, sub.Location, sub.Task)
}
