package tracker

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/report"
)

// Report aggregates the shift logs of company. Employees are taken in
// users.json order, followed by logs of employees no longer listed there.
// opts.Completed is filled from the catalog when nil.
func (s *Service) Report(ctx context.Context, company string, opts report.Options) (report.Report, error) {
	emps, err := s.repo.LoadEmployees(ctx)
	if err != nil {
		return report.Report{}, err
	}
	ids, err := s.repo.ListShiftLogs(ctx, company)
	if err != nil {
		return report.Report{}, err
	}

	var order []model.Employee
	known := map[string]bool{}
	for _, e := range emps {
		if e.Company == company && slices.Contains(ids, e.ID) {
			order = append(order, e)
			known[e.ID] = true
		}
	}
	for _, id := range ids {
		if !known[id] {
			order = append(order, model.Employee{ID: id, Company: company})
		}
	}

	var logs []report.EmployeeLog
	for _, e := range order {
		recs, err := s.repo.LoadShiftLog(ctx, company, e.ID)
		if err != nil {
			s.log.Warn("skipping unreadable shift log", zap.String("employee", e.ID), zap.Error(err))
			continue
		}
		logs = append(logs, report.EmployeeLog{Employee: e, Records: recs})
	}

	if opts.Completed == nil {
		c, err := s.Catalog(ctx)
		if err != nil {
			return report.Report{}, err
		}
		opts.Completed = c.Completion(company)
	}

	rep := report.Aggregate(logs, opts)
	if rep.Skipped > 0 {
		s.log.Warn("malformed shifts skipped", zap.String("company", company), zap.Int("skipped", rep.Skipped))
	}
	return rep, nil
}
