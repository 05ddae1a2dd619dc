package tracker

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/Tiliavir/shift-tracker/internal/catalog"
	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/shiftlog"
	"github.com/Tiliavir/shift-tracker/internal/storage"
)

// updateLog loads emp's shift log, applies fn and saves the result if fn
// succeeds.
func (s *Service) updateLog(ctx context.Context, emp model.Employee, fn func(*shiftlog.Log) error) error {
	return s.withLock(ctx, storage.EmployeeLock(emp.Company, emp.ID), func() error {
		recs, err := s.repo.LoadShiftLog(ctx, emp.Company, emp.ID)
		if err != nil {
			return err
		}
		l := shiftlog.New(recs)
		if err := fn(l); err != nil {
			return err
		}
		return s.repo.SaveShiftLog(ctx, emp.Company, emp.ID, l.Records())
	})
}

// Shifts returns emp's shift log.
func (s *Service) Shifts(ctx context.Context, emp model.Employee) (*shiftlog.Log, error) {
	recs, err := s.repo.LoadShiftLog(ctx, emp.Company, emp.ID)
	if err != nil {
		return nil, err
	}
	return shiftlog.New(recs), nil
}

// ClockIn opens a shift for emp. The task must be offered to emp's company
// at location.
func (s *Service) ClockIn(ctx context.Context, emp model.Employee, task, location string) (model.ShiftRecord, error) {
	cfg, err := s.repo.LoadCatalog(ctx)
	if err != nil {
		return model.ShiftRecord{}, err
	}
	if err := catalog.New(cfg).Validate(emp.Company, location, task); err != nil {
		return model.ShiftRecord{}, err
	}

	var rec model.ShiftRecord
	err = s.updateLog(ctx, emp, func(l *shiftlog.Log) error {
		rec, err = l.ClockIn(task, location, s.now())
		return err
	})
	if err != nil {
		return model.ShiftRecord{}, err
	}
	s.log.Info("clocked in", zap.String("employee", emp.ID), zap.String("task", task), zap.String("at", rec.ClockIn))
	return rec, nil
}

// ClockOut closes emp's open shift.
func (s *Service) ClockOut(ctx context.Context, emp model.Employee) (model.ShiftRecord, error) {
	var rec model.ShiftRecord
	err := s.updateLog(ctx, emp, func(l *shiftlog.Log) error {
		var err error
		rec, err = l.ClockOut(s.now())
		return err
	})
	if err != nil {
		return model.ShiftRecord{}, err
	}
	s.log.Info("clocked out", zap.String("employee", emp.ID), zap.String("at", *rec.ClockOut))
	return rec, nil
}

// EditShift replaces the fields of the shift ref points at. See
// shiftlog.Log.Edit for force.
func (s *Service) EditShift(ctx context.Context, emp model.Employee, ref string, f shiftlog.Fields, force bool) (model.ShiftRecord, error) {
	var rec model.ShiftRecord
	err := s.updateLog(ctx, emp, func(l *shiftlog.Log) error {
		cur, err := l.Resolve(ref)
		if err != nil {
			return err
		}
		rec, err = l.Edit(cur.ID, f, force)
		return err
	})
	if err != nil {
		return model.ShiftRecord{}, err
	}
	s.log.Info("shift edited", zap.String("employee", emp.ID), zap.String("clock_in", rec.ClockIn), zap.Bool("force", force))
	return rec, nil
}

// EndShift closes the open shift ref points at.
func (s *Service) EndShift(ctx context.Context, emp model.Employee, ref string) (model.ShiftRecord, error) {
	var rec model.ShiftRecord
	err := s.updateLog(ctx, emp, func(l *shiftlog.Log) error {
		cur, err := l.Resolve(ref)
		if err != nil {
			return err
		}
		rec, err = l.End(cur.ID, s.now())
		return err
	})
	if err != nil {
		return model.ShiftRecord{}, err
	}
	s.log.Info("shift ended", zap.String("employee", emp.ID), zap.String("clock_in", rec.ClockIn))
	return rec, nil
}

// DeleteShift removes the shift ref points at.
func (s *Service) DeleteShift(ctx context.Context, emp model.Employee, ref string) (model.ShiftRecord, error) {
	var rec model.ShiftRecord
	err := s.updateLog(ctx, emp, func(l *shiftlog.Log) error {
		cur, err := l.Resolve(ref)
		if err != nil {
			return err
		}
		rec, err = l.Delete(cur.ID)
		return err
	})
	if err != nil {
		return model.ShiftRecord{}, err
	}
	s.log.Info("shift deleted", zap.String("employee", emp.ID), zap.String("clock_in", rec.ClockIn))
	return rec, nil
}

// Working is an employee with an open shift.
type Working struct {
	Employee model.Employee
	Shift    model.ShiftRecord
}

// Working lists everyone currently clocked in, grouped by company. Logs
// that cannot be read are skipped and logged.
func (s *Service) Working(ctx context.Context) (map[string][]Working, error) {
	emps, err := s.repo.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string][]Working{}
	for _, e := range emps {
		recs, err := s.repo.LoadShiftLog(ctx, e.Company, e.ID)
		if err != nil {
			s.log.Warn("skipping unreadable shift log", zap.String("employee", e.ID), zap.Error(err))
			continue
		}
		if cur, ok := shiftlog.New(recs).Current(); ok {
			out[e.Company] = append(out[e.Company], Working{Employee: e, Shift: cur})
		}
	}
	for _, ws := range out {
		sort.Slice(ws, func(i, j int) bool { return ws[i].Employee.Name < ws[j].Employee.Name })
	}
	return out, nil
}
