// Package tracker wires the shift log, request queue, catalog and reports
// to storage. Every read-modify-write runs under the lock of the resource
// it touches.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/storage"
)

var (
	ErrUnknownEmployee = errors.New("unknown employee")
	ErrEmployeeExists  = errors.New("employee already exists")
	ErrInvalidPIN      = errors.New("invalid PIN")
)

// Service is the entry point for every operation the CLI offers.
type Service struct {
	repo   *storage.Repository
	locker storage.Locker
	log    *zap.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a service over repo. A nil locker serialises in-process only.
func New(repo *storage.Repository, locker storage.Locker, log *zap.Logger, opts ...Option) *Service {
	if locker == nil {
		locker = storage.NewLocalLocker()
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{repo: repo, locker: locker, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) withLock(ctx context.Context, key string, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()
	err = fn()
	// Writers refuse to overwrite a corrupt document but keep a copy of it.
	s.repo.Backup(ctx, err)
	return err
}

// Employees returns all employees in file order.
func (s *Service) Employees(ctx context.Context) ([]model.Employee, error) {
	return s.repo.LoadEmployees(ctx)
}

// Employee finds an employee by ID or, failing that, by unique name
// (case-insensitive).
func (s *Service) Employee(ctx context.Context, ref string) (model.Employee, error) {
	emps, err := s.repo.LoadEmployees(ctx)
	if err != nil {
		return model.Employee{}, err
	}
	for _, e := range emps {
		if e.ID == ref {
			return e, nil
		}
	}
	var found []model.Employee
	for _, e := range emps {
		if strings.EqualFold(e.Name, ref) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return model.Employee{}, fmt.Errorf("%w %q", ErrUnknownEmployee, ref)
	default:
		return model.Employee{}, fmt.Errorf("%w: %d employees are named %q, use the ID", ErrUnknownEmployee, len(found), ref)
	}
}

// Authenticate returns the employee whose PIN is pin.
func (s *Service) Authenticate(ctx context.Context, pin string) (model.Employee, error) {
	emps, err := s.repo.LoadEmployees(ctx)
	if err != nil {
		return model.Employee{}, err
	}
	for _, e := range emps {
		if e.MatchPIN(pin) {
			return e, nil
		}
	}
	return model.Employee{}, ErrInvalidPIN
}

// AddEmployee validates e, stores its PIN as a bcrypt hash and appends it.
func (s *Service) AddEmployee(ctx context.Context, e model.Employee) (model.Employee, error) {
	if err := e.Validate(); err != nil {
		return model.Employee{}, fmt.Errorf("invalid employee: %w", err)
	}
	hash, err := model.HashPIN(e.PIN)
	if err != nil {
		return model.Employee{}, fmt.Errorf("hashing PIN: %w", err)
	}

	err = s.withLock(ctx, storage.EmployeesLock, func() error {
		emps, err := s.repo.LoadEmployees(ctx)
		if err != nil {
			return err
		}
		for _, other := range emps {
			if other.ID == e.ID {
				return fmt.Errorf("%w: %q", ErrEmployeeExists, e.ID)
			}
			if other.MatchPIN(e.PIN) {
				return fmt.Errorf("%w: PIN already used by %s", ErrEmployeeExists, other.Name)
			}
		}
		e.PIN = hash
		return s.repo.SaveEmployees(ctx, append(emps, e))
	})
	if err != nil {
		return model.Employee{}, err
	}
	s.log.Info("employee added", zap.String("employee", e.ID), zap.String("company", e.Company))
	return e, nil
}

// DeleteEmployee removes the employee from users.json. Shift logs and
// request queues are left on disk.
func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	return s.withLock(ctx, storage.EmployeesLock, func() error {
		emps, err := s.repo.LoadEmployees(ctx)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(emps, func(e model.Employee) bool { return e.ID == id })
		if i < 0 {
			return fmt.Errorf("%w %q", ErrUnknownEmployee, id)
		}
		if err := s.repo.SaveEmployees(ctx, slices.Delete(emps, i, i+1)); err != nil {
			return err
		}
		s.log.Info("employee deleted", zap.String("employee", id))
		return nil
	})
}
