// Package storage persists employees, shift logs, the task catalog and edit
// request queues as JSON documents.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Tiliavir/shift-tracker/internal/model"
)

const (
	employeesKey = "users.json"
	catalogKey   = "task_config.json"
	shiftsDir    = "shifts"
	requestsDir  = "requests"

	requestsSuffix = "_requests.json"
)

// QueueKey identifies one employee's request queue.
type QueueKey struct {
	Company    string
	EmployeeID string
}

// Repository reads and writes whole documents through a Backend. Employees
// and the catalog are cached in memory; writes replace the cached copy.
type Repository struct {
	backend Backend
	log     *zap.Logger

	mu        sync.Mutex
	employees []model.Employee
	catalog   model.TaskConfig
}

// NewRepository returns a repository over backend.
func NewRepository(backend Backend, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{backend: backend, log: log}
}

// Close releases the backend.
func (r *Repository) Close() error {
	return r.backend.Close()
}

func (r *Repository) LoadEmployees(ctx context.Context) ([]model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.employees != nil {
		return append([]model.Employee(nil), r.employees...), nil
	}

	var emps []model.Employee
	if err := r.load(ctx, employeesKey, &emps); err != nil {
		return nil, err
	}
	if emps == nil {
		emps = []model.Employee{}
	}
	r.employees = emps
	return append([]model.Employee(nil), emps...), nil
}

func (r *Repository) SaveEmployees(ctx context.Context, emps []model.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.employees = nil
	if err := r.save(ctx, employeesKey, nonNil(emps)); err != nil {
		return err
	}
	r.employees = append([]model.Employee{}, emps...)
	return nil
}

// LoadCatalog reads task_config.json. Legacy bare-string tasks are
// normalised on the way in.
func (r *Repository) LoadCatalog(ctx context.Context) (model.TaskConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.catalog != nil {
		return r.catalog.Clone(), nil
	}

	var cfg model.TaskConfig
	if err := r.load(ctx, catalogKey, &cfg); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = model.TaskConfig{}
	}
	r.catalog = cfg
	return cfg.Clone(), nil
}

func (r *Repository) SaveCatalog(ctx context.Context, cfg model.TaskConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog = nil
	if cfg == nil {
		cfg = model.TaskConfig{}
	}
	if err := r.save(ctx, catalogKey, cfg); err != nil {
		return err
	}
	r.catalog = cfg.Clone()
	return nil
}

// LoadShiftLog reads an employee's shift records. A missing log is empty.
func (r *Repository) LoadShiftLog(ctx context.Context, company, employeeID string) ([]model.ShiftRecord, error) {
	var recs []model.ShiftRecord
	if err := r.load(ctx, shiftKey(company, employeeID), &recs); err != nil {
		return nil, err
	}
	model.AssignShiftIDs(recs)
	return recs, nil
}

func (r *Repository) SaveShiftLog(ctx context.Context, company, employeeID string, recs []model.ShiftRecord) error {
	return r.save(ctx, shiftKey(company, employeeID), nonNil(recs))
}

// LoadRequests reads an employee's edit request queue. A missing queue is
// empty.
func (r *Repository) LoadRequests(ctx context.Context, company, employeeID string) ([]model.EditRequest, error) {
	var reqs []model.EditRequest
	if err := r.load(ctx, requestKey(company, employeeID), &reqs); err != nil {
		return nil, err
	}
	model.AssignRequestIDs(reqs)
	return reqs, nil
}

func (r *Repository) SaveRequests(ctx context.Context, company, employeeID string, reqs []model.EditRequest) error {
	return r.save(ctx, requestKey(company, employeeID), nonNil(reqs))
}

// ListShiftLogs returns the IDs of the employees of company that have a
// shift log, sorted.
func (r *Repository) ListShiftLogs(ctx context.Context, company string) ([]string, error) {
	keys, err := r.backend.List(ctx, path.Join(shiftsDir, company)+"/")
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, k := range keys {
		rest := strings.TrimPrefix(k, path.Join(shiftsDir, company)+"/")
		if strings.Contains(rest, "/") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(rest, ".json"))
	}
	return ids, nil
}

// ListRequestQueues returns every stored request queue.
func (r *Repository) ListRequestQueues(ctx context.Context) ([]QueueKey, error) {
	keys, err := r.backend.List(ctx, requestsDir+"/")
	if err != nil {
		return nil, err
	}
	var out []QueueKey
	for _, k := range keys {
		parts := strings.Split(strings.TrimPrefix(k, requestsDir+"/"), "/")
		if len(parts) != 2 || !strings.HasSuffix(parts[1], requestsSuffix) {
			continue
		}
		out = append(out, QueueKey{Company: parts[0], EmployeeID: strings.TrimSuffix(parts[1], requestsSuffix)})
	}
	return out, nil
}

func (r *Repository) load(ctx context.Context, key string, v any) error {
	data, err := r.backend.Get(ctx, key)
	if errors.Is(err, ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &CorruptError{Key: key, Err: err}
	}
	return nil
}

// Backup saves a copy of a corrupt document named by err, if err is a
// *CorruptError, and records the copy's key in it. The document itself is
// kept so that loads keep failing. Only callers about to write should back
// up; read-only callers just report the error.
func (r *Repository) Backup(ctx context.Context, err error) {
	var ce *CorruptError
	if !errors.As(err, &ce) || ce.Backup != "" {
		return
	}
	backup, berr := r.backend.Backup(ctx, ce.Key)
	if berr != nil {
		r.log.Error("corrupt document could not be backed up", zap.String("key", ce.Key), zap.Error(berr))
		return
	}
	ce.Backup = backup
	r.log.Warn("corrupt document backed up", zap.String("key", ce.Key), zap.String("backup", backup))
}

func (r *Repository) save(ctx context.Context, key string, v any) error {
	data, err := encode(v)
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}
	if err := r.backend.Put(ctx, key, data); err != nil {
		return err
	}
	r.log.Debug("document saved", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// encode writes v with four-space indentation and without HTML escaping,
// the layout of files produced by earlier versions of the tool.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func shiftKey(company, employeeID string) string {
	return path.Join(shiftsDir, company, employeeID+".json")
}

func requestKey(company, employeeID string) string {
	return path.Join(requestsDir, company, employeeID+requestsSuffix)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
