// Package catalog manages the location -> company -> task tree that
// supplies valid task choices for clock-ins and edit requests.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/Tiliavir/shift-tracker/internal/model"
)

var (
	ErrDuplicateName = errors.New("name already exists")
	ErrNotFound      = errors.New("not found")
	ErrEmptyName     = errors.New("name must not be empty")
)

// Catalog owns a normalised TaskConfig. Every mutation either succeeds
// completely or leaves the catalog unchanged.
type Catalog struct {
	cfg model.TaskConfig
}

// New wraps a copy of cfg. A nil cfg yields an empty catalog.
func New(cfg model.TaskConfig) *Catalog {
	if cfg == nil {
		return &Catalog{cfg: model.TaskConfig{}}
	}
	c := cfg.Clone()
	for loc, companies := range c {
		if companies == nil {
			c[loc] = map[string][]model.TaskEntry{}
		}
	}
	return &Catalog{cfg: c}
}

// Config returns a copy of the underlying tree, ready to persist.
func (c *Catalog) Config() model.TaskConfig {
	return c.cfg.Clone()
}

// Locations returns all locations, sorted.
func (c *Catalog) Locations() []string {
	return sortedKeys(c.cfg)
}

// Companies returns the companies listed under location, sorted.
func (c *Catalog) Companies(location string) ([]string, error) {
	companies, ok := c.cfg[location]
	if !ok {
		return nil, fmt.Errorf("location %q: %w", location, ErrNotFound)
	}
	return sortedKeys(companies), nil
}

// LocationsFor returns every location whose configuration lists company.
func (c *Catalog) LocationsFor(company string) []string {
	var out []string
	for loc, companies := range c.cfg {
		if _, ok := companies[company]; ok {
			out = append(out, loc)
		}
	}
	sort.Strings(out)
	return out
}

// TasksFor returns the tasks of company at location in catalog order.
func (c *Catalog) TasksFor(company, location string) []model.TaskEntry {
	return slices.Clone(c.cfg[location][company])
}

// IncompleteTasksFor returns the names of the tasks not yet marked completed.
func (c *Catalog) IncompleteTasksFor(company, location string) []string {
	var out []string
	for _, t := range c.cfg[location][company] {
		if !t.Completed {
			out = append(out, t.Name)
		}
	}
	return out
}

// Completion maps each of company's task names to its completed flag.
// Tasks are matched by name only; when the same name appears at several
// locations the value from the last location in sorted order wins.
func (c *Catalog) Completion(company string) map[string]bool {
	out := map[string]bool{}
	for _, loc := range c.Locations() {
		for _, t := range c.cfg[loc][company] {
			out[t.Name] = t.Completed
		}
	}
	return out
}

// Validate checks that task is offered to company at location.
func (c *Catalog) Validate(company, location, task string) error {
	companies, ok := c.cfg[location]
	if !ok {
		return fmt.Errorf("location %q: %w", location, ErrNotFound)
	}
	tasks, ok := companies[company]
	if !ok {
		return fmt.Errorf("company %q at %q: %w", company, location, ErrNotFound)
	}
	if indexOf(tasks, task) < 0 {
		return fmt.Errorf("task %q for %q at %q: %w", task, company, location, ErrNotFound)
	}
	return nil
}

func (c *Catalog) AddLocation(name string) error {
	name, err := clean(name)
	if err != nil {
		return err
	}
	if _, ok := c.cfg[name]; ok {
		return fmt.Errorf("location %q: %w", name, ErrDuplicateName)
	}
	c.cfg[name] = map[string][]model.TaskEntry{}
	return nil
}

// RenameLocation moves the whole subtree of oldName to newName.
func (c *Catalog) RenameLocation(oldName, newName string) error {
	newName, err := clean(newName)
	if err != nil {
		return err
	}
	companies, ok := c.cfg[oldName]
	if !ok {
		return fmt.Errorf("location %q: %w", oldName, ErrNotFound)
	}
	if newName == oldName {
		return nil
	}
	if _, ok := c.cfg[newName]; ok {
		return fmt.Errorf("location %q: %w", newName, ErrDuplicateName)
	}
	c.cfg[newName] = companies
	delete(c.cfg, oldName)
	return nil
}

// DeleteLocation removes a location together with its companies and tasks.
func (c *Catalog) DeleteLocation(name string) error {
	if _, ok := c.cfg[name]; !ok {
		return fmt.Errorf("location %q: %w", name, ErrNotFound)
	}
	delete(c.cfg, name)
	return nil
}

func (c *Catalog) AddCompany(location, name string) error {
	name, err := clean(name)
	if err != nil {
		return err
	}
	companies, ok := c.cfg[location]
	if !ok {
		return fmt.Errorf("location %q: %w", location, ErrNotFound)
	}
	if _, ok := companies[name]; ok {
		return fmt.Errorf("company %q at %q: %w", name, location, ErrDuplicateName)
	}
	companies[name] = []model.TaskEntry{}
	return nil
}

func (c *Catalog) RenameCompany(location, oldName, newName string) error {
	newName, err := clean(newName)
	if err != nil {
		return err
	}
	companies, ok := c.cfg[location]
	if !ok {
		return fmt.Errorf("location %q: %w", location, ErrNotFound)
	}
	tasks, ok := companies[oldName]
	if !ok {
		return fmt.Errorf("company %q at %q: %w", oldName, location, ErrNotFound)
	}
	if newName == oldName {
		return nil
	}
	if _, ok := companies[newName]; ok {
		return fmt.Errorf("company %q at %q: %w", newName, location, ErrDuplicateName)
	}
	companies[newName] = tasks
	delete(companies, oldName)
	return nil
}

func (c *Catalog) DeleteCompany(location, name string) error {
	companies, ok := c.cfg[location]
	if !ok {
		return fmt.Errorf("location %q: %w", location, ErrNotFound)
	}
	if _, ok := companies[name]; !ok {
		return fmt.Errorf("company %q at %q: %w", name, location, ErrNotFound)
	}
	delete(companies, name)
	return nil
}

// AddTask appends an incomplete task.
func (c *Catalog) AddTask(location, company, name string) error {
	name, err := clean(name)
	if err != nil {
		return err
	}
	tasks, err := c.tasks(location, company)
	if err != nil {
		return err
	}
	if indexOf(tasks, name) >= 0 {
		return fmt.Errorf("task %q: %w", name, ErrDuplicateName)
	}
	c.cfg[location][company] = append(tasks, model.TaskEntry{Name: name})
	return nil
}

// EditTask renames a task and sets its completed flag.
func (c *Catalog) EditTask(location, company, oldName, newName string, completed bool) error {
	newName, err := clean(newName)
	if err != nil {
		return err
	}
	tasks, err := c.tasks(location, company)
	if err != nil {
		return err
	}
	i := indexOf(tasks, oldName)
	if i < 0 {
		return fmt.Errorf("task %q: %w", oldName, ErrNotFound)
	}
	if newName != oldName && indexOf(tasks, newName) >= 0 {
		return fmt.Errorf("task %q: %w", newName, ErrDuplicateName)
	}
	tasks[i] = model.TaskEntry{Name: newName, Completed: completed}
	return nil
}

func (c *Catalog) DeleteTask(location, company, name string) error {
	tasks, err := c.tasks(location, company)
	if err != nil {
		return err
	}
	i := indexOf(tasks, name)
	if i < 0 {
		return fmt.Errorf("task %q: %w", name, ErrNotFound)
	}
	c.cfg[location][company] = slices.Delete(tasks, i, i+1)
	return nil
}

func (c *Catalog) tasks(location, company string) ([]model.TaskEntry, error) {
	companies, ok := c.cfg[location]
	if !ok {
		return nil, fmt.Errorf("location %q: %w", location, ErrNotFound)
	}
	tasks, ok := companies[company]
	if !ok {
		return nil, fmt.Errorf("company %q at %q: %w", company, location, ErrNotFound)
	}
	return tasks, nil
}

func indexOf(tasks []model.TaskEntry, name string) int {
	return slices.IndexFunc(tasks, func(t model.TaskEntry) bool { return t.Name == name })
}

func clean(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
