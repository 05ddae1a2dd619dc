package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TaskEntry is one task offered to a company at a location.
type TaskEntry struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// UnmarshalJSON accepts both the structured form and the legacy bare
// string form ("Paint"), which is read as an incomplete task.
func (t *TaskEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*t = TaskEntry{Name: name}
		return nil
	}

	var raw struct {
		Name      string `json:"name"`
		Completed *bool  `json:"completed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("task entry: %w", err)
	}
	t.Name = raw.Name
	t.Completed = raw.Completed != nil && *raw.Completed
	return nil
}

// TaskConfig is the location -> company -> tasks tree stored in
// task_config.json.
type TaskConfig map[string]map[string][]TaskEntry

// Clone returns a deep copy of c.
func (c TaskConfig) Clone() TaskConfig {
	out := make(TaskConfig, len(c))
	for loc, companies := range c {
		cc := make(map[string][]TaskEntry, len(companies))
		for comp, tasks := range companies {
			cc[comp] = append([]TaskEntry(nil), tasks...)
		}
		out[loc] = cc
	}
	return out
}
