package model_test

import (
	"encoding/json"
	"testing"

	"github.com/Tiliavir/shift-tracker/internal/model"
)

func TestTaskConfigLegacyEntries(t *testing.T) {
	raw := `{
		"Site1": {
			"Acme": ["Paint", {"name": "Plaster", "completed": true}, {"name": "Sand"}]
		}
	}`
	var cfg model.TaskConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	tasks := cfg["Site1"]["Acme"]
	want := []model.TaskEntry{
		{Name: "Paint", Completed: false},
		{Name: "Plaster", Completed: true},
		{Name: "Sand", Completed: false},
	}
	if len(tasks) != len(want) {
		t.Fatalf("tasks = %d, want %d", len(tasks), len(want))
	}
	for i := range want {
		if tasks[i] != want[i] {
			t.Errorf("tasks[%d] = %+v, want %+v", i, tasks[i], want[i])
		}
	}

	// Always written back in the structured form.
	out, err := json.Marshal(cfg["Site1"]["Acme"][0])
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"name":"Paint","completed":false}` {
		t.Errorf("Marshal = %s", out)
	}
}

func TestTaskConfigClone(t *testing.T) {
	cfg := model.TaskConfig{"Site1": {"Acme": {{Name: "Paint"}}}}
	clone := cfg.Clone()
	clone["Site1"]["Acme"][0].Completed = true
	clone["Site1"]["Other"] = nil
	if cfg["Site1"]["Acme"][0].Completed {
		t.Error("Clone shares task slices with the original")
	}
	if _, ok := cfg["Site1"]["Other"]; ok {
		t.Error("Clone shares company maps with the original")
	}
}

func TestShiftRecordJSONHidesID(t *testing.T) {
	rec := model.ShiftRecord{ID: "x", Task: "Paint", Location: "Site1", ClockIn: "2025-01-01T08:00"}
	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"task":"Paint","location":"Site1","clock_in":"2025-01-01T08:00","clock_out":null}`
	if string(out) != want {
		t.Errorf("Marshal = %s, want %s", out, want)
	}
}

func TestSameShift(t *testing.T) {
	a := model.ShiftRecord{ID: "1", Task: "Paint", Location: "Site1", ClockIn: "2025-01-01T08:00", ClockOut: model.StringPtr("2025-01-01T12:00")}
	b := a
	b.ID = "2"
	if !a.SameShift(b) {
		t.Error("records differing only by ID should be the same shift")
	}
	b.ClockOut = nil
	if a.SameShift(b) {
		t.Error("open and closed records are different shifts")
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    model.RequestStatus
		wantErr bool
	}{
		{"pending", model.StatusPending, false},
		{"Approved", model.StatusApproved, false},
		{" REJECTED ", model.StatusRejected, false},
		{"done", "", true},
	}
	for _, tt := range tests {
		got, err := model.ParseStatus(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if !model.RequestStatus("Approved").Is(model.StatusApproved) {
		t.Error("Is should ignore case")
	}
}

func TestEmployeeMatchPIN(t *testing.T) {
	plain := model.Employee{ID: "e1", Name: "Anna", Company: "Acme", PIN: "1234"}
	if !plain.MatchPIN("1234") || plain.MatchPIN("4321") || plain.MatchPIN("") {
		t.Error("plain PIN matching is wrong")
	}

	hash, err := model.HashPIN("9876")
	if err != nil {
		t.Fatalf("HashPIN: %v", err)
	}
	hashed := plain
	hashed.PIN = hash
	if !hashed.MatchPIN("9876") {
		t.Error("hashed PIN should match")
	}
	if hashed.MatchPIN("1234") {
		t.Error("hashed PIN should not match a different code")
	}
}

func TestEmployeeValidate(t *testing.T) {
	if err := (model.Employee{ID: "e1", Name: "Anna", Company: "Acme", PIN: "1"}).Validate(); err != nil {
		t.Errorf("Validate complete employee: %v", err)
	}
	if err := (model.Employee{ID: "e1", Name: "Anna"}).Validate(); err == nil {
		t.Error("Validate should reject an employee without company and PIN")
	}
}
