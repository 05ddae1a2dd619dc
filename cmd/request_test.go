package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/reconcile"
)

func TestPrintFinalizedListsReplacedShifts(t *testing.T) {
	rec := model.ShiftRecord{Task: "Paint", Location: "Site1", ClockIn: "2025-03-01T08:00", ClockOut: model.StringPtr("2025-03-01T12:00")}
	removed := []model.ShiftRecord{
		{Task: "Sand", Location: "Site1", ClockIn: "2025-03-01T09:00", ClockOut: model.StringPtr("2025-03-01T10:00")},
	}

	tests := []struct {
		name    string
		res     reconcile.Result
		want    []string
		notWant string
	}{
		{
			name: "added",
			res:  reconcile.Result{Record: rec, Removed: removed},
			want: []string{"Added: Paint 2025-03-01T08:00", "Replacing 1 overlapping shift(s):", "2025-03-01T09:00 – 2025-03-01T10:00  Sand"},
		},
		{
			name: "already in the log",
			res:  reconcile.Result{Record: rec, Removed: removed, AlreadyApplied: true},
			want: []string{"was already in the log", "Replacing 1 overlapping shift(s):", "2025-03-01T09:00 – 2025-03-01T10:00  Sand"},
		},
		{
			name:    "nothing replaced",
			res:     reconcile.Result{Record: rec},
			want:    []string{"Added: Paint"},
			notWant: "Replacing",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printFinalized(&buf, tt.res)
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			if tt.notWant != "" && strings.Contains(out, tt.notWant) {
				t.Errorf("output contains %q:\n%s", tt.notWant, out)
			}
		})
	}
}
