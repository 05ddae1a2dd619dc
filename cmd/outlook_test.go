package cmd

import (
	"testing"
	"time"
)

func TestSyncWindow(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name             string
		date, from, to   string
		wantFrom, wantTo string
		wantErr          bool
	}{
		{name: "default today", wantFrom: "2025-03-12T00:00", wantTo: "2025-03-12T23:59"},
		{name: "date", date: "2025-03-01", wantFrom: "2025-03-01T00:00", wantTo: "2025-03-01T23:59"},
		{name: "from only", from: "2025-03-10", wantFrom: "2025-03-10T00:00", wantTo: "2025-03-12T23:59"},
		{name: "range", from: "2025-03-01", to: "2025-03-05", wantFrom: "2025-03-01T00:00", wantTo: "2025-03-05T23:59"},
		{name: "to without from", to: "2025-03-05", wantErr: true},
		{name: "bad date", date: "12.03.2025", wantErr: true},
		{name: "bad to", from: "2025-03-01", to: "tomorrow", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := syncWindow(now, tt.date, tt.from, tt.to)
			if tt.wantErr {
				if exitCode(err) != 1 {
					t.Errorf("err = %v, want a usage error", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := from.Format("2006-01-02T15:04"); got != tt.wantFrom {
				t.Errorf("from = %s, want %s", got, tt.wantFrom)
			}
			if got := to.Format("2006-01-02T15:04"); got != tt.wantTo {
				t.Errorf("to = %s, want %s", got, tt.wantTo)
			}
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "cfg"); got != "cfg" {
		t.Errorf("got %q", got)
	}
	if got := firstNonEmpty("flag", "cfg"); got != "flag" {
		t.Errorf("got %q", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("got %q", got)
	}
}
