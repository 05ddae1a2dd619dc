// Package report folds shift logs into per-day and per-task totals.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/shiftlog"
	"github.com/Tiliavir/shift-tracker/internal/timecalc"
)

// DateLayout is the key format of Day.Date.
const DateLayout = "2006-01-02"

// Placeholder used for missing task, location or employee names.
const Unknown = "N/A"

// EmployeeLog pairs an employee with the records to aggregate.
type EmployeeLog struct {
	Employee model.Employee
	Records  []model.ShiftRecord
}

// Options narrows and annotates an aggregation.
type Options struct {
	// From and To bound the clock-in date, inclusive. Zero means unbounded.
	From, To time.Time
	// Completed maps task names to their catalog completion flag.
	Completed map[string]bool
}

// Line is one closed shift.
type Line struct {
	EmployeeID   string
	EmployeeName string
	Task         string
	Location     string
	ClockIn      time.Time
	ClockOut     time.Time
	Minutes      int
	// Hours is Minutes in hours, rounded to two places.
	Hours decimal.Decimal
}

// Day groups the lines whose shift started on Date.
type Day struct {
	Date    string
	Lines   []Line
	Minutes int
	// Hours is the sum of the rounded line hours.
	Hours decimal.Decimal
}

// TaskSummary is the total time spent on one task.
type TaskSummary struct {
	Task      string
	Minutes   int
	Hours     decimal.Decimal
	Completed bool
}

// Report is the result of Aggregate.
type Report struct {
	From, To     time.Time
	Days         []Day
	Tasks        []TaskSummary
	TotalMinutes int
	TotalHours   decimal.Decimal
	// Skipped counts closed records whose timestamps could not be used.
	Skipped int
}

// Empty reports whether no shift was aggregated.
func (r Report) Empty() bool {
	return len(r.Days) == 0
}

// Hours converts minutes to hours rounded to two decimal places.
func Hours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(2)
}

// Aggregate builds a report from closed shifts. Open shifts are ignored.
// Days are ordered by date; within a day lines keep log order, with logs
// taken in the order given.
func Aggregate(logs []EmployeeLog, opts Options) Report {
	rep := Report{From: opts.From, To: opts.To, TotalHours: decimal.Zero}

	days := map[string]*Day{}
	tasks := map[string]*TaskSummary{}

	for _, el := range logs {
		name := el.Employee.Name
		if name == "" {
			name = Unknown
		}
		for _, r := range el.Records {
			if r.Open() {
				continue
			}
			in, out, ok := shiftlog.Interval(r)
			if !ok {
				rep.Skipped++
				continue
			}
			// A closed shift must end at least a minute after it starts.
			mins, err := timecalc.Minutes(in, out)
			if err != nil || mins == 0 {
				rep.Skipped++
				continue
			}
			if !inWindow(in, opts) {
				continue
			}

			line := Line{
				EmployeeID:   el.Employee.ID,
				EmployeeName: name,
				Task:         orUnknown(r.Task),
				Location:     orUnknown(r.Location),
				ClockIn:      in,
				ClockOut:     out,
				Minutes:      mins,
				Hours:        Hours(mins),
			}

			key := in.Format(DateLayout)
			d, ok := days[key]
			if !ok {
				d = &Day{Date: key, Hours: decimal.Zero}
				days[key] = d
			}
			d.Lines = append(d.Lines, line)
			d.Minutes += mins
			d.Hours = d.Hours.Add(line.Hours)

			ts, ok := tasks[line.Task]
			if !ok {
				ts = &TaskSummary{Task: line.Task, Hours: decimal.Zero, Completed: opts.Completed[line.Task]}
				tasks[line.Task] = ts
			}
			ts.Minutes += mins
			ts.Hours = ts.Hours.Add(line.Hours)

			rep.TotalMinutes += mins
			rep.TotalHours = rep.TotalHours.Add(line.Hours)
		}
	}

	for _, d := range days {
		rep.Days = append(rep.Days, *d)
	}
	sort.Slice(rep.Days, func(i, j int) bool { return rep.Days[i].Date < rep.Days[j].Date })

	for _, ts := range tasks {
		rep.Tasks = append(rep.Tasks, *ts)
	}
	sort.Slice(rep.Tasks, func(i, j int) bool { return rep.Tasks[i].Task < rep.Tasks[j].Task })

	return rep
}

func inWindow(in time.Time, opts Options) bool {
	day := timecalc.StartOfDay(in)
	if !opts.From.IsZero() && day.Before(timecalc.StartOfDay(opts.From)) {
		return false
	}
	if !opts.To.IsZero() && day.After(timecalc.StartOfDay(opts.To)) {
		return false
	}
	return true
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
