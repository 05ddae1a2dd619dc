package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/shiftlog"
	"github.com/Tiliavir/shift-tracker/internal/timecalc"
	"github.com/Tiliavir/shift-tracker/internal/tracker"
)

var statusCmd = &cobra.Command{
	Use:   "status [employee]",
	Short: "Show who is working, or one employee's running shift",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	now := timecalc.Trim(time.Now())
	w := cmd.OutOrStdout()

	if len(args) == 0 {
		working, err := app.svc.Working(ctx)
		if err != nil {
			return err
		}
		printWorking(w, working, now)
		return nil
	}

	emp, err := app.svc.Employee(ctx, args[0])
	if err != nil {
		return err
	}
	l, err := app.svc.Shifts(ctx, emp)
	if err != nil {
		return err
	}

	if cur, ok := l.Current(); ok {
		fmt.Fprintf(w, "%s is working:\n", emp.Name)
		fmt.Fprintf(w, "  Task: %s\n", cur.Task)
		fmt.Fprintf(w, "  Location: %s\n", cur.Location)
		if in, err := timecalc.ParseStamp(cur.ClockIn); err == nil {
			fmt.Fprintf(w, "  Since: %s\n", in.Format("15:04"))
			fmt.Fprintf(w, "  Elapsed: %s\n", timecalc.FormatElapsed(now.Sub(in)))
		}
		return nil
	}

	fmt.Fprintf(w, "%s is not clocked in.\n", emp.Name)
	fmt.Fprintf(w, "Today: %s logged.\n", timecalc.FormatDuration(int64(loggedOn(l.Records(), now))*60))
	return nil
}

// loggedOn sums the minutes of closed shifts that started on day.
func loggedOn(recs []model.ShiftRecord, day time.Time) int {
	total := 0
	for _, r := range recs {
		in, out, ok := shiftlog.Interval(r)
		if !ok || !timecalc.SameDay(in, day) {
			continue
		}
		if m, err := timecalc.Minutes(in, out); err == nil {
			total += m
		}
	}
	return total
}

func printWorking(w io.Writer, working map[string][]tracker.Working, now time.Time) {
	if len(working) == 0 {
		fmt.Fprintln(w, "Nobody is clocked in.")
		return
	}
	companies := make([]string, 0, len(working))
	for c := range working {
		companies = append(companies, c)
	}
	sort.Strings(companies)

	for _, c := range companies {
		fmt.Fprintln(w, c)
		for _, wk := range working[c] {
			since := wk.Shift.ClockIn
			if in, err := timecalc.ParseStamp(wk.Shift.ClockIn); err == nil {
				since = fmt.Sprintf("%s (%s)", in.Format("15:04"), timecalc.FormatElapsed(now.Sub(in)))
			}
			fmt.Fprintf(w, "  %-20s%-16s%-14s%s\n", wk.Employee.Name, wk.Shift.Task, wk.Shift.Location, since)
		}
	}
}
