package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/timecalc"
)

var (
	listWeek bool
	listAll  bool
)

var listCmd = &cobra.Command{
	Use:   "list <employee>",
	Short: "List an employee's shifts",
	Long: `List an employee's shifts grouped by day. The number in front of each
shift is its reference for "shifts shift edit|end|delete".`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listWeek, "week", false, "Show this week's shifts")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Show every shift")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	now := timecalc.Trim(time.Now())

	var from, to time.Time
	switch {
	case listAll:
	case listWeek:
		from, to = timecalc.WeekRange(now)
	default:
		// Default to today.
		from = timecalc.StartOfDay(now)
		to = timecalc.EndOfDay(now)
	}

	emp, err := app.svc.Employee(ctx, args[0])
	if err != nil {
		return err
	}
	l, err := app.svc.Shifts(ctx, emp)
	if err != nil {
		return err
	}
	printList(cmd.OutOrStdout(), l.Records(), from, to)
	return nil
}

// printList groups records by clock-in date and prints those starting in
// [from, to]; zero bounds print everything. Records whose clock-in does not
// parse are listed last, as stored.
func printList(w io.Writer, recs []model.ShiftRecord, from, to time.Time) {
	var currentDay string
	var broken []int
	printed := 0

	for i, r := range recs {
		in, err := timecalc.ParseStamp(r.ClockIn)
		if err != nil {
			broken = append(broken, i)
			continue
		}
		if (!from.IsZero() && in.Before(from)) || (!to.IsZero() && in.After(to)) {
			continue
		}

		day := in.Format("2006-01-02")
		if day != currentDay {
			fmt.Fprintln(w, day)
			currentDay = day
		}

		endStr := "ongoing"
		durStr := ""
		if r.ClockOut != nil {
			endStr = *r.ClockOut
			if out, err := timecalc.ParseStamp(*r.ClockOut); err == nil {
				endStr = out.Format("15:04")
				if m, err := timecalc.Minutes(in, out); err == nil {
					durStr = fmt.Sprintf(" (%s)", timecalc.FormatDuration(int64(m)*60))
				}
			}
		}
		fmt.Fprintf(w, "  #%-3d %s–%s  %s  %s%s\n", i+1, in.Format("15:04"), endStr, r.Task, r.Location, durStr)
		printed++
	}

	if len(broken) > 0 {
		fmt.Fprintln(w, "unreadable")
		for _, i := range broken {
			out := "ongoing"
			if recs[i].ClockOut != nil {
				out = *recs[i].ClockOut
			}
			fmt.Fprintf(w, "  #%-3d %q–%q  %s  %s\n", i+1, recs[i].ClockIn, out, recs[i].Task, recs[i].Location)
		}
		printed += len(broken)
	}

	if printed == 0 {
		fmt.Fprintln(w, "No shifts found.")
	}
}
