package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shift-tracker/internal/shiftlog"
)

var (
	shiftEditTask     string
	shiftEditLocation string
	shiftEditIn       string
	shiftEditOut      string
	shiftEditForce    bool
)

var shiftCmd = &cobra.Command{
	Use:   "shift",
	Short: "Administer recorded shifts",
	Long: `Administer recorded shifts. A shift is referenced by its number in
"shifts list" or by its clock-in time (2006-01-02T15:04).`,
}

var shiftEditCmd = &cobra.Command{
	Use:   "edit <employee> <ref>",
	Short: "Change a shift's task, location or times",
	Args:  cobra.ExactArgs(2),
	RunE:  runShiftEdit,
}

var shiftEndCmd = &cobra.Command{
	Use:   "end <employee> <ref>",
	Short: "Clock out a running shift now",
	Args:  cobra.ExactArgs(2),
	RunE:  runShiftEnd,
}

var shiftDeleteCmd = &cobra.Command{
	Use:   "delete <employee> <ref>",
	Short: "Delete a shift",
	Args:  cobra.ExactArgs(2),
	RunE:  runShiftDelete,
}

func init() {
	shiftEditCmd.Flags().StringVar(&shiftEditTask, "task", "", "New task")
	shiftEditCmd.Flags().StringVar(&shiftEditLocation, "location", "", "New location")
	shiftEditCmd.Flags().StringVar(&shiftEditIn, "in", "", "New clock-in time")
	shiftEditCmd.Flags().StringVar(&shiftEditOut, "out", "", `New clock-out time, or "open" to reopen the shift`)
	shiftEditCmd.Flags().BoolVar(&shiftEditForce, "force", false, "Allow overlapping other shifts")

	shiftCmd.AddCommand(shiftEditCmd, shiftEndCmd, shiftDeleteCmd)
}

func runShiftEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	emp, err := app.svc.Employee(ctx, args[0])
	if err != nil {
		return err
	}
	l, err := app.svc.Shifts(ctx, emp)
	if err != nil {
		return err
	}
	cur, err := l.Resolve(args[1])
	if err != nil {
		return err
	}

	f := editFields(cmd, cur.Task, cur.Location, cur.ClockIn, cur.ClockOut)
	rec, err := app.svc.EditShift(ctx, emp, args[1], f, shiftEditForce)
	if err != nil {
		return err
	}
	out := "open"
	if rec.ClockOut != nil {
		out = *rec.ClockOut
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated shift: %s %s – %s (%s)\n", rec.Task, rec.ClockIn, out, rec.Location)
	return nil
}

// editFields starts from the current values and applies the flags that were
// set.
func editFields(cmd *cobra.Command, task, location, in string, out *string) shiftlog.Fields {
	f := shiftlog.Fields{Task: task, Location: location, ClockIn: in, ClockOut: out}
	flags := cmd.Flags()
	if flags.Changed("task") {
		f.Task = shiftEditTask
	}
	if flags.Changed("location") {
		f.Location = shiftEditLocation
	}
	if flags.Changed("in") {
		f.ClockIn = shiftEditIn
	}
	if flags.Changed("out") {
		if shiftEditOut == "open" {
			f.ClockOut = nil
		} else {
			v := shiftEditOut
			f.ClockOut = &v
		}
	}
	return f
}

func runShiftEnd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	emp, err := app.svc.Employee(ctx, args[0])
	if err != nil {
		return err
	}
	rec, err := app.svc.EndShift(ctx, emp, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ended %s's shift on %q at %s\n", emp.Name, rec.Task, *rec.ClockOut)
	return nil
}

func runShiftDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	emp, err := app.svc.Employee(ctx, args[0])
	if err != nil {
		return err
	}
	rec, err := app.svc.DeleteShift(ctx, emp, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s's shift on %q from %s\n", emp.Name, rec.Task, rec.ClockIn)
	return nil
}
