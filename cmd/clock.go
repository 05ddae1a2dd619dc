package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shift-tracker/internal/timecalc"
)

var (
	clockInTask     string
	clockInLocation string
	clockInPIN      string
	clockOutPIN     string
)

var clockInCmd = &cobra.Command{
	Use:   "clock-in [employee]",
	Short: "Start a shift",
	Long: `Start a shift for the employee given by ID or name, or by --pin.
The task must be offered to the employee's company at --location.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClockIn,
}

var clockOutCmd = &cobra.Command{
	Use:   "clock-out [employee]",
	Short: "End the running shift",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClockOut,
}

func init() {
	clockInCmd.Flags().StringVar(&clockInTask, "task", "", "Task to work on")
	clockInCmd.Flags().StringVar(&clockInLocation, "location", "", "Work location")
	clockInCmd.Flags().StringVar(&clockInPIN, "pin", "", "Identify by PIN instead of name")
	_ = clockInCmd.MarkFlagRequired("task")
	_ = clockInCmd.MarkFlagRequired("location")

	clockOutCmd.Flags().StringVar(&clockOutPIN, "pin", "", "Identify by PIN instead of name")
}

func runClockIn(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	emp, err := resolveEmployee(ctx, args, clockInPIN)
	if err != nil {
		return err
	}
	rec, err := app.svc.ClockIn(ctx, emp, clockInTask, clockInLocation)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s clocked in on %q at %s (%s)\n",
		emp.Name, rec.Task, rec.ClockIn[11:], rec.Location)
	return nil
}

func runClockOut(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	emp, err := resolveEmployee(ctx, args, clockOutPIN)
	if err != nil {
		return err
	}
	rec, err := app.svc.ClockOut(ctx, emp)
	if err != nil {
		return err
	}

	in, out, err := timecalc.ParseInterval(rec.ClockIn, *rec.ClockOut)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s clocked out. %s\n", emp.Name, timecalc.FormatShiftDuration(in, out, false))
	return nil
}
