package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shift-tracker/internal/msgraph"
	"github.com/Tiliavir/shift-tracker/internal/report"
	"github.com/Tiliavir/shift-tracker/internal/timecalc"
)

var (
	outlookSyncFrom     string
	outlookSyncTo       string
	outlookSyncDate     string
	outlookSyncDryRun   bool
	outlookSyncTask     string
	outlookSyncLocation string
	outlookSyncTZ       string
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookSyncCmd = &cobra.Command{
	Use:   "sync <employee>",
	Short: "Queue Outlook calendar events as shift edit requests",
	Long: `Fetch the signed-in user's Outlook calendar and queue each busy event
as a pending edit request for the employee. Intervals that are already
queued are skipped, so syncing twice is harmless.`,
	Args: cobra.ExactArgs(1),
	RunE: runOutlookSync,
}

func init() {
	outlookSyncCmd.Flags().StringVar(&outlookSyncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	outlookSyncCmd.Flags().StringVar(&outlookSyncDate, "date", "", "Sync a specific date (YYYY-MM-DD)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned requests without queueing them")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTask, "task", "", "Task for imported events (default from config)")
	outlookSyncCmd.Flags().StringVar(&outlookSyncLocation, "location", "", "Location for imported events (default from config)")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTZ, "timezone", "", "IANA timezone for event times (default from config)")
	outlookCmd.AddCommand(outlookSyncCmd)
}

// syncWindow picks the days to fetch; the default is today.
func syncWindow(now time.Time, date, from, to string) (time.Time, time.Time, error) {
	switch {
	case date != "":
		d, err := time.Parse(report.DateLayout, date)
		if err != nil {
			return time.Time{}, time.Time{}, usagef("invalid --date value %q: %v", date, err)
		}
		return timecalc.StartOfDay(d), timecalc.EndOfDay(d), nil

	case from != "" || to != "":
		if from == "" {
			return time.Time{}, time.Time{}, usagef("--from is required when --to is specified")
		}
		f, err := time.Parse(report.DateLayout, from)
		if err != nil {
			return time.Time{}, time.Time{}, usagef("invalid --from value %q: %v", from, err)
		}
		end := timecalc.EndOfDay(now)
		if to != "" {
			t, err := time.Parse(report.DateLayout, to)
			if err != nil {
				return time.Time{}, time.Time{}, usagef("invalid --to value %q: %v", to, err)
			}
			end = timecalc.EndOfDay(t)
		}
		return timecalc.StartOfDay(f), end, nil

	default:
		return timecalc.StartOfDay(now), timecalc.EndOfDay(now), nil
	}
}

func runOutlookSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	from, to, err := syncWindow(time.Now(), outlookSyncDate, outlookSyncFrom, outlookSyncTo)
	if err != nil {
		return err
	}
	emp, err := app.svc.Employee(ctx, args[0])
	if err != nil {
		return err
	}

	oc := app.cfg.Outlook
	opts := msgraph.SyncOptions{
		Task:     firstNonEmpty(outlookSyncTask, oc.DefaultTask),
		Location: firstNonEmpty(outlookSyncLocation, oc.DefaultLocation),
		Timezone: firstNonEmpty(outlookSyncTZ, oc.Timezone),
		DryRun:   outlookSyncDryRun,
		Out:      w,
	}

	dryTag := ""
	if opts.DryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(w, "Syncing Outlook events for %s (%s → %s)%s...\n\n",
		emp.Name, from.Format(report.DateLayout), to.Format(report.DateLayout), dryTag)

	auth, err := msgraph.NewAuthenticator(oc, app.dataDir, w, app.log)
	if err != nil {
		return err
	}
	ts, err := auth.TokenSource(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	events, err := msgraph.NewClient(ctx, ts).CalendarView(ctx, from, to, opts.Timezone)
	if err != nil {
		return fmt.Errorf("fetching calendar events: %w", err)
	}

	result, err := msgraph.Sync(ctx, app.svc, emp, events, opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %d requested\n", result.Imported)
	fmt.Fprintf(w, "  %d skipped\n", result.Skipped)
	if result.Errors > 0 {
		fmt.Fprintf(w, "  %d errors\n", result.Errors)
		return fmt.Errorf("%d events could not be imported", result.Errors)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
