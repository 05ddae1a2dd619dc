package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shift-tracker/internal/export"
	"github.com/Tiliavir/shift-tracker/internal/report"
	"github.com/Tiliavir/shift-tracker/internal/timecalc"
)

const currentPeriod = "current"

var (
	reportCompany string
	reportFrom    string
	reportTo      string
	reportWeek    bool
	reportMonth   string
	reportFormat  string
	reportOut     string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show a company's aggregated hours",
	Long: `Show a company's hours per day and per task. Without a period flag the
current week is reported.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportCompany, "company", "", "Company to report on")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "First day (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "Last day (YYYY-MM-DD)")
	reportCmd.Flags().BoolVar(&reportWeek, "week", false, "Report for this week (default)")
	reportCmd.Flags().StringVar(&reportMonth, "month", "", "Report for a month (YYYY-MM); bare --month means this month")
	reportCmd.Flags().Lookup("month").NoOptDefVal = currentPeriod
	reportCmd.Flags().StringVar(&reportFormat, "format", export.FormatMarkdown, "Output format: md, csv, json, xlsx")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Write to a file instead of stdout")
	_ = reportCmd.MarkFlagRequired("company")
	reportCmd.MarkFlagsMutuallyExclusive("week", "month")
}

// period is a reporting window and the label shown for it.
type period struct {
	from, to time.Time
	label    string
}

// reportPeriod picks the window from the flags. --from/--to win over
// --month, which wins over --week; the default is the week containing now.
func reportPeriod(now time.Time, from, to string, month string) (period, error) {
	switch {
	case from != "" || to != "":
		var p period
		if from != "" {
			d, err := time.Parse(report.DateLayout, from)
			if err != nil {
				return period{}, usagef("invalid --from value %q: %v", from, err)
			}
			p.from = d
		}
		if to != "" {
			d, err := time.Parse(report.DateLayout, to)
			if err != nil {
				return period{}, usagef("invalid --to value %q: %v", to, err)
			}
			p.to = timecalc.EndOfDay(d)
		}
		if !p.from.IsZero() && !p.to.IsZero() && p.to.Before(p.from) {
			return period{}, usagef("--to %s is before --from %s", to, from)
		}
		p.label = fmt.Sprintf("%s to %s", orDots(from), orDots(to))
		return p, nil

	case month != "":
		m := now
		if month != currentPeriod {
			var err error
			m, err = time.Parse("2006-01", month)
			if err != nil {
				return period{}, usagef("invalid month %q (want YYYY-MM): %v", month, err)
			}
		}
		f, t := timecalc.MonthRange(m)
		return period{from: f, to: t, label: f.Format("January 2006")}, nil

	default:
		f, t := timecalc.WeekRange(now)
		return period{from: f, to: t, label: "Week " + timecalc.ISOWeekLabel(now)}, nil
	}
}

func orDots(s string) string {
	if s == "" {
		return "…"
	}
	return s
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	now := timecalc.Trim(time.Now())

	p, err := reportPeriod(now, reportFrom, reportTo, reportMonth)
	if err != nil {
		return err
	}
	rep, err := app.svc.Report(ctx, reportCompany, report.Options{From: p.from, To: p.to})
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s – %s", reportCompany, p.label)

	var w io.Writer = cmd.OutOrStdout()
	if reportOut != "" {
		f, err := os.Create(reportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := export.Write(w, reportFormat, rep, title); err != nil {
		return err
	}
	if rep.Skipped > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %d shift(s) with unreadable times were skipped\n", rep.Skipped)
	}
	return nil
}
