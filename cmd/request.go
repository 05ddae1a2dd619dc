package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/reconcile"
	"github.com/Tiliavir/shift-tracker/internal/requests"
)

var (
	reqTask     string
	reqLocation string
	reqCompany  string
	reqStart    string
	reqEnd      string
	reqReason   string

	reqListStatus     string
	reqRemoveRejected bool
	reqFinalizeDryRun bool
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Submit and review shift edit requests",
	Long: `Submit and review retroactive shift edit requests. A request is
referenced by its number in "shifts request list <employee>" or by
"start/end" (e.g. 2025-01-01T10:00/2025-01-01T14:00).`,
}

var requestSubmitCmd = &cobra.Command{
	Use:   "submit <employee>",
	Short: "Ask for a shift to be added or corrected",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequestSubmit,
}

var requestListCmd = &cobra.Command{
	Use:   "list [employee]",
	Short: "List queued requests",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRequestList,
}

var requestStatusCmd = &cobra.Command{
	Use:   "status <employee> <ref> <pending|approved|rejected>",
	Short: "Approve or reject a request",
	Args:  cobra.ExactArgs(3),
	RunE:  runRequestStatus,
}

var requestEditCmd = &cobra.Command{
	Use:   "edit <employee> <ref>",
	Short: "Change a queued request",
	Args:  cobra.ExactArgs(2),
	RunE:  runRequestEdit,
}

var requestRemoveCmd = &cobra.Command{
	Use:   "remove <employee> [ref]",
	Short: "Remove a request, or every rejected one with --rejected",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runRequestRemove,
}

var requestFinalizeCmd = &cobra.Command{
	Use:   "finalize <employee> <ref>",
	Short: "Merge an approved request into the shift log",
	Long: `Merge an approved request into the shift log. Closed shifts that
overlap the requested interval are replaced; the request leaves the queue.`,
	Args: cobra.ExactArgs(2),
	RunE: runRequestFinalize,
}

func init() {
	for _, c := range []*cobra.Command{requestSubmitCmd, requestEditCmd} {
		c.Flags().StringVar(&reqTask, "task", "", "Task")
		c.Flags().StringVar(&reqLocation, "location", "", "Location")
		c.Flags().StringVar(&reqCompany, "company", "", "Company (defaults to the employee's)")
		c.Flags().StringVar(&reqStart, "start", "", "Start time (2006-01-02T15:04)")
		c.Flags().StringVar(&reqEnd, "end", "", "End time (2006-01-02T15:04)")
		c.Flags().StringVar(&reqReason, "reason", "", "Why the change is needed")
	}
	for _, name := range []string{"task", "location", "start", "end"} {
		_ = requestSubmitCmd.MarkFlagRequired(name)
	}
	requestListCmd.Flags().StringVar(&reqListStatus, "status", "", "Only requests in this status")
	requestRemoveCmd.Flags().BoolVar(&reqRemoveRejected, "rejected", false, "Remove every rejected request")
	requestFinalizeCmd.Flags().BoolVar(&reqFinalizeDryRun, "dry-run", false, "Show the shifts that would be replaced")

	requestCmd.AddCommand(requestSubmitCmd, requestListCmd, requestStatusCmd,
		requestEditCmd, requestRemoveCmd, requestFinalizeCmd)
}

func runRequestSubmit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	emp, err := app.svc.Employee(ctx, args[0])
	if err != nil {
		return err
	}
	req, err := app.svc.SubmitRequest(ctx, emp, requests.Submission{
		Task:     reqTask,
		Location: reqLocation,
		Company:  reqCompany,
		Start:    reqStart,
		End:      reqEnd,
		Reason:   reqReason,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Request submitted: %s %s – %s (%s)\n", req.Task, req.RequestedStart, req.RequestedEnd, req.Status)
	return nil
}

func runRequestList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	var status model.RequestStatus
	if reqListStatus != "" {
		st, err := model.ParseStatus(reqListStatus)
		if err != nil {
			return usageError{err}
		}
		status = st
	}

	if len(args) == 0 {
		all, err := app.svc.AllRequests(ctx, status)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Fprintln(w, "No requests found.")
			return nil
		}
		current := ""
		for _, q := range all {
			key := q.Employee.Company + "/" + q.Employee.ID
			if key != current {
				name := q.Employee.Name
				if name == "" {
					name = q.Employee.ID
				}
				fmt.Fprintf(w, "%s (%s)\n", name, q.Employee.Company)
				current = key
			}
			printRequest(w, q.Position, q.Request)
		}
		return nil
	}

	emp, err := app.svc.Employee(ctx, args[0])
	if err != nil {
		return err
	}
	q, err := app.svc.Requests(ctx, emp)
	if err != nil {
		return err
	}
	printed := 0
	for i, r := range q.Requests() {
		if status == "" || r.Status.Is(status) {
			printRequest(w, i+1, r)
			printed++
		}
	}
	if printed == 0 {
		fmt.Fprintln(w, "No requests found.")
	}
	return nil
}

func printRequest(w io.Writer, pos int, r model.EditRequest) {
	fmt.Fprintf(w, "  #%-3d %-9s %s – %s  %s  %s\n", pos, r.Status, r.RequestedStart, r.RequestedEnd, r.Task, r.Location)
	if r.Reason != "" {
		fmt.Fprintf(w, "        %s\n", r.Reason)
	}
}

func runRequestStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	emp, err := app.svc.Employee(ctx, args[0])
	if err != nil {
		return err
	}
	req, err := app.svc.SetRequestStatus(ctx, emp, args[1], args[2])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Request %s – %s is now %s\n", req.RequestedStart, req.RequestedEnd, req.Status)
	return nil
}

func runRequestEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	emp, err := app.svc.Employee(ctx, args[0])
	if err != nil {
		return err
	}
	q, err := app.svc.Requests(ctx, emp)
	if err != nil {
		return err
	}
	cur, err := q.Resolve(args[1])
	if err != nil {
		return err
	}

	sub := requests.Submission{
		Task:     cur.Task,
		Location: cur.Location,
		Company:  cur.Company,
		Start:    cur.RequestedStart,
		End:      cur.RequestedEnd,
		Reason:   cur.Reason,
	}
	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"task": &sub.Task, "location": &sub.Location, "company": &sub.Company,
		"start": &sub.Start, "end": &sub.End, "reason": &sub.Reason,
	} {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}

	req, err := app.svc.UpdateRequest(ctx, emp, args[1], sub)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Request updated: %s %s – %s (%s)\n", req.Task, req.RequestedStart, req.RequestedEnd, req.Status)
	return nil
}

func runRequestRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	emp, err := app.svc.Employee(ctx, args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if reqRemoveRejected {
		n, err := app.svc.RemoveRejected(ctx, emp)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Removed %d rejected request(s)\n", n)
		return nil
	}
	if len(args) < 2 {
		return usagef("a request reference (or --rejected) is required")
	}
	req, err := app.svc.RemoveRequest(ctx, emp, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Removed request %s – %s\n", req.RequestedStart, req.RequestedEnd)
	return nil
}

func runRequestFinalize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	emp, err := app.svc.Employee(ctx, args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if reqFinalizeDryRun {
		rec, conflicts, err := app.svc.PreviewFinalize(ctx, emp, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Would add: %s %s – %s (%s)\n", rec.Task, rec.ClockIn, *rec.ClockOut, rec.Location)
		printReplaced(w, conflicts)
		return nil
	}

	res, err := app.svc.Finalize(ctx, emp, args[1])
	if err != nil {
		return err
	}
	printFinalized(w, res)
	return nil
}

// printFinalized reports the merged shift and every shift it replaced.
func printFinalized(w io.Writer, res reconcile.Result) {
	rec := res.Record
	if res.AlreadyApplied {
		fmt.Fprintf(w, "Shift %s – %s was already in the log; request removed\n", rec.ClockIn, *rec.ClockOut)
	} else {
		fmt.Fprintf(w, "Added: %s %s – %s (%s)\n", rec.Task, rec.ClockIn, *rec.ClockOut, rec.Location)
	}
	printReplaced(w, res.Removed)
}

func printReplaced(w io.Writer, recs []model.ShiftRecord) {
	if len(recs) == 0 {
		return
	}
	fmt.Fprintf(w, "Replacing %d overlapping shift(s):\n", len(recs))
	for _, r := range recs {
		fmt.Fprintf(w, "  %s – %s  %s  %s\n", r.ClockIn, *r.ClockOut, r.Task, r.Location)
	}
}
