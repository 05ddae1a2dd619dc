// Package msgraph imports Outlook calendar events as pending shift edit
// requests.
package msgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/requests"
	"github.com/Tiliavir/shift-tracker/internal/timecalc"
)

// Importer queues submissions for an employee, skipping intervals that are
// already queued. *tracker.Service implements it.
type Importer interface {
	ImportRequests(ctx context.Context, emp model.Employee, subs []requests.Submission) ([]model.EditRequest, error)
}

// SyncResult holds counters for a sync run.
type SyncResult struct {
	// Imported is the number of requests added (or, for a dry run, offered).
	Imported int
	// Skipped counts filtered events and intervals already queued.
	Skipped int
	Errors  int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	// Task and Location fill the request. An empty Task falls back to the
	// event subject, an empty Location to the event location.
	Task     string
	Location string
	// Timezone is the IANA zone event times are expressed in.
	Timezone string
	DryRun   bool
	// Out receives one progress line per event. Nil discards them.
	Out io.Writer
}

// parseGraphTime parses a Graph dateTime. Graph returns times like
// "2026-02-27T09:00:00.0000000" without a zone suffix when a
// Prefer: outlook.timezone header is set.
func parseGraphTime(dt string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, dt); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

func location(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	if l, err := time.LoadLocation(tz); err == nil {
		return l
	}
	return time.UTC
}

// ShouldSkip reports whether event is not worth importing: cancelled,
// all-day, private, free or without times.
func ShouldSkip(event CalendarEvent) bool {
	switch {
	case event.IsCancelled, event.IsAllDay:
		return true
	case event.Sensitivity == "private", event.ShowAs == "free":
		return true
	case event.Start.DateTime == "" || event.End.DateTime == "":
		return true
	}
	return false
}

func reason(event CalendarEvent) string {
	parts := []string{"Outlook: " + event.Subject}
	if event.BodyPreview != "" {
		parts = append(parts, event.BodyPreview)
	}
	if event.Location.DisplayName != "" {
		parts = append(parts, event.Location.DisplayName)
	}
	return strings.Join(parts, "\n")
}

// ToSubmission converts event into a request submission. Times are rendered
// as wall clock in opts.Timezone.
func ToSubmission(event CalendarEvent, opts SyncOptions) (requests.Submission, error) {
	loc := location(opts.Timezone)
	start, err := parseGraphTime(event.Start.DateTime, loc)
	if err != nil {
		return requests.Submission{}, fmt.Errorf("parsing start time: %w", err)
	}
	end, err := parseGraphTime(event.End.DateTime, loc)
	if err != nil {
		return requests.Submission{}, fmt.Errorf("parsing end time: %w", err)
	}
	start, end = timecalc.Trim(start), timecalc.Trim(end)
	if !end.After(start) {
		return requests.Submission{}, fmt.Errorf("%w: event ends at %s", timecalc.ErrInvalidInterval, timecalc.FormatStamp(end))
	}

	task := opts.Task
	if task == "" {
		task = strings.TrimSpace(event.Subject)
	}
	where := opts.Location
	if where == "" {
		where = strings.TrimSpace(event.Location.DisplayName)
	}
	if task == "" || where == "" {
		return requests.Submission{}, errors.New("event has no task or location (pass --task and --location)")
	}

	return requests.Submission{
		Task:     task,
		Location: where,
		Start:    timecalc.FormatStamp(start),
		End:      timecalc.FormatStamp(end),
		Reason:   reason(event),
	}, nil
}

// Sync converts events into pending requests for emp and hands them to imp.
// A dry run only reports what would be offered.
func Sync(ctx context.Context, imp Importer, emp model.Employee, events []CalendarEvent, opts SyncOptions) (SyncResult, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	var result SyncResult
	var subs []requests.Submission
	for _, event := range events {
		if ShouldSkip(event) {
			result.Skipped++
			continue
		}
		sub, err := ToSubmission(event, opts)
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}
		subs = append(subs, sub)
	}

	if opts.DryRun {
		for _, sub := range subs {
			fmt.Fprintf(out, "  ✓ Would request: %s %s – %s\n", sub.Task, sub.Start, sub.End)
		}
		result.Imported = len(subs)
		return result, nil
	}
	if len(subs) == 0 {
		return result, nil
	}

	added, err := imp.ImportRequests(ctx, emp, subs)
	if err != nil {
		return result, err
	}
	for _, req := range added {
		fmt.Fprintf(out, "  ✓ Requested: %s %s – %s\n", req.Task, req.RequestedStart, req.RequestedEnd)
	}
	result.Imported = len(added)
	result.Skipped += len(subs) - len(added)
	return result, nil
}
