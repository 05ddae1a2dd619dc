// Package export renders aggregated reports as markdown, CSV, JSON or XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Tiliavir/shift-tracker/internal/report"
	"github.com/Tiliavir/shift-tracker/internal/timecalc"
)

// Supported formats.
const (
	FormatMarkdown = "md"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatXLSX     = "xlsx"
)

// ErrUnknownFormat is returned by Write for formats it cannot render.
var ErrUnknownFormat = errors.New("unknown format")

// SheetName is the worksheet XLSX output writes to.
const SheetName = "Work Hours"

const clockLayout = "15:04"

// Write renders rep in format to w. title heads the markdown, JSON and XLSX
// output.
func Write(w io.Writer, format string, rep report.Report, title string) error {
	switch strings.ToLower(format) {
	case FormatMarkdown, "":
		return Markdown(w, rep, title)
	case FormatCSV:
		return CSV(w, rep)
	case FormatJSON:
		return JSON(w, rep, title)
	case FormatXLSX:
		return XLSX(w, rep, title)
	default:
		return fmt.Errorf("%w %q (want md, csv, json or xlsx)", ErrUnknownFormat, format)
	}
}

// Markdown writes a plain text report: one block per day, then the task
// summary and the overall total.
func Markdown(w io.Writer, rep report.Report, title string) error {
	var b strings.Builder
	sep := strings.Repeat("-", 60)

	fmt.Fprintln(&b, title)
	fmt.Fprintln(&b, sep)
	if rep.Empty() {
		fmt.Fprintln(&b, "No shift data available.")
	}
	for _, d := range rep.Days {
		fmt.Fprintln(&b, d.Date)
		for _, l := range d.Lines {
			fmt.Fprintf(&b, "  %s–%s  %-16s%-14s%-16s%6s h\n",
				l.ClockIn.Format(clockLayout), l.ClockOut.Format(clockLayout),
				l.EmployeeName, l.Location, l.Task, l.Hours.StringFixed(2))
		}
		fmt.Fprintf(&b, "  %-58s%6s h\n", "Total", d.Hours.StringFixed(2))
	}
	fmt.Fprintln(&b, sep)
	for _, t := range rep.Tasks {
		mark := ""
		if t.Completed {
			mark = " (completed)"
		}
		fmt.Fprintf(&b, "%-20s%8s h  %s%s\n", t.Task, t.Hours.StringFixed(2), timecalc.FormatMinutes(t.Minutes), mark)
	}
	fmt.Fprintln(&b, sep)
	fmt.Fprintf(&b, "%-20s%8s h  %s\n", "Total", rep.TotalHours.StringFixed(2), timecalc.FormatMinutes(rep.TotalMinutes))

	_, err := io.WriteString(w, b.String())
	return err
}

var csvHeader = []string{"date", "employee_id", "name", "location", "task", "clock_in", "clock_out", "minutes", "hours"}

// CSV writes one row per shift.
func CSV(w io.Writer, rep report.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, d := range rep.Days {
		for _, l := range d.Lines {
			row := []string{
				d.Date,
				l.EmployeeID,
				l.EmployeeName,
				l.Location,
				l.Task,
				l.ClockIn.Format(clockLayout),
				l.ClockOut.Format(clockLayout),
				strconv.Itoa(l.Minutes),
				l.Hours.StringFixed(2),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonLine struct {
	EmployeeID string      `json:"employee_id"`
	Name       string      `json:"name"`
	Location   string      `json:"location"`
	Task       string      `json:"task"`
	ClockIn    string      `json:"clock_in"`
	ClockOut   string      `json:"clock_out"`
	Minutes    int         `json:"minutes"`
	Hours      json.Number `json:"hours"`
}

type jsonDay struct {
	Date    string      `json:"date"`
	Shifts  []jsonLine  `json:"shifts"`
	Minutes int         `json:"minutes"`
	Hours   json.Number `json:"hours"`
}

type jsonTask struct {
	Task      string      `json:"task"`
	Minutes   int         `json:"minutes"`
	Hours     json.Number `json:"hours"`
	Completed bool        `json:"completed"`
}

type jsonReport struct {
	Title        string      `json:"title"`
	From         string      `json:"from,omitempty"`
	To           string      `json:"to,omitempty"`
	Days         []jsonDay   `json:"days"`
	Tasks        []jsonTask  `json:"tasks"`
	TotalMinutes int         `json:"total_minutes"`
	TotalHours   json.Number `json:"total_hours"`
}

// JSON writes rep as an indented JSON document. Hours are numbers with two
// decimals.
func JSON(w io.Writer, rep report.Report, title string) error {
	out := jsonReport{
		Title:        title,
		Days:         []jsonDay{},
		Tasks:        []jsonTask{},
		TotalMinutes: rep.TotalMinutes,
		TotalHours:   json.Number(rep.TotalHours.StringFixed(2)),
	}
	if !rep.From.IsZero() {
		out.From = rep.From.Format(report.DateLayout)
	}
	if !rep.To.IsZero() {
		out.To = rep.To.Format(report.DateLayout)
	}
	for _, d := range rep.Days {
		jd := jsonDay{Date: d.Date, Minutes: d.Minutes, Hours: json.Number(d.Hours.StringFixed(2))}
		for _, l := range d.Lines {
			jd.Shifts = append(jd.Shifts, jsonLine{
				EmployeeID: l.EmployeeID,
				Name:       l.EmployeeName,
				Location:   l.Location,
				Task:       l.Task,
				ClockIn:    timecalc.FormatStamp(l.ClockIn),
				ClockOut:   timecalc.FormatStamp(l.ClockOut),
				Minutes:    l.Minutes,
				Hours:      json.Number(l.Hours.StringFixed(2)),
			})
		}
		out.Days = append(out.Days, jd)
	}
	for _, t := range rep.Tasks {
		out.Tasks = append(out.Tasks, jsonTask{
			Task:      t.Task,
			Minutes:   t.Minutes,
			Hours:     json.Number(t.Hours.StringFixed(2)),
			Completed: t.Completed,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

var xlsxHeader = []string{"Employee ID", "Name", "Location", "Task", "Clock In", "Clock Out", "Hours Worked"}

// XLSX writes rep as a workbook with a single sheet: a block per day with a
// daily total, the overall total and a task summary.
func XLSX(w io.Writer, rep report.Report, title string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	section, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}

	sw := sheetWriter{f: f}
	sw.row(section, title)
	sw.skip(1)

	if rep.Empty() {
		sw.row(section, "No shift data available for this period")
	}
	for _, d := range rep.Days {
		sw.row(section, d.Date)
		sw.row(bold, toAny(xlsxHeader)...)
		for _, l := range d.Lines {
			sw.row(0, l.EmployeeID, l.EmployeeName, l.Location, l.Task,
				l.ClockIn.Format(clockLayout), l.ClockOut.Format(clockLayout), l.Hours.InexactFloat64())
		}
		sw.row(bold, "", "", "", "", "", "", fmt.Sprintf("Total: %s hrs", d.Hours.StringFixed(2)))
		sw.skip(1)
	}

	sw.row(section, "", "", "", "", "", "", fmt.Sprintf("Overall Total Hours: %s hrs", rep.TotalHours.StringFixed(2)))
	sw.skip(1)
	sw.row(section, "Task Summary")
	sw.row(bold, "Task Name", "Total Hours", "Completed")
	if len(rep.Tasks) == 0 {
		sw.row(0, "No task data", "0.00")
	}
	for _, t := range rep.Tasks {
		done := "no"
		if t.Completed {
			done = "yes"
		}
		sw.row(0, t.Task, t.Hours.InexactFloat64(), done)
	}
	if sw.err != nil {
		return sw.err
	}

	if err := f.SetColWidth(SheetName, "A", "G", 16); err != nil {
		return err
	}
	return f.Write(w)
}

// sheetWriter appends rows to SheetName and keeps the first error.
type sheetWriter struct {
	f   *excelize.File
	n   int
	err error
}

func (s *sheetWriter) skip(n int) { s.n += n }

func (s *sheetWriter) row(style int, values ...any) {
	if s.err != nil {
		return
	}
	s.n++
	start, err := excelize.CoordinatesToCellName(1, s.n)
	if err != nil {
		s.err = err
		return
	}
	if err := s.f.SetSheetRow(SheetName, start, &values); err != nil {
		s.err = err
		return
	}
	if style == 0 || len(values) == 0 {
		return
	}
	end, _ := excelize.CoordinatesToCellName(len(values), s.n)
	s.err = s.f.SetCellStyle(SheetName, start, end, style)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
