// Package report builds spreadsheet exports.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const attendanceSheet = "Attendance"

type AttendanceRow struct {
	Date         time.Time
	EmployeeCode string
	EmployeeName string
	Status       string
	CheckIn      *time.Time
	CheckOut     *time.Time
	TotalHours   *float64
	Manual       bool
	LeaveType    string
}

type AttendanceTotals struct {
	Total   int
	Present int
	Absent  int
	Leave   int
	Late    int
}

var attendanceHeader = []interface{}{"Date", "Employee ID", "Name", "Status", "Check in", "Check out", "Hours", "Manual", "Leave type"}

// WriteAttendance writes one month of attendance as an xlsx workbook. Times
// are rendered in loc.
func WriteAttendance(w io.Writer, title string, rows []AttendanceRow, totals AttendanceTotals, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", attendanceSheet); err != nil {
		return err
	}

	if err := f.SetCellValue(attendanceSheet, "A1", title); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(attendanceSheet, "A1", "A1", bold); err != nil {
		return err
	}
	if err := f.SetSheetRow(attendanceSheet, "A3", &attendanceHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(attendanceSheet, "A3", "I3", bold); err != nil {
		return err
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+4)
		values := []interface{}{
			r.Date.Format("2006-01-02"),
			r.EmployeeCode,
			r.EmployeeName,
			r.Status,
			clock(r.CheckIn, loc),
			clock(r.CheckOut, loc),
			hours(r.TotalHours),
			yesNo(r.Manual),
			r.LeaveType,
		}
		if err := f.SetSheetRow(attendanceSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	summaryRow := len(rows) + 5
	summary := []struct {
		label string
		value int
	}{
		{"Total", totals.Total},
		{"Present", totals.Present},
		{"Absent", totals.Absent},
		{"Leave", totals.Leave},
		{"Late", totals.Late},
	}
	for i, s := range summary {
		label, _ := excelize.CoordinatesToCellName(1, summaryRow+i)
		value, _ := excelize.CoordinatesToCellName(2, summaryRow+i)
		if err := f.SetCellValue(attendanceSheet, label, s.label); err != nil {
			return err
		}
		if err := f.SetCellValue(attendanceSheet, value, s.value); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(attendanceSheet, "A", "I", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(attendanceSheet, "C", "C", 28); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func clock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("15:04")
}

func hours(h *float64) interface{} {
	if h == nil {
		return ""
	}
	return *h
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
