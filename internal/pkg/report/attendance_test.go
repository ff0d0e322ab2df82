package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteAttendance(t *testing.T) {
	in := time.Date(2024, 3, 5, 2, 0, 0, 0, time.UTC)
	out := time.Date(2024, 3, 5, 11, 0, 0, 0, time.UTC)
	h := 9.0
	jakarta := time.FixedZone("WIB", 7*3600)

	var buf bytes.Buffer
	err := WriteAttendance(&buf, "Attendance March 2024", []AttendanceRow{
		{Date: in, EmployeeCode: "EMP-001", EmployeeName: "Ana", Status: "Present", CheckIn: &in, CheckOut: &out, TotalHours: &h},
		{Date: in.AddDate(0, 0, 1), EmployeeCode: "EMP-001", EmployeeName: "Ana", Status: "Leave", LeaveType: "sick"},
	}, AttendanceTotals{Total: 2, Present: 1, Leave: 1}, jakarta)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(attendanceSheet)
	require.NoError(t, err)
	assert.Equal(t, "Attendance March 2024", rows[0][0])
	assert.Equal(t, "Employee ID", rows[2][1])
	assert.Equal(t, []string{"2024-03-05", "EMP-001", "Ana", "Present", "09:00", "18:00", "9", "no"}, rows[3])
	assert.Equal(t, "sick", rows[4][8])

	total, err := f.GetCellValue(attendanceSheet, "B7")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
}
