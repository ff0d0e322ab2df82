package attendance

import (
	"time"

	"github.com/bimworks/portal-backend/internal/pkg/validator"
)

type CheckInRequest struct {
	IPAddress string `json:"-"`
}

type ManualEntryRequest struct {
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	CheckIn    *string `json:"check_in,omitempty"`
	CheckOut   *string `json:"check_out,omitempty"`
	Status     string  `json:"status"`
}

func (r *ManualEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "date must be in YYYY-MM-DD format")
	}
	switch status := Status(r.Status); {
	case status == StatusLeave:
		errs.Add("status", "leave must be submitted as a leave request")
	case !status.IsValid():
		errs.Add("status", "status must be one of: Present, Absent, Late")
	}

	var in, out time.Time
	var okIn, okOut bool
	if r.CheckIn != nil {
		if in, okIn = validator.IsValidClock(*r.CheckIn); !okIn {
			errs.Add("check_in", "check_in must be in HH:MM format")
		}
	}
	if r.CheckOut != nil {
		if out, okOut = validator.IsValidClock(*r.CheckOut); !okOut {
			errs.Add("check_out", "check_out must be in HH:MM format")
		}
		if r.CheckIn == nil {
			errs.Add("check_out", "check_out requires check_in")
		}
	}
	if okIn && okOut && out.Before(in) {
		errs.Add("check_out", "check_out must not be before check_in")
	}

	return errs.Err()
}

// MonthFilter selects a calendar month. Empty EmployeeID means all employees
// (admins only).
type MonthFilter struct {
	EmployeeID string
	Year       int
	Month      int
}

func (f *MonthFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Year < 2000 || f.Year > 2100 {
		errs.Add("year", "year must be between 2000 and 2100")
	}
	if f.Month < 1 || f.Month > 12 {
		errs.Add("month", "month must be between 1 and 12")
	}
	if f.EmployeeID != "" && !validator.IsValidUUID(f.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	return errs.Err()
}

type ApprovalResponse struct {
	Approved   bool    `json:"approved"`
	ApprovedBy *string `json:"approved_by,omitempty"`
	ApprovedAt *string `json:"approved_at,omitempty"`
}

type AttendanceResponse struct {
	ID            string           `json:"id"`
	EmployeeID    string           `json:"employee_id"`
	EmployeeName  *string          `json:"employee_name,omitempty"`
	EmployeeCode  *string          `json:"employee_code,omitempty"`
	Date          string           `json:"date"`
	Status        string           `json:"status"`
	CheckInTime   *string          `json:"check_in_time,omitempty"`
	CheckOutTime  *string          `json:"check_out_time,omitempty"`
	TotalHours    *float64         `json:"total_hours,omitempty"`
	IPAddress     *string          `json:"ip_address,omitempty"`
	ManuallyAdded bool             `json:"manually_added"`
	LeaveType     *string          `json:"leave_type,omitempty"`
	LeaveStart    *string          `json:"leave_start_date,omitempty"`
	LeaveEnd      *string          `json:"leave_end_date,omitempty"`
	Supervisor    ApprovalResponse `json:"supervisor_approval"`
	Admin         ApprovalResponse `json:"admin_approval"`
}

type MonthlyAttendanceResponse struct {
	Year    int                  `json:"year"`
	Month   int                  `json:"month"`
	Records []AttendanceResponse `json:"records"`
	Summary Summary              `json:"summary"`
}
