package leave

import (
	"strings"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/attendance"
)

type Type string

const (
	TypeAnnual Type = "annual"
	TypeSick   Type = "sick"
	TypeCasual Type = "casual"
	TypeUnpaid Type = "unpaid"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeAnnual, TypeSick, TypeCasual, TypeUnpaid:
		return true
	}
	return false
}

// State is derived from the two approval flags on the underlying record.
type State string

const (
	StateSubmitted          State = "Submitted"
	StateSupervisorApproved State = "SupervisorApproved"
	StateFullyApproved      State = "FullyApproved"
	StateRejected           State = "Rejected"
)

type Approval struct {
	Approved bool
	By       *string
	At       *time.Time
}

// Request is a leave-typed attendance record. A multi-day leave is a single
// row dated StartDate that carries the whole range.
type Request struct {
	ID          string
	EmployeeID  string
	Type        Type
	Reason      string
	StartDate   time.Time
	EndDate     time.Time
	DocumentURL *string
	Supervisor  Approval
	Admin       Approval
	CreatedAt   time.Time

	// Joined
	EmployeeName *string
	EmployeeCode *string
}

// NewRequest validates and builds a submitted leave request.
func NewRequest(employeeID string, start, end time.Time, leaveType Type, reason string) (Request, error) {
	req := Request{
		EmployeeID: employeeID,
		Type:       leaveType,
		Reason:     strings.TrimSpace(reason),
		StartDate:  start,
		EndDate:    end,
	}
	if err := req.validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (r Request) validate() error {
	switch {
	case r.EmployeeID == "":
		return ErrMissingEmployee
	case !r.Type.IsValid():
		return ErrInvalidLeaveType
	case r.EndDate.Before(r.StartDate):
		return ErrInvalidDateRange
	}
	return nil
}

func (r Request) State() State {
	switch {
	case r.Supervisor.Approved && r.Admin.Approved:
		return StateFullyApproved
	case r.Supervisor.Approved:
		return StateSupervisorApproved
	default:
		return StateSubmitted
	}
}

// Days is the inclusive number of calendar days covered.
func (r Request) Days() int {
	return int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1
}

// ToRecord maps the request onto the attendance row that stores it.
func (r Request) ToRecord() attendance.Record {
	leaveType := string(r.Type)
	reason := r.Reason
	start, end := r.StartDate, r.EndDate
	return attendance.Record{
		ID:                   r.ID,
		EmployeeID:           r.EmployeeID,
		Date:                 start,
		Status:               attendance.StatusLeave,
		LeaveType:            &leaveType,
		LeaveReason:          &reason,
		LeaveStartDate:       &start,
		LeaveEndDate:         &end,
		LeaveDocumentURL:     r.DocumentURL,
		SupervisorApproved:   r.Supervisor.Approved,
		SupervisorApprovedBy: r.Supervisor.By,
		SupervisorApprovedAt: r.Supervisor.At,
		AdminApproved:        r.Admin.Approved,
		AdminApprovedBy:      r.Admin.By,
		AdminApprovedAt:      r.Admin.At,
	}
}

// FromRecord reads a leave request back from its attendance row. A manually
// entered Leave day carries no leave metadata and is not a request.
func FromRecord(rec attendance.Record) (Request, error) {
	if !rec.IsLeave() || (rec.ManuallyAdded && rec.LeaveType == nil) {
		return Request{}, ErrNotALeaveRequest
	}
	req := Request{
		ID:           rec.ID,
		EmployeeID:   rec.EmployeeID,
		StartDate:    rec.Date,
		EndDate:      rec.Date,
		DocumentURL:  rec.LeaveDocumentURL,
		Supervisor:   Approval{Approved: rec.SupervisorApproved, By: rec.SupervisorApprovedBy, At: rec.SupervisorApprovedAt},
		Admin:        Approval{Approved: rec.AdminApproved, By: rec.AdminApprovedBy, At: rec.AdminApprovedAt},
		CreatedAt:    rec.CreatedAt,
		EmployeeName: rec.EmployeeName,
		EmployeeCode: rec.EmployeeCode,
	}
	if rec.LeaveType != nil {
		req.Type = Type(*rec.LeaveType)
	}
	if rec.LeaveReason != nil {
		req.Reason = *rec.LeaveReason
	}
	if rec.LeaveStartDate != nil {
		req.StartDate = *rec.LeaveStartDate
	}
	if rec.LeaveEndDate != nil {
		req.EndDate = *rec.LeaveEndDate
	}
	return req, nil
}

// Rejection is the audit row kept when a request is rejected and removed.
type Rejection struct {
	ID         string
	RequestID  string
	EmployeeID string
	Type       Type
	StartDate  time.Time
	EndDate    time.Time
	Stage      State
	Reason     string
	RejectedBy string
	RejectedAt time.Time

	// Joined
	EmployeeName *string
}

// Balance holds per-year leave counters for one employee.
type Balance struct {
	ID          string
	EmployeeID  string
	Year        int
	AnnualTotal int
	AnnualUsed  int
	SickTotal   int
	SickUsed    int
	CasualTotal int
	CasualUsed  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBalance builds the onboarding balance row.
func NewBalance(employeeID string, year, annual, sick, casual int) Balance {
	return Balance{
		EmployeeID:  employeeID,
		Year:        year,
		AnnualTotal: annual,
		SickTotal:   sick,
		CasualTotal: casual,
	}
}
