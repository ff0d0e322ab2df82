package messaging

import "time"

const (
	TopicLeaveFinalized  = "leave.finalized"
	TopicLeaveRevoked    = "leave.revoked"
	TopicPayrollApproved = "payroll.approved"
)

// LeaveFinalizedEvent is emitted once a leave request has both approvals.
// Balance bookkeeping consumes it.
type LeaveFinalizedEvent struct {
	RequestID   string    `json:"request_id"`
	EmployeeID  string    `json:"employee_id"`
	LeaveType   string    `json:"leave_type"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Days        int       `json:"days"`
	ApprovedBy  string    `json:"approved_by"`
	FinalizedAt time.Time `json:"finalized_at"`
}

// LeaveRevokedEvent is emitted when a fully approved request is rejected
// after the fact, so balance bookkeeping can give the days back.
type LeaveRevokedEvent struct {
	RequestID  string    `json:"request_id"`
	EmployeeID string    `json:"employee_id"`
	LeaveType  string    `json:"leave_type"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	Days       int       `json:"days"`
	RevokedBy  string    `json:"revoked_by"`
	RevokedAt  time.Time `json:"revoked_at"`
}

type PayrollApprovedEvent struct {
	PayrollID   string    `json:"payroll_id"`
	EmployeeID  string    `json:"employee_id"`
	PeriodYear  int       `json:"period_year"`
	PeriodMonth int       `json:"period_month"`
	NetSalary   string    `json:"net_salary"`
	SlipNumber  string    `json:"slip_number"`
	ApprovedBy  string    `json:"approved_by"`
	ApprovedAt  time.Time `json:"approved_at"`
}
