package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Action is the decision applied by a batch approval.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

func (a Action) IsValid() bool {
	return a == ActionApprove || a == ActionReject
}

// Status returns the payroll status the action moves a pending record to.
func (a Action) Status() Status {
	if a == ActionApprove {
		return StatusApproved
	}
	return StatusRejected
}

type Payroll struct {
	ID          string
	EmployeeID  string
	PeriodYear  int
	PeriodMonth int
	BaseSalary  decimal.Decimal
	Allowances  decimal.Decimal
	Deductions  decimal.Decimal
	NetSalary   decimal.Decimal
	Status      Status
	ApprovedBy  *string
	ApprovedAt  *time.Time
	Remarks     *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined
	EmployeeName *string
	EmployeeCode *string
	BankName     *string
	BankAccount  *string
}

// NetOf computes base + allowances - deductions.
func NetOf(base, allowances, deductions decimal.Decimal) decimal.Decimal {
	return base.Add(allowances).Sub(deductions).Round(2)
}

type SalarySlip struct {
	ID          string
	PayrollID   string
	EmployeeID  string
	SlipNumber  string
	PeriodYear  int
	PeriodMonth int
	NetSalary   decimal.Decimal
	IssuedAt    time.Time

	// Joined from the payroll for rendering
	Payroll *Payroll
}

// SlipNumber is deterministic per employee and period so re-approval never
// issues a second slip.
func SlipNumber(year, month int, employeeID string) string {
	prefix := employeeID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("SLP-%d-%02d-%s", year, month, prefix)
}

// NewSlip derives the slip for an approved payroll.
func NewSlip(p Payroll, issuedAt time.Time) SalarySlip {
	return SalarySlip{
		PayrollID:   p.ID,
		EmployeeID:  p.EmployeeID,
		SlipNumber:  SlipNumber(p.PeriodYear, p.PeriodMonth, p.EmployeeID),
		PeriodYear:  p.PeriodYear,
		PeriodMonth: p.PeriodMonth,
		NetSalary:   p.NetSalary,
		IssuedAt:    issuedAt,
	}
}
