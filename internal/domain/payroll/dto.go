package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/bimworks/portal-backend/internal/pkg/validator"
)

type CreatePayrollRequest struct {
	EmployeeID  string  `json:"employee_id"`
	PeriodYear  int     `json:"period_year"`
	PeriodMonth int     `json:"period_month"`
	BaseSalary  *string `json:"base_salary,omitempty"`
	Allowances  string  `json:"allowances"`
	Deductions  string  `json:"deductions"`

	base       *decimal.Decimal
	allowances decimal.Decimal
	deductions decimal.Decimal
}

func (r *CreatePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	if r.PeriodYear < 2000 || r.PeriodYear > 9999 {
		errs.Add("period_year", "period_year is invalid")
	}
	if r.PeriodMonth < 1 || r.PeriodMonth > 12 {
		errs.Add("period_month", "period_month must be between 1 and 12")
	}
	if r.BaseSalary != nil {
		d, err := decimal.NewFromString(*r.BaseSalary)
		if err != nil || d.IsNegative() {
			errs.Add("base_salary", "base_salary must be a non-negative amount")
		} else {
			r.base = &d
		}
	}
	r.allowances = parseAmount(&errs, "allowances", r.Allowances)
	r.deductions = parseAmount(&errs, "deductions", r.Deductions)

	return errs.Err()
}

func parseAmount(errs *validator.ValidationErrors, field, value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil || d.IsNegative() {
		errs.Add(field, field+" must be a non-negative amount")
		return decimal.Zero
	}
	return d
}

// Amounts returns the parsed amounts; base is nil when the employee's base
// salary should be used.
func (r *CreatePayrollRequest) Amounts() (base *decimal.Decimal, allowances, deductions decimal.Decimal) {
	return r.base, r.allowances, r.deductions
}

type PayrollFilter struct {
	EmployeeID *string
	Year       *int
	Month      *int
	Status     *string
	Page       int
	Limit      int
}

func (f *PayrollFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

type ApprovePayrollRequest struct {
	PayrollIDs []string `json:"payrollIds"`
	Action     Action   `json:"action"`
	ApprovedBy string   `json:"approvedBy"`
	Remarks    *string  `json:"remarks,omitempty"`
}

func (r *ApprovePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.PayrollIDs) == 0 {
		errs.Add("payrollIds", "payrollIds must not be empty")
	}
	for _, id := range r.PayrollIDs {
		if !validator.IsValidUUID(id) {
			errs.Add("payrollIds", "payrollIds must contain valid UUIDs")
			break
		}
	}
	if !r.Action.IsValid() {
		errs.Add("action", ErrInvalidAction.Error())
	}
	if r.ApprovedBy != "" && !validator.IsValidUUID(r.ApprovedBy) {
		errs.Add("approvedBy", "approvedBy must be a valid UUID")
	}

	return errs.Err()
}

type PayrollResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName *string `json:"employee_name,omitempty"`
	EmployeeCode *string `json:"employee_code,omitempty"`
	PeriodYear   int     `json:"period_year"`
	PeriodMonth  int     `json:"period_month"`
	BaseSalary   string  `json:"base_salary"`
	Allowances   string  `json:"allowances"`
	Deductions   string  `json:"deductions"`
	NetSalary    string  `json:"net_salary"`
	Status       string  `json:"status"`
	ApprovedBy   *string `json:"approved_by,omitempty"`
	ApprovedAt   *string `json:"approved_at,omitempty"`
	Remarks      *string `json:"remarks,omitempty"`
}

type ListPayrollResponse struct {
	Payrolls   []PayrollResponse `json:"payrolls"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

type ApprovePayrollResponse struct {
	Action       string   `json:"action"`
	Processed    []string `json:"processed"`
	Skipped      []string `json:"skipped"`
	SlipsCreated int64    `json:"slips_created"`
}

type SlipResponse struct {
	ID          string `json:"id"`
	PayrollID   string `json:"payroll_id"`
	SlipNumber  string `json:"slip_number"`
	PeriodYear  int    `json:"period_year"`
	PeriodMonth int    `json:"period_month"`
	NetSalary   string `json:"net_salary"`
	IssuedAt    string `json:"issued_at"`
}
