package employee

import (
	"strings"

	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/bimworks/portal-backend/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateEmployeeRequest struct {
	EmployeeCode      string  `json:"employee_code"`
	FullName          string  `json:"full_name"`
	Email             string  `json:"email"`
	Password          string  `json:"password"`
	Role              string  `json:"role"`
	Department        *string `json:"department,omitempty"`
	Designation       *string `json:"designation,omitempty"`
	SupervisorID      *string `json:"supervisor_id,omitempty"`
	BankName          *string `json:"bank_name,omitempty"`
	BankAccountNumber *string `json:"bank_account_number,omitempty"`
	BaseSalary        string  `json:"base_salary"`
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	r.EmployeeCode = strings.TrimSpace(r.EmployeeCode)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))

	errs.Required("employee_code", r.EmployeeCode)
	if r.EmployeeCode != "" && !validator.IsValidEmployeeCode(r.EmployeeCode) {
		errs.Add("employee_code", "employee_code may only contain letters, digits and dashes (max 20)")
	}
	errs.Required("full_name", r.FullName)
	if len(r.FullName) > 255 {
		errs.Add("full_name", "full_name must not exceed 255 characters")
	}
	errs.Required("email", r.Email)
	if r.Email != "" && !validator.IsValidEmail(r.Email) {
		errs.Add("email", "email is invalid")
	}
	if len(r.Password) < 8 {
		errs.Add("password", "password must be at least 8 characters")
	}
	if r.Role == "" {
		r.Role = string(user.RoleEmployee)
	}
	if !user.Role(r.Role).IsValid() {
		errs.Add("role", "role must be one of: admin, employee")
	}
	if r.SupervisorID != nil && !validator.IsValidUUID(*r.SupervisorID) {
		errs.Add("supervisor_id", "supervisor_id must be a valid UUID")
	}
	if r.BaseSalary == "" {
		r.BaseSalary = "0"
	}
	if salary, err := decimal.NewFromString(r.BaseSalary); err != nil || salary.IsNegative() {
		errs.Add("base_salary", "base_salary must be a non-negative number")
	}

	return errs.Err()
}

type UpdateEmployeeRequest struct {
	ID                string  `json:"-"`
	FullName          *string `json:"full_name,omitempty"`
	Role              *string `json:"role,omitempty"`
	Department        *string `json:"department,omitempty"`
	Designation       *string `json:"designation,omitempty"`
	SupervisorID      *string `json:"supervisor_id,omitempty"`
	ClearSupervisor   bool    `json:"clear_supervisor,omitempty"`
	Status            *string `json:"status,omitempty"`
	BankName          *string `json:"bank_name,omitempty"`
	BankAccountNumber *string `json:"bank_account_number,omitempty"`
	BaseSalary        *string `json:"base_salary,omitempty"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "id must be a valid UUID")
	}
	if r.FullName != nil {
		errs.Required("full_name", *r.FullName)
	}
	if r.Role != nil && !user.Role(*r.Role).IsValid() {
		errs.Add("role", "role must be one of: admin, employee")
	}
	if r.SupervisorID != nil {
		if !validator.IsValidUUID(*r.SupervisorID) {
			errs.Add("supervisor_id", "supervisor_id must be a valid UUID")
		} else if *r.SupervisorID == r.ID {
			errs.Add("supervisor_id", "an employee cannot supervise themselves")
		}
	}
	if r.Status != nil && !Status(*r.Status).IsValid() {
		errs.Add("status", "status must be one of: Active, Inactive")
	}
	if r.BaseSalary != nil {
		if salary, err := decimal.NewFromString(*r.BaseSalary); err != nil || salary.IsNegative() {
			errs.Add("base_salary", "base_salary must be a non-negative number")
		}
	}

	return errs.Err()
}

type EmployeeFilter struct {
	Search     string
	Department string
	Status     string
	Page       int
	Limit      int
}

// Normalize applies paging defaults.
func (f *EmployeeFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

type EmployeeResponse struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id"`
	EmployeeCode      string  `json:"employee_code"`
	FullName          string  `json:"full_name"`
	Email             string  `json:"email"`
	Role              string  `json:"role"`
	Department        *string `json:"department,omitempty"`
	Designation       *string `json:"designation,omitempty"`
	SupervisorID      *string `json:"supervisor_id,omitempty"`
	SupervisorName    *string `json:"supervisor_name,omitempty"`
	Status            string  `json:"status"`
	BankName          *string `json:"bank_name,omitempty"`
	BankAccountNumber *string `json:"bank_account_number,omitempty"`
	BaseSalary        string  `json:"base_salary,omitempty"`
	CVURL             *string `json:"cv_url,omitempty"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

type ListEmployeeResponse struct {
	Employees  []EmployeeResponse `json:"employees"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
}
