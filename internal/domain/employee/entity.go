package employee

import (
	"time"

	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Employee is linked 1:1 with an authentication principal (users.id).
type Employee struct {
	ID                string
	UserID            string
	EmployeeCode      string
	FullName          string
	Email             string
	Department        *string
	Designation       *string
	SupervisorID      *string
	Status            Status
	BankName          *string
	BankAccountNumber *string
	BaseSalary        decimal.Decimal
	CVURL             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Joined
	Role           user.Role
	SupervisorName *string
}

func (e Employee) IsActive() bool {
	return e.Status == StatusActive
}

// IsSupervisedBy reports whether supervisorID is the direct supervisor.
func (e Employee) IsSupervisedBy(supervisorID string) bool {
	return e.SupervisorID != nil && *e.SupervisorID == supervisorID
}
