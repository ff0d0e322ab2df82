package employee

import (
	"context"
)

type EmployeeRepository interface {
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByUserID(ctx context.Context, userID string) (Employee, error)
	GetByEmployeeCode(ctx context.Context, code string) (Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, int64, error)
	Update(ctx context.Context, e Employee) (Employee, error)
	UpdateCVURL(ctx context.Context, id string, cvURL *string) error
	Delete(ctx context.Context, id string) error

	// SupervisorChain returns the ids above employeeID, nearest first.
	SupervisorChain(ctx context.Context, employeeID string) ([]string, error)
}
