package payroll

import (
	"context"
	"time"
)

type PayrollRepository interface {
	Create(ctx context.Context, p Payroll) (Payroll, error)
	GetByID(ctx context.Context, id string) (Payroll, error)
	List(ctx context.Context, filter PayrollFilter) ([]Payroll, int64, error)

	// Decide moves the given pending records to status and returns the ones
	// actually changed. Records no longer pending are skipped.
	Decide(ctx context.Context, ids []string, status Status, approvedBy string, remarks *string, at time.Time) ([]Payroll, error)
}

type SalarySlipRepository interface {
	// CreateIfAbsent inserts slips, ignoring numbers that already exist.
	CreateIfAbsent(ctx context.Context, slips []SalarySlip) (int64, error)
	GetByID(ctx context.Context, id string) (SalarySlip, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]SalarySlip, error)
}
