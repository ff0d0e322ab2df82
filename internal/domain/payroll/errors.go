package payroll

import (
	"errors"
	"fmt"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
)

var (
	ErrPayrollNotFound         = fmt.Errorf("payroll record not found: %w", gateway.ErrNotFound)
	ErrPayrollAlreadyExists    = fmt.Errorf("payroll record already exists for this period: %w", gateway.ErrConflict)
	ErrPayrollAlreadyProcessed = fmt.Errorf("payroll record already processed: %w", gateway.ErrConflict)
	ErrSlipNotFound            = fmt.Errorf("salary slip not found: %w", gateway.ErrNotFound)
	ErrApproverMismatch        = fmt.Errorf("approvedBy must be the signed-in user: %w", gateway.ErrForbidden)
	ErrInvalidAction           = errors.New("action must be approve or reject")
	ErrInvalidPeriod           = errors.New("invalid payroll period")
)
