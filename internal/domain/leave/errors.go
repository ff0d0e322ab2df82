package leave

import (
	"errors"
	"fmt"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
)

var (
	ErrMissingEmployee              = errors.New("employee is required")
	ErrInvalidLeaveType             = errors.New("leave type must be one of: annual, sick, casual, unpaid")
	ErrInvalidDateRange             = errors.New("end date must not be before start date")
	ErrLeaveRequestNotFound         = fmt.Errorf("leave request not found: %w", gateway.ErrNotFound)
	ErrNotALeaveRequest             = fmt.Errorf("record is not a leave request: %w", gateway.ErrNotFound)
	ErrLeaveAlreadyExists           = fmt.Errorf("an attendance or leave record already exists for the start date: %w", gateway.ErrConflict)
	ErrSupervisorApprovalRequired   = fmt.Errorf("supervisor approval is required before admin approval: %w", gateway.ErrConflict)
	ErrLeaveRequestAlreadyProcessed = fmt.Errorf("leave request already processed at this stage: %w", gateway.ErrConflict)
	ErrNotSupervisor                = fmt.Errorf("only the employee's supervisor or an admin may approve: %w", gateway.ErrForbidden)
	ErrSelfApproval                 = fmt.Errorf("you cannot approve or reject your own leave request: %w", gateway.ErrForbidden)
	ErrBalanceNotFound              = fmt.Errorf("leave balance not found: %w", gateway.ErrNotFound)
)
