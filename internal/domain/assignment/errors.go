package assignment

import (
	"errors"
	"fmt"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
)

var (
	ErrTitleRequired       = errors.New("title is required")
	ErrSupervisorRequired  = errors.New("supervisor is required")
	ErrInvalidDeadline     = errors.New("deadline must not be before start date")
	ErrAssignmentNotFound  = fmt.Errorf("assignment not found: %w", gateway.ErrNotFound)
	ErrMemberNotFound      = fmt.Errorf("assignment member not found: %w", gateway.ErrNotFound)
	ErrMemberExists        = fmt.Errorf("employee is already a member of this assignment: %w", gateway.ErrConflict)
	ErrInvalidTransition   = fmt.Errorf("assignment status transition not allowed: %w", gateway.ErrConflict)
	ErrNotMember           = fmt.Errorf("only assignment members may do this: %w", gateway.ErrForbidden)
	ErrNotAssignmentOwner  = fmt.Errorf("only the assignment supervisor or an admin may do this: %w", gateway.ErrForbidden)
	ErrAssignmentFinalized = fmt.Errorf("approved assignments can no longer change: %w", gateway.ErrConflict)
)
