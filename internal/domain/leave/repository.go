package leave

import (
	"context"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/attendance"
)

// LeaveRequestRepository persists leave requests as attendance rows.
type LeaveRequestRepository interface {
	Create(ctx context.Context, record attendance.Record) (attendance.Record, error)

	// GetByID returns ErrLeaveRequestNotFound for missing or non-leave rows.
	GetByID(ctx context.Context, id string) (attendance.Record, error)

	// GetByIDForUpdate is GetByID holding a row lock until the surrounding
	// transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (attendance.Record, error)

	// ApproveSupervisor sets the supervisor flag if it is not set yet.
	// Returns ErrLeaveRequestAlreadyProcessed when no row was changed.
	ApproveSupervisor(ctx context.Context, id string, approverID string, at time.Time) (attendance.Record, error)

	// ApproveAdmin sets the admin flag only when the supervisor flag is
	// already set and the admin flag is not.
	ApproveAdmin(ctx context.Context, id string, approverID string, at time.Time) (attendance.Record, error)

	// Delete removes the leave row and returns what was removed.
	Delete(ctx context.Context, id string) (attendance.Record, error)

	ListByEmployee(ctx context.Context, employeeID string) ([]attendance.Record, error)
	ListPendingSupervisor(ctx context.Context, supervisorID string) ([]attendance.Record, error)
	ListPendingAdmin(ctx context.Context) ([]attendance.Record, error)
}

type RejectionRepository interface {
	Create(ctx context.Context, rejection Rejection) (Rejection, error)
	GetByRequestID(ctx context.Context, requestID string) (Rejection, error)
	List(ctx context.Context, employeeID string) ([]Rejection, error)
}

type LeaveBalanceRepository interface {
	Create(ctx context.Context, balance Balance) (Balance, error)
	Get(ctx context.Context, employeeID string, year int) (Balance, error)
}
