package postgresql

import (
	"context"
	"errors"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/attendance"
	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/bimworks/portal-backend/internal/domain/leave"
	"github.com/bimworks/portal-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

func leaveError(err error) error {
	if isUniqueViolation(err, "attendance_records_employee_date_key") {
		return leave.ErrLeaveAlreadyExists
	}
	err = mapError(err)
	if errors.Is(err, gateway.ErrNotFound) {
		return leave.ErrLeaveRequestNotFound
	}
	return err
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	id, err := insertRecord(ctx, GetQuerier(ctx, r.db), record)
	if err != nil {
		return attendance.Record{}, leaveError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	rec, err := scanRecord(q.QueryRow(ctx, recordSelect+" WHERE a.id = $1 AND a.status = 'Leave' AND a.leave_type IS NOT NULL", id))
	if err != nil {
		return attendance.Record{}, leaveError(err)
	}
	return rec, nil
}

// GetByIDForUpdate implements leave.LeaveRequestRepository. It must run
// inside a transaction for the lock to outlive the call.
func (r *leaveRequestRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := recordSelect + " WHERE a.id = $1 AND a.status = 'Leave' AND a.leave_type IS NOT NULL FOR UPDATE OF a"
	rec, err := scanRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		return attendance.Record{}, leaveError(err)
	}
	return rec, nil
}

// ApproveSupervisor implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ApproveSupervisor(ctx context.Context, id string, approverID string, at time.Time) (attendance.Record, error) {
	query := `
		UPDATE attendance_records
		SET supervisor_approved = TRUE, supervisor_approved_by = $1, supervisor_approved_at = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'Leave' AND leave_type IS NOT NULL AND NOT supervisor_approved
		RETURNING id
	`
	return r.approve(ctx, query, id, approverID, at)
}

// ApproveAdmin implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ApproveAdmin(ctx context.Context, id string, approverID string, at time.Time) (attendance.Record, error) {
	query := `
		UPDATE attendance_records
		SET admin_approved = TRUE, admin_approved_by = $1, admin_approved_at = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'Leave' AND leave_type IS NOT NULL AND supervisor_approved AND NOT admin_approved
		RETURNING id
	`
	return r.approve(ctx, query, id, approverID, at)
}

// approve runs a conditional flag UPDATE. When nothing changed, the current
// row decides which error the caller sees.
func (r *leaveRequestRepositoryImpl) approve(ctx context.Context, query string, id string, approverID string, at time.Time) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	var updatedID string
	err := q.QueryRow(ctx, query, approverID, at, id).Scan(&updatedID)
	if err == nil {
		return r.GetByID(ctx, updatedID)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return attendance.Record{}, leaveError(err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return attendance.Record{}, err
	}
	if !current.SupervisorApproved {
		return attendance.Record{}, leave.ErrSupervisorApprovalRequired
	}
	return attendance.Record{}, leave.ErrLeaveRequestAlreadyProcessed
}

// Delete implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Delete(ctx context.Context, id string) (attendance.Record, error) {
	removed, err := r.GetByID(ctx, id)
	if err != nil {
		return attendance.Record{}, err
	}

	q := GetQuerier(ctx, r.db)
	tag, err := q.Exec(ctx, `DELETE FROM attendance_records WHERE id = $1 AND status = 'Leave' AND leave_type IS NOT NULL`, id)
	if err != nil {
		return attendance.Record{}, leaveError(err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.Record{}, leave.ErrLeaveRequestNotFound
	}
	return removed, nil
}

// ListByEmployee implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]attendance.Record, error) {
	query := recordSelect + `
		WHERE a.status = 'Leave' AND a.leave_type IS NOT NULL AND a.employee_id = $1
		ORDER BY a.date DESC
	`
	return collectRecords(ctx, GetQuerier(ctx, r.db), query, employeeID)
}

// ListPendingSupervisor implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListPendingSupervisor(ctx context.Context, supervisorID string) ([]attendance.Record, error) {
	query := recordSelect + `
		WHERE a.status = 'Leave' AND a.leave_type IS NOT NULL AND NOT a.supervisor_approved AND e.supervisor_id = $1
		ORDER BY a.created_at ASC
	`
	return collectRecords(ctx, GetQuerier(ctx, r.db), query, supervisorID)
}

// ListPendingAdmin implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListPendingAdmin(ctx context.Context) ([]attendance.Record, error) {
	query := recordSelect + `
		WHERE a.status = 'Leave' AND a.leave_type IS NOT NULL AND a.supervisor_approved AND NOT a.admin_approved
		ORDER BY a.supervisor_approved_at ASC
	`
	return collectRecords(ctx, GetQuerier(ctx, r.db), query)
}
