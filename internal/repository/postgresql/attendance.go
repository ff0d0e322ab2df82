package postgresql

import (
	"context"
	"errors"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/attendance"
	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/bimworks/portal-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

// recordSelect is shared with the leave repository, which stores requests
// in the same table.
const recordSelect = `
	SELECT
		a.id, a.employee_id, a.date, a.status, a.check_in_time, a.check_out_time, a.total_hours,
		a.ip_address, a.manually_added,
		a.leave_type, a.leave_reason, a.leave_start_date, a.leave_end_date, a.leave_document_url,
		a.supervisor_approved, a.supervisor_approved_by, a.supervisor_approved_at,
		a.admin_approved, a.admin_approved_by, a.admin_approved_at,
		a.created_at, a.updated_at,
		e.full_name, e.employee_code
	FROM attendance_records a
	JOIN employees e ON e.id = a.employee_id
`

func scanRecord(row interface{ Scan(dest ...any) error }) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.Status, &rec.CheckInTime, &rec.CheckOutTime, &rec.TotalHours,
		&rec.IPAddress, &rec.ManuallyAdded,
		&rec.LeaveType, &rec.LeaveReason, &rec.LeaveStartDate, &rec.LeaveEndDate, &rec.LeaveDocumentURL,
		&rec.SupervisorApproved, &rec.SupervisorApprovedBy, &rec.SupervisorApprovedAt,
		&rec.AdminApproved, &rec.AdminApprovedBy, &rec.AdminApprovedAt,
		&rec.CreatedAt, &rec.UpdatedAt,
		&rec.EmployeeName, &rec.EmployeeCode,
	)
	return rec, err
}

func attendanceError(err error) error {
	if isUniqueViolation(err, "attendance_records_employee_date_key") {
		return attendance.ErrAlreadyCheckedIn
	}
	err = mapError(err)
	if errors.Is(err, gateway.ErrNotFound) {
		return attendance.ErrAttendanceNotFound
	}
	return err
}

// insertRecord writes every column of rec and returns the new id.
func insertRecord(ctx context.Context, q database.Querier, rec attendance.Record) (string, error) {
	query := `
		INSERT INTO attendance_records (
			employee_id, date, status, check_in_time, check_out_time, total_hours, ip_address, manually_added,
			leave_type, leave_reason, leave_start_date, leave_end_date, leave_document_url,
			supervisor_approved, supervisor_approved_by, supervisor_approved_at,
			admin_approved, admin_approved_by, admin_approved_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		rec.EmployeeID, rec.Date, rec.Status, rec.CheckInTime, rec.CheckOutTime, rec.TotalHours, rec.IPAddress, rec.ManuallyAdded,
		rec.LeaveType, rec.LeaveReason, rec.LeaveStartDate, rec.LeaveEndDate, rec.LeaveDocumentURL,
		rec.SupervisorApproved, rec.SupervisorApprovedBy, rec.SupervisorApprovedAt,
		rec.AdminApproved, rec.AdminApprovedBy, rec.AdminApprovedAt,
	).Scan(&id)
	return id, err
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	id, err := insertRecord(ctx, GetQuerier(ctx, r.db), record)
	if err != nil {
		return attendance.Record{}, attendanceError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	rec, err := scanRecord(q.QueryRow(ctx, recordSelect+" WHERE a.id = $1", id))
	if err != nil {
		return attendance.Record{}, attendanceError(err)
	}
	return rec, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	rec, err := scanRecord(q.QueryRow(ctx, recordSelect+" WHERE a.employee_id = $1 AND a.date = $2", employeeID, date))
	if err != nil {
		return attendance.Record{}, attendanceError(err)
	}
	return rec, nil
}

// SaveCheckOut implements attendance.AttendanceRepository. The check-out
// columns are only written while still empty.
func (r *attendanceRepositoryImpl) SaveCheckOut(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_records
		SET check_out_time = $1, total_hours = $2, updated_at = NOW()
		WHERE id = $3 AND check_in_time IS NOT NULL AND check_out_time IS NULL
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query, record.CheckOutTime, record.TotalHours, record.ID).Scan(&id)
	if err != nil {
		err = attendanceError(err)
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.Record{}, attendance.ErrAlreadyCheckedOut
		}
		return attendance.Record{}, err
	}
	return r.GetByID(ctx, id)
}

// UpsertManual implements attendance.AttendanceRepository. An admin override
// replaces the day's attendance columns and carries the admin approval stamp.
// A day held by a leave request is left untouched and reported as a conflict.
func (r *attendanceRepositoryImpl) UpsertManual(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_records (
			employee_id, date, status, check_in_time, check_out_time, total_hours, manually_added,
			admin_approved, admin_approved_by, admin_approved_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT attendance_records_employee_date_key DO UPDATE
		SET status = EXCLUDED.status,
			check_in_time = EXCLUDED.check_in_time,
			check_out_time = EXCLUDED.check_out_time,
			total_hours = EXCLUDED.total_hours,
			manually_added = TRUE,
			admin_approved = EXCLUDED.admin_approved,
			admin_approved_by = EXCLUDED.admin_approved_by,
			admin_approved_at = EXCLUDED.admin_approved_at,
			updated_at = NOW()
		WHERE attendance_records.status <> 'Leave'
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		record.EmployeeID,
		record.Date,
		record.Status,
		record.CheckInTime,
		record.CheckOutTime,
		record.TotalHours,
		record.AdminApproved,
		record.AdminApprovedBy,
		record.AdminApprovedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return attendance.Record{}, attendance.ErrDayHasLeaveRequest
	}
	if err != nil {
		return attendance.Record{}, attendanceError(err)
	}
	return r.GetByID(ctx, id)
}

// ListByDateRange implements attendance.AttendanceRepository. A leave row is
// keyed by its first day, so it also matches when its range overlaps [from, to).
func (r *attendanceRepositoryImpl) ListByDateRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := recordSelect + `
		WHERE (
			(a.date >= $1 AND a.date < $2)
			OR (a.status = 'Leave' AND a.date < $2 AND a.leave_end_date >= $1)
		)
		AND ($3 = '' OR a.employee_id::text = $3)
		ORDER BY a.date DESC, e.employee_code ASC
	`
	return collectRecords(ctx, q, query, from, to, employeeID)
}

func collectRecords(ctx context.Context, q database.Querier, query string, args ...any) ([]attendance.Record, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	records := []attendance.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, mapError(rows.Err())
}
