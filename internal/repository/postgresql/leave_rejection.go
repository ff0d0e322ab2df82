package postgresql

import (
	"context"
	"errors"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/bimworks/portal-backend/internal/domain/leave"
	"github.com/bimworks/portal-backend/internal/pkg/database"
)

type rejectionRepositoryImpl struct {
	db *database.DB
}

func NewRejectionRepository(db *database.DB) leave.RejectionRepository {
	return &rejectionRepositoryImpl{db: db}
}

const rejectionSelect = `
	SELECT
		r.id, r.request_id, r.employee_id, r.leave_type, r.start_date, r.end_date,
		r.stage, r.reason, r.rejected_by, r.rejected_at,
		e.full_name
	FROM leave_rejections r
	JOIN employees e ON e.id = r.employee_id
`

func scanRejection(row interface{ Scan(dest ...any) error }) (leave.Rejection, error) {
	var rej leave.Rejection
	err := row.Scan(
		&rej.ID, &rej.RequestID, &rej.EmployeeID, &rej.Type, &rej.StartDate, &rej.EndDate,
		&rej.Stage, &rej.Reason, &rej.RejectedBy, &rej.RejectedAt,
		&rej.EmployeeName,
	)
	return rej, err
}

func (r *rejectionRepositoryImpl) Create(ctx context.Context, rejection leave.Rejection) (leave.Rejection, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_rejections (
			request_id, employee_id, leave_type, start_date, end_date, stage, reason, rejected_by, rejected_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		rejection.RequestID,
		rejection.EmployeeID,
		rejection.Type,
		rejection.StartDate,
		rejection.EndDate,
		rejection.Stage,
		rejection.Reason,
		rejection.RejectedBy,
		rejection.RejectedAt,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "leave_rejections_request_id_key") {
			return leave.Rejection{}, leave.ErrLeaveRequestAlreadyProcessed
		}
		return leave.Rejection{}, mapError(err)
	}

	return r.getOne(ctx, "r.id = $1", id)
}

func (r *rejectionRepositoryImpl) GetByRequestID(ctx context.Context, requestID string) (leave.Rejection, error) {
	return r.getOne(ctx, "r.request_id = $1", requestID)
}

func (r *rejectionRepositoryImpl) getOne(ctx context.Context, where string, arg any) (leave.Rejection, error) {
	q := GetQuerier(ctx, r.db)

	rej, err := scanRejection(q.QueryRow(ctx, rejectionSelect+" WHERE "+where, arg))
	if err != nil {
		err = mapError(err)
		if errors.Is(err, gateway.ErrNotFound) {
			return leave.Rejection{}, leave.ErrLeaveRequestNotFound
		}
		return leave.Rejection{}, err
	}
	return rej, nil
}

// List returns rejections newest first. An empty employeeID lists all.
func (r *rejectionRepositoryImpl) List(ctx context.Context, employeeID string) ([]leave.Rejection, error) {
	q := GetQuerier(ctx, r.db)

	query := rejectionSelect + `
		WHERE ($1 = '' OR r.employee_id::text = $1)
		ORDER BY r.rejected_at DESC
	`
	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	rejections := []leave.Rejection{}
	for rows.Next() {
		rej, err := scanRejection(rows)
		if err != nil {
			return nil, err
		}
		rejections = append(rejections, rej)
	}
	return rejections, mapError(rows.Err())
}
