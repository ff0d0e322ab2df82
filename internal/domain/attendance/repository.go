package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// Create inserts a record. A duplicate (employee_id, date) fails with
	// gateway.ErrConflict.
	Create(ctx context.Context, record Record) (Record, error)

	GetByID(ctx context.Context, id string) (Record, error)
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (Record, error)

	// SaveCheckOut persists check-out time and total hours if the record has
	// not been checked out yet.
	SaveCheckOut(ctx context.Context, record Record) (Record, error)

	// UpsertManual inserts or overwrites the row for (employee_id, date).
	// Returns ErrDayHasLeaveRequest when that row is a leave request.
	UpsertManual(ctx context.Context, record Record) (Record, error)

	// ListByDateRange returns records in [from, to) ordered by date
	// descending, plus leave rows whose range overlaps it. An empty
	// employeeID lists every employee.
	ListByDateRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)
}
