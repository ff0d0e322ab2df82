package attendance

import (
	"context"
	"io"

	"github.com/bimworks/portal-backend/internal/domain/auth"
)

type AttendanceService interface {
	// CheckIn records today's arrival from an active whitelisted address.
	CheckIn(ctx context.Context, actor auth.Principal, req CheckInRequest) (AttendanceResponse, error)

	// CheckOut closes the caller's record and persists worked hours.
	CheckOut(ctx context.Context, actor auth.Principal, recordID string) (AttendanceResponse, error)

	// ManualEntry creates or corrects a record as an admin override.
	ManualEntry(ctx context.Context, actor auth.Principal, req ManualEntryRequest) (AttendanceResponse, error)

	// ListForMonth lists one employee's (or everyone's) records with counts.
	ListForMonth(ctx context.Context, actor auth.Principal, filter MonthFilter) (MonthlyAttendanceResponse, error)

	GetToday(ctx context.Context, actor auth.Principal) (*AttendanceResponse, error)

	// ExportMonth writes the month as an xlsx workbook.
	ExportMonth(ctx context.Context, actor auth.Principal, filter MonthFilter, w io.Writer) error
}
