package attendance

import (
	"errors"
	"fmt"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
)

var (
	ErrNetworkNotAuthorized  = errors.New("check-in is only allowed from an authorized office network")
	ErrMissingClientIP       = errors.New("client network address could not be determined")
	ErrAlreadyCheckedIn      = fmt.Errorf("you have already checked in today: %w", gateway.ErrConflict)
	ErrNotCheckedIn          = errors.New("you have not checked in yet")
	ErrAlreadyCheckedOut     = fmt.Errorf("you have already checked out: %w", gateway.ErrConflict)
	ErrCheckOutBeforeCheckIn = errors.New("check-out time is before check-in time")
	ErrAttendanceNotFound    = fmt.Errorf("attendance record not found: %w", gateway.ErrNotFound)
	ErrNotRecordOwner        = fmt.Errorf("attendance record belongs to another employee: %w", gateway.ErrForbidden)
	ErrDayHasLeaveRequest    = fmt.Errorf("a leave request already covers this day: %w", gateway.ErrConflict)
)
