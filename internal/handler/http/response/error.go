package response

import (
	"errors"
	"net/http"

	"github.com/bimworks/portal-backend/internal/domain/assignment"
	"github.com/bimworks/portal-backend/internal/domain/attendance"
	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/employee"
	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/bimworks/portal-backend/internal/domain/leave"
	"github.com/bimworks/portal-backend/internal/domain/payroll"
	"github.com/bimworks/portal-backend/internal/domain/project"
	"github.com/bimworks/portal-backend/internal/pkg/recaptcha"
	"github.com/bimworks/portal-backend/internal/pkg/validator"
)

// Domain errors that describe bad input rather than a gateway failure.
var invalidInput = []error{
	attendance.ErrCheckOutBeforeCheckIn,
	attendance.ErrNotCheckedIn,
	leave.ErrMissingEmployee,
	leave.ErrInvalidLeaveType,
	leave.ErrInvalidDateRange,
	employee.ErrSupervisorNotFound,
	employee.ErrSupervisorCycle,
	employee.ErrInvalidCVFile,
	assignment.ErrTitleRequired,
	assignment.ErrSupervisorRequired,
	assignment.ErrInvalidDeadline,
	project.ErrInvalidCoverFile,
	payroll.ErrInvalidAction,
	payroll.ErrInvalidPeriod,
	recaptcha.ErrMissingToken,
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		RequestTooLarge(w, "Request body is too large")
		return
	}

	for _, target := range invalidInput {
		if errors.Is(err, target) {
			UnprocessableEntity(w, err.Error())
			return
		}
	}

	switch {
	case errors.Is(err, attendance.ErrNetworkNotAuthorized):
		NetworkNotAuthorized(w, err.Error())
	case errors.Is(err, attendance.ErrMissingClientIP):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, auth.ErrOAuthStateMismatch):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, auth.ErrOAuthDisabled), errors.Is(err, recaptcha.ErrNotConfigured):
		ServiceUnavailable(w, err.Error())

	// Gateway taxonomy
	case errors.Is(err, gateway.ErrUnauthenticated):
		Unauthorized(w, err.Error())
	case errors.Is(err, gateway.ErrForbidden):
		Forbidden(w, err.Error())
	case errors.Is(err, gateway.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, gateway.ErrConflict):
		Conflict(w, err.Error())
	case errors.Is(err, gateway.ErrTransientNetwork):
		ServiceUnavailable(w, "Service temporarily unavailable, please retry")

	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
