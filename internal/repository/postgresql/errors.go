package postgresql

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation       = "23505"
	codeForeignKeyViolation   = "23503"
	codeInsufficientPrivilege = "42501"
	codeSerializationFailure  = "40001"
	codeDeadlockDetected      = "40P01"
	codeAdminShutdown         = "57P01"
)

// mapError classifies a driver error into the gateway taxonomy. Unknown errors
// are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", gateway.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation, pgErr.Code == codeForeignKeyViolation:
			return fmt.Errorf("%w: %s (%s)", gateway.ErrConflict, pgErr.ConstraintName, pgErr.Message)
		case pgErr.Code == codeInsufficientPrivilege:
			return fmt.Errorf("%w: %s", gateway.ErrForbidden, pgErr.Message)
		case strings.HasPrefix(pgErr.Code, "28"):
			return fmt.Errorf("%w: %s", gateway.ErrUnauthenticated, pgErr.Message)
		case strings.HasPrefix(pgErr.Code, "08"),
			pgErr.Code == codeSerializationFailure,
			pgErr.Code == codeDeadlockDetected,
			pgErr.Code == codeAdminShutdown:
			return fmt.Errorf("%w: %s", gateway.ErrTransientNetwork, pgErr.Message)
		}
		return err
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %w", gateway.ErrTransientNetwork, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", gateway.ErrTransientNetwork, err)
	}
	return err
}

// isUniqueViolation reports whether err is a unique violation on constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeUniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}

// isForeignKeyViolation reports whether err is a foreign key violation on
// constraint, or on any constraint when constraint is empty.
func isForeignKeyViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeForeignKeyViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}
