package user

import (
	"fmt"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
)

var (
	ErrUserNotFound            = fmt.Errorf("user not found: %w", gateway.ErrNotFound)
	ErrUserEmailExists         = fmt.Errorf("email already registered: %w", gateway.ErrConflict)
	ErrAdminAccessRequired     = fmt.Errorf("admin access required: %w", gateway.ErrForbidden)
	ErrInsufficientPermissions = fmt.Errorf("insufficient permissions: %w", gateway.ErrForbidden)
)
