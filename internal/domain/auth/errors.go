package auth

import (
	"errors"
	"fmt"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
)

var (
	ErrInvalidCredentials         = fmt.Errorf("invalid email, employee ID or password: %w", gateway.ErrUnauthenticated)
	ErrInvalidToken               = fmt.Errorf("invalid or expired token: %w", gateway.ErrUnauthenticated)
	ErrRefreshTokenRevoked        = fmt.Errorf("refresh token has been revoked: %w", gateway.ErrUnauthenticated)
	ErrRefreshTokenCookieNotFound = fmt.Errorf("refresh token not provided: %w", gateway.ErrUnauthenticated)
	ErrAccountInactive            = fmt.Errorf("employee account is inactive: %w", gateway.ErrForbidden)
	ErrNoEmployeeProfile          = fmt.Errorf("account has no employee profile: %w", gateway.ErrForbidden)
	ErrMissingPrincipal           = fmt.Errorf("no authenticated principal in request: %w", gateway.ErrUnauthenticated)
	ErrOAuthStateMismatch         = errors.New("oauth state mismatch")
	ErrOAuthDisabled              = errors.New("google sign-in is not configured")
)
