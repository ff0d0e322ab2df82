package auth

import (
	"context"
	"time"
)

// RefreshTokenRepository stores hashed refresh tokens.
type RefreshTokenRepository interface {
	Create(ctx context.Context, userID string, token string, expiresAt int64, track SessionTrackingRequest) error

	// Rotate revokes oldToken and stores newToken in one step. It returns
	// ErrRefreshTokenRevoked if oldToken was already revoked or expired, so
	// at most one rotation succeeds per token.
	Rotate(ctx context.Context, oldToken string, newToken string, expiresAt int64, track SessionTrackingRequest) (userID string, err error)

	// Revoke revokes token and returns the owning user id.
	Revoke(ctx context.Context, token string) (userID string, err error)

	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
