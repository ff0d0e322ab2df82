package auth

import (
	"context"
)

type AuthService interface {
	// Login signs a user in by email or EID.
	Login(ctx context.Context, req LoginRequest, track SessionTrackingRequest) (TokenResponse, error)

	// LoginWithGoogle signs in an existing account whose email matches the
	// verified Google identity.
	LoginWithGoogle(ctx context.Context, email string, googleID string, track SessionTrackingRequest) (TokenResponse, error)

	// Logout revokes the refresh token and notifies the user's live sessions.
	Logout(ctx context.Context, refreshToken string) error

	// RefreshToken rotates the refresh token and issues a new access token.
	RefreshToken(ctx context.Context, req RefreshTokenRequest, track SessionTrackingRequest) (TokenResponse, error)

	// GetSession validates an access token and describes its principal.
	GetSession(ctx context.Context, accessToken string) (SessionResponse, error)
}
