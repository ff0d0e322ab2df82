package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/employee"
	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/bimworks/portal-backend/internal/pkg/jwt"
	"github.com/bimworks/portal-backend/internal/pkg/sse"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"
)

// EventPublisher delivers auth events to a user's open streams.
type EventPublisher interface {
	Publish(userID string, event sse.Event) int
}

type AuthServiceImpl struct {
	user.UserRepository
	employee.EmployeeRepository
	auth.RefreshTokenRepository
	jwt.Service
	events EventPublisher

	// refreshes collapses concurrent rotations of the same token into one.
	refreshes singleflight.Group
}

func NewAuthService(
	userRepository user.UserRepository,
	employeeRepository employee.EmployeeRepository,
	refreshTokenRepository auth.RefreshTokenRepository,
	jwtService jwt.Service,
	events EventPublisher,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		UserRepository:         userRepository,
		EmployeeRepository:     employeeRepository,
		RefreshTokenRepository: refreshTokenRepository,
		Service:                jwtService,
		events:                 events,
	}
}

// HashPassword returns the bcrypt hash stored in users.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest, track auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	userData, employeeData, err := a.lookup(ctx, req)
	if err != nil {
		return auth.TokenResponse{}, err
	}

	if userData.PasswordHash == nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*userData.PasswordHash), []byte(req.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if employeeData != nil && !employeeData.IsActive() {
		return auth.TokenResponse{}, auth.ErrAccountInactive
	}

	return a.issue(ctx, userData, employeeData, track)
}

// lookup resolves the identifier as an email or an employee ID. Unknown
// identifiers map to ErrInvalidCredentials so callers cannot probe accounts.
func (a *AuthServiceImpl) lookup(ctx context.Context, req auth.LoginRequest) (user.User, *employee.Employee, error) {
	if req.IsEmail() {
		userData, err := a.UserRepository.GetByEmail(ctx, req.Identifier)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				return user.User{}, nil, auth.ErrInvalidCredentials
			}
			return user.User{}, nil, fmt.Errorf("failed to get user by email: %w", err)
		}
		employeeData, err := a.employeeOf(ctx, userData.ID)
		return userData, employeeData, err
	}

	employeeData, err := a.EmployeeRepository.GetByEmployeeCode(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return user.User{}, nil, auth.ErrInvalidCredentials
		}
		return user.User{}, nil, fmt.Errorf("failed to get employee by code: %w", err)
	}
	userData, err := a.UserRepository.GetByID(ctx, employeeData.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, nil, auth.ErrInvalidCredentials
		}
		return user.User{}, nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return userData, &employeeData, nil
}

// employeeOf returns nil for accounts without an employee profile.
func (a *AuthServiceImpl) employeeOf(ctx context.Context, userID string) (*employee.Employee, error) {
	employeeData, err := a.EmployeeRepository.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee by user id: %w", err)
	}
	return &employeeData, nil
}

func (a *AuthServiceImpl) issue(ctx context.Context, userData user.User, employeeData *employee.Employee, track auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	var resp auth.TokenResponse
	var err error

	resp.User = sessionUser(userData, employeeData)
	resp.AccessToken, resp.AccessTokenExpiresAt, err = a.Service.GenerateAccessToken(userData.ID, userData.Email, resp.User.EmployeeID, userData.Role)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}
	resp.RefreshToken, resp.RefreshTokenExpiresAt, err = a.Service.GenerateRefreshToken(userData.ID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	if err := a.RefreshTokenRepository.Create(ctx, userData.ID, resp.RefreshToken, resp.RefreshTokenExpiresAt, track); err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to save refresh token: %w", err)
	}
	return resp, nil
}

func sessionUser(userData user.User, employeeData *employee.Employee) auth.SessionUser {
	su := auth.SessionUser{
		UserID: userData.ID,
		Email:  userData.Email,
		Role:   string(userData.Role),
	}
	if employeeData != nil {
		su.EmployeeID = employeeData.ID
	}
	return su
}

// LoginWithGoogle implements auth.AuthService. Accounts are provisioned by
// administrators, so an unknown Google email is rejected.
func (a *AuthServiceImpl) LoginWithGoogle(ctx context.Context, email string, googleID string, track auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	userData, err := a.UserRepository.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if userData.OAuthProviderID == nil || *userData.OAuthProviderID != googleID {
		userData, err = a.UserRepository.LinkGoogleAccount(ctx, googleID, email)
		if err != nil {
			return auth.TokenResponse{}, fmt.Errorf("failed to link google account: %w", err)
		}
	}

	employeeData, err := a.employeeOf(ctx, userData.ID)
	if err != nil {
		return auth.TokenResponse{}, err
	}
	if employeeData != nil && !employeeData.IsActive() {
		return auth.TokenResponse{}, auth.ErrAccountInactive
	}

	return a.issue(ctx, userData, employeeData, track)
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return auth.ErrRefreshTokenCookieNotFound
	}

	userID, err := a.RefreshTokenRepository.Revoke(ctx, refreshToken)
	if err != nil {
		return err
	}

	a.publish(ctx, userID, sse.EventSignedOut, map[string]string{"reason": "logout"})
	return nil
}

func (a *AuthServiceImpl) publish(ctx context.Context, userID, event string, data interface{}) {
	if a.events == nil {
		return
	}
	delivered := a.events.Publish(userID, sse.Event{UserID: userID, Event: event, Data: data})
	slog.DebugContext(ctx, "auth event published", "event", event, "user_id", userID, "streams", delivered)
}

// RefreshToken implements auth.AuthService.
func (a *AuthServiceImpl) RefreshToken(ctx context.Context, req auth.RefreshTokenRequest, track auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}
	if _, err := a.Service.ParseRefreshToken(req.RefreshToken); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidToken
	}

	v, err, _ := a.refreshes.Do(req.RefreshToken, func() (interface{}, error) {
		return a.rotate(ctx, req.RefreshToken, track)
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}
	return v.(auth.TokenResponse), nil
}

func (a *AuthServiceImpl) rotate(ctx context.Context, oldToken string, track auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	claimedUserID, err := a.Service.ParseRefreshToken(oldToken)
	if err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidToken
	}

	userData, err := a.UserRepository.GetByID(ctx, claimedUserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidToken
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	employeeData, err := a.employeeOf(ctx, userData.ID)
	if err != nil {
		return auth.TokenResponse{}, err
	}
	if employeeData != nil && !employeeData.IsActive() {
		return auth.TokenResponse{}, auth.ErrAccountInactive
	}

	var resp auth.TokenResponse
	resp.User = sessionUser(userData, employeeData)
	resp.RefreshToken, resp.RefreshTokenExpiresAt, err = a.Service.GenerateRefreshToken(userData.ID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	ownerID, err := a.RefreshTokenRepository.Rotate(ctx, oldToken, resp.RefreshToken, resp.RefreshTokenExpiresAt, track)
	if err != nil {
		return auth.TokenResponse{}, err
	}
	if ownerID != userData.ID {
		return auth.TokenResponse{}, auth.ErrInvalidToken
	}

	resp.AccessToken, resp.AccessTokenExpiresAt, err = a.Service.GenerateAccessToken(userData.ID, userData.Email, resp.User.EmployeeID, userData.Role)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}

	a.publish(ctx, userData.ID, sse.EventTokenRefreshed, map[string]int64{"expires_at": resp.AccessTokenExpiresAt})
	return resp, nil
}

// GetSession implements auth.AuthService. The principal is re-read so that a
// deactivated employee loses the session before the token expires.
func (a *AuthServiceImpl) GetSession(ctx context.Context, accessToken string) (auth.SessionResponse, error) {
	claims, err := a.Service.ParseAccessToken(accessToken)
	if err != nil {
		return auth.SessionResponse{}, auth.ErrInvalidToken
	}

	userData, err := a.UserRepository.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.SessionResponse{}, auth.ErrInvalidToken
		}
		return auth.SessionResponse{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	employeeData, err := a.employeeOf(ctx, userData.ID)
	if err != nil {
		return auth.SessionResponse{}, err
	}
	if employeeData != nil && !employeeData.IsActive() {
		return auth.SessionResponse{}, auth.ErrAccountInactive
	}

	return auth.SessionResponse{
		User:      sessionUser(userData, employeeData),
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

var _ auth.AuthService = (*AuthServiceImpl)(nil)
