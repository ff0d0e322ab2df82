package auth

import (
	"strings"

	"github.com/bimworks/portal-backend/internal/pkg/validator"
)

// LoginRequest accepts either an email address or an employee ID (EID).
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Identifier = strings.TrimSpace(r.Identifier)
	if validator.IsEmpty(r.Identifier) {
		errs = append(errs, validator.ValidationError{
			Field:   "identifier",
			Message: "email or employee ID is required",
		})
	}
	if validator.IsEmpty(r.Password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// IsEmail reports whether the identifier should be looked up as an email.
func (r *LoginRequest) IsEmail() bool {
	return strings.Contains(r.Identifier, "@")
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshTokenRequest) Validate() error {
	if validator.IsEmpty(r.RefreshToken) {
		return validator.ValidationErrors{{
			Field:   "refresh_token",
			Message: "refresh_token is required",
		}}
	}
	return nil
}

type SessionTrackingRequest struct {
	IPAddress string
	UserAgent string
}

type SessionUser struct {
	UserID     string `json:"user_id"`
	EmployeeID string `json:"employee_id,omitempty"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

type TokenResponse struct {
	AccessToken           string      `json:"access_token"`
	AccessTokenExpiresAt  int64       `json:"access_token_expires_at"`
	RefreshToken          string      `json:"refresh_token"`
	RefreshTokenExpiresAt int64       `json:"refresh_token_expires_at"`
	User                  SessionUser `json:"user"`
}

type SessionResponse struct {
	User      SessionUser `json:"user"`
	ExpiresAt int64       `json:"expires_at"`
}
