package jwt

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	RefreshCookieName = "refresh_token"
)

var ErrWrongTokenType = errors.New("unexpected token type")

// AccessClaims is the identity carried by an access token.
type AccessClaims struct {
	UserID     string
	Email      string
	EmployeeID string
	Role       user.Role
	ExpiresAt  int64
}

type Service interface {
	GenerateAccessToken(userID string, email string, employeeID string, role user.Role) (token string, expiresAt int64, err error)
	GenerateRefreshToken(userID string) (token string, expiresAt int64, err error)

	// ParseAccessToken verifies signature, expiry and type.
	ParseAccessToken(token string) (AccessClaims, error)
	// ParseRefreshToken verifies a refresh token and returns its subject.
	ParseRefreshToken(token string) (userID string, err error)

	JWTAuth() *jwtauth.JWTAuth
	RefreshTokenCookie(token string, expiresAt int64) *http.Cookie
	ClearRefreshTokenCookie() *http.Cookie
}

type JWTService struct {
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	secureCookies   bool
	tokenAuth       *jwtauth.JWTAuth
	now             func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// NewJWTService builds an HS256 issuer. Expirations are Go durations such as
// "30m" or "168h".
func NewJWTService(secretKey string, accessExpiration string, refreshExpiration string, secureCookies bool) (*JWTService, error) {
	accessTTL, err := time.ParseDuration(accessExpiration)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := time.ParseDuration(refreshExpiration)
	if err != nil {
		return nil, err
	}
	return &JWTService{
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		secureCookies:   secureCookies,
		tokenAuth:       jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:             time.Now,
	}, nil
}

func (j *JWTService) GenerateAccessToken(userID string, email string, employeeID string, role user.Role) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenTTL).Unix()

	claims := map[string]interface{}{
		"user_id": userID,
		"email":   email,
		"role":    string(role),
		"type":    TokenTypeAccess,
		"exp":     expiresAt,
	}
	if employeeID != "" {
		claims["employee_id"] = employeeID
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// GenerateRefreshToken issues a token with a random jti so two tokens minted
// in the same second never hash alike.
func (j *JWTService) GenerateRefreshToken(userID string) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.refreshTokenTTL).Unix()
	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"jti":     uuid.NewString(),
		"exp":     expiresAt,
		"type":    TokenTypeRefresh,
	})
	return tokenString, expiresAt, err
}

func (j *JWTService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	claims, err := j.decode(tokenString, TokenTypeAccess)
	if err != nil {
		return AccessClaims{}, err
	}
	userID, _ := claims["user_id"].(string)
	email, _ := claims["email"].(string)
	employeeID, _ := claims["employee_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || !user.Role(role).IsValid() {
		return AccessClaims{}, jwt.ErrInvalidJWT()
	}

	out := AccessClaims{UserID: userID, Email: email, EmployeeID: employeeID, Role: user.Role(role)}
	if exp, ok := claims["exp"].(time.Time); ok {
		out.ExpiresAt = exp.Unix()
	}
	return out, nil
}

func (j *JWTService) ParseRefreshToken(tokenString string) (string, error) {
	claims, err := j.decode(tokenString, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", jwt.ErrInvalidJWT()
	}
	return userID, nil
}

func (j *JWTService) decode(tokenString, wantType string) (map[string]interface{}, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return nil, err
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return nil, err
	}
	if tokenType, _ := claims["type"].(string); tokenType != wantType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func (j *JWTService) RefreshTokenCookie(token string, expiresAt int64) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/api/v1/auth",
		Expires:  time.Unix(expiresAt, 0),
		HttpOnly: true,
		Secure:   j.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}

func (j *JWTService) ClearRefreshTokenCookie() *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/api/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}
