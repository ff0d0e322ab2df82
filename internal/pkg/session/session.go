// Package session keeps a client's portal session alive: it refreshes tokens
// ahead of expiry, reacts to server sign-out events and decides whether a
// protected view may be shown.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
)

type State int

const (
	StateAnonymous State = iota
	StateAuthenticated
	StateExpiring
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	case StateExpiring:
		return "expiring"
	case StateExpired:
		return "expired"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// AuthEvent is pushed by the server over the event stream.
type AuthEvent string

const (
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

var (
	ErrNotSignedIn = fmt.Errorf("not signed in: %w", gateway.ErrUnauthenticated)
	ErrExpired     = fmt.Errorf("session expired: %w", gateway.ErrUnauthenticated)
)

type User struct {
	UserID     string
	EmployeeID string
	Email      string
	Role       string
}

// Session is held in memory only.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// Authenticator is the remote auth boundary.
type Authenticator interface {
	SignIn(ctx context.Context, identifier, password string) (Session, error)
	SignOut(ctx context.Context, refreshToken string) error
	// GetSession validates accessToken with the server.
	GetSession(ctx context.Context, accessToken string) (User, time.Time, error)
	RefreshSession(ctx context.Context, refreshToken string) (Session, error)
}

// Navigator moves the user away from protected views.
type Navigator interface {
	RedirectToLogin(reason string)
}

// Notifier shows a one-line notice to the user.
type Notifier interface {
	Notify(message string)
}

type Config struct {
	CheckInterval    time.Duration
	RefreshThreshold time.Duration
	ActivityDebounce time.Duration
}

func DefaultConfig() Config {
	return Config{
		CheckInterval:    4 * time.Minute,
		RefreshThreshold: 5 * time.Minute,
		ActivityDebounce: 30 * time.Second,
	}
}
