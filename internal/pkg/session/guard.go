package session

import (
	"context"
	"log/slog"
)

type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "redirect_to_login"
}

// Guard decides whether a protected view may be shown.
type Guard struct {
	m *Manager
}

func NewGuard(m *Manager) *Guard {
	return &Guard{m: m}
}

// Check validates the session with the server, attempting one refresh when
// it is rejected. The first call marks the manager ready.
func (g *Guard) Check(ctx context.Context) (Decision, error) {
	defer g.m.MarkReady()

	g.m.mu.Lock()
	sess := g.m.session
	state := g.m.state
	g.m.mu.Unlock()

	if sess == nil {
		if state == StateExpired {
			g.m.expire()
			return RedirectToLogin, ErrExpired
		}
		g.m.nav.RedirectToLogin("sign in required")
		return RedirectToLogin, ErrNotSignedIn
	}

	user, expiresAt, err := g.m.auth.GetSession(ctx, sess.AccessToken)
	if err == nil {
		g.m.mu.Lock()
		if g.m.session != nil && g.m.session.AccessToken == sess.AccessToken {
			g.m.session.User = user
			g.m.session.ExpiresAt = expiresAt
		}
		g.m.mu.Unlock()
		return Allow, nil
	}

	slog.Debug("Guard session check failed, refreshing", "error", err)
	if err := g.m.refresh(ctx, sess.RefreshToken); err != nil {
		switch g.m.State() {
		case StateExpiring:
			// Server unreachable but the token has not run out yet.
			slog.Warn("Guard could not reach the server, allowing cached session", "error", err)
			return Allow, nil
		case StateExpired:
		default:
			g.m.nav.RedirectToLogin("sign in required")
		}
		return RedirectToLogin, err
	}
	return Allow, nil
}
