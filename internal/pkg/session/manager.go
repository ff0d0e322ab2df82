package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"golang.org/x/sync/singleflight"
)

const (
	refreshKey    = "refresh"
	expiredNotice = "Your session has expired. Please sign in again."
)

type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager owns one client's session. All methods are safe for concurrent use.
type Manager struct {
	auth     Authenticator
	nav      Navigator
	notifier Notifier
	cfg      Config
	now      func() time.Time

	inflight singleflight.Group

	mu           sync.Mutex
	state        State
	session      *Session
	notified     bool
	ready        bool
	lastActivity time.Time
}

func NewManager(auth Authenticator, nav Navigator, notifier Notifier, cfg Config, opts ...Option) *Manager {
	m := &Manager{
		auth:     auth,
		nav:      nav,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		state:    StateAnonymous,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns a copy of the current session.
func (m *Manager) Session() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// AccessToken returns the bearer token for API calls.
func (m *Manager) AccessToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.session == nil && m.state == StateExpired:
		return "", ErrExpired
	case m.session == nil:
		return "", ErrNotSignedIn
	}
	return m.session.AccessToken, nil
}

func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// MarkReady enables periodic and activity checks. The guard calls it after
// its first decision.
func (m *Manager) MarkReady() {
	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()
}

func (m *Manager) SignIn(ctx context.Context, identifier, password string) error {
	sess, err := m.auth.SignIn(ctx, identifier, password)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.session = &sess
	m.state = StateAuthenticated
	m.notified = false
	m.mu.Unlock()

	slog.Info("Session signed in", "user_id", sess.User.UserID, "expires_at", sess.ExpiresAt)
	return nil
}

// SignOut revokes the refresh token remotely and forgets the session.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	sess := m.session
	m.clearLocked()
	m.mu.Unlock()

	if sess == nil {
		return nil
	}
	return m.auth.SignOut(ctx, sess.RefreshToken)
}

// HandleAuthEvent applies a server-pushed auth event.
func (m *Manager) HandleAuthEvent(event AuthEvent) {
	switch event {
	case EventSignedOut:
		m.mu.Lock()
		m.clearLocked()
		m.mu.Unlock()
		m.inflight.Forget(refreshKey)

		slog.Info("Session signed out by server")
		m.nav.RedirectToLogin("signed out")
	case EventTokenRefreshed:
		// Another session of the same user rotated its own token; ours is unaffected.
		slog.Debug("Token refreshed by another session")
	default:
		slog.Debug("Ignoring auth event", "event", string(event))
	}
}

// clearLocked drops tokens and cached identity and resets the notice guard.
func (m *Manager) clearLocked() {
	m.session = nil
	m.state = StateAnonymous
	m.notified = false
}

// Check is the periodic entry point. It does nothing until MarkReady.
func (m *Manager) Check(ctx context.Context) error {
	if !m.Ready() {
		return nil
	}
	return m.RefreshIfNeeded(ctx)
}

// NotifyActivity runs a check on user activity, at most once per
// ActivityDebounce.
func (m *Manager) NotifyActivity(ctx context.Context) error {
	m.mu.Lock()
	if !m.ready {
		m.mu.Unlock()
		return nil
	}
	now := m.now()
	if !m.lastActivity.IsZero() && now.Sub(m.lastActivity) < m.cfg.ActivityDebounce {
		m.mu.Unlock()
		return nil
	}
	m.lastActivity = now
	m.mu.Unlock()

	return m.RefreshIfNeeded(ctx)
}

// RefreshIfNeeded rotates tokens when expiry is within RefreshThreshold.
// Concurrent callers share one in-flight refresh.
func (m *Manager) RefreshIfNeeded(ctx context.Context) error {
	m.mu.Lock()
	if m.session == nil || (m.state != StateAuthenticated && m.state != StateExpiring) {
		m.mu.Unlock()
		return nil
	}
	if m.session.ExpiresAt.Sub(m.now()) > m.cfg.RefreshThreshold {
		m.mu.Unlock()
		return nil
	}
	m.state = StateExpiring
	observed := m.session.RefreshToken
	m.mu.Unlock()

	return m.refresh(ctx, observed)
}

// refresh rotates observed. A caller that lost the race to another rotation
// finds a different token in place and returns without calling the server.
func (m *Manager) refresh(ctx context.Context, observed string) error {
	_, err, _ := m.inflight.Do(refreshKey, func() (interface{}, error) {
		m.mu.Lock()
		sess := m.session
		m.mu.Unlock()
		if sess == nil {
			return nil, ErrNotSignedIn
		}
		if sess.RefreshToken != observed {
			return nil, nil
		}

		fresh, err := m.auth.RefreshSession(ctx, sess.RefreshToken)

		m.mu.Lock()
		if m.session == nil || m.session.RefreshToken != sess.RefreshToken {
			// Signed out or replaced while the call was in flight.
			m.mu.Unlock()
			return nil, ErrNotSignedIn
		}
		if err == nil {
			m.session = &fresh
			m.state = StateAuthenticated
			m.mu.Unlock()
			slog.Debug("Session refreshed", "expires_at", fresh.ExpiresAt)
			return nil, nil
		}
		if gateway.IsRetryable(err) && m.now().Before(sess.ExpiresAt) {
			m.state = StateExpiring
			m.mu.Unlock()
			slog.Warn("Session refresh failed, will retry", "error", err)
			return nil, err
		}
		m.mu.Unlock()

		slog.Info("Session refresh failed, expiring", "error", err)
		m.expire()
		return nil, err
	})
	return err
}

// expire drops the tokens, shows the notice once and redirects.
func (m *Manager) expire() {
	m.mu.Lock()
	m.session = nil
	m.state = StateExpired
	notify := !m.notified
	m.notified = true
	m.mu.Unlock()

	if notify {
		m.notifier.Notify(expiredNotice)
	}
	m.nav.RedirectToLogin("session expired")
}

// Run checks the session every CheckInterval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Check(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Session check failed", "error", err)
			}
		}
	}
}
