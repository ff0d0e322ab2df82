package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_AllowsValidSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.m.SignIn(context.Background(), "ana", "pw"))
	f.auth.getSessionFn = func(ctx context.Context, accessToken string) (User, time.Time, error) {
		assert.Equal(t, "access-0", accessToken)
		return User{UserID: "u-1", Role: "admin"}, f.clock.Now().Add(20 * time.Minute), nil
	}

	decision, err := NewGuard(f.m).Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)
	assert.True(t, f.m.Ready())

	sess, _ := f.m.Session()
	assert.Equal(t, "admin", sess.User.Role)
}

func TestGuard_RefreshesOnceWhenRejected(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.m.SignIn(context.Background(), "ana", "pw"))
	f.auth.getSessionFn = func(ctx context.Context, accessToken string) (User, time.Time, error) {
		return User{}, time.Time{}, gateway.ErrUnauthenticated
	}
	refreshes := 0
	f.auth.refreshFn = func(ctx context.Context, refreshToken string) (Session, error) {
		refreshes++
		return sessionExpiringAt(1, f.clock.Now().Add(30*time.Minute)), nil
	}

	decision, err := NewGuard(f.m).Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)
	assert.Equal(t, 1, refreshes)
}

func TestGuard_RedirectsWhenRefreshFails(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.m.SignIn(context.Background(), "ana", "pw"))
	f.auth.getSessionFn = func(ctx context.Context, accessToken string) (User, time.Time, error) {
		return User{}, time.Time{}, gateway.ErrUnauthenticated
	}
	f.auth.refreshFn = func(ctx context.Context, refreshToken string) (Session, error) {
		return Session{}, fmt.Errorf("revoked: %w", gateway.ErrUnauthenticated)
	}

	decision, err := NewGuard(f.m).Check(context.Background())
	assert.Error(t, err)
	assert.Equal(t, RedirectToLogin, decision)
	assert.Equal(t, StateExpired, f.m.State())
	redirects, notices := f.rec.counts()
	assert.Equal(t, 1, redirects)
	assert.Equal(t, 1, notices)
	assert.True(t, f.m.Ready())
}

func TestGuard_AnonymousRedirectsWithoutNotice(t *testing.T) {
	f := newFixture(t)

	decision, err := NewGuard(f.m).Check(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Equal(t, RedirectToLogin, decision)
	redirects, notices := f.rec.counts()
	assert.Equal(t, 1, redirects)
	assert.Zero(t, notices)
}

func TestGuard_ServerUnreachableKeepsValidSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.m.SignIn(context.Background(), "ana", "pw"))
	f.auth.getSessionFn = func(ctx context.Context, accessToken string) (User, time.Time, error) {
		return User{}, time.Time{}, gateway.ErrTransientNetwork
	}
	f.auth.refreshFn = func(ctx context.Context, refreshToken string) (Session, error) {
		return Session{}, gateway.ErrTransientNetwork
	}

	decision, err := NewGuard(f.m).Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)
	assert.Equal(t, StateExpiring, f.m.State())
}
