package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeAuth struct {
	signInFn     func(ctx context.Context, identifier, password string) (Session, error)
	signOutFn    func(ctx context.Context, refreshToken string) error
	getSessionFn func(ctx context.Context, accessToken string) (User, time.Time, error)
	refreshFn    func(ctx context.Context, refreshToken string) (Session, error)
}

func (f *fakeAuth) SignIn(ctx context.Context, identifier, password string) (Session, error) {
	return f.signInFn(ctx, identifier, password)
}

func (f *fakeAuth) SignOut(ctx context.Context, refreshToken string) error {
	if f.signOutFn == nil {
		return nil
	}
	return f.signOutFn(ctx, refreshToken)
}

func (f *fakeAuth) GetSession(ctx context.Context, accessToken string) (User, time.Time, error) {
	return f.getSessionFn(ctx, accessToken)
}

func (f *fakeAuth) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	return f.refreshFn(ctx, refreshToken)
}

type recorder struct {
	mu        sync.Mutex
	redirects []string
	notices   []string
}

func (r *recorder) RedirectToLogin(reason string) {
	r.mu.Lock()
	r.redirects = append(r.redirects, reason)
	r.mu.Unlock()
}

func (r *recorder) Notify(message string) {
	r.mu.Lock()
	r.notices = append(r.notices, message)
	r.mu.Unlock()
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.redirects), len(r.notices)
}

var start = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

func sessionExpiringAt(n int, exp time.Time) Session {
	return Session{
		AccessToken:  fmt.Sprintf("access-%d", n),
		RefreshToken: fmt.Sprintf("refresh-%d", n),
		ExpiresAt:    exp,
		User:         User{UserID: "u-1", EmployeeID: "e-1", Role: "employee"},
	}
}

type fixture struct {
	m     *Manager
	auth  *fakeAuth
	rec   *recorder
	clock *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: start}
	auth := &fakeAuth{
		signInFn: func(ctx context.Context, identifier, password string) (Session, error) {
			return sessionExpiringAt(0, clock.Now().Add(30*time.Minute)), nil
		},
	}
	rec := &recorder{}
	m := NewManager(auth, rec, rec, DefaultConfig(), WithClock(clock.Now))
	return &fixture{m: m, auth: auth, rec: rec, clock: clock}
}

func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, f.m.SignIn(context.Background(), "ana@bim.test", "password"))
	f.m.MarkReady()
}

func TestSignIn_KeepsTokensInMemory(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, StateAnonymous, f.m.State())
	_, err := f.m.AccessToken()
	assert.ErrorIs(t, err, ErrNotSignedIn)

	f.signIn(t)

	assert.Equal(t, StateAuthenticated, f.m.State())
	token, err := f.m.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, "access-0", token)
}

func TestRefreshIfNeeded_SkipsFreshSession(t *testing.T) {
	f := newFixture(t)
	f.auth.refreshFn = func(ctx context.Context, refreshToken string) (Session, error) {
		t.Fatal("refresh must not be called")
		return Session{}, nil
	}
	f.signIn(t)

	require.NoError(t, f.m.RefreshIfNeeded(context.Background()))
	assert.Equal(t, StateAuthenticated, f.m.State())
}

func TestRefreshIfNeeded_RotatesNearExpiry(t *testing.T) {
	f := newFixture(t)
	f.auth.refreshFn = func(ctx context.Context, refreshToken string) (Session, error) {
		assert.Equal(t, "refresh-0", refreshToken)
		return sessionExpiringAt(1, f.clock.Now().Add(30*time.Minute)), nil
	}
	f.signIn(t)
	f.clock.Advance(26 * time.Minute)

	require.NoError(t, f.m.RefreshIfNeeded(context.Background()))

	sess, ok := f.m.Session()
	require.True(t, ok)
	assert.Equal(t, "access-1", sess.AccessToken)
	assert.Equal(t, StateAuthenticated, f.m.State())
}

func TestRefreshIfNeeded_OverlappingCallsRotateOnce(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	release := make(chan struct{})
	f.auth.refreshFn = func(ctx context.Context, refreshToken string) (Session, error) {
		n := calls.Add(1)
		<-release
		return sessionExpiringAt(int(n), f.clock.Now().Add(30*time.Minute)), nil
	}
	f.signIn(t)
	f.clock.Advance(26 * time.Minute)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.m.RefreshIfNeeded(context.Background())
		}(i)
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
	sess, _ := f.m.Session()
	assert.Equal(t, "refresh-1", sess.RefreshToken)
}

func TestRefreshFailure_ExpiresAndNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	f.auth.refreshFn = func(ctx context.Context, refreshToken string) (Session, error) {
		return Session{}, fmt.Errorf("revoked: %w", gateway.ErrUnauthenticated)
	}
	f.auth.getSessionFn = func(ctx context.Context, accessToken string) (User, time.Time, error) {
		return User{}, time.Time{}, gateway.ErrUnauthenticated
	}
	f.signIn(t)
	f.clock.Advance(26 * time.Minute)

	err := f.m.RefreshIfNeeded(context.Background())
	assert.ErrorIs(t, err, gateway.ErrUnauthenticated)
	assert.Equal(t, StateExpired, f.m.State())
	_, err = f.m.AccessToken()
	assert.ErrorIs(t, err, ErrExpired)

	// A later visit to a protected view redirects again but stays quiet.
	decision, _ := NewGuard(f.m).Check(context.Background())
	assert.Equal(t, RedirectToLogin, decision)

	redirects, notices := f.rec.counts()
	assert.Equal(t, 2, redirects)
	assert.Equal(t, 1, notices)

	// Signing in again re-arms the notice.
	f.signIn(t)
	f.clock.Advance(26 * time.Minute)
	_ = f.m.RefreshIfNeeded(context.Background())
	_, notices = f.rec.counts()
	assert.Equal(t, 2, notices)
}

func TestRefreshTransientFailure_StaysExpiringWhileTokenValid(t *testing.T) {
	f := newFixture(t)
	f.auth.refreshFn = func(ctx context.Context, refreshToken string) (Session, error) {
		return Session{}, fmt.Errorf("dial tcp: %w", gateway.ErrTransientNetwork)
	}
	f.signIn(t)
	f.clock.Advance(26 * time.Minute)

	err := f.m.RefreshIfNeeded(context.Background())
	assert.ErrorIs(t, err, gateway.ErrTransientNetwork)
	assert.Equal(t, StateExpiring, f.m.State())
	_, notices := f.rec.counts()
	assert.Zero(t, notices)

	// Once the access token has run out the same failure expires the session.
	f.clock.Advance(5 * time.Minute)
	_ = f.m.RefreshIfNeeded(context.Background())
	assert.Equal(t, StateExpired, f.m.State())
}

func TestHandleAuthEvent_SignedOut(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	f.m.HandleAuthEvent(EventSignedOut)

	assert.Equal(t, StateAnonymous, f.m.State())
	_, ok := f.m.Session()
	assert.False(t, ok)
	redirects, notices := f.rec.counts()
	assert.Equal(t, 1, redirects)
	assert.Zero(t, notices)

	f.m.HandleAuthEvent(EventTokenRefreshed)
	redirects, _ = f.rec.counts()
	assert.Equal(t, 1, redirects)
}

func TestSignOut_RevokesRemotely(t *testing.T) {
	f := newFixture(t)
	var revoked string
	f.auth.signOutFn = func(ctx context.Context, refreshToken string) error {
		revoked = refreshToken
		return nil
	}
	f.signIn(t)

	require.NoError(t, f.m.SignOut(context.Background()))
	assert.Equal(t, "refresh-0", revoked)
	assert.Equal(t, StateAnonymous, f.m.State())
}

func TestChecksIgnoredUntilReady(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	f.auth.refreshFn = func(ctx context.Context, refreshToken string) (Session, error) {
		calls.Add(1)
		return sessionExpiringAt(1, f.clock.Now().Add(30*time.Minute)), nil
	}
	require.NoError(t, f.m.SignIn(context.Background(), "ana", "pw"))
	f.clock.Advance(26 * time.Minute)

	require.NoError(t, f.m.Check(context.Background()))
	require.NoError(t, f.m.NotifyActivity(context.Background()))
	assert.Zero(t, calls.Load())
	assert.False(t, f.m.Ready())

	f.m.MarkReady()
	require.NoError(t, f.m.Check(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestNotifyActivity_Debounced(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	f.auth.refreshFn = func(ctx context.Context, refreshToken string) (Session, error) {
		n := calls.Add(1)
		// Still inside the threshold so every check would refresh.
		return sessionExpiringAt(int(n), f.clock.Now().Add(time.Minute)), nil
	}
	f.signIn(t)
	f.clock.Advance(26 * time.Minute)

	require.NoError(t, f.m.NotifyActivity(context.Background()))
	f.clock.Advance(10 * time.Second)
	require.NoError(t, f.m.NotifyActivity(context.Background()))
	assert.Equal(t, int32(1), calls.Load())

	f.clock.Advance(21 * time.Second)
	require.NoError(t, f.m.NotifyActivity(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.m.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "expiring", StateExpiring.String())
	assert.True(t, errors.Is(ErrExpired, gateway.ErrUnauthenticated))
}
