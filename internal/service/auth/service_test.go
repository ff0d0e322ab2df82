package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/employee"
	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/bimworks/portal-backend/internal/pkg/jwt"
	"github.com/bimworks/portal-backend/internal/pkg/sse"
	"github.com/bimworks/portal-backend/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessExp  = "1h"
	testRefreshExp = "24h"
	testSecret     = "test-secret-key-for-jwt"
)

type fakeUsers struct {
	user.UserRepository
	byID map[string]user.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (user.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (user.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUsers) LinkGoogleAccount(_ context.Context, googleID string, email string) (user.User, error) {
	for id, u := range f.byID {
		if u.Email == email {
			provider := "google"
			u.OAuthProvider = &provider
			u.OAuthProviderID = &googleID
			f.byID[id] = u
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

type fakeEmployees struct {
	employee.EmployeeRepository
	byUserID map[string]employee.Employee
}

func (f *fakeEmployees) GetByUserID(_ context.Context, userID string) (employee.Employee, error) {
	if e, ok := f.byUserID[userID]; ok {
		return e, nil
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployees) GetByEmployeeCode(_ context.Context, code string) (employee.Employee, error) {
	for _, e := range f.byUserID {
		if e.EmployeeCode == code {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

// fakeTokens mimics the conditional revoke of the store.
type fakeTokens struct {
	mu      sync.Mutex
	owner   map[string]string
	revoked map[string]bool
	rotates atomic.Int32
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{owner: map[string]string{}, revoked: map[string]bool{}}
}

func (f *fakeTokens) Create(_ context.Context, userID string, token string, _ int64, _ auth.SessionTrackingRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner[token] = userID
	return nil
}

func (f *fakeTokens) Rotate(_ context.Context, oldToken, newToken string, _ int64, _ auth.SessionTrackingRequest) (string, error) {
	f.rotates.Add(1)
	time.Sleep(50 * time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.owner[oldToken]
	if !ok || f.revoked[oldToken] {
		return "", auth.ErrRefreshTokenRevoked
	}
	f.revoked[oldToken] = true
	f.owner[newToken] = userID
	return userID, nil
}

func (f *fakeTokens) Revoke(_ context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.owner[token]
	if !ok {
		return "", auth.ErrInvalidToken
	}
	f.revoked[token] = true
	return userID, nil
}

func (f *fakeTokens) PurgeExpired(context.Context, time.Time) (int64, error) { return 0, nil }

type recordedEvents struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordedEvents) Publish(_ string, event sse.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return 1
}

type fixture struct {
	svc       *AuthServiceImpl
	users     *fakeUsers
	employees *fakeEmployees
	tokens    *fakeTokens
	events    *recordedEvents
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hash, err := HashPassword("password123")
	require.NoError(t, err)

	users := &fakeUsers{byID: map[string]user.User{
		"user-1":  {ID: "user-1", Email: "ayu@bimworks.test", PasswordHash: &hash, Role: user.RoleEmployee},
		"user-2":  {ID: "user-2", Email: "budi@bimworks.test", PasswordHash: &hash, Role: user.RoleEmployee},
		"admin-1": {ID: "admin-1", Email: "hr@bimworks.test", PasswordHash: &hash, Role: user.RoleAdmin},
	}}
	employees := &fakeEmployees{byUserID: map[string]employee.Employee{
		"user-1": {ID: "emp-1", UserID: "user-1", EmployeeCode: "BIM-001", Status: employee.StatusActive},
		"user-2": {ID: "emp-2", UserID: "user-2", EmployeeCode: "BIM-002", Status: employee.StatusInactive},
	}}

	jwtService, err := jwt.NewJWTService(testSecret, testAccessExp, testRefreshExp, false)
	require.NoError(t, err)

	f := &fixture{users: users, employees: employees, tokens: newFakeTokens(), events: &recordedEvents{}}
	f.svc = NewAuthService(users, employees, f.tokens, jwtService, f.events)
	return f
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name       string
		req        auth.LoginRequest
		wantErr    error
		wantEmpID  string
		validation bool
	}{
		{name: "by email", req: auth.LoginRequest{Identifier: "ayu@bimworks.test", Password: "password123"}, wantEmpID: "emp-1"},
		{name: "by employee id", req: auth.LoginRequest{Identifier: "BIM-001", Password: "password123"}, wantEmpID: "emp-1"},
		{name: "admin without profile", req: auth.LoginRequest{Identifier: "hr@bimworks.test", Password: "password123"}},
		{name: "wrong password", req: auth.LoginRequest{Identifier: "ayu@bimworks.test", Password: "nope"}, wantErr: auth.ErrInvalidCredentials},
		{name: "unknown email", req: auth.LoginRequest{Identifier: "ghost@bimworks.test", Password: "password123"}, wantErr: auth.ErrInvalidCredentials},
		{name: "unknown employee id", req: auth.LoginRequest{Identifier: "BIM-999", Password: "password123"}, wantErr: auth.ErrInvalidCredentials},
		{name: "inactive employee", req: auth.LoginRequest{Identifier: "BIM-002", Password: "password123"}, wantErr: auth.ErrAccountInactive},
		{name: "missing fields", req: auth.LoginRequest{}, validation: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			resp, err := f.svc.Login(context.Background(), tt.req, auth.SessionTrackingRequest{IPAddress: "127.0.0.1"})

			switch {
			case tt.validation:
				var verrs validator.ValidationErrors
				assert.ErrorAs(t, err, &verrs)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
				assert.NotEmpty(t, resp.AccessToken)
				assert.NotEmpty(t, resp.RefreshToken)
				assert.Equal(t, tt.wantEmpID, resp.User.EmployeeID)
				assert.Greater(t, resp.RefreshTokenExpiresAt, resp.AccessTokenExpiresAt)
			}
		})
	}
}

func TestAuthService_RefreshToken_ConcurrentCallersShareOneRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, auth.LoginRequest{Identifier: "BIM-001", Password: "password123"}, auth.SessionTrackingRequest{})
	require.NoError(t, err)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]auth.TokenResponse, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: login.RefreshToken}, auth.SessionTrackingRequest{})
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].RefreshToken, results[i].RefreshToken)
	}
	assert.Equal(t, int32(1), f.tokens.rotates.Load())
	assert.NotEqual(t, login.RefreshToken, results[0].RefreshToken)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, sse.EventTokenRefreshed, f.events.events[0].Event)
	assert.Equal(t, "user-1", f.events.events[0].UserID)
	assert.Equal(t, map[string]int64{"expires_at": results[0].AccessTokenExpiresAt}, f.events.events[0].Data)

	_, err = f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: login.RefreshToken}, auth.SessionTrackingRequest{})
	assert.ErrorIs(t, err, auth.ErrRefreshTokenRevoked)
}

func TestAuthService_RefreshToken_RejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, auth.LoginRequest{Identifier: "BIM-001", Password: "password123"}, auth.SessionTrackingRequest{})
	require.NoError(t, err)

	_, err = f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: login.AccessToken}, auth.SessionTrackingRequest{})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestAuthService_Logout_PublishesSignedOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, auth.LoginRequest{Identifier: "ayu@bimworks.test", Password: "password123"}, auth.SessionTrackingRequest{})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, login.RefreshToken))
	require.Len(t, f.events.events, 1)
	assert.Equal(t, sse.EventSignedOut, f.events.events[0].Event)
	assert.Equal(t, "user-1", f.events.events[0].UserID)

	_, err = f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: login.RefreshToken}, auth.SessionTrackingRequest{})
	assert.ErrorIs(t, err, auth.ErrRefreshTokenRevoked)

	assert.ErrorIs(t, f.svc.Logout(ctx, ""), auth.ErrRefreshTokenCookieNotFound)
}

func TestAuthService_GetSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, auth.LoginRequest{Identifier: "ayu@bimworks.test", Password: "password123"}, auth.SessionTrackingRequest{})
	require.NoError(t, err)

	session, err := f.svc.GetSession(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", session.User.EmployeeID)
	assert.Equal(t, login.AccessTokenExpiresAt, session.ExpiresAt)

	_, err = f.svc.GetSession(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	emp := f.employees.byUserID["user-1"]
	emp.Status = employee.StatusInactive
	f.employees.byUserID["user-1"] = emp

	_, err = f.svc.GetSession(ctx, login.AccessToken)
	assert.ErrorIs(t, err, auth.ErrAccountInactive)
}

func TestAuthService_LoginWithGoogle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.LoginWithGoogle(ctx, "ayu@bimworks.test", "g-123", auth.SessionTrackingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "emp-1", resp.User.EmployeeID)
	require.NotNil(t, f.users.byID["user-1"].OAuthProviderID)
	assert.Equal(t, "g-123", *f.users.byID["user-1"].OAuthProviderID)

	_, err = f.svc.LoginWithGoogle(ctx, "stranger@gmail.com", "g-999", auth.SessionTrackingRequest{})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}
