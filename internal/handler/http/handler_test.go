package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/bimworks/portal-backend/internal/handler/http/middleware"
	"github.com/bimworks/portal-backend/internal/handler/http/response"
	"github.com/bimworks/portal-backend/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

var (
	adminPrincipal = auth.Principal{
		UserID:     "9b0c1f70-0000-4000-8000-000000000001",
		EmployeeID: "9b0c1f70-0000-4000-8000-0000000000e1",
		Email:      "hr@bimworks.id",
		Role:       user.RoleAdmin,
	}
	staffPrincipal = auth.Principal{
		UserID:     "9b0c1f70-0000-4000-8000-000000000002",
		EmployeeID: "9b0c1f70-0000-4000-8000-0000000000e2",
		Email:      "drafter@bimworks.id",
		Role:       user.RoleEmployee,
	}
)

func newTestJWT(t *testing.T) *jwt.JWTService {
	t.Helper()
	svc, err := jwt.NewJWTService("handler-test-secret", "15m", "24h", false)
	require.NoError(t, err)
	return svc
}

func asPrincipal(r *http.Request, p auth.Principal) *http.Request {
	return r.WithContext(middleware.WithPrincipal(r.Context(), p))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
