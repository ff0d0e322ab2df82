package middleware

import (
	"context"
	"net/http"

	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

type principalKey struct{}

// WithPrincipal stores the authenticated caller on ctx.
func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored by AuthRequired or OptionalAuth.
func PrincipalFrom(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(auth.Principal)
	return p, ok
}

func principalFromToken(r *http.Request) (auth.Principal, error) {
	token, _, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	claims, err := token.AsMap(r.Context())
	if err != nil {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	return auth.PrincipalFromClaims(claims)
}

// AuthRequired rejects requests without a valid access token. It must run
// after jwtauth.Verifier.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromToken(r)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// OptionalAuth attaches the caller when a valid access token is present and
// lets anonymous requests through otherwise.
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal, err := principalFromToken(r); err == nil {
			r = r.WithContext(WithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}
