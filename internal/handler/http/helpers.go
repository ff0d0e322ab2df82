package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/handler/http/middleware"
	"github.com/bimworks/portal-backend/internal/handler/http/response"
)

const (
	maxJSONBody      = 1 << 20
	maxMultipartBody = 12 << 20
	multipartMemory  = 8 << 20
)

// principal returns the caller attached by AuthRequired, writing 401 when
// the route was mounted without it.
func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrMissingPrincipal)
	}
	return p, ok
}

// decodeJSON reads a bounded JSON body into dst, writing 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Error(op+" decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		slog.Error(op+" decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// parseMultipart bounds and parses a multipart body, writing the error.
func parseMultipart(w http.ResponseWriter, r *http.Request, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		slog.Error(op+" multipart error", "error", err)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.HandleError(w, err)
			return false
		}
		response.BadRequest(w, "Failed to parse form data", nil)
		return false
	}
	return true
}

// queryInt returns the integer query parameter or fallback when absent or
// malformed.
func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func queryPtr(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}
