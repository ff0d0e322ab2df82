package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bimworks/portal-backend/internal/handler/http/response"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyLock   = 30 * time.Second
	maxIdempotencyKey = 128
)

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a POST is repeated with the
// same Idempotency-Key by the same caller. A request still in flight under
// the key gets 409. Only 2xx responses are stored; redis failures let the
// request through.
func Idempotency(rdb redis.Cmdable, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if key == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKey {
				response.BadRequest(w, "Idempotency-Key is too long", nil)
				return
			}

			userID := "anonymous"
			if p, ok := PrincipalFrom(r.Context()); ok {
				userID = p.UserID
			}
			cacheKey := fmt.Sprintf("idemp:%s:%s:%s", r.URL.Path, userID, key)
			lockKey := cacheKey + ":lock"
			ctx := r.Context()

			val, err := rdb.Get(ctx, cacheKey).Bytes()
			switch {
			case err == nil:
				var cached cachedResponse
				if err := json.Unmarshal(val, &cached); err == nil {
					w.Header().Set("Content-Type", cached.ContentType)
					w.Header().Set("Idempotent-Replayed", "true")
					w.WriteHeader(cached.Status)
					_, _ = w.Write(cached.Body)
					return
				}
				slog.Warn("discarding unreadable idempotency entry", "key", cacheKey)
			case !errors.Is(err, redis.Nil):
				slog.Warn("idempotency lookup failed", "key", cacheKey, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			locked, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLock).Result()
			if err != nil {
				slog.Warn("idempotency lock failed", "key", lockKey, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !locked {
				response.Conflict(w, "A request with this Idempotency-Key is still being processed")
				return
			}

			rec := &recordingWriter{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status >= 200 && rec.status < 300 {
				payload, _ := json.Marshal(cachedResponse{
					Status:      rec.status,
					ContentType: rec.Header().Get("Content-Type"),
					Body:        rec.body.Bytes(),
				})
				if err := rdb.Set(ctx, cacheKey, payload, ttl).Err(); err != nil {
					slog.Warn("failed to store idempotent response", "key", cacheKey, "error", err)
				}
			}
			if err := rdb.Del(ctx, lockKey).Err(); err != nil {
				slog.Warn("failed to release idempotency lock", "key", lockKey, "error", err)
			}
		})
	}
}
