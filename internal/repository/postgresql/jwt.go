package postgresql

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type refreshTokenRepositoryImpl struct {
	db *database.DB
}

// NewRefreshTokenRepository creates a new instance of auth.RefreshTokenRepository.
func NewRefreshTokenRepository(db *database.DB) auth.RefreshTokenRepository {
	return &refreshTokenRepositoryImpl{db: db}
}

// hashToken hashes the input string using SHA256 and encodes the result in base64.
func hashToken(input string) string {
	hash := sha256.Sum256([]byte(input))
	return base64.StdEncoding.EncodeToString(hash[:])
}

func (r *refreshTokenRepositoryImpl) Create(ctx context.Context, userID string, token string, expiresAt int64, track auth.SessionTrackingRequest) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := q.Exec(ctx, query, userID, hashToken(token), time.Unix(expiresAt, 0).UTC(), track.UserAgent, track.IPAddress)
	return mapError(err)
}

// Rotate revokes the presented token with a conditional UPDATE so two
// concurrent rotations of the same token cannot both succeed.
func (r *refreshTokenRepositoryImpl) Rotate(ctx context.Context, oldToken string, newToken string, expiresAt int64, track auth.SessionTrackingRequest) (string, error) {
	var userID string
	err := WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, r.db)

		revoke := `
			UPDATE refresh_tokens
			SET revoked_at = NOW()
			WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()
			RETURNING id, user_id
		`
		var oldID string
		if err := q.QueryRow(txCtx, revoke, hashToken(oldToken)).Scan(&oldID, &userID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return auth.ErrRefreshTokenRevoked
			}
			return mapError(err)
		}

		insert := `
			INSERT INTO refresh_tokens (user_id, token_hash, expires_at, user_agent, ip_address)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		var newID string
		err := q.QueryRow(txCtx, insert, userID, hashToken(newToken), time.Unix(expiresAt, 0).UTC(), track.UserAgent, track.IPAddress).Scan(&newID)
		if err != nil {
			return mapError(err)
		}

		_, err = q.Exec(txCtx, `UPDATE refresh_tokens SET replaced_by = $1 WHERE id = $2`, newID, oldID)
		return mapError(err)
	})
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (r *refreshTokenRepositoryImpl) Revoke(ctx context.Context, token string) (string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE refresh_tokens
		SET revoked_at = COALESCE(revoked_at, NOW())
		WHERE token_hash = $1
		RETURNING user_id
	`
	var userID string
	if err := q.QueryRow(ctx, query, hashToken(token)).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", auth.ErrInvalidToken
		}
		return "", mapError(err)
	}
	return userID, nil
}

func (r *refreshTokenRepositoryImpl) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1 OR (revoked_at IS NOT NULL AND revoked_at < $1)
	`
	tag, err := q.Exec(ctx, query, before)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}
